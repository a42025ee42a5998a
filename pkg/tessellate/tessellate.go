// Package tessellate turns a scene and its conflicts into triangle meshes
// using a geometry kernel: one mesh per cube, and one highlight mesh per
// conflict region.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/kernel"
	"github.com/chazu/zfight/pkg/resolve"
	"github.com/chazu/zfight/pkg/scene"
)

// slabFraction sets how thick a zero-thickness contact region is drawn,
// relative to the region's longest side.
const slabFraction = 0.05

// minSlab is the thinnest slab drawn, for contacts that are also tiny in
// their other dimensions.
const minSlab = 1e-3

// Tessellate meshes every cube of the scene, in Flatten order, at its
// effective bounds. Cubes with no volume are skipped. It never mutates the
// scene.
func Tessellate(g *scene.Graph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for i, b := range scene.Flatten(g) {
		bounds := geom.EffectiveBounds(b)
		if bounds.Degenerate() {
			continue
		}
		mesh, err := k.ToMesh(boxSolid(k, bounds))
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", resolve.DisplayName(b, i), err)
		}
		mesh.Name = resolve.DisplayName(b, i)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// ConflictRegions meshes the region each conflict is about. Interpenetrating
// pairs get the kernel intersection of the two boxes. Face contacts have no
// volume, so the contact (or the sub-tolerance gap) is drawn as a thin slab.
func ConflictRegions(conflicts []resolve.Conflict, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(conflicts))
	for _, c := range conflicts {
		solid := regionSolid(k, c)
		if solid == nil {
			continue
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: conflict %s: %w", c, err)
		}
		mesh.Name = c.NameA + " ↔ " + c.NameB
		mesh.Conflict = true
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Overlay unions every conflict region into a single highlight mesh. With
// no conflicts it returns an empty mesh.
func Overlay(conflicts []resolve.Conflict, k kernel.Kernel) (*kernel.Mesh, error) {
	var union kernel.Solid
	for _, c := range conflicts {
		s := regionSolid(k, c)
		if s == nil {
			continue
		}
		if union == nil {
			union = s
		} else {
			union = k.Union(union, s)
		}
	}
	if union == nil {
		return &kernel.Mesh{Conflict: true}, nil
	}
	mesh, err := k.ToMesh(union)
	if err != nil {
		return nil, fmt.Errorf("tessellate: overlay: %w", err)
	}
	mesh.Name = "conflicts"
	mesh.Conflict = true
	return mesh, nil
}

func boxSolid(k kernel.Kernel, b geom.Bounds) kernel.Solid {
	size := b.Size()
	return k.Translate(k.Box(size.X, size.Y, size.Z), b.Min.X, b.Min.Y, b.Min.Z)
}

func regionSolid(k kernel.Kernel, c resolve.Conflict) kernel.Solid {
	if c.A == nil || c.B == nil {
		return nil
	}
	ba, bb := geom.EffectiveBounds(c.A), geom.EffectiveBounds(c.B)
	if c.Result.Volumetric(c.Tolerance) {
		return k.Intersection(boxSolid(k, ba), boxSolid(k, bb))
	}
	return boxSolid(k, contactRegion(ba, bb))
}

// contactRegion returns the region between two bounds that touch or nearly
// touch. On an axis where they are separated by a small gap the region spans
// the gap. Flat axes are padded into a slab centred on the contact.
func contactRegion(a, b geom.Bounds) geom.Bounds {
	var r geom.Bounds
	longest := 0.0
	for _, ax := range geom.Axes {
		lo := math.Max(a.Min.Get(ax), b.Min.Get(ax))
		hi := math.Min(a.Max.Get(ax), b.Max.Get(ax))
		if lo > hi {
			lo, hi = hi, lo
		}
		r.Min = r.Min.With(ax, lo)
		r.Max = r.Max.With(ax, hi)
		longest = math.Max(longest, hi-lo)
	}

	slab := math.Max(longest*slabFraction, minSlab)
	for _, ax := range geom.Axes {
		lo, hi := r.Min.Get(ax), r.Max.Get(ax)
		if hi-lo >= slab {
			continue
		}
		mid := (lo + hi) / 2
		r.Min = r.Min.With(ax, mid-slab/2)
		r.Max = r.Max.With(ax, mid+slab/2)
	}
	return r
}
