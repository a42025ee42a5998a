// Package kernel defines the geometry kernel used to turn boxes and conflict
// regions into renderable meshes. Backends live in the sdfx and manifold
// subpackages.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and meshes them.
type Kernel interface {
	// Box returns a box with its minimum corner at the origin.
	Box(x, y, z float64) Solid

	Union(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}
