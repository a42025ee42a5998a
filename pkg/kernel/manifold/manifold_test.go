//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/zfight/pkg/kernel"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-6 {
			t.Errorf("min[%d] = %f, want %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Errorf("max[%d] = %f, want %f", i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := mustNew(t)
	assertBounds(t, k.Box(10, 20, 30), [3]float64{0, 0, 0}, [3]float64{10, 20, 30})
}

func TestTranslate(t *testing.T) {
	k := mustNew(t)
	moved := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	assertBounds(t, moved, [3]float64{100, 200, 300}, [3]float64{110, 210, 310})
}

func TestUnion(t *testing.T) {
	k := mustNew(t)
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 2, 0, 0)
	assertBounds(t, k.Union(a, b), [3]float64{0, 0, 0}, [3]float64{3, 1, 1})
}

func TestIntersection(t *testing.T) {
	k := mustNew(t)
	a := k.Box(2, 2, 2)
	b := k.Translate(k.Box(2, 2, 2), 1, 1, 1)
	assertBounds(t, k.Intersection(a, b), [3]float64{1, 1, 1}, [3]float64{2, 2, 2})
}

// A thin slab is reproduced exactly, which marching cubes cannot do.
func TestThinSlab(t *testing.T) {
	k := mustNew(t)
	slab := k.Translate(k.Box(4, 0.01, 4), 0, 0.995, 0)
	mesh, err := k.ToMesh(slab)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if mesh.TriangleCount() < 12 {
		t.Errorf("triangle count = %d, want >= 12", mesh.TriangleCount())
	}
	for i := 1; i < len(mesh.Vertices); i += 3 {
		y := mesh.Vertices[i]
		if y < 0.99 || y > 1.01 {
			t.Fatalf("vertex y = %f outside slab", y)
		}
	}
}

func TestToMesh(t *testing.T) {
	k := mustNew(t)
	mesh, err := k.ToMesh(k.Box(10, 10, 10))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("ToMesh() returned empty mesh for a box")
	}
	// Manifold may split vertices along sharp edges, but a box is always
	// at least 12 triangles.
	if mesh.TriangleCount() < 12 {
		t.Errorf("triangle count = %d, want >= 12", mesh.TriangleCount())
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Errorf("normals length = %d, vertices length = %d", len(mesh.Normals), len(mesh.Vertices))
	}
}

func TestToMeshNil(t *testing.T) {
	k := mustNew(t)
	if _, err := k.ToMesh(nil); err == nil {
		t.Error("expected error for nil solid")
	}
}
