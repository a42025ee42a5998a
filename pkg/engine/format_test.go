package engine

import (
	"strings"
	"testing"

	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/scene"
)

func TestFormatNum(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		1:        "1",
		-2.5:     "-2.5",
		0.05:     "0.05",
		0.00001:  "0.00001",
		1234.125: "1234.125",
	}
	for v, want := range tests {
		if got := formatNum(v); got != want {
			t.Errorf("formatNum(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestFormatCube(t *testing.T) {
	g := scene.New()
	id := scene.NewNodeID("shelf")
	g.AddNode(&scene.Node{
		ID: id, Kind: scene.NodeCube, Name: "shelf",
		Data: scene.CubeData{Box: &geom.Box{
			Name: "shelf", From: geom.Vec3{Y: 4}, To: geom.Vec3{X: 16, Y: 5, Z: 8}, Inflate: 0.05,
		}},
	})
	g.AddRoot(id)

	want := `(cube "shelf" :from (vec3 0 4 0) :to (vec3 16 5 8) :inflate 0.05)` + "\n"
	if got := Format(g); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatNested(t *testing.T) {
	g := mustEval(t, `
(group "table"
  (cube "top" :from (vec3 0 10 0) :to (vec3 16 12 16))
  (group "legs"
    (cube "leg1" :from (vec3 0 0 0) :to (vec3 2 10 2))))
`)
	want := strings.Join([]string{
		`(group "table"`,
		`  (cube "top" :from (vec3 0 10 0) :to (vec3 16 12 16))`,
		`  (group "legs"`,
		`    (cube "leg1" :from (vec3 0 0 0) :to (vec3 2 10 2))))`,
		``,
	}, "\n")
	if got := Format(g); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	src := `
(group "table"
  (cube "top" :from (vec3 0 10 0) :to (vec3 16 12 16) :inflate 0.01)
  (group "legs"
    (cube "leg1" :from (vec3 0 0 0) :to (vec3 2 10 2))
    (cube :from (vec3 14 0 0) :to (vec3 16 10 2)))
  (locator "pivot" :at (vec3 8 0 8))
  (mesh "decal" :vertices 4))
(cube "floor" :from (vec3 -8 -1 -8) :to (vec3 24 0 24))
`
	first := mustEval(t, src)

	// Simulate a fix, then persist and reload.
	scene.Flatten(first)[0].Inflate = 0.06
	again := mustEval(t, Format(first))

	a, b := scene.Flatten(first), scene.Flatten(again)
	if len(a) != len(b) {
		t.Fatalf("box count %d != %d", len(a), len(b))
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Errorf("box %d: %+v != %+v", i, *a[i], *b[i])
		}
	}
	if again.NodeCount() != first.NodeCount() {
		t.Errorf("node count %d != %d", again.NodeCount(), first.NodeCount())
	}
}

func TestFormatSharedChildUsesRef(t *testing.T) {
	g := mustEval(t, `
(cube "shelf" :from (vec3 0 0 0) :to (vec3 4 1 4))
(group "a" (ref "shelf"))
(group "b" (ref "shelf"))
`)
	out := Format(g)
	if strings.Count(out, `(cube "shelf"`) != 1 {
		t.Errorf("shelf should be written once:\n%s", out)
	}
	if !strings.Contains(out, `(ref "shelf")`) {
		t.Errorf("second use should be a ref:\n%s", out)
	}
	mustEval(t, out)
}

// sharedAnonScene builds two groups that both contain one unnamed cube.
// The script language cannot express this, so the scene is built directly.
func sharedAnonScene(t *testing.T, extraName string) *scene.Graph {
	t.Helper()
	g := scene.New()
	cube := scene.NewNodeID("cube/_anon_1")
	g.AddNode(&scene.Node{
		ID: cube, Kind: scene.NodeCube,
		Data: scene.CubeData{Box: &geom.Box{To: geom.Vec3{X: 1, Y: 1, Z: 1}}},
	})
	g.AddRoot(cube)
	for _, name := range []string{"a", "b"} {
		id := scene.NewNodeID(name)
		g.AddNode(&scene.Node{ID: id, Kind: scene.NodeGroup, Name: name, Data: scene.GroupData{}})
		g.AddRoot(id)
		if err := g.Adopt(id, cube); err != nil {
			t.Fatalf("Adopt: %v", err)
		}
	}
	if extraName != "" {
		id := scene.NewNodeID(extraName)
		g.AddNode(&scene.Node{ID: id, Kind: scene.NodeLocator, Name: extraName, Data: scene.LocatorData{}})
		g.AddRoot(id)
	}
	return g
}

func TestFormatSharedUnnamedCubeGetsName(t *testing.T) {
	out := Format(sharedAnonScene(t, ""))

	if strings.Count(out, `(cube "shared-1"`) != 1 {
		t.Errorf("shared cube should be written once under a generated name:\n%s", out)
	}
	if !strings.Contains(out, `(ref "shared-1")`) {
		t.Errorf("second use should be a ref:\n%s", out)
	}

	again := mustEval(t, out)
	if n := len(scene.Flatten(again)); n != 1 {
		t.Errorf("reloaded scene has %d cubes, want 1", n)
	}
	for _, name := range []string{"a", "b"} {
		grp := again.Lookup(name)
		if grp == nil || len(grp.Children) != 1 {
			t.Errorf("group %q lost the shared cube after reload: %+v", name, grp)
		}
	}
}

func TestFormatSharedNameAvoidsExisting(t *testing.T) {
	out := Format(sharedAnonScene(t, "shared-1"))

	if !strings.Contains(out, `(cube "shared-2"`) || !strings.Contains(out, `(ref "shared-2")`) {
		t.Errorf("generated name should skip the taken shared-1:\n%s", out)
	}
	mustEval(t, out)
}
