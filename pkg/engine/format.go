package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/scene"
)

// Format writes a scene back out as a script that Evaluate turns into an
// equivalent scene. It is how fixed geometry is persisted.
//
// A node reachable from several groups is written in full once and as a
// (ref "name") afterwards. An unnamed shared node is given a generated
// "shared-N" name so that every use can refer to it.
func Format(g *scene.Graph) string {
	f := &formatter{
		g:       g,
		written: make(map[scene.NodeID]bool),
		refs:    make(map[scene.NodeID]int),
		names:   make(map[scene.NodeID]string),
		taken:   make(map[string]bool),
	}
	for _, rid := range g.Roots {
		f.refs[rid]++
	}
	for _, n := range g.Nodes {
		for _, cid := range n.Children {
			f.refs[cid]++
		}
		if n.Name != "" {
			f.taken[n.Name] = true
		}
	}
	for _, rid := range g.Roots {
		f.node(rid, 0)
	}
	return f.sb.String()
}

type formatter struct {
	g       *scene.Graph
	sb      strings.Builder
	written map[scene.NodeID]bool
	refs    map[scene.NodeID]int
	names   map[scene.NodeID]string
	taken   map[string]bool
	shared  int
}

// name returns the name a node is written under.
func (f *formatter) name(n *scene.Node) string {
	if n.Name != "" || f.refs[n.ID] < 2 {
		return n.Name
	}
	if name, ok := f.names[n.ID]; ok {
		return name
	}
	var name string
	for {
		f.shared++
		name = fmt.Sprintf("shared-%d", f.shared)
		if !f.taken[name] {
			break
		}
	}
	f.taken[name] = true
	f.names[n.ID] = name
	return name
}

func (f *formatter) node(id scene.NodeID, depth int) {
	n := f.g.Nodes[id]
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	name := f.name(n)

	if f.written[id] {
		fmt.Fprintf(&f.sb, "%s(ref %q)\n", indent, name)
		return
	}
	f.written[id] = true

	f.sb.WriteString(indent)
	f.sb.WriteString("(")
	f.sb.WriteString(n.Kind.String())
	if name != "" {
		fmt.Fprintf(&f.sb, " %q", name)
	}

	switch d := n.Data.(type) {
	case scene.CubeData:
		if d.Box != nil {
			fmt.Fprintf(&f.sb, " :from %s :to %s", formatVec(d.Box.From), formatVec(d.Box.To))
			if d.Box.Inflate != 0 {
				fmt.Fprintf(&f.sb, " :inflate %s", formatNum(d.Box.Inflate))
			}
		}
	case scene.LocatorData:
		fmt.Fprintf(&f.sb, " :at %s", formatVec(d.Position))
	case scene.MeshData:
		fmt.Fprintf(&f.sb, " :vertices %d", d.VertexCount)
	}

	if len(n.Children) == 0 {
		f.sb.WriteString(")\n")
		return
	}
	f.sb.WriteString("\n")
	for _, cid := range n.Children {
		f.node(cid, depth+1)
	}
	// Close on the last child's line.
	out := strings.TrimSuffix(f.sb.String(), "\n")
	f.sb.Reset()
	f.sb.WriteString(out)
	f.sb.WriteString(")\n")
}

func formatVec(v geom.Vec3) string {
	return fmt.Sprintf("(vec3 %s %s %s)", formatNum(v.X), formatNum(v.Y), formatNum(v.Z))
}

// formatNum prints the shortest decimal that round-trips, without an
// exponent.
func formatNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}
