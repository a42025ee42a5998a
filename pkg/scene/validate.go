package scene

import (
	"fmt"
	"sort"

	"github.com/chazu/zfight/pkg/geom"
)

// Severity indicates whether a finding makes the scene unusable or is
// advisory.
type Severity int

const (
	SeverityError   Severity = iota // scene cannot be flattened reliably
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation result.
type Finding struct {
	NodeID   NodeID   // zero for graph-level findings
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", f.Severity, f.NodeID.Short(), f.Message)
}

// Validate runs the structural checks on a scene. It never mutates the graph.
func Validate(g *Graph) []Finding {
	var out []Finding
	out = append(out, validateCycles(g)...)
	out = append(out, validateReferences(g)...)
	out = append(out, validateNames(g)...)
	out = append(out, validateCubes(g)...)
	return out
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateCycles runs a three-colour DFS over child edges. Reaching a gray
// node means the current path loops back on itself.
func validateCycles(g *Graph) []Finding {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var out []Finding

	var visit func(id NodeID)
	visit = func(id NodeID) {
		switch color[id] {
		case black:
			return
		case gray:
			out = append(out, Finding{
				NodeID:   id,
				Message:  "cycle detected through child edges",
				Severity: SeverityError,
			})
			return
		}
		color[id] = gray
		if n := g.Nodes[id]; n != nil {
			for _, cid := range n.Children {
				visit(cid)
			}
		}
		color[id] = black
	}

	for _, id := range sortedIDs(g) {
		if color[id] == white {
			visit(id)
		}
	}
	return out
}

func validateReferences(g *Graph) []Finding {
	var out []Finding
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			out = append(out, Finding{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		for _, cid := range n.Children {
			if _, ok := g.Nodes[cid]; !ok {
				out = append(out, Finding{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s does not exist", cid.Short()),
					Severity: SeverityError,
				})
			}
		}
		if n.Kind == NodeCube {
			if d, ok := n.Data.(CubeData); !ok || d.Box == nil {
				out = append(out, Finding{
					NodeID:   id,
					Message:  "cube node has no box",
					Severity: SeverityError,
				})
			}
		}
	}
	return out
}

func validateNames(g *Graph) []Finding {
	byName := make(map[string]int)
	for _, n := range g.Nodes {
		if n.Name != "" {
			byName[n.Name]++
		}
	}
	names := make([]string, 0, len(byName))
	for name, count := range byName {
		if count > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Finding
	for _, name := range names {
		out = append(out, Finding{
			Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, byName[name]),
			Severity: SeverityError,
		})
	}
	return out
}

// validateCubes warns about cubes whose effective bounds have no volume.
// They are still scanned, but can only ever produce face conflicts.
func validateCubes(g *Graph) []Finding {
	var out []Finding
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		d, ok := n.Data.(CubeData)
		if !ok || d.Box == nil {
			continue
		}
		if geom.EffectiveBounds(d.Box).Degenerate() {
			out = append(out, Finding{
				NodeID:   id,
				Message:  fmt.Sprintf("cube %q has zero or negative extent", n.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

// sortedIDs gives validation a stable order so findings are reproducible.
func sortedIDs(g *Graph) []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
	return ids
}
