package scene

import "github.com/chazu/zfight/pkg/geom"

// Flatten walks the scene depth-first, pre-order, starting from each root in
// turn, and returns the boxes of the cube nodes it meets. Groups contribute
// only their descendants; locators and meshes are skipped. A node reachable
// along several paths, or through a cycle, is visited once.
//
// The returned boxes are the scene's own, not copies.
func Flatten(g *Graph) []*geom.Box {
	boxes := make([]*geom.Box, 0)
	visited := make(map[NodeID]bool)

	var walk func(id NodeID)
	walk = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true

		n := g.Nodes[id]
		if n == nil {
			return
		}
		if d, ok := n.Data.(CubeData); ok && n.Kind == NodeCube && d.Box != nil {
			boxes = append(boxes, d.Box)
		}
		for _, cid := range n.Children {
			walk(cid)
		}
	}

	for _, rid := range g.Roots {
		walk(rid)
	}
	return boxes
}
