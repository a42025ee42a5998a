package scene

import "fmt"

// Graph is a scene: a set of nodes, the top-level roots in display order and
// an index from element name to node.
type Graph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
}

// New creates an empty scene.
func New() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a top-level element.
func (g *Graph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Adopt appends children to parent's child list. Any child that was a root
// is detached from the root list, so it is reached only through parent.
func (g *Graph) Adopt(parent NodeID, children ...NodeID) error {
	p := g.Nodes[parent]
	if p == nil {
		return fmt.Errorf("scene: adopt: no parent node %s", parent.Short())
	}
	adopted := make(map[NodeID]bool, len(children))
	for _, cid := range children {
		if cid == parent {
			return fmt.Errorf("scene: adopt: node %s cannot contain itself", parent.Short())
		}
		p.Children = append(p.Children, cid)
		adopted[cid] = true
	}
	roots := g.Roots[:0]
	for _, rid := range g.Roots {
		if !adopted[rid] {
			roots = append(roots, rid)
		}
	}
	g.Roots = roots
	return nil
}

// Lookup returns the node with the given element name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// Get returns the node with the given ID, or nil.
func (g *Graph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Children returns the child nodes of the given node.
func (g *Graph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// Cubes returns every cube node in the graph, in no particular order. Use
// Flatten for the traversal order the resolver sees.
func (g *Graph) Cubes() []*Node {
	var cubes []*Node
	for _, n := range g.Nodes {
		if n.Kind == NodeCube {
			cubes = append(cubes, n)
		}
	}
	return cubes
}
