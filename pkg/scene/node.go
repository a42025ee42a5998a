package scene

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/zfight/pkg/geom"
)

// NodeID is a content-addressed node identifier: the sha256 of the node's
// path in the scene.
type NodeID [sha256.Size]byte

// NewNodeID derives a NodeID from a path string such as "group/shelf".
func NewNodeID(path string) NodeID {
	return NodeID(sha256.Sum256([]byte(path)))
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex characters, for log and error messages.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:4])
}

// IsZero reports whether id is the zero value.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// NodeKind enumerates the element types a scene can contain.
type NodeKind int

const (
	NodeCube    NodeKind = iota // axis-aligned box
	NodeGroup                   // parent of other elements
	NodeLocator                 // point marker, no volume
	NodeMesh                    // free-form mesh, not checked
)

func (k NodeKind) String() string {
	switch k {
	case NodeCube:
		return "cube"
	case NodeGroup:
		return "group"
	case NodeLocator:
		return "locator"
	case NodeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Node is one element of the scene tree.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// CubeData carries the box a cube node owns. The pointer is shared with the
// list Flatten returns, so fixes applied to that list land in the scene.
type CubeData struct {
	Box *geom.Box `json:"box"`
}

type GroupData struct {
	Description string `json:"description,omitempty"`
}

type LocatorData struct {
	Position geom.Vec3 `json:"position"`
}

type MeshData struct {
	VertexCount int `json:"vertex_count"`
}

func (CubeData) nodeData()    {}
func (GroupData) nodeData()   {}
func (LocatorData) nodeData() {}
func (MeshData) nodeData()    {}
