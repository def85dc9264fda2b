// Package tree holds the append-only growth tree. Nodes live in an
// arena slice and refer to each other by stable integer index, so
// parent back-pointers never form ownership cycles and callers can
// hold node IDs across growth without invalidation.
package tree

import "github.com/kingrea/tendril/internal/geom"

// Role classifies a node relative to the user's path through the tree.
type Role int

const (
	// RoleUnassigned marks plain growth nodes that are neither on the
	// chosen path nor inside a rejected branch.
	RoleUnassigned Role = iota
	// RoleSelected marks nodes on the contiguous root-to-current path.
	RoleSelected
	// RoleMissed marks nodes inside branches the user did not choose.
	RoleMissed
)

func (r Role) String() string {
	switch r {
	case RoleSelected:
		return "selected"
	case RoleMissed:
		return "missed"
	default:
		return "unassigned"
	}
}

// NoParent is the parent index of the root node.
const NoParent = -1

// Node is one growth point. Token and Probability are set at most
// once, when a user choice lands on the node; HasToken distinguishes
// an unset probability from a genuine zero.
type Node struct {
	ID          int
	Pos         geom.Vec2
	Parent      int
	Children    []int
	Role        Role
	Token       string
	Probability float64
	HasToken    bool
}

// Tree is the arena. The zero value is not usable; construct with New.
type Tree struct {
	nodes []Node
}

// New creates a tree containing only the root at pos. The root starts
// on the selected path since the current pointer begins there.
func New(root geom.Vec2) *Tree {
	return &Tree{nodes: []Node{{
		ID:     0,
		Pos:    root,
		Parent: NoParent,
		Role:   RoleSelected,
	}}}
}

// Len returns the node count.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a pointer into the arena. The pointer stays valid only
// until the next Add; callers must not retain it across growth.
func (t *Tree) Node(id int) *Node { return &t.nodes[id] }

// Add appends a child of parent at pos with the given role and returns
// its ID. The parent stops being a tip as a consequence.
func (t *Tree) Add(parent int, pos geom.Vec2, role Role) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Pos:    pos,
		Parent: parent,
		Role:   role,
	})
	p := &t.nodes[parent]
	p.Children = append(p.Children, id)
	return id
}

// IsTip reports whether the node has no children yet. Only tips grow.
func (t *Tree) IsTip(id int) bool { return len(t.nodes[id].Children) == 0 }

// SetToken records the committed choice on a node. It is a no-op if
// the node already carries a token.
func (t *Tree) SetToken(id int, token string, probability float64) {
	n := &t.nodes[id]
	if n.HasToken {
		return
	}
	n.Token = token
	n.Probability = probability
	n.HasToken = true
}

// PathToRoot returns the IDs from id up to the root, inclusive.
func (t *Tree) PathToRoot(id int) []int {
	var path []int
	for id != NoParent {
		path = append(path, id)
		id = t.nodes[id].Parent
	}
	return path
}

// Nodes returns a copy of the arena for read-only consumers. Children
// slices are shared; callers must treat them as immutable.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}
