// Package tree holds the call tree built during a tracing session: a rooted,
// append-only tree of observed invocations.
package tree

import (
	"errors"
	"fmt"
)

// ErrNoSuchParent is returned by Insert when the parent ID does not refer to
// a node already in the tree.
var ErrNoSuchParent = errors.New("parent node not present in tree")

// NodeID identifies a node within one tree. IDs are assigned from a
// monotonically increasing counter; the root is always ID 0.
type NodeID int

// RootID is the ID of every tree's root node.
const RootID NodeID = 0

// Node is a single observed invocation. Names are not unique: recursive or
// repeated calls to the same function produce distinct nodes with the same
// name. Nodes are never mutated after insertion.
type Node struct {
	ID     NodeID  `json:"id"`
	Parent *NodeID `json:"parent,omitempty"` // nil for the root
	Name   string  `json:"name"`
}

// Tree is a rooted tree of invocations. It is append-only: nodes can be
// inserted but never removed or renamed. Not safe for concurrent use; the
// tracer mutates it from a single pause handler.
type Tree struct {
	nodes    []Node            // insertion order, nodes[0] is the root
	children map[NodeID][]NodeID
	next     NodeID
}

// New creates a tree containing only a root node with the given name.
func New(rootName string) *Tree {
	t := &Tree{children: make(map[NodeID][]NodeID)}
	t.nodes = append(t.nodes, Node{ID: t.next, Name: rootName})
	t.next++
	return t
}

// Insert adds a new invocation under parent and returns its ID.
// The parent must already be present: the tree never holds forward
// references.
func (t *Tree) Insert(parent NodeID, name string) (NodeID, error) {
	if !t.has(parent) {
		return 0, fmt.Errorf("insert %q: %w", name, ErrNoSuchParent)
	}
	id := t.next
	t.next++
	p := parent
	t.nodes = append(t.nodes, Node{ID: id, Parent: &p, Name: name})
	t.children[parent] = append(t.children[parent], id)
	return id, nil
}

// Parent returns the parent of id. ok is false for the root or an unknown ID.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	n, ok := t.lookup(id)
	if !ok || n.Parent == nil {
		return 0, false
	}
	return *n.Parent, true
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) (Node, bool) {
	return t.lookup(id)
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Nodes returns all nodes in insertion order. The returned slice is a copy.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Children returns the IDs of id's children in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	kids := t.children[id]
	out := make([]NodeID, len(kids))
	copy(out, kids)
	return out
}

// Walk visits every node depth-first, children in insertion order, calling
// fn with the node and its depth below the root. Walk stops early if fn
// returns false.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	t.walk(RootID, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(Node, int) bool) bool {
	n, _ := t.lookup(id)
	if !fn(n, depth) {
		return false
	}
	for _, kid := range t.children[id] {
		if !t.walk(kid, depth+1, fn) {
			return false
		}
	}
	return true
}

func (t *Tree) has(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree) lookup(id NodeID) (Node, bool) {
	if !t.has(id) {
		return Node{}, false
	}
	// IDs are dense and assigned in insertion order, so the slice index is
	// the ID itself.
	return t.nodes[id], true
}
