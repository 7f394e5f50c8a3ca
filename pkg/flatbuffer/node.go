/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: node.go
Description: The abstract tree unit. Every node is owned by its Tree's arena and
refers to its parent by handle, so the parent link never implies ownership.
*/

package flatbuffer

// NodeID is a handle into a Tree's node arena.
type NodeID int

// NoNode is the parent handle of root nodes.
const NoNode NodeID = -1

// Node is a decoded position in the buffer.
type Node interface {
	// ID returns the node's handle in its tree.
	ID() NodeID
	// Offset returns the absolute offset the node was built at.
	Offset() int
	// Parent returns the parent's handle, or NoNode.
	Parent() NodeID
	// Name returns a short display name.
	Name() string
	// Tree returns the arena that owns the node.
	Tree() *Tree
}

// nodeBase carries the fields shared by every node kind.
type nodeBase struct {
	tree   *Tree
	id     NodeID
	offset int
	parent NodeID
	name   string
}

func (n *nodeBase) ID() NodeID     { return n.id }
func (n *nodeBase) Offset() int    { return n.offset }
func (n *nodeBase) Parent() NodeID { return n.parent }
func (n *nodeBase) Name() string   { return n.name }
func (n *nodeBase) Tree() *Tree    { return n.tree }

func (n *nodeBase) data() []byte { return n.tree.data }

// attach is implemented by every node kind so the arena can assign handles.
type attach interface {
	Node
	base() *nodeBase
}

func (n *nodeBase) base() *nodeBase { return n }
