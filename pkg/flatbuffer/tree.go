/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tree.go
Description: Node arena and root resolution. A Tree owns every node materialized from
one buffer; nodes are appended only after they decode cleanly, so a failed read never
leaves partial state behind.
*/

package flatbuffer

// MinBufferSize is the smallest buffer that can hold a root reference, a table and
// an empty vtable.
const MinBufferSize = 12

// Tree is the arena of nodes decoded from one immutable buffer. It is not safe for
// concurrent use.
type Tree struct {
	data  []byte
	nodes []Node
	root  NodeID
}

// IsSizeValid reports whether data is large enough to contain a rooted table.
func IsSizeValid(data []byte) bool {
	return len(data) >= MinBufferSize
}

// ReadRoot treats offset 0 as a reference slot and decodes the root table it points
// to. The buffer is referenced, never copied or modified.
func ReadRoot(data []byte) (*Table, error) {
	if len(data) < 4 {
		return nil, layoutErr(0, "buffer of %d bytes has no root reference", len(data))
	}
	rootOffset, _ := ReadUint32(data, 0)
	if int(rootOffset) >= len(data) {
		return nil, layoutErr(0, "root offset 0x%X exceeds buffer length 0x%X", rootOffset, len(data))
	}

	t := &Tree{data: data, root: NoNode}
	root, err := newTable(t, int(rootOffset), NoNode, "Root")
	if err != nil {
		return nil, err
	}
	t.root = root.id
	return root, nil
}

// add assigns n the next handle and records it in the arena.
func (t *Tree) add(n attach) {
	b := n.base()
	b.tree = t
	b.id = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
}

// Data returns the buffer the tree decodes from.
func (t *Tree) Data() []byte { return t.data }

// Len returns the number of materialized nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given handle.
func (t *Tree) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id], true
}

// Root returns the table produced by ReadRoot.
func (t *Tree) Root() *Table {
	n, ok := t.Node(t.root)
	if !ok {
		return nil
	}
	return n.(*Table)
}

// Parent returns the parent of n, or ErrNoParent for a root.
func (t *Tree) Parent(n Node) (Node, error) {
	p, ok := t.Node(n.Parent())
	if !ok {
		return nil, ErrNoParent
	}
	return p, nil
}

// Depth returns the number of parent hops from n to its root.
func (t *Tree) Depth(n Node) int {
	depth := 0
	for id := n.Parent(); id != NoNode; depth++ {
		p, ok := t.Node(id)
		if !ok {
			break
		}
		id = p.Parent()
	}
	return depth
}
