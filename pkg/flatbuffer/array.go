/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: array.go
Description: Vector nodes. A vector is a u32 count followed by fixed-stride entries;
reference entries are resolved relative to their own slot, exactly like table fields.
*/

package flatbuffer

// Array is a count-prefixed, fixed-stride sequence of entries.
type Array struct {
	nodeBase
	Count      int
	Elem       ElementKind
	BaseOffset int

	entries map[int]NodeID
}

func newArray(t *Tree, offset int, parent NodeID, elem ElementKind) (*Array, error) {
	count, err := ReadUint32(t.data, offset)
	if err != nil {
		return nil, err
	}
	base := offset + 4
	stride := elem.Size()
	if stride <= 0 {
		return nil, &KindError{Token: elem.String(), Reason: "zero-width array element"}
	}
	// Reject counts that cannot fit before multiplying.
	if int(count) > (len(t.data)-base)/stride {
		return nil, layoutErr(offset, "vector of %d x %d bytes exceeds buffer length 0x%X", count, stride, len(t.data))
	}
	a := &Array{
		nodeBase:   nodeBase{offset: offset, parent: parent, name: "Array<" + elem.String() + ">"},
		Count:      int(count),
		Elem:       elem,
		BaseOffset: base,
		entries:    make(map[int]NodeID),
	}
	t.add(a)
	return a, nil
}

// EntryOffset returns the absolute offset of entry i's slot.
func (a *Array) EntryOffset(i int) (int, error) {
	if i < 0 || i >= a.Count {
		return 0, &IndexError{Index: i, Count: a.Count}
	}
	return a.BaseOffset + i*a.Elem.Size(), nil
}

// Entry materializes entry i, or returns the node built by an earlier call.
func (a *Array) Entry(i int) (Node, error) {
	slot, err := a.EntryOffset(i)
	if err != nil {
		return nil, err
	}
	if id, ok := a.entries[i]; ok {
		if n, ok := a.tree.Node(id); ok {
			return n, nil
		}
	}

	var n Node
	switch a.Elem.Class {
	case ElemScalar:
		n, err = newScalar(a.tree, slot, a.id, a.Elem.Scalar)
	case ElemStruct:
		n, err = newStruct(a.tree, slot, a.id, a.Elem.StructSize)
	case ElemObjectRef, ElemStringRef:
		var target int
		target, err = resolveReference(a.data(), slot)
		if err != nil {
			return nil, err
		}
		if a.Elem.Class == ElemObjectRef {
			n, err = newTable(a.tree, target, a.id, "Object")
		} else {
			n, err = newString(a.tree, target, a.id)
		}
	}
	if err != nil {
		return nil, err
	}
	a.entries[i] = n.ID()
	return n, nil
}

// ExploredEntries returns how many entries have been materialized.
func (a *Array) ExploredEntries() int { return len(a.entries) }

// Explored returns the cached node for entry i, if any.
func (a *Array) Explored(i int) (Node, bool) {
	id, ok := a.entries[i]
	if !ok {
		return nil, false
	}
	return a.tree.Node(id)
}
