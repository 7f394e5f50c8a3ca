/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: Table nodes. A table resolves field offsets through its vtable, follows
slot-relative references to strings, tables and vectors, and lazily materializes typed
children. Each (field, kind) pair is decoded at most once; later reads return the
cached node.
*/

package flatbuffer

import "sort"

// fieldKey identifies one typed read of a field. The operator's spelling of the
// token is deliberately excluded so "u32" and "uint" share a cache entry.
type fieldKey struct {
	index      int
	class      KindClass
	scalar     ScalarType
	structSize int
	array      bool
}

func keyOf(index int, k FieldKind) fieldKey {
	return fieldKey{index: index, class: k.Class, scalar: k.Scalar, structSize: k.StructSize, array: k.Array}
}

// Table is a node whose field layout is indirected through a vtable.
type Table struct {
	nodeBase
	VTable       VTable
	TableOffset  int
	VTableOffset int

	hints  map[int]string
	fields map[int]NodeID
	reads  map[fieldKey]NodeID
	unions map[unionKey]NodeID
}

// newTable decodes the table at offset and appends it to the arena.
func newTable(t *Tree, offset int, parent NodeID, name string) (*Table, error) {
	vtOffset, err := locateVTable(t.data, offset)
	if err != nil {
		return nil, err
	}
	vt, err := ReadVTable(t.data, vtOffset)
	if err != nil {
		return nil, err
	}
	tbl := &Table{
		nodeBase:     nodeBase{offset: offset, parent: parent, name: name},
		VTable:       vt,
		TableOffset:  offset,
		VTableOffset: vtOffset,
		hints:        make(map[int]string),
		fields:       make(map[int]NodeID),
		reads:        make(map[fieldKey]NodeID),
		unions:       make(map[unionKey]NodeID),
	}
	t.add(tbl)
	return tbl, nil
}

// FieldCount returns the number of vtable slots.
func (t *Table) FieldCount() int { return t.VTable.FieldCount() }

func (t *Table) checkIndex(index int) error {
	if index < 0 || index >= t.FieldCount() {
		return &IndexError{Index: index, Count: t.FieldCount()}
	}
	return nil
}

// FieldOffset returns the absolute offset of field index.
func (t *Table) FieldOffset(index int) (int, error) {
	if err := t.checkIndex(index); err != nil {
		return 0, err
	}
	rel := t.VTable.FieldOffsets[index]
	if rel == 0 {
		return 0, &FieldAbsentError{Index: index}
	}
	return t.TableOffset + int(rel), nil
}

// ReferenceOffset resolves the reference stored in field index. The stored value is
// relative to the field's own slot.
func (t *Table) ReferenceOffset(index int) (int, error) {
	slot, err := t.FieldOffset(index)
	if err != nil {
		return 0, err
	}
	return resolveReference(t.data(), slot)
}

// ScalarValue reads field index in place as the given scalar type.
func (t *Table) ScalarValue(index int, st ScalarType) (Value, error) {
	offset, err := t.FieldOffset(index)
	if err != nil {
		return Value{}, err
	}
	return ReadValue(t.data(), offset, st)
}

// cached returns the node previously built for key, or builds, records and returns a
// new one. build must only add the node to the arena on success.
func (t *Table) cached(key fieldKey, build func() (Node, error)) (Node, error) {
	if id, ok := t.reads[key]; ok {
		if n, ok := t.tree.Node(id); ok {
			return n, nil
		}
	}
	n, err := build()
	if err != nil {
		return nil, err
	}
	t.reads[key] = n.ID()
	return n, nil
}

// ReadScalar materializes field index as a scalar leaf.
func (t *Table) ReadScalar(index int, st ScalarType) (*Scalar, error) {
	n, err := t.cached(keyOf(index, ScalarKind(st)), func() (Node, error) {
		offset, err := t.FieldOffset(index)
		if err != nil {
			return nil, err
		}
		return newScalar(t.tree, offset, t.id, st)
	})
	if err != nil {
		return nil, err
	}
	return n.(*Scalar), nil
}

// ReadStruct materializes field index as an inline struct of size bytes.
func (t *Table) ReadStruct(index, size int) (*Struct, error) {
	kind := FieldKind{Class: KindStruct, StructSize: size}
	n, err := t.cached(keyOf(index, kind), func() (Node, error) {
		offset, err := t.FieldOffset(index)
		if err != nil {
			return nil, err
		}
		return newStruct(t.tree, offset, t.id, size)
	})
	if err != nil {
		return nil, err
	}
	return n.(*Struct), nil
}

// ReadString follows field index to a length-prefixed string.
func (t *Table) ReadString(index int) (*String, error) {
	n, err := t.cached(keyOf(index, StringKind(false)), func() (Node, error) {
		target, err := t.ReferenceOffset(index)
		if err != nil {
			return nil, err
		}
		return newString(t.tree, target, t.id)
	})
	if err != nil {
		return nil, err
	}
	return n.(*String), nil
}

// ReadObject follows field index to a child table.
func (t *Table) ReadObject(index int) (*Table, error) {
	n, err := t.cached(keyOf(index, ObjectKind(false)), func() (Node, error) {
		target, err := t.ReferenceOffset(index)
		if err != nil {
			return nil, err
		}
		return newTable(t.tree, target, t.id, "Object")
	})
	if err != nil {
		return nil, err
	}
	return n.(*Table), nil
}

// ReadObjectArray follows field index to a vector of table references.
func (t *Table) ReadObjectArray(index int) (*Array, error) {
	return t.readArray(index, ObjectKind(true))
}

// ReadStringArray follows field index to a vector of string references.
func (t *Table) ReadStringArray(index int) (*Array, error) {
	return t.readArray(index, StringKind(true))
}

// ReadScalarArray follows field index to a vector of inline scalars.
func (t *Table) ReadScalarArray(index int, st ScalarType) (*Array, error) {
	k := ScalarKind(st)
	k.Array = true
	return t.readArray(index, k)
}

// ReadStructArray follows field index to a vector of inline structs of size bytes.
func (t *Table) ReadStructArray(index, size int) (*Array, error) {
	return t.readArray(index, FieldKind{Class: KindStruct, StructSize: size, Array: true})
}

func (t *Table) readArray(index int, kind FieldKind) (*Array, error) {
	elem, err := elementKindOf(kind)
	if err != nil {
		return nil, err
	}
	n, err := t.cached(keyOf(index, kind), func() (Node, error) {
		target, err := t.ReferenceOffset(index)
		if err != nil {
			return nil, err
		}
		return newArray(t.tree, target, t.id, elem)
	})
	if err != nil {
		return nil, err
	}
	return n.(*Array), nil
}

// ReadNode decodes field index as kind, records kind as the field's hint and makes
// the result the field's explored child. Repeating a read returns the same node.
func (t *Table) ReadNode(index int, kind FieldKind) (Node, error) {
	var (
		n   Node
		err error
	)
	switch {
	case kind.Class == KindUnrecognized:
		return nil, &KindError{Token: kind.Token}
	case kind.Array:
		n, err = t.readArray(index, kind)
	case kind.Class == KindObject:
		n, err = t.ReadObject(index)
	case kind.Class == KindString:
		n, err = t.ReadString(index)
	case kind.Class == KindScalar:
		n, err = t.ReadScalar(index, kind.Scalar)
	case kind.Class == KindStruct:
		n, err = t.ReadStruct(index, kind.StructSize)
	}
	if err != nil {
		return nil, err
	}
	t.SetFieldHint(index, kind.String())
	t.TrackChild(index, n)
	return n, nil
}

// SetFieldHint records the operator's type label for field index.
func (t *Table) SetFieldHint(index int, label string) {
	t.hints[index] = label
}

// Hint returns the recorded type label for field index.
func (t *Table) Hint(index int) (string, bool) {
	h, ok := t.hints[index]
	return h, ok
}

// TrackChild makes n the explored child of field index.
func (t *Table) TrackChild(index int, n Node) {
	t.fields[index] = n.ID()
}

// Field returns the explored child of field index.
func (t *Table) Field(index int) (Node, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	id, ok := t.fields[index]
	if !ok {
		return nil, ErrNotExplored
	}
	n, ok := t.tree.Node(id)
	if !ok {
		return nil, ErrNotExplored
	}
	return n, nil
}

// ExploredFields returns the indices with an explored child, ascending.
func (t *Table) ExploredFields() []int {
	out := make([]int, 0, len(t.fields))
	for i := range t.fields {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// PresentFields returns the indices with a non-zero vtable slot, ascending.
func (t *Table) PresentFields() []int {
	var out []int
	for i := range t.VTable.FieldOffsets {
		if t.VTable.Present(i) {
			out = append(out, i)
		}
	}
	return out
}
