/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: value.go
Description: Leaf nodes: scalars read in place, length-prefixed strings and inline
structs kept as raw byte windows.
*/

package flatbuffer

import (
	"fmt"
	"unicode/utf8"
)

// Scalar is a fixed-width value decoded in place.
type Scalar struct {
	nodeBase
	Value Value
}

func newScalar(t *Tree, offset int, parent NodeID, st ScalarType) (*Scalar, error) {
	v, err := ReadValue(t.data, offset, st)
	if err != nil {
		return nil, err
	}
	s := &Scalar{
		nodeBase: nodeBase{offset: offset, parent: parent, name: st.String()},
		Value:    v,
	}
	t.add(s)
	return s, nil
}

// String is a u32 length followed by that many bytes of UTF-8.
type String struct {
	nodeBase
	Length int
	Text   string
}

func newString(t *Tree, offset int, parent NodeID) (*String, error) {
	n, err := ReadUint32(t.data, offset)
	if err != nil {
		return nil, err
	}
	start := offset + 4
	if err := checkSpan(t.data, start, int(n)); err != nil {
		return nil, layoutErr(offset, "string of %d bytes exceeds buffer", n)
	}
	raw := t.data[start : start+int(n)]
	if !utf8.Valid(raw) {
		return nil, &KindError{Token: "string", Reason: fmt.Sprintf("%d bytes at 0x%X are not valid UTF-8", n, start)}
	}
	s := &String{
		nodeBase: nodeBase{offset: offset, parent: parent, name: "String"},
		Length:   int(n),
		Text:     string(raw),
	}
	t.add(s)
	return s, nil
}

// Struct is an inline fixed-size record with no self-description.
type Struct struct {
	nodeBase
	Size int
}

func newStruct(t *Tree, offset int, parent NodeID, size int) (*Struct, error) {
	if size <= 0 {
		return nil, &KindError{Token: fmt.Sprintf("struct:%d", size), Reason: "struct size must be positive"}
	}
	if err := checkSpan(t.data, offset, size); err != nil {
		return nil, err
	}
	s := &Struct{
		nodeBase: nodeBase{offset: offset, parent: parent, name: fmt.Sprintf("struct:%d", size)},
		Size:     size,
	}
	t.add(s)
	return s, nil
}

// Bytes returns the struct's window of the buffer.
func (s *Struct) Bytes() []byte {
	return s.data()[s.offset : s.offset+s.Size]
}
