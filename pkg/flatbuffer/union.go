/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: union.go
Description: Union resolution. A union wrapper table stores a u8 discriminant in field
0 and an object reference in field 1; the payload is field 0 of the referenced object,
decoded with the arm the operator mapped to the discriminant.
*/

package flatbuffer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UnionInfo maps discriminant bytes to payload kinds.
type UnionInfo struct {
	Arms map[uint8]FieldKind
}

// NewUnionInfo returns an empty mapping.
func NewUnionInfo() *UnionInfo {
	return &UnionInfo{Arms: make(map[uint8]FieldKind)}
}

// ParseUnionInfo parses "tag=type,tag=type", for example "1=object,2=object[]".
func ParseUnionInfo(mapping string) (*UnionInfo, error) {
	info := NewUnionInfo()
	for _, part := range strings.Split(mapping, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tagText, kindText, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("union arm %q: expected tag=type", part)
		}
		tag, err := strconv.ParseUint(strings.TrimSpace(tagText), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("union arm %q: invalid tag: %w", part, err)
		}
		kind := ParseFieldKind(kindText)
		if !kind.Recognized() {
			return nil, &KindError{Token: kind.Token}
		}
		info.Arms[uint8(tag)] = kind
	}
	if len(info.Arms) == 0 {
		return nil, fmt.Errorf("union mapping %q has no arms", mapping)
	}
	return info, nil
}

// Union is a resolved (discriminant, payload) pair.
type Union struct {
	nodeBase
	Tag     uint8
	Arm     FieldKind
	Object  NodeID
	Payload NodeID
}

// unionKey caches one resolution of a wrapper: the tag read and the arm it mapped to.
type unionKey struct {
	tag uint8
	arm fieldKey
}

// Read resolves the union stored in wrapper. Resolving the same tag to the same arm
// again returns the node built the first time.
func (u *UnionInfo) Read(wrapper *Table) (*Union, error) {
	tag, err := wrapper.ScalarValue(0, ScalarUint8)
	if err != nil {
		return nil, err
	}
	arm, ok := u.Arms[uint8(tag.Bits)]
	if !ok {
		return nil, &UnionTagError{Tag: uint8(tag.Bits)}
	}
	key := unionKey{tag: uint8(tag.Bits), arm: keyOf(0, arm)}
	if id, ok := wrapper.unions[key]; ok {
		if n, ok := wrapper.tree.Node(id); ok {
			return n.(*Union), nil
		}
	}
	obj, err := wrapper.ReadObject(1)
	if err != nil {
		return nil, err
	}
	payload, err := obj.ReadNode(0, arm)
	if err != nil {
		return nil, err
	}

	un := &Union{
		nodeBase: nodeBase{offset: obj.Offset(), parent: wrapper.id, name: fmt.Sprintf("Union<%d:%s>", tag.Bits, arm)},
		Tag:      uint8(tag.Bits),
		Arm:      arm,
		Object:   obj.ID(),
		Payload:  payload.ID(),
	}
	wrapper.tree.add(un)
	wrapper.unions[key] = un.id
	return un, nil
}

// Tags returns the mapped discriminants, ascending.
func (u *UnionInfo) Tags() []uint8 {
	out := make([]uint8, 0, len(u.Arms))
	for tag := range u.Arms {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ObjectTable returns the table the union references. Its field 0 is the payload.
func (n *Union) ObjectTable() (*Table, bool) {
	node, ok := n.tree.Node(n.Object)
	if !ok {
		return nil, false
	}
	t, ok := node.(*Table)
	return t, ok
}

// PayloadNode returns the decoded payload.
func (n *Union) PayloadNode() (Node, bool) {
	return n.tree.Node(n.Payload)
}
