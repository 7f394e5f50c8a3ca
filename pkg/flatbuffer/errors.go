/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error kinds produced while decoding FlatBuffer layouts. Sentinel values
identify the kind of failure; typed errors carry the offsets and indices involved and
match their sentinel through errors.Is.
*/

package flatbuffer

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a field or entry index exceeds the node's count.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrFieldAbsent is returned when a vtable slot is zero.
	ErrFieldAbsent = errors.New("field absent")
	// ErrMalformedLayout is returned for inconsistent vtables and out-of-bounds offsets.
	ErrMalformedLayout = errors.New("malformed layout")
	// ErrUnknownUnionTag is returned when a union discriminant has no mapped arm.
	ErrUnknownUnionTag = errors.New("unknown union tag")
	// ErrDecodeMismatch is returned when the declared type cannot describe the bytes.
	ErrDecodeMismatch = errors.New("decode mismatch")

	// ErrNoParent is returned when navigating up from a root node.
	ErrNoParent = errors.New("node has no parent")
	// ErrNotExplored is returned when a field has not been read yet.
	ErrNotExplored = errors.New("node not explored yet")
)

// IndexError reports an index outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range (count %d)", e.Index, e.Count)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// LayoutError reports a structural inconsistency at a buffer offset.
type LayoutError struct {
	Offset int
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("malformed layout at 0x%X: %s", e.Offset, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrMalformedLayout }

// FieldAbsentError reports a field whose vtable slot is zero.
type FieldAbsentError struct {
	Index int
}

func (e *FieldAbsentError) Error() string {
	return fmt.Sprintf("field %d not present in vtable", e.Index)
}

func (e *FieldAbsentError) Unwrap() error { return ErrFieldAbsent }

// UnionTagError reports a discriminant missing from the union mapping.
type UnionTagError struct {
	Tag uint8
}

func (e *UnionTagError) Error() string {
	return fmt.Sprintf("no union arm mapped for tag %d", e.Tag)
}

func (e *UnionTagError) Unwrap() error { return ErrUnknownUnionTag }

// KindError reports a type token or shape that cannot be decoded.
type KindError struct {
	Token  string
	Reason string
}

func (e *KindError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unrecognized type %q", e.Token)
	}
	return fmt.Sprintf("type %q: %s", e.Token, e.Reason)
}

func (e *KindError) Unwrap() error { return ErrDecodeMismatch }

func layoutErr(offset int, format string, args ...interface{}) error {
	return &LayoutError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
