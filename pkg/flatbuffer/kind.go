/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: kind.go
Description: Operator-declared type labels. The format does not describe itself, so
every typed read is driven by a FieldKind parsed from a token such as "u32", "string",
"object[]" or "struct:12[]". Unrecognized tokens are an explicit variant.
*/

package flatbuffer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScalarType enumerates fixed-width scalar encodings.
type ScalarType uint8

const (
	ScalarInvalid ScalarType = iota
	ScalarBool
	ScalarInt8
	ScalarUint8
	ScalarInt16
	ScalarUint16
	ScalarInt32
	ScalarUint32
	ScalarInt64
	ScalarUint64
	ScalarFloat32
	ScalarFloat64
)

// Size returns the encoded width in bytes, or 0 for ScalarInvalid.
func (s ScalarType) Size() int {
	switch s {
	case ScalarBool, ScalarInt8, ScalarUint8:
		return 1
	case ScalarInt16, ScalarUint16:
		return 2
	case ScalarInt32, ScalarUint32, ScalarFloat32:
		return 4
	case ScalarInt64, ScalarUint64, ScalarFloat64:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the type is a two's complement integer.
func (s ScalarType) Signed() bool {
	switch s {
	case ScalarInt8, ScalarInt16, ScalarInt32, ScalarInt64:
		return true
	}
	return false
}

// Float reports whether the type is an IEEE-754 float.
func (s ScalarType) Float() bool {
	return s == ScalarFloat32 || s == ScalarFloat64
}

func (s ScalarType) String() string {
	switch s {
	case ScalarBool:
		return "bool"
	case ScalarInt8:
		return "s8"
	case ScalarUint8:
		return "u8"
	case ScalarInt16:
		return "s16"
	case ScalarUint16:
		return "u16"
	case ScalarInt32:
		return "s32"
	case ScalarUint32:
		return "u32"
	case ScalarInt64:
		return "s64"
	case ScalarUint64:
		return "u64"
	case ScalarFloat32:
		return "float"
	case ScalarFloat64:
		return "double"
	default:
		return "invalid"
	}
}

// Value is a decoded scalar. Bits holds the raw little-endian word, zero-extended.
type Value struct {
	Type ScalarType
	Bits uint64
}

// Uint returns the value as an unsigned integer.
func (v Value) Uint() uint64 { return v.Bits }

// Int returns the value sign-extended to 64 bits.
func (v Value) Int() int64 {
	switch v.Type.Size() {
	case 1:
		return int64(int8(v.Bits))
	case 2:
		return int64(int16(v.Bits))
	case 4:
		return int64(int32(v.Bits))
	default:
		return int64(v.Bits)
	}
}

// Float returns the value interpreted as a float of its width.
func (v Value) Float() float64 {
	if v.Type.Size() == 4 {
		return float64(math.Float32frombits(uint32(v.Bits)))
	}
	return math.Float64frombits(v.Bits)
}

// Bool returns true for any non-zero byte.
func (v Value) Bool() bool { return v.Bits != 0 }

func (v Value) String() string {
	switch {
	case v.Type == ScalarBool:
		return strconv.FormatBool(v.Bool())
	case v.Type.Float():
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case v.Type.Signed():
		return fmt.Sprintf("%d (0x%X)", v.Int(), v.Bits)
	default:
		return fmt.Sprintf("%d (0x%X)", v.Bits, v.Bits)
	}
}

// KindClass is the variant tag of a FieldKind.
type KindClass uint8

const (
	KindUnrecognized KindClass = iota
	KindScalar
	KindString
	KindObject
	KindStruct
)

func (c KindClass) String() string {
	switch c {
	case KindScalar:
		return "scalar"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindStruct:
		return "struct"
	default:
		return "unrecognized"
	}
}

// FieldKind describes how to decode a field or union arm.
type FieldKind struct {
	Class      KindClass
	Scalar     ScalarType // KindScalar only
	StructSize int        // KindStruct only
	Array      bool
	Token      string // token as typed by the operator
}

// ScalarKind returns a scalar kind.
func ScalarKind(st ScalarType) FieldKind {
	return FieldKind{Class: KindScalar, Scalar: st, Token: st.String()}
}

// ObjectKind returns an object kind, or an object array kind.
func ObjectKind(array bool) FieldKind {
	k := FieldKind{Class: KindObject, Array: array, Token: "object"}
	if array {
		k.Token = "object[]"
	}
	return k
}

// StringKind returns a string kind, or a string array kind.
func StringKind(array bool) FieldKind {
	k := FieldKind{Class: KindString, Array: array, Token: "string"}
	if array {
		k.Token = "string[]"
	}
	return k
}

// Recognized reports whether the kind names a decodable shape.
func (k FieldKind) Recognized() bool { return k.Class != KindUnrecognized }

func (k FieldKind) String() string {
	if k.Token != "" {
		return k.Token
	}
	var base string
	switch k.Class {
	case KindScalar:
		base = k.Scalar.String()
	case KindStruct:
		base = fmt.Sprintf("struct:%d", k.StructSize)
	default:
		base = k.Class.String()
	}
	if k.Array {
		return base + "[]"
	}
	return base
}

var scalarTokens = map[string]ScalarType{
	"bool":   ScalarBool,
	"sbyte":  ScalarInt8,
	"s8":     ScalarInt8,
	"short":  ScalarInt16,
	"s16":    ScalarInt16,
	"int":    ScalarInt32,
	"s32":    ScalarInt32,
	"long":   ScalarInt64,
	"s64":    ScalarInt64,
	"byte":   ScalarUint8,
	"u8":     ScalarUint8,
	"i8":     ScalarUint8,
	"ushort": ScalarUint16,
	"u16":    ScalarUint16,
	"i16":    ScalarUint16,
	"uint":   ScalarUint32,
	"u32":    ScalarUint32,
	"i32":    ScalarUint32,
	"ulong":  ScalarUint64,
	"u64":    ScalarUint64,
	"i64":    ScalarUint64,
	"float":  ScalarFloat32,
	"double": ScalarFloat64,
}

// ParseFieldKind parses an operator type token. Unknown tokens yield a kind with
// Class KindUnrecognized; they are never mapped to a default.
func ParseFieldKind(token string) FieldKind {
	raw := strings.TrimSpace(token)
	text := strings.ToLower(raw)
	kind := FieldKind{Token: raw}

	if strings.HasSuffix(text, "[]") {
		kind.Array = true
		text = strings.TrimSpace(strings.TrimSuffix(text, "[]"))
	}

	switch {
	case text == "table":
		kind.Class = KindObject
		kind.Array = true
	case text == "object" || text == "obj":
		kind.Class = KindObject
	case text == "string" || text == "str":
		kind.Class = KindString
	case strings.HasPrefix(text, "struct:"):
		size, err := strconv.Atoi(strings.TrimPrefix(text, "struct:"))
		if err == nil && size > 0 {
			kind.Class = KindStruct
			kind.StructSize = size
		}
	default:
		if st, ok := scalarTokens[text]; ok {
			kind.Class = KindScalar
			kind.Scalar = st
		}
	}
	return kind
}

// ElementClass is the storage class of array entries.
type ElementClass uint8

const (
	ElemScalar ElementClass = iota
	ElemObjectRef
	ElemStringRef
	ElemStruct
)

// ElementKind describes the fixed-stride entries of an array.
type ElementKind struct {
	Class      ElementClass
	Scalar     ScalarType // ElemScalar only
	StructSize int        // ElemStruct only
}

// Size returns the stride of one entry in bytes.
func (e ElementKind) Size() int {
	switch e.Class {
	case ElemScalar:
		return e.Scalar.Size()
	case ElemStruct:
		return e.StructSize
	default:
		return 4
	}
}

func (e ElementKind) String() string {
	switch e.Class {
	case ElemScalar:
		return e.Scalar.String()
	case ElemObjectRef:
		return "object"
	case ElemStringRef:
		return "string"
	default:
		return fmt.Sprintf("struct:%d", e.StructSize)
	}
}

// elementKindOf maps an array FieldKind to its entry layout.
func elementKindOf(k FieldKind) (ElementKind, error) {
	switch k.Class {
	case KindObject:
		return ElementKind{Class: ElemObjectRef}, nil
	case KindString:
		return ElementKind{Class: ElemStringRef}, nil
	case KindScalar:
		if k.Scalar.Size() == 0 {
			break
		}
		return ElementKind{Class: ElemScalar, Scalar: k.Scalar}, nil
	case KindStruct:
		if k.StructSize <= 0 {
			break
		}
		return ElementKind{Class: ElemStruct, StructSize: k.StructSize}, nil
	}
	return ElementKind{}, &KindError{Token: k.String(), Reason: "unsupported array element shape"}
}
