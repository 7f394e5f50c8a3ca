/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder.go
Description: Forward-only FlatBuffer layout builder for tests. Each table is written as
vtable then table, and out-of-line payloads follow the table, so every reference is a
positive forward offset from its slot.
*/

package fbtest

import (
	"encoding/binary"
	"math"
)

// Field is one vtable slot of a table under construction.
type Field struct {
	absent bool
	inline []byte
	ref    func(b *Builder) int
}

// Absent leaves the slot at zero.
func Absent() Field { return Field{absent: true} }

// Raw stores bytes inline.
func Raw(p []byte) Field { return Field{inline: append([]byte(nil), p...)} }

// U8 stores a byte inline.
func U8(v uint8) Field { return Raw([]byte{v}) }

// Bool stores a bool inline.
func Bool(v bool) Field {
	if v {
		return U8(1)
	}
	return U8(0)
}

// U16 stores a u16 inline.
func U16(v uint16) Field {
	p := make([]byte, 2)
	binary.LittleEndian.PutUint16(p, v)
	return Raw(p)
}

// U32 stores a u32 inline.
func U32(v uint32) Field {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, v)
	return Raw(p)
}

// I32 stores an i32 inline.
func I32(v int32) Field { return U32(uint32(v)) }

// U64 stores a u64 inline.
func U64(v uint64) Field {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint64(p, v)
	return Raw(p)
}

// F32 stores a float inline.
func F32(v float32) Field { return U32(math.Float32bits(v)) }

// F64 stores a double inline.
func F64(v float64) Field { return U64(math.Float64bits(v)) }

// Str stores a reference to a string.
func Str(s string) Field {
	return Field{ref: func(b *Builder) int { return b.String(s) }}
}

// Obj stores a reference to a child table.
func Obj(fields ...Field) Field {
	return Field{ref: func(b *Builder) int { return b.Table(fields...) }}
}

// ObjVec stores a reference to a vector of tables.
func ObjVec(tables ...[]Field) Field {
	return Field{ref: func(b *Builder) int {
		vec, slots := b.refVector(len(tables))
		for i, fields := range tables {
			b.patchRef(slots[i], b.Table(fields...))
		}
		return vec
	}}
}

// StrVec stores a reference to a vector of strings.
func StrVec(strs ...string) Field {
	return Field{ref: func(b *Builder) int {
		vec, slots := b.refVector(len(strs))
		for i, s := range strs {
			b.patchRef(slots[i], b.String(s))
		}
		return vec
	}}
}

// U16Vec stores a reference to a vector of u16 scalars.
func U16Vec(vals ...uint16) Field {
	return Field{ref: func(b *Builder) int {
		b.Align(4)
		vec := b.Len()
		b.PutU32(uint32(len(vals)))
		for _, v := range vals {
			b.PutU16(v)
		}
		return vec
	}}
}

// BytesVec stores a reference to a vector of count elements of stride bytes taken
// from raw.
func BytesVec(count int, raw []byte) Field {
	return Field{ref: func(b *Builder) int {
		b.Align(4)
		vec := b.Len()
		b.PutU32(uint32(count))
		b.buf = append(b.buf, raw...)
		return vec
	}}
}

// Builder appends a buffer from front to back.
type Builder struct {
	buf []byte
}

// New returns a builder with the root reference slot reserved.
func New() *Builder {
	return &Builder{buf: make([]byte, 4)}
}

// Finish writes the root table, points offset 0 at it and returns the buffer.
func (b *Builder) Finish(fields ...Field) []byte {
	root := b.Table(fields...)
	binary.LittleEndian.PutUint32(b.buf[0:], uint32(root))
	return b.Bytes()
}

// Bytes returns a copy of the buffer.
func (b *Builder) Bytes() []byte { return append([]byte(nil), b.buf...) }

// Len returns the current write position.
func (b *Builder) Len() int { return len(b.buf) }

// Align pads with zeros to a multiple of n.
func (b *Builder) Align(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

// PutU16 appends a u16.
func (b *Builder) PutU16(v uint16) {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

// PutU32 appends a u32.
func (b *Builder) PutU32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// SetU32 overwrites a u32 at offset.
func (b *Builder) SetU32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[offset:], v)
}

// String appends a length-prefixed, zero-terminated string and returns its offset.
func (b *Builder) String(s string) int {
	b.Align(4)
	at := b.Len()
	b.PutU32(uint32(len(s)))
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	return at
}

// Table appends a vtable and its table, then each referenced payload, and returns
// the table offset.
func (b *Builder) Table(fields ...Field) int {
	b.Align(4)
	vtable := b.Len()
	b.PutU16(uint16(4 + 2*len(fields)))
	b.PutU16(0)
	for range fields {
		b.PutU16(0)
	}

	b.Align(4)
	table := b.Len()
	b.PutU32(uint32(int32(table - vtable)))

	slots := make([]int, len(fields))
	for i, f := range fields {
		if f.absent {
			continue
		}
		width := len(f.inline)
		if f.ref != nil {
			width = 4
		}
		align := width
		if align > 4 {
			align = 4
		}
		if align > 0 {
			b.Align(align)
		}
		slots[i] = b.Len()
		binary.LittleEndian.PutUint16(b.buf[vtable+4+2*i:], uint16(slots[i]-table))
		if f.ref != nil {
			b.PutU32(0)
		} else {
			b.buf = append(b.buf, f.inline...)
		}
	}
	binary.LittleEndian.PutUint16(b.buf[vtable+2:], uint16(b.Len()-table))

	for i, f := range fields {
		if f.ref != nil {
			b.patchRef(slots[i], f.ref(b))
		}
	}
	return table
}

func (b *Builder) refVector(n int) (int, []int) {
	b.Align(4)
	vec := b.Len()
	b.PutU32(uint32(n))
	slots := make([]int, n)
	for i := range slots {
		slots[i] = b.Len()
		b.PutU32(0)
	}
	return vec, slots
}

func (b *Builder) patchRef(slot, target int) {
	b.SetU32(slot, uint32(target-slot))
}
