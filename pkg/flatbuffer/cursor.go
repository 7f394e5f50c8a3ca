/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cursor.go
Description: Bounds-checked little-endian reads of fixed-width values at absolute
offsets. Every decode in the package goes through these helpers.
*/

package flatbuffer

import (
	"encoding/binary"
	"math"
)

// checkSpan verifies that n bytes starting at offset lie inside data.
func checkSpan(data []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset > len(data) || len(data)-offset < n {
		return layoutErr(offset, "read of %d bytes exceeds buffer length %d", n, len(data))
	}
	return nil
}

// ReadUint8 reads a byte at offset.
func ReadUint8(data []byte, offset int) (uint8, error) {
	if err := checkSpan(data, offset, 1); err != nil {
		return 0, err
	}
	return data[offset], nil
}

// ReadUint16 reads a little-endian u16 at offset.
func ReadUint16(data []byte, offset int) (uint16, error) {
	if err := checkSpan(data, offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

// ReadUint32 reads a little-endian u32 at offset.
func ReadUint32(data []byte, offset int) (uint32, error) {
	if err := checkSpan(data, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

// ReadInt32 reads a little-endian i32 at offset.
func ReadInt32(data []byte, offset int) (int32, error) {
	v, err := ReadUint32(data, offset)
	return int32(v), err
}

// ReadUint64 reads a little-endian u64 at offset.
func ReadUint64(data []byte, offset int) (uint64, error) {
	if err := checkSpan(data, offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}

// ReadFloat32 reads a little-endian IEEE-754 single at offset.
func ReadFloat32(data []byte, offset int) (float32, error) {
	v, err := ReadUint32(data, offset)
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian IEEE-754 double at offset.
func ReadFloat64(data []byte, offset int) (float64, error) {
	v, err := ReadUint64(data, offset)
	return math.Float64frombits(v), err
}

// ReadValue reads a scalar of the given type at offset.
func ReadValue(data []byte, offset int, st ScalarType) (Value, error) {
	size := st.Size()
	if size == 0 {
		return Value{}, &KindError{Token: st.String(), Reason: "not a scalar type"}
	}
	if err := checkSpan(data, offset, size); err != nil {
		return Value{}, err
	}
	var bits uint64
	switch size {
	case 1:
		bits = uint64(data[offset])
	case 2:
		bits = uint64(binary.LittleEndian.Uint16(data[offset:]))
	case 4:
		bits = uint64(binary.LittleEndian.Uint32(data[offset:]))
	case 8:
		bits = binary.LittleEndian.Uint64(data[offset:])
	}
	return Value{Type: st, Bits: bits}, nil
}

// resolveReference follows the u32 stored at slot. The result is relative to the
// slot itself and must land inside the buffer.
func resolveReference(data []byte, slot int) (int, error) {
	rel, err := ReadUint32(data, slot)
	if err != nil {
		return 0, err
	}
	target := slot + int(rel)
	if target < slot || target >= len(data) {
		return 0, layoutErr(slot, "reference 0x%X resolves outside buffer (target 0x%X, length 0x%X)", rel, target, len(data))
	}
	return target, nil
}
