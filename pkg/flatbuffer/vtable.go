/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: vtable.go
Description: VTable decoding. A vtable is a u16 length, a u16 table length, then one
u16 field offset per field index where zero marks a field the writer omitted.
*/

package flatbuffer

// vtableHeaderSize covers the vtable length and table length words.
const vtableHeaderSize = 4

// VTable is the decoded field-offset table of one table.
type VTable struct {
	Length       uint16
	TableLength  uint16
	FieldOffsets []uint16
}

// FieldCount returns the number of field slots, present or not.
func (v VTable) FieldCount() int { return len(v.FieldOffsets) }

// Present reports whether field i has a non-zero slot.
func (v VTable) Present(i int) bool {
	return i >= 0 && i < len(v.FieldOffsets) && v.FieldOffsets[i] != 0
}

// ReadVTable decodes the vtable starting at offset.
func ReadVTable(data []byte, offset int) (VTable, error) {
	length, err := ReadUint16(data, offset)
	if err != nil {
		return VTable{}, err
	}
	tableLength, err := ReadUint16(data, offset+2)
	if err != nil {
		return VTable{}, err
	}
	if length < vtableHeaderSize || (length-vtableHeaderSize)%2 != 0 {
		return VTable{}, layoutErr(offset, "vtable length %d is not 4 + 2*n", length)
	}
	if err := checkSpan(data, offset, int(length)); err != nil {
		return VTable{}, layoutErr(offset, "vtable of %d bytes exceeds buffer length %d", length, len(data))
	}

	count := int(length-vtableHeaderSize) / 2
	fields := make([]uint16, count)
	for i := range fields {
		fields[i], _ = ReadUint16(data, offset+vtableHeaderSize+2*i)
	}
	return VTable{Length: length, TableLength: tableLength, FieldOffsets: fields}, nil
}

// locateVTable follows the signed offset stored at the start of a table. A positive
// value points backward.
func locateVTable(data []byte, tableOffset int) (int, error) {
	rel, err := ReadInt32(data, tableOffset)
	if err != nil {
		return 0, err
	}
	vt := tableOffset - int(rel)
	if vt < 0 || vt >= len(data) {
		return 0, layoutErr(tableOffset, "vtable offset %d resolves outside buffer (0x%X)", rel, vt)
	}
	return vt, nil
}
