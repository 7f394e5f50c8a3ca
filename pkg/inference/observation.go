/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: observation.go
Description: Best-effort field shape guesses for tables whose schema is unknown. Each
present field gets an Observation derived from its inline width and from whether the
bytes it points at look like a string, a table or a vector. Observations hash their
shape only, never their values, so files sharing a schema hash alike.
*/

package inference

import (
	"encoding/binary"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
)

// ObservedKind is the guessed storage class of a field.
type ObservedKind uint8

const (
	ObservedUnknown ObservedKind = iota
	ObservedScalar
	ObservedStruct
	ObservedString
	ObservedTable
	ObservedVector
)

func (k ObservedKind) String() string {
	switch k {
	case ObservedScalar:
		return "scalar"
	case ObservedStruct:
		return "struct"
	case ObservedString:
		return "string"
	case ObservedTable:
		return "object"
	case ObservedVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Observation is the inferred shape of one field.
type Observation struct {
	Kind  ObservedKind
	Size  int          // inline width in bytes
	Count int          // string length, vector count or child field count
	Elem  ObservedKind // vector element class

	// payload span [target, end) for reference kinds; zero otherwise
	target, end int
}

func (o Observation) isReference() bool {
	switch o.Kind {
	case ObservedString, ObservedTable, ObservedVector:
		return true
	}
	return false
}

// FieldObservation pairs an observation with its vtable index.
type FieldObservation struct {
	Index int
	Observation
}

// Hash returns the shape hash of the observation. Count is excluded: it varies
// between files of the same schema.
func (o Observation) Hash() uint64 {
	var buf [6]byte
	buf[0] = byte(o.Kind)
	buf[1] = byte(o.Elem)
	binary.LittleEndian.PutUint32(buf[2:], uint32(o.Size))
	return xxhash.Sum64(buf[:])
}

// Label returns a short shape label such as "u32", "string" or "vector<object>".
func (o Observation) Label() string {
	switch o.Kind {
	case ObservedScalar:
		if st := scalarForSize(o.Size); st != flatbuffer.ScalarInvalid {
			return st.String()
		}
		return fmt.Sprintf("inline:%d", o.Size)
	case ObservedStruct:
		return fmt.Sprintf("struct:%d", o.Size)
	case ObservedVector:
		return fmt.Sprintf("vector<%s>", o.Elem)
	default:
		return o.Kind.String()
	}
}

// Summary renders a one-line description of field index of root, including the
// decoded value where one can be shown.
func (o Observation) Summary(root *flatbuffer.Table, index int) string {
	data := root.Tree().Data()
	slot, err := root.FieldOffset(index)
	if err != nil {
		return fmt.Sprintf("%s: %v", o.Label(), err)
	}

	switch o.Kind {
	case ObservedScalar:
		if st := scalarForSize(o.Size); st != flatbuffer.ScalarInvalid {
			if v, err := flatbuffer.ReadValue(data, slot, st); err == nil {
				return fmt.Sprintf("%s = %s", o.Label(), v)
			}
		}
		return fmt.Sprintf("%s = % X", o.Label(), window(data, slot, o.Size))
	case ObservedStruct:
		return fmt.Sprintf("%s = % X", o.Label(), window(data, slot, o.Size))
	}

	target, err := root.ReferenceOffset(index)
	if err != nil {
		return fmt.Sprintf("%s: %v", o.Label(), err)
	}
	switch o.Kind {
	case ObservedString:
		start := target + 4
		return fmt.Sprintf("string @ 0x%X = %s", target, flatbuffer.Quote(string(window(data, start, o.Count))))
	case ObservedTable:
		return fmt.Sprintf("object @ 0x%X (%d fields)", target, o.Count)
	case ObservedVector:
		return fmt.Sprintf("%s @ 0x%X (%d entries)", o.Label(), target, o.Count)
	default:
		return fmt.Sprintf("%s @ 0x%X", o.Label(), slot)
	}
}

// maxElementChecks caps how many reference elements of a vector are resolved.
const maxElementChecks = 32

// region is the part of the buffer owned by the table being observed. A reference
// never lands inside it: payloads follow the inline fields, and the vtable holds no
// payload.
type region struct {
	tableStart, tableEnd   int
	vtableStart, vtableEnd int
}

func regionOf(t *flatbuffer.Table, size int) region {
	r := region{
		tableStart:  t.TableOffset,
		tableEnd:    t.TableOffset + int(t.VTable.TableLength),
		vtableStart: t.VTableOffset,
		vtableEnd:   t.VTableOffset + int(t.VTable.Length),
	}
	if r.tableEnd > size {
		r.tableEnd = size
	}
	return r
}

func (r region) owns(offset int) bool {
	return (offset >= r.tableStart && offset < r.tableEnd) ||
		(offset >= r.vtableStart && offset < r.vtableEnd)
}

// AnalyzeFields observes every present field of root in ascending index order.
// Payloads of sibling fields never overlap, so a reference candidate whose payload
// would swallow another field's target is read as a plain scalar instead.
func AnalyzeFields(root *flatbuffer.Table) []FieldObservation {
	data := root.Tree().Data()
	present := root.PresentFields()
	sizes := inlineSizes(root.VTable, present, len(data)-root.TableOffset)
	own := regionOf(root, len(data))

	out := make([]FieldObservation, 0, len(present))
	for _, i := range present {
		slot := root.TableOffset + int(root.VTable.FieldOffsets[i])
		out = append(out, FieldObservation{Index: i, Observation: observe(data, slot, sizes[i], own)})
	}

	demote := make([]bool, len(out))
	for i, a := range out {
		if !a.isReference() {
			continue
		}
		for j, b := range out {
			if i != j && b.isReference() && b.target > a.target && b.target < a.end {
				demote[i] = true
				break
			}
		}
	}
	for i := range out {
		if demote[i] {
			out[i].Observation = Observation{Kind: ObservedScalar, Size: out[i].Size}
		}
	}
	return out
}

// inlineSizes derives each present field's width from the gap to the next field
// slot, or to the end of the table for the last one.
func inlineSizes(vt flatbuffer.VTable, present []int, remaining int) map[int]int {
	rels := make([]int, 0, len(present))
	for _, i := range present {
		rels = append(rels, int(vt.FieldOffsets[i]))
	}
	sort.Ints(rels)

	end := int(vt.TableLength)
	if end > remaining {
		end = remaining
	}

	sizes := make(map[int]int, len(present))
	for _, i := range present {
		rel := int(vt.FieldOffsets[i])
		next := end
		j := sort.SearchInts(rels, rel+1)
		if j < len(rels) {
			next = rels[j]
		}
		size := next - rel
		if size <= 0 {
			size = remaining - rel
			if size > 8 {
				size = 8
			}
		}
		sizes[i] = size
	}
	return sizes
}

func observe(data []byte, slot, size int, own region) Observation {
	if size <= 0 || slot+size > len(data) {
		return Observation{Kind: ObservedUnknown, Size: size}
	}
	if size == 4 {
		if o, ok := observeReference(data, slot, own); ok {
			return o
		}
	}
	if scalarForSize(size) != flatbuffer.ScalarInvalid {
		return Observation{Kind: ObservedScalar, Size: size}
	}
	return Observation{Kind: ObservedStruct, Size: size}
}

// observeReference treats the u32 at slot as a reference and checks what it lands on.
func observeReference(data []byte, slot int, own region) (Observation, bool) {
	target, ok := referenceTarget(data, slot)
	if !ok || own.owns(target) {
		return Observation{}, false
	}
	if n, ok := plausibleString(data, target); ok {
		return Observation{Kind: ObservedString, Size: 4, Count: n, target: target, end: target + 4 + n + 1}, true
	}
	if vt, ok := plausibleTable(data, target); ok {
		return Observation{Kind: ObservedTable, Size: 4, Count: vt.FieldCount(), target: target, end: target + int(vt.TableLength)}, true
	}
	if count, elem, end, ok := plausibleVector(data, target); ok {
		return Observation{Kind: ObservedVector, Size: 4, Count: count, Elem: elem, target: target, end: end}, true
	}
	return Observation{}, false
}

// referenceTarget resolves the u32 at slot. Serialized payloads are 4-byte aligned,
// so unaligned targets are rejected.
func referenceTarget(data []byte, slot int) (int, bool) {
	rel, err := flatbuffer.ReadUint32(data, slot)
	if err != nil || rel == 0 {
		return 0, false
	}
	target := slot + int(rel)
	if target%4 != 0 || target < slot || target+4 > len(data) {
		return 0, false
	}
	return target, true
}

func plausibleString(data []byte, offset int) (int, bool) {
	n, err := flatbuffer.ReadUint32(data, offset)
	if err != nil {
		return 0, false
	}
	start := offset + 4
	end := start + int(n)
	if int(n) > len(data) || end >= len(data) || data[end] != 0 {
		return 0, false
	}
	raw := data[start:end]
	for _, c := range raw {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return 0, false
		}
	}
	return int(n), utf8.Valid(raw)
}

func plausibleTable(data []byte, offset int) (flatbuffer.VTable, bool) {
	soffset, err := flatbuffer.ReadInt32(data, offset)
	if err != nil || soffset == 0 {
		return flatbuffer.VTable{}, false
	}
	at := offset - int(soffset)
	if at < 0 || at >= len(data) {
		return flatbuffer.VTable{}, false
	}
	vt, err := flatbuffer.ReadVTable(data, at)
	if err != nil {
		return flatbuffer.VTable{}, false
	}
	tableLength := int(vt.TableLength)
	if tableLength < 4 || offset+tableLength > len(data) {
		return flatbuffer.VTable{}, false
	}
	for _, rel := range vt.FieldOffsets {
		if rel != 0 && (rel < 4 || int(rel) >= tableLength) {
			return flatbuffer.VTable{}, false
		}
	}
	return vt, true
}

// plausibleVector checks the u32 count at offset and the elements behind it. When
// the first element resolves to a string or table, every checked element must
// resolve to the same class, or the candidate is not a vector at all. Otherwise the
// elements are taken as scalars at the narrowest stride. The returned end is the
// smallest span the elements can occupy.
func plausibleVector(data []byte, offset int) (int, ObservedKind, int, bool) {
	count, err := flatbuffer.ReadUint32(data, offset)
	if err != nil {
		return 0, ObservedUnknown, 0, false
	}
	base := offset + 4
	remaining := len(data) - base
	if int(count) > remaining {
		return 0, ObservedUnknown, 0, false
	}
	if count == 0 {
		return 0, ObservedUnknown, base, true
	}

	if int(count) <= remaining/4 {
		if elem := referenceClass(data, base); elem != ObservedUnknown {
			checks := int(count)
			if checks > maxElementChecks {
				checks = maxElementChecks
			}
			for i := 1; i < checks; i++ {
				if referenceClass(data, base+4*i) != elem {
					return 0, ObservedUnknown, 0, false
				}
			}
			return int(count), elem, base + 4*int(count), true
		}
	}
	return int(count), ObservedScalar, base + int(count), true
}

// referenceClass resolves the reference at slot and names what it lands on.
func referenceClass(data []byte, slot int) ObservedKind {
	target, ok := referenceTarget(data, slot)
	if !ok {
		return ObservedUnknown
	}
	if _, ok := plausibleString(data, target); ok {
		return ObservedString
	}
	if _, ok := plausibleTable(data, target); ok {
		return ObservedTable
	}
	return ObservedUnknown
}

func scalarForSize(size int) flatbuffer.ScalarType {
	switch size {
	case 1:
		return flatbuffer.ScalarUint8
	case 2:
		return flatbuffer.ScalarUint16
	case 4:
		return flatbuffer.ScalarUint32
	case 8:
		return flatbuffer.ScalarUint64
	default:
		return flatbuffer.ScalarInvalid
	}
}

func window(data []byte, offset, n int) []byte {
	if offset < 0 || offset > len(data) {
		return nil
	}
	end := offset + n
	if end > len(data) || end < offset {
		end = len(data)
	}
	return data[offset:end]
}
