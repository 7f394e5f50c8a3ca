/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fingerprint.go
Description: Order-sensitive folding of per-field observation hashes into one schema
fingerprint.
*/

package inference

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint folds the observations in ascending index order. Each step hashes the
// running accumulator together with the field index and the observation hash, so
// swapping two fields' shapes changes the result.
func Fingerprint(fields []FieldObservation) uint64 {
	ordered := make([]FieldObservation, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var (
		acc uint64
		buf [20]byte
	)
	d := xxhash.New()
	for _, f := range ordered {
		binary.LittleEndian.PutUint64(buf[0:], acc)
		binary.LittleEndian.PutUint32(buf[8:], uint32(f.Index))
		binary.LittleEndian.PutUint64(buf[12:], f.Hash())
		d.Reset()
		_, _ = d.Write(buf[:])
		acc = d.Sum64()
	}
	return acc
}
