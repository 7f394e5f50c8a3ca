/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: array_test.go
Description: Tests for vector nodes: entry stride, bounds, reference entries and the
per-entry cache.
*/

package flatbuffer_test

import (
	"testing"

	"github.com/kleascm/flatcrawler/internal/fbtest"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectArrayEntries(t *testing.T) {
	data := fbtest.New().Finish(fbtest.ObjVec(
		[]fbtest.Field{fbtest.U32(1)},
		[]fbtest.Field{fbtest.U32(2)},
		[]fbtest.Field{fbtest.U32(3)},
	))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)

	arr, err := root.ReadObjectArray(0)
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Count)
	assert.Equal(t, arr.Offset()+4, arr.BaseOffset)

	prev := -1
	for i := 0; i < arr.Count; i++ {
		offset, err := arr.EntryOffset(i)
		require.NoError(t, err)
		if prev >= 0 {
			assert.Equal(t, arr.Elem.Size(), offset-prev)
		}
		prev = offset
	}

	_, err = arr.Entry(3)
	assert.ErrorIs(t, err, flatbuffer.ErrIndexOutOfRange)
	_, err = arr.EntryOffset(-1)
	assert.ErrorIs(t, err, flatbuffer.ErrIndexOutOfRange)

	entry, err := arr.Entry(1)
	require.NoError(t, err)
	tbl, ok := entry.(*flatbuffer.Table)
	require.True(t, ok)
	assert.Equal(t, arr.ID(), tbl.Parent())

	v, err := tbl.ScalarValue(0, flatbuffer.ScalarUint32)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Uint())

	slot, _ := arr.EntryOffset(1)
	rel, _ := flatbuffer.ReadUint32(data, slot)
	assert.Equal(t, slot+int(rel), tbl.Offset())

	again, err := arr.Entry(1)
	require.NoError(t, err)
	assert.Same(t, entry, again)
	assert.Equal(t, 1, arr.ExploredEntries())
}

func TestStringArrayEntries(t *testing.T) {
	data := fbtest.New().Finish(fbtest.StrVec("a", "bc"))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)

	node, err := root.ReadNode(0, flatbuffer.ParseFieldKind("string[]"))
	require.NoError(t, err)
	arr := node.(*flatbuffer.Array)
	assert.Equal(t, flatbuffer.ElemStringRef, arr.Elem.Class)

	entry, err := arr.Entry(1)
	require.NoError(t, err)
	assert.Equal(t, "bc", entry.(*flatbuffer.String).Text)
}

func TestScalarArrayStride(t *testing.T) {
	data := fbtest.New().Finish(fbtest.U16Vec(10, 20, 30))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)

	node, err := root.ReadNode(0, flatbuffer.ParseFieldKind("u16[]"))
	require.NoError(t, err)
	arr := node.(*flatbuffer.Array)
	assert.Equal(t, 3, arr.Count)

	first, _ := arr.EntryOffset(0)
	second, _ := arr.EntryOffset(1)
	assert.Equal(t, 2, second-first)

	entry, err := arr.Entry(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), entry.(*flatbuffer.Scalar).Value.Uint())
}

func TestStructArrayEntries(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	data := fbtest.New().Finish(fbtest.BytesVec(2, raw))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)

	node, err := root.ReadNode(0, flatbuffer.ParseFieldKind("struct:6[]"))
	require.NoError(t, err)
	arr := node.(*flatbuffer.Array)
	assert.Equal(t, 6, arr.Elem.Size())

	entry, err := arr.Entry(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9, 10, 11, 12}, entry.(*flatbuffer.Struct).Bytes())
}

func TestArrayCountExceedingBuffer(t *testing.T) {
	data := fbtest.New().Finish(fbtest.BytesVec(1000, []byte{1, 2, 3, 4}))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)
	size := root.Tree().Len()

	_, err = root.ReadScalarArray(0, flatbuffer.ScalarUint32)
	assert.ErrorIs(t, err, flatbuffer.ErrMalformedLayout)
	assert.Equal(t, size, root.Tree().Len())
}

func TestUnsupportedArrayShape(t *testing.T) {
	data := fbtest.New().Finish(fbtest.U16Vec(1))
	root, err := flatbuffer.ReadRoot(data)
	require.NoError(t, err)

	_, err = root.ReadStructArray(0, 0)
	assert.ErrorIs(t, err, flatbuffer.ErrDecodeMismatch)

	_, err = root.ReadNode(0, flatbuffer.ParseFieldKind("struct:0[]"))
	assert.ErrorIs(t, err, flatbuffer.ErrDecodeMismatch)
}
