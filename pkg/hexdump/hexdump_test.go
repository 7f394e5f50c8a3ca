/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: hexdump_test.go
Description: Tests for hex rendering.
*/

package hexdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpUsesAbsoluteOffsets(t *testing.T) {
	data := make([]byte, 0x40)
	for i := range data {
		data[i] = byte(i)
	}
	data[0x22] = 'A'

	out := DumpRange(data, 0x21, 0x10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "00000020  "))
	assert.True(t, strings.HasPrefix(lines[1], "00000030  "))
	assert.Contains(t, lines[0], "21 41 23")
	assert.Contains(t, lines[0], "| !A#")
	assert.NotContains(t, lines[0], " 20 ")
}

func TestDumpClampsToBuffer(t *testing.T) {
	data := []byte("hello")
	out := Dump(data, 0)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "68 65 6C 6C 6F")
	assert.Contains(t, out, "|hello")

	assert.Empty(t, Dump(data, 5))
	assert.Empty(t, Dump(data, -1))
	assert.Empty(t, DumpRange(data, 0, 0))
}
