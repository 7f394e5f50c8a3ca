/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: hexdump.go
Description: Hex rendering of buffer windows for the interactive crawler. Rows are
labelled with absolute buffer offsets so they can be matched against node offsets.
*/

package hexdump

import (
	"fmt"
	"strings"
)

const (
	// BytesPerRow is the number of bytes rendered on each line.
	BytesPerRow = 16
	// DefaultLength is the window size rendered by Dump.
	DefaultLength = 0x100
)

// Dump renders DefaultLength bytes starting at offset.
func Dump(data []byte, offset int) string {
	return DumpRange(data, offset, DefaultLength)
}

// DumpRange renders up to length bytes starting at offset. Rows are aligned to
// BytesPerRow; bytes of the first row that precede offset are left blank.
// An offset outside data yields an empty string.
func DumpRange(data []byte, offset, length int) string {
	if offset < 0 || offset >= len(data) || length <= 0 {
		return ""
	}
	end := offset + length
	if end > len(data) || end < offset {
		end = len(data)
	}

	var b strings.Builder
	for row := offset - offset%BytesPerRow; row < end; row += BytesPerRow {
		fmt.Fprintf(&b, "%08X  ", row)
		var ascii strings.Builder
		for col := 0; col < BytesPerRow; col++ {
			at := row + col
			if col == BytesPerRow/2 {
				b.WriteByte(' ')
			}
			if at < offset || at >= end {
				b.WriteString("   ")
				ascii.WriteByte(' ')
				continue
			}
			fmt.Fprintf(&b, "%02X ", data[at])
			ascii.WriteByte(printable(data[at]))
		}
		fmt.Fprintf(&b, " |%s|\n", ascii.String())
	}
	return b.String()
}

func printable(c byte) byte {
	if c >= 0x20 && c < 0x7F {
		return c
	}
	return '.'
}
