/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: print.go
Description: Text rendering of nodes for the interactive crawler: a one-line
description of any node and a tree view of a node's explored children.
*/

package flatbuffer

import (
	"fmt"
	"io"
	"strings"
)

// maxPreview caps string previews in descriptions.
const maxPreview = 64

// Describe returns a one-line description of n.
func Describe(n Node) string {
	switch v := n.(type) {
	case *Table:
		return fmt.Sprintf("%s @ 0x%X (%d fields, vtable @ 0x%X, %d bytes)", v.Name(), v.Offset(), v.FieldCount(), v.VTableOffset, v.VTable.TableLength)
	case *Array:
		return fmt.Sprintf("%s @ 0x%X (%d entries)", v.Name(), v.Offset(), v.Count)
	case *String:
		return fmt.Sprintf("String @ 0x%X = %s", v.Offset(), Quote(v.Text))
	case *Scalar:
		return fmt.Sprintf("%s @ 0x%X = %s", v.Name(), v.Offset(), v.Value)
	case *Struct:
		return fmt.Sprintf("%s @ 0x%X = % X", v.Name(), v.Offset(), v.Bytes())
	case *Union:
		return fmt.Sprintf("%s @ 0x%X", v.Name(), v.Offset())
	default:
		return fmt.Sprintf("%s @ 0x%X", n.Name(), n.Offset())
	}
}

// Quote renders a string preview, truncated to a fixed width.
func Quote(s string) string {
	r := []rune(s)
	if len(r) > maxPreview {
		return fmt.Sprintf("%q... (%d chars)", string(r[:maxPreview]), len(r))
	}
	return fmt.Sprintf("%q", s)
}

// PrintTree writes n and its explored children.
func PrintTree(w io.Writer, n Node) {
	fmt.Fprintln(w, Describe(n))
	switch v := n.(type) {
	case *Table:
		for i := 0; i < v.FieldCount(); i++ {
			fmt.Fprintf(w, "  %s\n", fieldLine(v, i))
		}
	case *Array:
		for i := 0; i < v.Count; i++ {
			child, ok := v.Explored(i)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  [%d] %s\n", i, Describe(child))
		}
		if hidden := v.Count - v.ExploredEntries(); hidden > 0 {
			fmt.Fprintf(w, "  ... %d unexplored entries\n", hidden)
		}
	case *Union:
		if payload, ok := v.PayloadNode(); ok {
			fmt.Fprintf(w, "  payload: %s\n", Describe(payload))
		}
	}
}

func fieldLine(t *Table, i int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] ", i)
	offset, err := t.FieldOffset(i)
	if err != nil {
		b.WriteString("absent")
		return b.String()
	}
	fmt.Fprintf(&b, "@ 0x%X", offset)
	if hint, ok := t.Hint(i); ok {
		fmt.Fprintf(&b, " <%s>", hint)
	}
	if child, err := t.Field(i); err == nil {
		fmt.Fprintf(&b, " -> %s", Describe(child))
	} else {
		b.WriteString(" (unexplored)")
	}
	return b.String()
}
