/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands.go
Description: Command handlers for the crawl session. Each handler either moves the
current node, prints something about it, or touches the history file.
*/

package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/kleascm/flatcrawler/pkg/hexdump"
	"github.com/spf13/afero"
)

var (
	// ErrNoFields is returned by field commands on a node that is not a table.
	ErrNoFields = errors.New("node has no fields")
	// ErrNotArray is returned by entry commands on a node that is not a vector.
	ErrNotArray = errors.New("node is not an array")
	// ErrMissingArgument is returned when a command needs an argument.
	ErrMissingArgument = errors.New("missing argument")
)

const clearScreen = "\033[H\033[2J"

func (s *Session) dispatch(word, args string) (Result, error) {
	if args == "" {
		switch word {
		case "tree":
			flatbuffer.PrintTree(s.config.Out, s.current)
			return ResultSilent, nil
		case "p", "info":
			fmt.Fprintln(s.config.Out, flatbuffer.Describe(s.current))
			return ResultSilent, nil
		case "hex", "h":
			s.dumpHex(s.current.Offset())
			return ResultSilent, nil
		case "up":
			return s.up()
		case "root":
			return s.root()
		case "load":
			return s.load()
		case "dump":
			return s.dump()
		case "clear":
			fmt.Fprint(s.config.Out, clearScreen)
			return ResultSilent, nil
		case "quit":
			return ResultQuit, nil
		case "ro", "fo", "eo", "rf", "union":
			return ResultError, fmt.Errorf("%s: %w", word, ErrMissingArgument)
		}
		return ResultUnrecognized, nil
	}

	switch word {
	case "ro":
		return s.printOffset(args, func(t *flatbuffer.Table, i int) (int, error) { return t.ReferenceOffset(i) })
	case "fo":
		return s.printOffset(args, func(t *flatbuffer.Table, i int) (int, error) { return t.FieldOffset(i) })
	case "eo":
		return s.entryOffset(args)
	case "rf":
		return s.readField(args)
	case "union":
		return s.readUnion(args)
	case "hex", "h":
		offset, err := parseHex(args)
		if err != nil {
			return ResultError, fmt.Errorf("unable to parse hex offset: %w", err)
		}
		s.dumpHex(offset)
		return ResultSilent, nil
	}
	return ResultUnrecognized, nil
}

func (s *Session) printOffset(args string, offsetOf func(*flatbuffer.Table, int) (int, error)) (Result, error) {
	t, ok := s.current.(*flatbuffer.Table)
	if !ok {
		return ResultError, ErrNoFields
	}
	index, err := parseHex(args)
	if err != nil {
		return ResultError, fmt.Errorf("invalid field index %q: %w", args, err)
	}
	offset, err := offsetOf(t, index)
	if err != nil {
		return ResultError, err
	}
	fmt.Fprintf(s.config.Out, "Offset: 0x%X\n", offset)
	return ResultSilent, nil
}

func (s *Session) entryOffset(args string) (Result, error) {
	a, ok := s.current.(*flatbuffer.Array)
	if !ok {
		return ResultError, ErrNotArray
	}
	index, err := parseHex(args)
	if err != nil {
		return ResultError, fmt.Errorf("invalid entry index %q: %w", args, err)
	}
	offset, err := a.EntryOffset(index)
	if err != nil {
		return ResultError, err
	}
	fmt.Fprintf(s.config.Out, "Offset: 0x%X\n", offset)
	return ResultSilent, nil
}

// readField handles "rf <index>" and "rf <index> <type>". On a table the typed
// form decodes the field, the bare form returns to an explored one. On an array
// both forms select the entry. A resolved union reads through its referenced
// object, so "rf 0" steps into the payload.
func (s *Session) readField(args string) (Result, error) {
	indexText, typeText, typed := strings.Cut(args, " ")
	index, err := strconv.Atoi(strings.TrimSpace(indexText))
	if err != nil {
		return ResultError, fmt.Errorf("invalid index %q: %w", indexText, err)
	}

	current := s.current
	if u, ok := current.(*flatbuffer.Union); ok {
		obj, ok := u.ObjectTable()
		if !ok {
			return ResultError, ErrNoFields
		}
		current = obj
	}

	var next flatbuffer.Node
	switch n := current.(type) {
	case *flatbuffer.Table:
		if typed {
			next, err = n.ReadNode(index, flatbuffer.ParseFieldKind(strings.ToLower(strings.TrimSpace(typeText))))
		} else {
			next, err = n.Field(index)
		}
	case *flatbuffer.Array:
		next, err = n.Entry(index)
	default:
		return ResultError, ErrNoFields
	}
	if err != nil {
		return ResultError, err
	}
	s.current = next
	return ResultNavigate, nil
}

func (s *Session) readUnion(args string) (Result, error) {
	t, ok := s.current.(*flatbuffer.Table)
	if !ok {
		return ResultError, ErrNoFields
	}
	info, err := flatbuffer.ParseUnionInfo(args)
	if err != nil {
		return ResultError, err
	}
	u, err := info.Read(t)
	if err != nil {
		return ResultError, err
	}
	s.current = u
	return ResultNavigate, nil
}

func (s *Session) up() (Result, error) {
	parent, err := s.tree.Parent(s.current)
	if err != nil {
		return ResultError, err
	}
	s.current = parent
	return ResultNavigate, nil
}

func (s *Session) root() (Result, error) {
	s.current = s.tree.Root()
	fmt.Fprintf(s.config.Out, "Success! Reset to root @ offset 0x%X\n", s.current.Offset())
	return ResultNavigate, nil
}

// load replays the history file. The replayed commands are recorded again, so a
// later dump writes them back out.
func (s *Session) load() (Result, error) {
	data, err := afero.ReadFile(s.config.Fs, s.config.HistoryPath)
	if err != nil {
		return ResultError, fmt.Errorf("failed to read history: %w", err)
	}
	if err := s.Replay(bytes.NewReader(data)); err != nil {
		return ResultError, fmt.Errorf("failed to replay history: %w", err)
	}
	fmt.Fprintln(s.config.Out, "Reloaded state.")
	return ResultSilent, nil
}

func (s *Session) dump() (Result, error) {
	var b strings.Builder
	for _, line := range s.history {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := afero.WriteFile(s.config.Fs, s.config.HistoryPath, []byte(b.String()), 0644); err != nil {
		return ResultError, fmt.Errorf("failed to write history: %w", err)
	}
	fmt.Fprintf(s.config.Out, "Saved %d commands to %s\n", len(s.history), s.config.HistoryPath)
	return ResultSilent, nil
}

func (s *Session) dumpHex(offset int) {
	fmt.Fprintf(s.config.Out, "Requested offset: 0x%08X\n", offset)
	fmt.Fprintln(s.config.Out, hexdump.Dump(s.tree.Data(), offset))
}

func parseHex(text string) (int, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(text), "0x"), "0X")
	v, err := strconv.ParseUint(text, 16, 31)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
