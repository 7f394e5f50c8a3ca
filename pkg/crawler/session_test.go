/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session_test.go
Description: Tests for the crawl session: parent and root navigation, history
dump and replay, and failed commands leaving the session untouched.
*/

package crawler_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kleascm/flatcrawler/internal/fbtest"
	"github.com/kleascm/flatcrawler/pkg/crawler"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedBuffer() []byte {
	return fbtest.New().Finish(
		fbtest.Obj(fbtest.Obj(fbtest.U8(7))),
		fbtest.Str("name"),
		fbtest.StrVec("a", "b"),
	)
}

func newSession(t *testing.T, data []byte) (*crawler.Session, *bytes.Buffer, afero.Fs) {
	t.Helper()
	var out bytes.Buffer
	fs := afero.NewMemMapFs()
	s, err := crawler.NewSession(data, &crawler.Config{Fs: fs, Out: &out, HistoryPath: "/history.txt"})
	require.NoError(t, err)
	return s, &out, fs
}

func exec(t *testing.T, s *crawler.Session, line string) crawler.Result {
	t.Helper()
	res, err := s.Execute(line)
	require.NoError(t, err, line)
	return res
}

func TestUpFromRootFails(t *testing.T) {
	s, _, _ := newSession(t, nestedBuffer())
	root := s.Current()

	res, err := s.Execute("up")
	assert.Equal(t, crawler.ResultError, res)
	assert.ErrorIs(t, err, flatbuffer.ErrNoParent)
	assert.Same(t, root, s.Current())
	assert.Empty(t, s.History())
}

func TestRootReturnsOriginalRoot(t *testing.T) {
	s, out, _ := newSession(t, nestedBuffer())
	root := s.Current()

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 0 object"))
	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 0 object"))
	assert.Equal(t, 2, s.Tree().Depth(s.Current()))

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "up"))
	assert.Equal(t, 1, s.Tree().Depth(s.Current()))

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "root"))
	assert.Same(t, root, s.Current())
	assert.Contains(t, out.String(), "Success! Reset to root")

	assert.Equal(t, []string{"rf 0 object", "rf 0 object", "up", "root"}, s.History())
}

func TestFailedCommandsLeaveStateUnchanged(t *testing.T) {
	s, _, _ := newSession(t, nestedBuffer())
	root := s.Current()
	size := s.Tree().Len()

	cases := map[string]error{
		"rf 9 u32":       flatbuffer.ErrIndexOutOfRange,
		"rf 1 nonsense":  flatbuffer.ErrDecodeMismatch,
		"rf 1":           flatbuffer.ErrNotExplored,
		"eo 0":           crawler.ErrNotArray,
		"union 1=object": flatbuffer.ErrUnknownUnionTag,
		"fo 7":           flatbuffer.ErrIndexOutOfRange,
		"rf":             crawler.ErrMissingArgument,
	}
	for line, want := range cases {
		res, err := s.Execute(line)
		assert.Equal(t, crawler.ResultError, res, line)
		assert.ErrorIs(t, err, want, line)
		assert.Same(t, root, s.Current(), line)
	}
	assert.Empty(t, s.History())
	assert.Equal(t, size, s.Tree().Len())

	res, err := s.Execute("frobnicate")
	assert.NoError(t, err)
	assert.Equal(t, crawler.ResultUnrecognized, res)

	res, err = s.Execute("hex zz")
	assert.Error(t, err)
	assert.Equal(t, crawler.ResultError, res)
}

func TestSilentCommands(t *testing.T) {
	s, out, _ := newSession(t, nestedBuffer())
	root := s.Current().(*flatbuffer.Table)

	assert.Equal(t, crawler.ResultSilent, exec(t, s, "fo 1"))
	offset, err := root.FieldOffset(1)
	require.NoError(t, err)
	assert.Contains(t, out.String(), fmt.Sprintf("Offset: 0x%X", offset))

	out.Reset()
	assert.Equal(t, crawler.ResultSilent, exec(t, s, "ro 0x1"))
	target, err := root.ReferenceOffset(1)
	require.NoError(t, err)
	assert.Contains(t, out.String(), fmt.Sprintf("Offset: 0x%X", target))

	out.Reset()
	assert.Equal(t, crawler.ResultSilent, exec(t, s, "hex"))
	assert.Contains(t, out.String(), "Requested offset: 0x")
	assert.Contains(t, out.String(), "|")

	out.Reset()
	assert.Equal(t, crawler.ResultSilent, exec(t, s, "info"))
	assert.Contains(t, out.String(), "Root @ 0x")

	assert.Equal(t, crawler.ResultQuit, exec(t, s, "QUIT"))
	assert.Empty(t, s.History())
}

func TestArrayNavigation(t *testing.T) {
	s, out, _ := newSession(t, nestedBuffer())

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 2 string[]"))
	arr, ok := s.Current().(*flatbuffer.Array)
	require.True(t, ok)

	out.Reset()
	assert.Equal(t, crawler.ResultSilent, exec(t, s, "eo 1"))
	entry, err := arr.EntryOffset(1)
	require.NoError(t, err)
	assert.Contains(t, out.String(), fmt.Sprintf("Offset: 0x%X", entry))

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 1"))
	str, ok := s.Current().(*flatbuffer.String)
	require.True(t, ok)
	assert.Equal(t, "b", str.Text)

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "up"))
	assert.Same(t, arr, s.Current())
}

func TestUnionNavigation(t *testing.T) {
	data := fbtest.New().Finish(fbtest.U8(1), fbtest.Obj(fbtest.Str("arm")))
	s, _, _ := newSession(t, data)

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "union 1=string,2=object"))
	u, ok := s.Current().(*flatbuffer.Union)
	require.True(t, ok)
	assert.Equal(t, uint8(1), u.Tag)

	nodes := s.Tree().Len()
	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "up"))
	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "union 1=string,2=object"))
	assert.Same(t, u, s.Current())
	assert.Equal(t, nodes, s.Tree().Len())

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 0"))
	payload, ok := s.Current().(*flatbuffer.String)
	require.True(t, ok)
	assert.Equal(t, "arm", payload.Text)
	assert.Equal(t, u.Object, payload.Parent())
}

func TestUnionTypedReadThroughObject(t *testing.T) {
	data := fbtest.New().Finish(fbtest.U8(2), fbtest.Obj(fbtest.Obj(fbtest.U32(5))))
	s, _, _ := newSession(t, data)

	exec(t, s, "union 2=object")
	u := s.Current().(*flatbuffer.Union)

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 0 object"))
	obj, ok := s.Current().(*flatbuffer.Table)
	require.True(t, ok)
	assert.Equal(t, u.Payload, obj.ID())

	assert.Equal(t, crawler.ResultNavigate, exec(t, s, "rf 0 u32"))
	leaf, ok := s.Current().(*flatbuffer.Scalar)
	require.True(t, ok)
	assert.Equal(t, uint64(5), leaf.Value.Uint())
}

func TestDumpAndLoadHistory(t *testing.T) {
	data := nestedBuffer()
	s, _, fs := newSession(t, data)

	exec(t, s, "rf 0 object")
	exec(t, s, "p")
	exec(t, s, "rf 0 object")
	want := s.Current().Offset()
	assert.Equal(t, crawler.ResultSilent, exec(t, s, "dump"))

	saved, err := afero.ReadFile(fs, "/history.txt")
	require.NoError(t, err)
	assert.Equal(t, "rf 0 object\nrf 0 object\n", string(saved))

	var out bytes.Buffer
	replay, err := crawler.NewSession(data, &crawler.Config{Fs: fs, Out: &out, HistoryPath: "/history.txt"})
	require.NoError(t, err)
	assert.Equal(t, crawler.ResultSilent, exec(t, replay, "load"))
	assert.Equal(t, want, replay.Current().Offset())
	assert.Equal(t, 2, replay.Tree().Depth(replay.Current()))
	assert.Len(t, replay.History(), 2)
	assert.Contains(t, out.String(), "Reloaded state.")
}

func TestLoadMissingHistory(t *testing.T) {
	s, _, _ := newSession(t, nestedBuffer())
	res, err := s.Execute("load")
	assert.Equal(t, crawler.ResultError, res)
	assert.Error(t, err)
}

func TestRunLoop(t *testing.T) {
	s, out, _ := newSession(t, nestedBuffer())
	in := strings.NewReader("rf 1 str\nbogus\nup\nup\nquit\nrf 0 object\n")

	require.NoError(t, s.Run(context.Background(), "sample.bin", in))
	text := out.String()
	assert.Contains(t, text, "Crawling sample.bin...")
	assert.Contains(t, text, `String @ 0x`)
	assert.Contains(t, text, "unable to recognize command: bogus")
	assert.Contains(t, text, "node has no parent")
	assert.Equal(t, []string{"rf 1 str", "up"}, s.History())
}

func TestRunCancelled(t *testing.T) {
	s, _, _ := newSession(t, nestedBuffer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, "x", strings.NewReader("quit\n")), context.Canceled)
}

func TestNewSessionRejectsBadBuffer(t *testing.T) {
	_, err := crawler.NewSession([]byte{0xFF, 0, 0, 0}, nil)
	assert.ErrorIs(t, err, flatbuffer.ErrMalformedLayout)
}
