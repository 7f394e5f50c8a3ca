/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sqlite_test.go
Description: Tests for the SQLite run index.
*/

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRunAndQueryBuckets(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	high := uint64(0xF000000000000001)
	run := &analysis.Run{
		ID:       "run-1",
		Started:  time.Now(),
		Finished: time.Now(),
		Analyzed: 3,
		Results: []analysis.Result{
			{FieldCount: 3, Hash: high, FileName: "b.bin", Path: "/in/b.bin", Fields: []string{"[0] u32 = 1 (0x1)"}},
			{FieldCount: 3, Hash: high, FileName: "a.bin", Path: "/in/a.bin"},
			{FieldCount: 3, Hash: 7, FileName: "c.bin", Path: "/in/c.bin"},
		},
	}
	require.NoError(t, s.SaveRun(ctx, run))
	// saving again replaces rather than duplicates
	require.NoError(t, s.SaveRun(ctx, run))

	buckets, err := s.Buckets(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, Bucket{FieldCount: 3, Hash: 7, Files: 1}, buckets[0])
	assert.Equal(t, Bucket{FieldCount: 3, Hash: high, Files: 2}, buckets[1])

	matches, err := s.Matches(ctx, 3, high)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a.bin", matches[0].FileName)
	assert.Equal(t, "/in/b.bin", matches[1].Path)
	assert.Equal(t, []string{"[0] u32 = 1 (0x1)"}, matches[1].Fields)

	empty, err := s.Buckets(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBucketsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	for _, id := range []string{"r1", "r2"} {
		require.NoError(t, s.SaveRun(ctx, &analysis.Run{
			ID:      id,
			Results: []analysis.Result{{FieldCount: 1, Hash: 5, FileName: "x", Path: "/x"}},
		}))
	}

	buckets, err := s.Buckets(ctx, "")
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 1, buckets[0].Files)
}
