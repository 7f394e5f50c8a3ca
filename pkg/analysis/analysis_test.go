/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analysis_test.go
Description: Tests for batch analysis: bucketing by field count and fingerprint,
peek-window skips, failure isolation, per-file dumps and the grouped report.
*/

package analysis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kleascm/flatcrawler/internal/fbtest"
	"github.com/kleascm/flatcrawler/pkg/logging"
	"github.com/kleascm/flatcrawler/pkg/monitoring"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0644))
}

func fixtureFS(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/a.bin", fbtest.New().Finish(fbtest.U32(100), fbtest.Str("alpha"), fbtest.Obj(fbtest.U16(1))))
	writeFile(t, fs, "/in/b.bin", fbtest.New().Finish(fbtest.U32(200), fbtest.Str("beta"), fbtest.Obj(fbtest.U16(2))))
	writeFile(t, fs, "/in/nested/c.bin", fbtest.New().Finish(fbtest.U32(300), fbtest.Str("gamma"), fbtest.U32(5)))
	writeFile(t, fs, "/in/big.bin", bytes.Repeat([]byte{0x04}, 300))
	writeFile(t, fs, "/in/tiny.bin", []byte{1, 2, 3})
	writeFile(t, fs, "/in/broken.bin", []byte{0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	return fs
}

func testSettings() *Settings {
	s := DefaultSettings("/in", "/out")
	s.MaxPeekSize = 256
	return s
}

func testLogger(t *testing.T) *logging.Logger {
	config := logging.DefaultLoggerConfig()
	config.OutputDir = t.TempDir()
	config.Quiet = true
	logger, err := logging.NewLogger(config)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, testSettings().Validate())

	s := testSettings()
	s.MaxPeekSize = 4
	assert.Error(t, s.Validate())

	s = testSettings()
	s.ResultsFileName = "../escape.txt"
	assert.Error(t, s.Validate())

	s = testSettings()
	s.InputPath = ""
	assert.Error(t, s.Validate())

	_, err := NewAnalyzer(afero.NewMemMapFs(), s, nil)
	assert.Error(t, err)
	assert.Equal(t, "/out/a.bin.schema.txt", testSettings().SchemaDumpPath("/in/a.bin"))
	assert.Equal(t, "/out/nested/c.bin.schema.txt", testSettings().SchemaDumpPath("/in/nested/c.bin"))
	assert.Equal(t, "/out/x.bin.schema.txt", testSettings().SchemaDumpPath("/elsewhere/x.bin"))
}

func TestRunKeepsDumpsOfSameNamedFilesApart(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/one/same.bin", fbtest.New().Finish(fbtest.U32(1), fbtest.Str("first")))
	writeFile(t, fs, "/in/two/same.bin", fbtest.New().Finish(fbtest.Str("second")))

	settings := testSettings()
	settings.SkipAnalysisIfSchemaDumpExists = true
	analyzer, err := NewAnalyzer(fs, settings, nil)
	require.NoError(t, err)

	run, err := analyzer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Analyzed)
	assert.Equal(t, 0, run.Skipped)

	first, err := afero.ReadFile(fs, "/out/one/same.bin.schema.txt")
	require.NoError(t, err)
	assert.Contains(t, string(first), `"first"`)
	second, err := afero.ReadFile(fs, "/out/two/same.bin.schema.txt")
	require.NoError(t, err)
	assert.Contains(t, string(second), `"second"`)
}

func TestRunBucketsByFieldCountAndHash(t *testing.T) {
	fs := fixtureFS(t)
	analyzer, err := NewAnalyzer(fs, testSettings(), testLogger(t))
	require.NoError(t, err)

	run, err := analyzer.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Analyzed)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, 1, run.Failed)

	groups := Group(run.Results)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].FieldCount)
	require.Len(t, groups[0].Buckets, 2)
	assert.Equal(t, 3, groups[0].Files())

	var pair, single HashBucket
	for _, b := range groups[0].Buckets {
		if len(b.Results) == 2 {
			pair = b
		} else {
			single = b
		}
	}
	require.Len(t, pair.Results, 2)
	assert.Equal(t, "a.bin", pair.Results[0].FileName)
	assert.Equal(t, "b.bin", pair.Results[1].FileName)
	require.Len(t, single.Results, 1)
	assert.Equal(t, "/in/nested/c.bin", single.Results[0].Path)
	assert.NotEqual(t, pair.Hash, single.Hash)
}

func TestRunSkipsOversizedFilesSilently(t *testing.T) {
	fs := fixtureFS(t)
	analyzer, err := NewAnalyzer(fs, testSettings(), nil)
	require.NoError(t, err)

	run, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	for _, r := range run.Results {
		assert.NotEqual(t, "big.bin", r.FileName)
	}
	var found bool
	for _, o := range run.Outcomes {
		if o.Path == "/in/big.bin" {
			found = true
			assert.Equal(t, OutcomeSkipped, o.Outcome)
			assert.Contains(t, o.Reason, "exceeds peek window")
		}
	}
	assert.True(t, found)

	report, err := afero.ReadFile(fs, "/out/results.txt")
	require.NoError(t, err)
	assert.NotContains(t, string(report), "big.bin")
}

func TestRunWritesDumpsAndReport(t *testing.T) {
	fs := fixtureFS(t)
	analyzer, err := NewAnalyzer(fs, testSettings(), nil)
	require.NoError(t, err)
	_, err = analyzer.Run(context.Background())
	require.NoError(t, err)

	dump, err := afero.ReadFile(fs, "/out/a.bin.schema.txt")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(dump)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[0] u32 = 100 (0x64)", lines[0])
	assert.Contains(t, lines[1], `"alpha"`)

	report, err := afero.ReadFile(fs, "/out/results.txt")
	require.NoError(t, err)
	text := string(report)
	assert.True(t, strings.HasPrefix(text, "Field count: 3\n"))
	assert.Equal(t, 2, strings.Count(text, "\tHash: "))
	assert.Contains(t, text, "\t\ta.bin\t/in/a.bin\n")
	assert.Contains(t, text, "\t\t\t[0] u32 = 100 (0x64)\n")

	// a second run leaves existing dumps alone
	settings := testSettings()
	settings.SkipAnalysisIfSchemaDumpExists = true
	again, err := NewAnalyzer(fs, settings, nil)
	require.NoError(t, err)
	run, err := again.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.Analyzed)
	assert.Equal(t, 5, run.Skipped)
}

func TestRunRecordsMetrics(t *testing.T) {
	analyzer, err := NewAnalyzer(fixtureFS(t), testSettings(), nil)
	require.NoError(t, err)
	analyzer.SetMetrics(monitoring.NewMetricsCollector(nil, 3))

	run, err := analyzer.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run.Metrics)
	assert.Equal(t, 6, run.Metrics.TotalFiles)
	assert.Equal(t, 3, run.Metrics.Outcomes["analyzed"].Files)
	assert.Equal(t, 2, run.Metrics.Outcomes["skipped"].Files)
	assert.Equal(t, 1, run.Metrics.Outcomes["failed"].Files)
	assert.Len(t, run.Metrics.Slowest, 3)
}

func TestRunHonoursCancellation(t *testing.T) {
	analyzer, err := NewAnalyzer(fixtureFS(t), testSettings(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = analyzer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMissingInput(t *testing.T) {
	analyzer, err := NewAnalyzer(afero.NewMemMapFs(), testSettings(), nil)
	require.NoError(t, err)
	_, err = analyzer.Run(context.Background())
	assert.Error(t, err)
}

func TestGroupOrdering(t *testing.T) {
	results := []Result{
		{FieldCount: 5, Hash: 1, FileName: "z", Path: "/b/z"},
		{FieldCount: 2, Hash: 9, FileName: "y", Path: "/y"},
		{FieldCount: 2, Hash: 3, FileName: "b", Path: "/2/b"},
		{FieldCount: 2, Hash: 3, FileName: "b", Path: "/1/b"},
		{FieldCount: 2, Hash: 3, FileName: "a", Path: "/9/a"},
	}
	groups := Group(results)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].FieldCount)
	assert.Equal(t, 5, groups[1].FieldCount)

	require.Len(t, groups[0].Buckets, 2)
	first := groups[0].Buckets[0]
	assert.Equal(t, uint64(3), first.Hash)
	require.Len(t, first.Results, 3)
	assert.Equal(t, "/9/a", first.Results[0].Path)
	assert.Equal(t, "/1/b", first.Results[1].Path)
	assert.Equal(t, "/2/b", first.Results[2].Path)

	assert.Equal(t, "z", results[0].FileName)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, groups, false))
	assert.Contains(t, buf.String(), "Field count: 5\n\tHash: 0000000000000001 (1 files)\n\t\tz\t/b/z\n")
}
