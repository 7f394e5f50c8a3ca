/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands_test.go
Description: Tests for command helpers: settings from configuration, capped reads
and offset parsing.
*/

package commands

import (
	"testing"

	"github.com/kleascm/flatcrawler/internal/fbtest"
	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexOffset(t *testing.T) {
	for text, want := range map[string]int{"1F": 0x1F, "0x20": 0x20, "0XFF": 0xFF, " 10 ": 0x10} {
		got, err := parseHexOffset(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
	_, err := parseHexOffset("zz")
	assert.Error(t, err)
}

func TestParseAnalysisSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("analysis.output_dir", "/out")
	viper.Set("analysis.max_peek_size", 4096)
	viper.Set("analysis.dump_each", false)
	viper.Set("analysis.skip_existing", true)

	s := parseAnalysisSettings("/in")
	assert.Equal(t, "/in", s.InputPath)
	assert.Equal(t, "/out", s.OutputPath)
	assert.Equal(t, 4096, s.MaxPeekSize)
	assert.False(t, s.DumpIndividualSchemaAnalysis)
	assert.True(t, s.SkipAnalysisIfSchemaDumpExists)
	assert.Equal(t, analysis.DefaultResultsFileName, s.ResultsFileName)
	assert.NoError(t, s.Validate())
}

func TestReadCapped(t *testing.T) {
	orig := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = orig })

	require.NoError(t, afero.WriteFile(fs, "/a.bin", make([]byte, 32), 0644))
	require.NoError(t, fs.MkdirAll("/dir", 0755))

	data, err := readCapped("/a.bin", 64)
	require.NoError(t, err)
	assert.Len(t, data, 32)

	_, err = readCapped("/a.bin", 16)
	assert.Error(t, err)
	_, err = readCapped("/dir", 0)
	assert.Error(t, err)
	_, err = readCapped("/missing", 0)
	assert.Error(t, err)
}

func TestCountBuckets(t *testing.T) {
	groups := analysis.Group([]analysis.Result{
		{FieldCount: 2, Hash: 1, FileName: "a", Path: "/a"},
		{FieldCount: 2, Hash: 1, FileName: "b", Path: "/b"},
		{FieldCount: 2, Hash: 2, FileName: "c", Path: "/c"},
		{FieldCount: 3, Hash: 1, FileName: "d", Path: "/d"},
	})
	assert.Len(t, groups, 2)
	assert.Equal(t, 3, countBuckets(groups))
}

func TestInferDirStreamsSamples(t *testing.T) {
	orig := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = orig })

	require.NoError(t, afero.WriteFile(fs, "/samples/a.bin", fbtest.New().Finish(fbtest.U32(1), fbtest.Str("a")), 0644))
	require.NoError(t, afero.WriteFile(fs, "/samples/sub/b.bin", fbtest.New().Finish(fbtest.U32(2), fbtest.Str("bb")), 0644))
	require.NoError(t, afero.WriteFile(fs, "/samples/large.bin", make([]byte, 512), 0644))

	grammar, err := inferDir("/samples", 128)
	require.NoError(t, err)
	assert.Equal(t, 2, grammar.Metadata["samples"])
	assert.Equal(t, 2, grammar.Metadata["decoded"])
	assert.Equal(t, 1, grammar.Metadata["fingerprints"])

	_, err = inferDir("/samples/large.bin", 128)
	assert.Error(t, err)
}

func TestReadInto(t *testing.T) {
	orig := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = orig })

	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte{1, 2, 3}, 0644))
	scratch := make([]byte, 4)

	data, err := readInto("/a.bin", scratch)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, &scratch[0], &data[0])

	_, err = readInto("/a.bin", scratch[:2])
	assert.Error(t, err)
}
