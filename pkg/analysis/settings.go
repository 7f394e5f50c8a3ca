/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: settings.go
Description: Configuration for batch schema analysis: where to read candidate files,
where to write reports, and how large a file may be before it is skipped.
*/

package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
)

const (
	// DefaultMaxPeekSize is the scratch buffer size; larger files are skipped.
	DefaultMaxPeekSize = 8 * 1024 * 1024
	// DefaultResultsFileName is the grouped report written at the end of a run.
	DefaultResultsFileName = "results.txt"
	// SchemaDumpSuffix is appended to a file's name for its per-file dump.
	SchemaDumpSuffix = ".schema.txt"
)

// Settings holds configuration for a batch run
type Settings struct {
	InputPath                      string `json:"input_path"`
	OutputPath                     string `json:"output_path"`
	MaxPeekSize                    int    `json:"max_peek_size"`
	DumpIndividualSchemaAnalysis   bool   `json:"dump_individual_schema_analysis"`
	SkipAnalysisIfSchemaDumpExists bool   `json:"skip_analysis_if_schema_dump_exists"`
	ResultsFileName                string `json:"results_file_name"`
}

// DefaultSettings returns settings for analyzing input into output
func DefaultSettings(input, output string) *Settings {
	return &Settings{
		InputPath:                    input,
		OutputPath:                   output,
		MaxPeekSize:                  DefaultMaxPeekSize,
		DumpIndividualSchemaAnalysis: true,
		ResultsFileName:              DefaultResultsFileName,
	}
}

// Validate checks the settings for missing or out-of-range values
func (s *Settings) Validate() error {
	if s.InputPath == "" {
		return fmt.Errorf("input path must not be empty")
	}
	if s.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if s.MaxPeekSize < flatbuffer.MinBufferSize {
		return fmt.Errorf("max peek size %d is below the minimum buffer size %d", s.MaxPeekSize, flatbuffer.MinBufferSize)
	}
	if s.ResultsFileName == "" || strings.ContainsAny(s.ResultsFileName, `/\`) {
		return fmt.Errorf("results file name %q must be a bare file name", s.ResultsFileName)
	}
	return nil
}

// SchemaDumpPath returns where the per-file dump for file is written. Dumps mirror
// the file's location under the input path, so equal names in different
// directories do not collide.
func (s *Settings) SchemaDumpPath(file string) string {
	rel, err := filepath.Rel(s.InputPath, file)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(file)
	}
	return filepath.Join(s.OutputPath, rel+SchemaDumpSuffix)
}

// ResultsPath returns where the grouped report is written
func (s *Settings) ResultsPath() string {
	return filepath.Join(s.OutputPath, s.ResultsFileName)
}
