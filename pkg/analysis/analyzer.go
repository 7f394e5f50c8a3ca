/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyzer.go
Description: Batch schema analyzer. Walks a directory, decodes the root table of every
file that fits the peek window, fingerprints its field shapes, and collects one Result
per analyzed file. Oversized and undersized files are skipped; decode failures are
logged and excluded without stopping the run.
*/

package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/kleascm/flatcrawler/pkg/inference"
	"github.com/kleascm/flatcrawler/pkg/logging"
	"github.com/kleascm/flatcrawler/pkg/monitoring"
	"github.com/spf13/afero"
)

// Outcome classifies what happened to one candidate file
type Outcome int

const (
	OutcomeAnalyzed Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnalyzed:
		return "analyzed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is the fingerprint of one analyzed file
type Result struct {
	FieldCount int      `json:"field_count"`
	Hash       uint64   `json:"hash"`
	FileName   string   `json:"file_name"`
	Path       string   `json:"path"`
	Fields     []string `json:"fields,omitempty"` // "[index] summary" lines
}

func (r Result) String() string {
	return fmt.Sprintf("%s (%s) fields=%d hash=%016X", r.FileName, r.Path, r.FieldCount, r.Hash)
}

// FileOutcome records the fate of one candidate file
type FileOutcome struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Run is the product of one batch run
type Run struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Results  []Result      `json:"results"`
	Outcomes []FileOutcome `json:"outcomes"`
	Analyzed int           `json:"analyzed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`

	Metrics *monitoring.RunMetrics `json:"metrics,omitempty"`
}

// Analyzer drives batch analysis over a filesystem.
// A single Analyzer is not safe for concurrent Runs: it owns one scratch buffer.
type Analyzer struct {
	fs       afero.Fs
	settings *Settings
	logger   *logging.Logger
	metrics  *monitoring.MetricsCollector
	scratch  []byte
}

// NewAnalyzer creates an analyzer. logger may be nil.
func NewAnalyzer(fs afero.Fs, settings *Settings, logger *logging.Logger) (*Analyzer, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings must not be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis settings: %w", err)
	}
	return &Analyzer{fs: fs, settings: settings, logger: logger}, nil
}

// SetMetrics makes the analyzer record per-file cost into mc. The run's metrics
// snapshot is taken when Run finishes.
func (a *Analyzer) SetMetrics(mc *monitoring.MetricsCollector) {
	a.metrics = mc
}

// Run analyzes every regular file under the input path and writes the grouped
// report. The context is checked between files.
func (a *Analyzer) Run(ctx context.Context) (*Run, error) {
	if _, err := a.fs.Stat(a.settings.InputPath); err != nil {
		return nil, fmt.Errorf("failed to read input path: %w", err)
	}
	if err := a.fs.MkdirAll(a.settings.OutputPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if a.scratch == nil {
		a.scratch = make([]byte, a.settings.MaxPeekSize)
	}

	run := &Run{ID: uuid.New().String(), Started: time.Now()}

	err := afero.Walk(a.fs, a.settings.InputPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			a.record(run, FileOutcome{Path: path, Outcome: OutcomeFailed, Reason: err.Error()})
			return nil
		}
		if info.IsDir() {
			if path != a.settings.InputPath && filepath.Clean(path) == filepath.Clean(a.settings.OutputPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		result, outcome := a.analyzeFile(path, info)
		if a.metrics != nil {
			a.metrics.RecordFile(path, info.Size(), time.Since(start), outcome.Outcome.String())
		}
		if outcome.Outcome == OutcomeAnalyzed {
			run.Results = append(run.Results, result)
		}
		a.record(run, outcome)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	if err := a.writeResults(run.Results); err != nil {
		return nil, err
	}

	run.Finished = time.Now()
	if a.metrics != nil {
		run.Metrics = a.metrics.Snapshot()
	}
	if a.logger != nil {
		a.logger.LogRunStats(run.ID, run.Analyzed, run.Skipped, run.Failed, map[string]interface{}{
			"buckets":  len(Group(run.Results)),
			"duration": run.Finished.Sub(run.Started),
		})
	}
	return run, nil
}

func (a *Analyzer) record(run *Run, o FileOutcome) {
	run.Outcomes = append(run.Outcomes, o)
	switch o.Outcome {
	case OutcomeAnalyzed:
		run.Analyzed++
	case OutcomeSkipped:
		run.Skipped++
		if a.logger != nil {
			a.logger.LogFileSkipped(o.Path, o.Reason, nil)
		}
	case OutcomeFailed:
		run.Failed++
		if a.logger != nil {
			a.logger.LogFileFailed(o.Path, errors.New(o.Reason), nil)
		}
	}
}

// analyzeFile reads one file into the scratch buffer and fingerprints it
func (a *Analyzer) analyzeFile(path string, info os.FileInfo) (Result, FileOutcome) {
	skip := func(reason string) (Result, FileOutcome) {
		return Result{}, FileOutcome{Path: path, Outcome: OutcomeSkipped, Reason: reason}
	}
	fail := func(err error) (Result, FileOutcome) {
		return Result{}, FileOutcome{Path: path, Outcome: OutcomeFailed, Reason: err.Error()}
	}

	if a.settings.SkipAnalysisIfSchemaDumpExists {
		if exists, _ := afero.Exists(a.fs, a.settings.SchemaDumpPath(path)); exists {
			return skip("schema dump exists")
		}
	}
	size := info.Size()
	if size > int64(len(a.scratch)) {
		return skip(fmt.Sprintf("%d bytes exceeds peek window of %d", size, len(a.scratch)))
	}

	data, err := a.read(path, int(size))
	if err != nil {
		return fail(err)
	}
	if !flatbuffer.IsSizeValid(data) {
		return skip(fmt.Sprintf("%d bytes is below the minimum of %d", len(data), flatbuffer.MinBufferSize))
	}

	root, err := flatbuffer.ReadRoot(data)
	if err != nil {
		return fail(err)
	}
	fields := inference.AnalyzeFields(root)

	result := Result{
		FieldCount: root.FieldCount(),
		Hash:       inference.Fingerprint(fields),
		FileName:   filepath.Base(path),
		Path:       path,
		Fields:     make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		result.Fields = append(result.Fields, fmt.Sprintf("[%d] %s", f.Index, f.Summary(root, f.Index)))
	}

	if a.settings.DumpIndividualSchemaAnalysis {
		if err := a.writeSchemaDump(path, result.Fields); err != nil {
			return fail(err)
		}
	}

	if a.logger != nil {
		a.logger.LogFileAnalyzed(path, result.FieldCount, result.Hash, nil)
	}
	return result, FileOutcome{Path: path, Outcome: OutcomeAnalyzed}
}

// read fills the scratch buffer with exactly size bytes of path
func (a *Analyzer) read(path string, size int) ([]byte, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data := a.scratch[:size]
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("read less than expected: %w", err)
	}
	return data, nil
}

func (a *Analyzer) writeSchemaDump(path string, lines []string) error {
	dumpPath := a.settings.SchemaDumpPath(path)
	if err := a.fs.MkdirAll(filepath.Dir(dumpPath), 0755); err != nil {
		return fmt.Errorf("failed to create schema dump directory: %w", err)
	}
	f, err := a.fs.Create(dumpPath)
	if err != nil {
		return fmt.Errorf("failed to create schema dump: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write schema dump: %w", err)
	}
	return nil
}

func (a *Analyzer) writeResults(results []Result) error {
	f, err := a.fs.Create(a.settings.ResultsPath())
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := WriteReport(w, Group(results), a.settings.DumpIndividualSchemaAnalysis); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
