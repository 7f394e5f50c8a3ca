/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyze.go
Description: Batch analysis command. Fingerprints every file under a directory, then
writes the grouped report, a JSON run summary and, on request, an HTML report and a
SQLite index of the run.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/kleascm/flatcrawler/pkg/monitoring"
	"github.com/kleascm/flatcrawler/pkg/reporting"
	"github.com/kleascm/flatcrawler/pkg/store"
	"github.com/kleascm/flatcrawler/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AnalysisSummary is the JSON run summary written after each batch run
type AnalysisSummary struct {
	RunID      string                 `json:"run_id"`
	InputPath  string                 `json:"input_path"`
	OutputPath string                 `json:"output_path"`
	Started    time.Time              `json:"started"`
	Duration   string                 `json:"duration"`
	Analyzed   int                    `json:"analyzed"`
	Skipped    int                    `json:"skipped"`
	Failed     int                    `json:"failed"`
	Buckets    int                    `json:"buckets"`
	Outcomes   []analysis.FileOutcome `json:"outcomes"`

	Metrics *monitoring.RunMetrics `json:"metrics,omitempty"`
}

// RunAnalyze fingerprints every file under args[0]
func RunAnalyze(cmd *cobra.Command, args []string) error {
	if err := prepare(); err != nil {
		return err
	}

	settings := parseAnalysisSettings(args[0])
	logger, err := NewLogger(false)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	analyzer, err := analysis.NewAnalyzer(fs, settings, logger)
	if err != nil {
		return err
	}
	analyzer.SetMetrics(monitoring.NewMetricsCollector(logger.GetLogger(), 10))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Starting analysis", map[string]interface{}{
		"input":    settings.InputPath,
		"output":   settings.OutputPath,
		"max_peek": settings.MaxPeekSize,
	})
	run, err := analyzer.Run(ctx)
	if err != nil {
		return err
	}

	groups := analysis.Group(run.Results)
	summary := AnalysisSummary{
		RunID:      run.ID,
		InputPath:  settings.InputPath,
		OutputPath: settings.OutputPath,
		Started:    run.Started,
		Duration:   run.Finished.Sub(run.Started).String(),
		Analyzed:   run.Analyzed,
		Skipped:    run.Skipped,
		Failed:     run.Failed,
		Buckets:    countBuckets(groups),
		Outcomes:   run.Outcomes,
		Metrics:    run.Metrics,
	}
	summaryPath, err := utils.WriteRunSummary(fs, filepath.Join(settings.OutputPath, "summaries"), "analyze", Version, summary)
	if err != nil {
		logger.Warning("Failed to write run summary", map[string]interface{}{"error": err})
	}

	if viper.GetBool("analysis.html") {
		generator := reporting.NewDashboardGenerator(filepath.Join(settings.OutputPath, "html"), logger.GetLogger())
		data := reporting.NewDashboardData(run, settings.InputPath, Version, settings.DumpIndividualSchemaAnalysis)
		reportPath, err := generator.GenerateDashboard(data)
		if err != nil {
			return fmt.Errorf("failed to generate HTML report: %w", err)
		}
		fmt.Printf("HTML report:   %s\n", reportPath)
	}

	if dbPath := viper.GetString("analysis.index_db"); dbPath != "" {
		if err := indexRun(ctx, dbPath, run); err != nil {
			return err
		}
		fmt.Printf("Indexed into:  %s\n", dbPath)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  analyzed %d, skipped %d, failed %d\n", run.Analyzed, run.Skipped, run.Failed)
	fmt.Printf("  %d field-count groups, %d fingerprints\n", len(groups), summary.Buckets)
	fmt.Printf("Results:       %s\n", settings.ResultsPath())
	if summaryPath != "" {
		fmt.Printf("Summary:       %s\n", summaryPath)
	}
	return nil
}

func parseAnalysisSettings(input string) *analysis.Settings {
	settings := analysis.DefaultSettings(input, viper.GetString("analysis.output_dir"))
	if v := viper.GetInt("analysis.max_peek_size"); v > 0 {
		settings.MaxPeekSize = v
	}
	settings.DumpIndividualSchemaAnalysis = viper.GetBool("analysis.dump_each")
	settings.SkipAnalysisIfSchemaDumpExists = viper.GetBool("analysis.skip_existing")
	if name := viper.GetString("analysis.results_file"); name != "" {
		settings.ResultsFileName = name
	}
	return settings
}

func indexRun(ctx context.Context, dbPath string, run *analysis.Run) error {
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}
	return nil
}

func countBuckets(groups []analysis.FieldCountGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Buckets)
	}
	return n
}
