/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dashboard.go
Description: HTML report for batch schema analysis. Renders run totals, a chart of
bucket sizes, and every field-count group with its fingerprint buckets and files.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/sirupsen/logrus"
)

// DashboardGenerator creates HTML reports
type DashboardGenerator struct {
	outputDir string
	logger    *logrus.Logger
	templates *template.Template
}

// DashboardData contains all data for report generation
type DashboardData struct {
	Title       string                     `json:"title"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Version     string                     `json:"version"`
	RunID       string                     `json:"run_id"`
	InputPath   string                     `json:"input_path"`
	Analyzed    int                        `json:"analyzed"`
	Skipped     int                        `json:"skipped"`
	Failed      int                        `json:"failed"`
	Groups      []analysis.FieldCountGroup `json:"groups"`
	Detail      bool                       `json:"detail"`
	Charts      *ChartData                 `json:"charts"`
}

// NewDashboardData builds report data from a finished run
func NewDashboardData(run *analysis.Run, input, version string, detail bool) *DashboardData {
	return &DashboardData{
		Title:       "Schema fingerprints",
		GeneratedAt: time.Now(),
		Version:     version,
		RunID:       run.ID,
		InputPath:   input,
		Analyzed:    run.Analyzed,
		Skipped:     run.Skipped,
		Failed:      run.Failed,
		Groups:      analysis.Group(run.Results),
		Detail:      detail,
	}
}

// Buckets returns the total number of fingerprint buckets
func (d *DashboardData) Buckets() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Buckets)
	}
	return n
}

// ChartData contains chart configurations
type ChartData struct {
	BucketChart  *ChartConfig `json:"bucket_chart"`
	OutcomeChart *ChartConfig `json:"outcome_chart"`
}

// ChartConfig contains chart configuration
type ChartConfig struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Data    interface{} `json:"data"`
	Options interface{} `json:"options"`
}

// NewDashboardGenerator creates a new report generator
func NewDashboardGenerator(outputDir string, logger *logrus.Logger) *DashboardGenerator {
	funcs := template.FuncMap{
		"hex":  func(h uint64) string { return fmt.Sprintf("%016X", h) },
		"json": toJS,
	}
	return &DashboardGenerator{
		outputDir: outputDir,
		logger:    logger,
		templates: template.Must(template.New("dashboard").Funcs(funcs).Parse(dashboardTemplate)),
	}
}

// GenerateDashboard writes index.html into the output directory and returns its path
func (dg *DashboardGenerator) GenerateDashboard(data *DashboardData) (string, error) {
	if err := os.MkdirAll(dg.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data.Charts = &ChartData{
		BucketChart:  dg.createBucketChart(data),
		OutcomeChart: dg.createOutcomeChart(data),
	}

	outputFile := filepath.Join(dg.outputDir, "index.html")
	file, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := dg.templates.Execute(file, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	if dg.logger != nil {
		dg.logger.Infof("Report generated successfully in: %s", outputFile)
	}
	return outputFile, nil
}

// createBucketChart charts how many files fall in each fingerprint bucket
func (dg *DashboardGenerator) createBucketChart(data *DashboardData) *ChartConfig {
	labels := []string{}
	counts := []int{}
	for _, g := range data.Groups {
		for _, b := range g.Buckets {
			labels = append(labels, fmt.Sprintf("%d / %08X", g.FieldCount, b.Hash>>32))
			counts = append(counts, len(b.Results))
		}
	}
	return &ChartConfig{
		Type:  "bar",
		Title: "Files per fingerprint",
		Data: map[string]interface{}{
			"labels": labels,
			"datasets": []map[string]interface{}{
				{
					"label":           "Files",
					"data":            counts,
					"backgroundColor": "rgba(102, 126, 234, 0.6)",
				},
			},
		},
		Options: map[string]interface{}{
			"responsive": true,
			"scales": map[string]interface{}{
				"y": map[string]interface{}{"beginAtZero": true},
			},
		},
	}
}

// createOutcomeChart charts analyzed, skipped and failed totals
func (dg *DashboardGenerator) createOutcomeChart(data *DashboardData) *ChartConfig {
	return &ChartConfig{
		Type:  "doughnut",
		Title: "File outcomes",
		Data: map[string]interface{}{
			"labels": []string{"Analyzed", "Skipped", "Failed"},
			"datasets": []map[string]interface{}{
				{
					"data":            []int{data.Analyzed, data.Skipped, data.Failed},
					"backgroundColor": []string{"#48bb78", "#ecc94b", "#f56565"},
				},
			},
		},
		Options: map[string]interface{}{"responsive": true},
	}
}

func toJS(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
