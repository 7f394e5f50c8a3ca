/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: summary_writer.go
Description: Utility for writing run summaries as JSON. Files are placed in a
kind-specific subdirectory and named by timestamp, kind and version.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// WriteRunSummary writes v as indented JSON to <dir>/<kind>/<timestamp>_<kind>_v<version>.json on fs
func WriteRunSummary(fs afero.Fs, dir string, kind string, version string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	summaryDir := filepath.Join(dir, kind)
	if err := fs.MkdirAll(summaryDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	// 2024-06-11_01-30-00.123_analyze_v1.0.0.json
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	filePath := filepath.Join(summaryDir, fmt.Sprintf("%s_%s_v%s.json", timestamp, kind, version))

	if err := afero.WriteFile(fs, filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return filePath, nil
}
