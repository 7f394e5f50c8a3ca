/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer.go
Description: Cross-sample inference command. Reads the samples under a directory one
at a time, merges their root table observations into a grammar and writes it as JSON.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/kleascm/flatcrawler/pkg/inference"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunInfer infers a root table grammar from the samples under args[0]
func RunInfer(cmd *cobra.Command, args []string) error {
	if err := prepare(); err != nil {
		return err
	}

	dir := args[0]
	grammar, err := inferDir(dir, viper.GetInt("infer.max_peek_size"))
	if err != nil {
		return err
	}
	grammar.Metadata["source"] = filepath.Clean(dir)

	data, err := json.MarshalIndent(grammar, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal grammar: %w", err)
	}

	output := viper.GetString("infer.output")
	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := afero.WriteFile(fs, output, data, 0644); err != nil {
		return fmt.Errorf("failed to write grammar: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"samples": grammar.Metadata["samples"],
		"output":  output,
	}).Info("Grammar written")
	return nil
}

// inferDir merges every sample under dir through one scratch buffer of limit bytes.
// Larger files are skipped.
func inferDir(dir string, limit int) (*inference.Grammar, error) {
	if limit <= 0 {
		limit = analysis.DefaultMaxPeekSize
	}
	scratch := make([]byte, limit)
	collector := inference.NewFlatBufferInferenceEngine().NewCollector()

	read := 0
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		data, err := readInto(path, scratch)
		if err != nil {
			logrus.WithError(err).WithField("path", path).Debug("Sample skipped")
			return nil
		}
		read++
		collector.Add(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	if read == 0 {
		return nil, fmt.Errorf("no samples found under %s", dir)
	}

	grammar, err := collector.Grammar()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return grammar, nil
}
