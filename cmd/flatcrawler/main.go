/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for FlatCrawler. Wires the interactive crawler,
batch schema analysis, cross-sample inference and hex dumping into cobra subcommands
with viper-backed configuration.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/flatcrawler/cmd/flatcrawler/commands"
	"github.com/kleascm/flatcrawler/pkg/analysis"
	"github.com/kleascm/flatcrawler/pkg/crawler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int
	logMaxSize  int64
	logCompress bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flatcrawler",
		Short: "FlatCrawler - explore and classify FlatBuffer binaries without a schema",
		Long: `FlatCrawler reads FlatBuffer-encoded files without their schema. The crawl
command walks one file interactively, reinterpreting fields on demand; analyze
fingerprints the root table of every file in a directory and groups files that
share a layout.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Log output directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Int64Var(&logMaxSize, "log-max-size", 100*1024*1024, "Maximum log file size in bytes")
	rootCmd.PersistentFlags().BoolVar(&logCompress, "log-compress", false, "Compress rotated log files")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))

	// Interactive crawler
	crawlCmd := &cobra.Command{
		Use:   "crawl <file>",
		Short: "Interactively explore a FlatBuffer file",
		Long: `Decode the root table of a file and open a prompt for navigating it.
Fields are read on demand with a type hint (rf <index> <type>); navigation can be
dumped to a history file and replayed later.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunCrawl,
	}
	crawlCmd.Flags().String("history", crawler.DefaultHistoryFile, "History file used by the dump and load commands")
	crawlCmd.Flags().String("script", "", "File of commands to replay before the prompt opens")
	viper.BindPFlag("crawl.history_file", crawlCmd.Flags().Lookup("history"))
	viper.BindPFlag("crawl.script", crawlCmd.Flags().Lookup("script"))
	rootCmd.AddCommand(crawlCmd)

	// Batch schema analysis
	analyzeCmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Fingerprint every file in a directory and group shared layouts",
		Long: `Decode the root table of every file under a directory, infer the shape of
each present field and hash the shapes into a schema fingerprint. Files are grouped
by field count and fingerprint in the results report.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunAnalyze,
	}
	analyzeCmd.Flags().String("output", "./flatcrawler_output", "Directory for reports and per-file dumps")
	analyzeCmd.Flags().Int("max-peek", analysis.DefaultMaxPeekSize, "Largest file size analyzed, in bytes")
	analyzeCmd.Flags().Bool("dump-each", true, "Write a per-file field dump next to the report")
	analyzeCmd.Flags().Bool("skip-existing", false, "Skip files whose per-file dump already exists")
	analyzeCmd.Flags().String("results-file", analysis.DefaultResultsFileName, "Name of the grouped report")
	analyzeCmd.Flags().Bool("html", false, "Also write an HTML report")
	analyzeCmd.Flags().String("index-db", "", "SQLite database to record the run in")
	viper.BindPFlag("analysis.output_dir", analyzeCmd.Flags().Lookup("output"))
	viper.BindPFlag("analysis.max_peek_size", analyzeCmd.Flags().Lookup("max-peek"))
	viper.BindPFlag("analysis.dump_each", analyzeCmd.Flags().Lookup("dump-each"))
	viper.BindPFlag("analysis.skip_existing", analyzeCmd.Flags().Lookup("skip-existing"))
	viper.BindPFlag("analysis.results_file", analyzeCmd.Flags().Lookup("results-file"))
	viper.BindPFlag("analysis.html", analyzeCmd.Flags().Lookup("html"))
	viper.BindPFlag("analysis.index_db", analyzeCmd.Flags().Lookup("index-db"))
	rootCmd.AddCommand(analyzeCmd)

	// Fingerprint index queries
	indexCmd := &cobra.Command{
		Use:   "index <db>",
		Short: "List fingerprint buckets recorded in an index database",
		Long: `Read the SQLite index written by analyze --index-db. Without flags every
bucket is listed; with --field-count and --hash the files of one bucket are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunIndex,
	}
	indexCmd.Flags().String("run", "", "Restrict buckets to one run ID")
	indexCmd.Flags().Int("field-count", -1, "Field count of the bucket to list")
	indexCmd.Flags().String("hash", "", "Fingerprint of the bucket to list, in hex")
	rootCmd.AddCommand(indexCmd)

	// Cross-sample inference
	inferCmd := &cobra.Command{
		Use:   "infer <dir>",
		Short: "Infer a root table layout across sample files",
		Long: `Merge the per-field observations of every sample under a directory into a
grammar: the shapes seen at each field index, how often the field is present and
whether it is required. The grammar is written as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunInfer,
	}
	inferCmd.Flags().String("output", "", "Write the grammar to this file instead of stdout")
	inferCmd.Flags().Int("max-peek", analysis.DefaultMaxPeekSize, "Largest sample size read, in bytes")
	viper.BindPFlag("infer.output", inferCmd.Flags().Lookup("output"))
	viper.BindPFlag("infer.max_peek_size", inferCmd.Flags().Lookup("max-peek"))
	rootCmd.AddCommand(inferCmd)

	// Hex dump
	hexCmd := &cobra.Command{
		Use:   "hex <file> [offset]",
		Short: "Hex dump a window of a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  commands.RunHex,
	}
	hexCmd.Flags().Int("length", 0x100, "Number of bytes to dump")
	rootCmd.AddCommand(hexCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
