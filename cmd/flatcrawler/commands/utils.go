/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the FlatCrawler commands. Provides configuration
loading, logger construction and file helpers used across all command implementations.
*/

package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kleascm/flatcrawler/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Version is reported by --version and stamped into run summaries.
const Version = "1.0.0"

// fs is the filesystem every command reads and writes through.
var fs = afero.NewOsFs()

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("FLATCRAWLER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the global logrus logger used before a Logger exists
func SetupLogging() error {
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return nil
}

// NewLogger builds the session logger from configuration. Quiet loggers write only
// to their file, which keeps the interactive prompt clean.
func NewLogger(quiet bool) (*logging.Logger, error) {
	config := logging.DefaultLoggerConfig()
	config.Level = logging.LogLevel(viper.GetString("log_level"))
	config.Format = logging.LogFormat(viper.GetString("log_format"))
	config.OutputDir = viper.GetString("log_dir")
	config.MaxFiles = viper.GetInt("log_max_files")
	config.MaxSize = viper.GetInt64("log_max_size")
	config.Compress = viper.GetBool("log_compress")
	config.Quiet = quiet

	return logging.NewLogger(config)
}

// prepare runs the setup shared by every command
func prepare() error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := SetupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// readCapped reads path, refusing files larger than limit bytes
func readCapped(path string, limit int) ([]byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if limit > 0 && info.Size() > int64(limit) {
		return nil, fmt.Errorf("%s is %d bytes, above the %d byte limit", path, info.Size(), limit)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// readInto reads path into the front of scratch, refusing files that do not fit
func readInto(path string, scratch []byte) ([]byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > int64(len(scratch)) {
		return nil, fmt.Errorf("%s is %d bytes, above the %d byte limit", path, info.Size(), len(scratch))
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data := scratch[:info.Size()]
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("read less than expected: %w", err)
	}
	return data, nil
}

// parseHexOffset accepts "1F", "0x1F" or "0X1F"
func parseHexOffset(text string) (int, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(text), "0x"), "0X")
	v, err := strconv.ParseUint(text, 16, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid hex offset %q: %w", text, err)
	}
	return int(v), nil
}
