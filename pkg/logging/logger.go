/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for FlatCrawler. Provides structured logging with
timestamped files, multiple output formats, and helpers for the batch analyzer and the
interactive crawler. Supports JSON, text, and custom formats with rotation.
*/

package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelFatal   LogLevel = "fatal"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// filePrefix names every log file this package writes.
const filePrefix = "flatcrawler_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"`
	MaxFiles  int       `json:"max_files"`
	MaxSize   int64     `json:"max_size"` // in bytes
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`
	Compress  bool      `json:"compress"`
	Quiet     bool      `json:"quiet"` // file only, nothing on stdout

	SyslogEnabled bool   `json:"syslog_enabled"`
	SyslogNetwork string `json:"syslog_network"`
	SyslogAddress string `json:"syslog_address"`
}

// DefaultLoggerConfig returns the configuration used when none is supplied.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		OutputDir: "./logs",
		MaxFiles:  10,
		MaxSize:   100 * 1024 * 1024, // 100MB
		Timestamp: true,
		Caller:    false,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid or missing values.
// Returns an error if the config is invalid, or nil if valid.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelFatal:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger wraps a logrus logger with a timestamped log file.
// Not safe for concurrent reconfiguration; logging itself goes through logrus.
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	logPath    string
	startTime  time.Time
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	if err := l.setupFileOutput(); err != nil {
		return err
	}

	if l.config.SyslogEnabled {
		writer, err := syslog.Dial(l.config.SyslogNetwork, l.config.SyslogAddress, syslog.LOG_INFO|syslog.LOG_USER, "flatcrawler")
		if err != nil {
			return fmt.Errorf("failed to connect to syslog: %w", err)
		}
		l.logger.SetOutput(io.MultiWriter(l.logger.Out, writer))
	}

	return nil
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&CrawlerFormatter{
			CustomFormatter: CustomFormatter{
				Timestamp: l.config.Timestamp,
				Caller:    l.config.Caller,
				Colors:    l.config.Colors,
			},
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}

	return nil
}

// setupFileOutput opens a fresh timestamped log file and points the logger at it
func (l *Logger) setupFileOutput() error {
	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	path := filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", filePrefix, timestamp))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.logPath = path

	if l.config.Quiet {
		l.logger.SetOutput(file)
	} else {
		l.logger.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("FlatCrawler logging system initialized")

	return nil
}

// rotateLogs starts a new file once the current one exceeds MaxSize
func (l *Logger) rotateLogs() error {
	if l.fileHandle == nil {
		return nil
	}

	stat, err := l.fileHandle.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < l.config.MaxSize {
		return nil
	}

	l.fileHandle.Close()
	l.fileHandle = nil
	return l.setupFileOutput()
}

func withFields(fields map[string]interface{}) logrus.Fields {
	out := make(logrus.Fields, len(fields)+4)
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Analyzer and crawler logging methods

// LogFileAnalyzed logs a file that produced a fingerprint
func (l *Logger) LogFileAnalyzed(path string, fieldCount int, hash uint64, fields map[string]interface{}) {
	f := withFields(fields)
	f["file"] = path
	f["field_count"] = fieldCount
	f["hash"] = fmt.Sprintf("%016X", hash)

	l.logger.WithFields(f).Info("File analyzed")
	if err := l.rotateLogs(); err != nil {
		l.logger.WithError(err).Warn("Log rotation failed")
	}
}

// LogFileSkipped logs a file that was deliberately not analyzed
func (l *Logger) LogFileSkipped(path string, reason string, fields map[string]interface{}) {
	f := withFields(fields)
	f["file"] = path
	f["reason"] = reason

	l.logger.WithFields(f).Debug("File skipped")
}

// LogFileFailed logs a file whose decode failed
func (l *Logger) LogFileFailed(path string, err error, fields map[string]interface{}) {
	f := withFields(fields)
	f["file"] = path

	l.logger.WithFields(f).WithError(err).Warn("File failed")
}

// LogRunStats logs the totals of a batch run
func (l *Logger) LogRunStats(runID string, analyzed, skipped, failed int, fields map[string]interface{}) {
	f := withFields(fields)
	f["run_id"] = runID
	f["analyzed"] = analyzed
	f["skipped"] = skipped
	f["failed"] = failed
	f["uptime"] = time.Since(l.startTime)

	l.logger.WithFields(f).Info("Run statistics")
}

// LogNavigation logs a crawler command that moved the current node
func (l *Logger) LogNavigation(sessionID string, command string, offset int, fields map[string]interface{}) {
	f := withFields(fields)
	f["session_id"] = sessionID
	f["command"] = command
	f["offset"] = fmt.Sprintf("0x%X", offset)

	l.logger.WithFields(f).Debug("Navigated")
}

// Close closes the log file, then rotates and prunes the log directory
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		l.fileHandle.Close()
		l.fileHandle = nil
	}

	manager := NewLogManager(l.config.OutputDir, l.config.MaxFiles, l.config.MaxSize, l.config.Compress)
	if err := manager.RotateLogs(); err != nil {
		return fmt.Errorf("failed to rotate log files: %w", err)
	}
	if err := manager.CleanupOldLogs(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}

	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// LogPath returns the path of the current log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Info(msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Error(msg)
}
