/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file management for FlatCrawler: size-based rotation, gzip
compression of rotated files, and retention cleanup.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// LogManager provides log rotation and retention for a log directory
type LogManager struct {
	logDir   string
	maxFiles int
	maxSize  int64
	compress bool
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int, maxSize int64, compress bool) *LogManager {
	return &LogManager{
		logDir:   logDir,
		maxFiles: maxFiles,
		maxSize:  maxSize,
		compress: compress,
	}
}

// RotateLogs renames log files that exceed the size limit and compresses them if enabled
func (lm *LogManager) RotateLogs() error {
	files, err := filepath.Glob(filepath.Join(lm.logDir, filePrefix+"*.log"))
	if err != nil {
		return fmt.Errorf("failed to glob log files: %w", err)
	}

	for _, file := range files {
		if err := lm.rotateFile(file); err != nil {
			return fmt.Errorf("failed to rotate file %s: %w", file, err)
		}
	}

	return nil
}

// rotateFile rotates a single log file
func (lm *LogManager) rotateFile(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if stat.Size() < lm.maxSize {
		return nil
	}

	rotatedPath := fmt.Sprintf("%s.%s", path, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.Rename(path, rotatedPath); err != nil {
		return err
	}

	if lm.compress {
		return lm.compressFile(rotatedPath)
	}
	return nil
}

// compressFile replaces path with a gzip-compressed copy
func (lm *LogManager) compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	compressed, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer compressed.Close()

	gzipWriter, err := gzip.NewWriterLevel(compressed, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := io.Copy(gzipWriter, source); err != nil {
		gzipWriter.Close()
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

// CleanupOldLogs removes the oldest log files beyond the retention count
func (lm *LogManager) CleanupOldLogs() error {
	files, err := lm.logFiles()
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	modTimes := make(map[string]time.Time, len(files))
	for _, file := range files {
		if stat, err := os.Stat(file); err == nil {
			modTimes[file] = stat.ModTime()
		}
	}
	sort.Slice(files, func(i, j int) bool {
		ti, tj := modTimes[files[i]], modTimes[files[j]]
		if ti.Equal(tj) {
			return files[i] < files[j]
		}
		return ti.Before(tj)
	})

	for _, file := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", file, err)
		}
	}

	return nil
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.logFiles()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for _, file := range files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		stats.TotalSize += stat.Size()
		if strings.HasSuffix(file, ".gz") {
			stats.CompressedFiles++
		} else {
			stats.UncompressedFiles++
		}
	}

	return stats, nil
}

func (lm *LogManager) logFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, filePrefix+"*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	return files, nil
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles        int   `json:"total_files"`
	TotalSize         int64 `json:"total_size"`
	CompressedFiles   int   `json:"compressed_files"`
	UncompressedFiles int   `json:"uncompressed_files"`
}
