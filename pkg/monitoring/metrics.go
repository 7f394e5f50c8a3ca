/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Run metrics for batch analysis. Records per-file timing and size by
outcome, keeps the slowest files, raises alerts for files that take too long, and
snapshots heap usage when the run summary is taken.
*/

package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FileMetrics is the cost of handling one file
type FileMetrics struct {
	Path     string        `json:"path"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
	Outcome  string        `json:"outcome"`
}

// OutcomeMetrics aggregates the files that ended with one outcome
type OutcomeMetrics struct {
	Files         int           `json:"files"`
	Bytes         int64         `json:"bytes"`
	TotalDuration time.Duration `json:"total_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
}

// PerformanceAlert reports a file that crossed a threshold
type PerformanceAlert struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // slow_file, large_heap
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
}

// RunMetrics is a snapshot of everything recorded so far
type RunMetrics struct {
	StartTime      time.Time                  `json:"start_time"`
	Uptime         time.Duration              `json:"uptime"`
	TotalFiles     int                        `json:"total_files"`
	TotalBytes     int64                      `json:"total_bytes"`
	FilesPerSecond float64                    `json:"files_per_second"`
	BytesPerSecond float64                    `json:"bytes_per_second"`
	Outcomes       map[string]*OutcomeMetrics `json:"outcomes"`
	Slowest        []FileMetrics              `json:"slowest"`
	HeapAlloc      uint64                     `json:"heap_alloc"`
	HeapSys        uint64                     `json:"heap_sys"`
	GoRoutines     int                        `json:"go_routines"`
	Alerts         []PerformanceAlert         `json:"alerts"`
}

// AlertThresholds defines thresholds for performance alerts
type AlertThresholds struct {
	SlowFile time.Duration `json:"slow_file"` // per-file processing time
	HeapHigh uint64        `json:"heap_high"` // heap allocation at snapshot (bytes)
}

// MetricsCollector accumulates run metrics. It is safe for concurrent use.
type MetricsCollector struct {
	startTime  time.Time
	outcomes   map[string]*OutcomeMetrics
	slowest    []FileMetrics
	alerts     []PerformanceAlert
	totalFiles int
	totalBytes int64

	historySize     int
	alertThresholds AlertThresholds

	mu     sync.RWMutex
	logger *logrus.Logger
}

// NewMetricsCollector creates a collector that keeps the historySize slowest files.
// logger may be nil.
func NewMetricsCollector(logger *logrus.Logger, historySize int) *MetricsCollector {
	if historySize <= 0 {
		historySize = 10
	}
	return &MetricsCollector{
		startTime:   time.Now(),
		outcomes:    make(map[string]*OutcomeMetrics),
		historySize: historySize,
		alertThresholds: AlertThresholds{
			SlowFile: 5 * time.Second,
			HeapHigh: 1 << 30, // 1GB heap
		},
		logger: logger,
	}
}

// RecordFile records the handling of one file
func (mc *MetricsCollector) RecordFile(path string, bytes int64, duration time.Duration, outcome string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	om, ok := mc.outcomes[outcome]
	if !ok {
		om = &OutcomeMetrics{}
		mc.outcomes[outcome] = om
	}
	om.Files++
	om.Bytes += bytes
	om.TotalDuration += duration
	if duration > om.MaxDuration {
		om.MaxDuration = duration
	}
	mc.totalFiles++
	mc.totalBytes += bytes

	mc.trackSlowest(FileMetrics{Path: path, Bytes: bytes, Duration: duration, Outcome: outcome})

	if t := mc.alertThresholds.SlowFile; t > 0 && duration > t {
		mc.addAlert(PerformanceAlert{
			Timestamp: time.Now(),
			Type:      "slow_file",
			Message:   fmt.Sprintf("%s took %s", path, duration),
			Path:      path,
			Value:     duration.Seconds(),
			Threshold: t.Seconds(),
		})
	}
}

// trackSlowest keeps the slowest files, longest first
func (mc *MetricsCollector) trackSlowest(m FileMetrics) {
	if len(mc.slowest) == mc.historySize && m.Duration <= mc.slowest[len(mc.slowest)-1].Duration {
		return
	}
	at := sort.Search(len(mc.slowest), func(i int) bool { return mc.slowest[i].Duration < m.Duration })
	mc.slowest = append(mc.slowest, FileMetrics{})
	copy(mc.slowest[at+1:], mc.slowest[at:])
	mc.slowest[at] = m
	if len(mc.slowest) > mc.historySize {
		mc.slowest = mc.slowest[:mc.historySize]
	}
}

func (mc *MetricsCollector) addAlert(alert PerformanceAlert) {
	mc.alerts = append(mc.alerts, alert)
	if mc.logger != nil {
		mc.logger.Warnf("Performance alert: %s - %s", alert.Type, alert.Message)
	}
}

// Snapshot returns a copy of the current metrics with fresh runtime figures
func (mc *MetricsCollector) Snapshot() *RunMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if t := mc.alertThresholds.HeapHigh; t > 0 && mem.HeapAlloc > t {
		mc.addAlert(PerformanceAlert{
			Timestamp: time.Now(),
			Type:      "large_heap",
			Message:   fmt.Sprintf("heap allocation %d bytes", mem.HeapAlloc),
			Value:     float64(mem.HeapAlloc),
			Threshold: float64(t),
		})
	}

	uptime := time.Since(mc.startTime)
	m := &RunMetrics{
		StartTime:  mc.startTime,
		Uptime:     uptime,
		TotalFiles: mc.totalFiles,
		TotalBytes: mc.totalBytes,
		Outcomes:   make(map[string]*OutcomeMetrics, len(mc.outcomes)),
		Slowest:    append([]FileMetrics(nil), mc.slowest...),
		HeapAlloc:  mem.HeapAlloc,
		HeapSys:    mem.HeapSys,
		GoRoutines: runtime.NumGoroutine(),
		Alerts:     append([]PerformanceAlert(nil), mc.alerts...),
	}
	if secs := uptime.Seconds(); secs > 0 {
		m.FilesPerSecond = float64(mc.totalFiles) / secs
		m.BytesPerSecond = float64(mc.totalBytes) / secs
	}
	for k, v := range mc.outcomes {
		c := *v
		m.Outcomes[k] = &c
	}
	return m
}

// SetAlertThresholds sets performance alert thresholds
func (mc *MetricsCollector) SetAlertThresholds(thresholds AlertThresholds) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.alertThresholds = thresholds
}

// GetAlertThresholds returns current alert thresholds
func (mc *MetricsCollector) GetAlertThresholds() AlertThresholds {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.alertThresholds
}
