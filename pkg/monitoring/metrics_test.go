/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_test.go
Description: Tests for run metrics aggregation, slowest-file tracking and alerts.
*/

package monitoring_test

import (
	"testing"
	"time"

	"github.com/kleascm/flatcrawler/pkg/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFileAggregatesByOutcome(t *testing.T) {
	mc := monitoring.NewMetricsCollector(nil, 2)
	mc.RecordFile("/a", 100, 3*time.Millisecond, "analyzed")
	mc.RecordFile("/b", 50, 1*time.Millisecond, "analyzed")
	mc.RecordFile("/c", 999, 0, "skipped")

	m := mc.Snapshot()
	assert.Equal(t, 3, m.TotalFiles)
	assert.Equal(t, int64(1149), m.TotalBytes)

	require.Contains(t, m.Outcomes, "analyzed")
	analyzed := m.Outcomes["analyzed"]
	assert.Equal(t, 2, analyzed.Files)
	assert.Equal(t, int64(150), analyzed.Bytes)
	assert.Equal(t, 4*time.Millisecond, analyzed.TotalDuration)
	assert.Equal(t, 3*time.Millisecond, analyzed.MaxDuration)
	assert.Equal(t, 1, m.Outcomes["skipped"].Files)
	assert.Greater(t, m.HeapAlloc, uint64(0))
}

func TestSlowestFilesKeptInOrder(t *testing.T) {
	mc := monitoring.NewMetricsCollector(nil, 3)
	for i, d := range []time.Duration{5, 1, 9, 3, 7} {
		mc.RecordFile(string(rune('a'+i)), 1, d*time.Millisecond, "analyzed")
	}

	slowest := mc.Snapshot().Slowest
	require.Len(t, slowest, 3)
	assert.Equal(t, "c", slowest[0].Path)
	assert.Equal(t, "e", slowest[1].Path)
	assert.Equal(t, "a", slowest[2].Path)
}

func TestSlowFileAlert(t *testing.T) {
	mc := monitoring.NewMetricsCollector(nil, 5)
	mc.SetAlertThresholds(monitoring.AlertThresholds{SlowFile: 10 * time.Millisecond})
	assert.Equal(t, 10*time.Millisecond, mc.GetAlertThresholds().SlowFile)

	mc.RecordFile("/fast", 1, time.Millisecond, "analyzed")
	mc.RecordFile("/slow", 1, 20*time.Millisecond, "failed")

	alerts := mc.Snapshot().Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, "slow_file", alerts[0].Type)
	assert.Equal(t, "/slow", alerts[0].Path)
}

func TestSnapshotIsACopy(t *testing.T) {
	mc := monitoring.NewMetricsCollector(nil, 5)
	mc.RecordFile("/a", 1, time.Millisecond, "analyzed")

	m := mc.Snapshot()
	m.Outcomes["analyzed"].Files = 99
	m.Slowest[0].Path = "changed"

	again := mc.Snapshot()
	assert.Equal(t, 1, again.Outcomes["analyzed"].Files)
	assert.Equal(t, "/a", again.Slowest[0].Path)
}
