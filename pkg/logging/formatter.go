/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for FlatCrawler. Renders a compact single-line
layout with optional colors, sorted structured fields, and a short tag for analyzer and
crawler events.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter renders timestamp, level, caller, message and sorted fields
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, ""), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, tag string) []byte {
	var output strings.Builder

	if f.Timestamp {
		output.WriteString(f.paint(36, entry.Time.Format("2006-01-02 15:04:05.000"))) // Cyan
		output.WriteByte(' ')
	}

	output.WriteString(f.paint(f.getLevelColor(entry.Level), strings.ToUpper(entry.Level.String())))
	output.WriteByte(' ')

	if tag != "" {
		output.WriteString(f.paint(35, "["+tag+"]")) // Magenta
		output.WriteByte(' ')
	}

	if f.Caller && entry.HasCaller() {
		output.WriteString(f.paint(33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))) // Yellow
		output.WriteByte(' ')
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteByte(' ')
		output.WriteString(f.formatFields(entry.Data))
	}

	output.WriteByte('\n')
	return []byte(output.String())
}

func (f *CustomFormatter) paint(color int, s string) string {
	if !f.Colors {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", color, s)
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	default:
		return 35 // Magenta
	}
}

// formatFields formats structured fields in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := f.formatValue(fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value)) // Blue key, Green value
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}

	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.Round(time.Millisecond).String()
	case time.Time:
		return v.Format("15:04:05.000")
	case error:
		return v.Error()
	case string:
		if len(v) > 80 {
			return "..." + v[len(v)-77:]
		}
		return v
	case []byte:
		if len(v) > 20 {
			return fmt.Sprintf("[%d bytes]", len(v))
		}
		return fmt.Sprintf("%x", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CrawlerFormatter tags analyzer and crawler events
type CrawlerFormatter struct {
	CustomFormatter
}

// Format formats a log entry with an event tag
func (f *CrawlerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, eventTag(entry.Message)), nil
}

// eventTag returns a tag based on the log message
func eventTag(message string) string {
	switch message {
	case "File analyzed":
		return "FILE"
	case "File skipped":
		return "SKIP"
	case "File failed":
		return "FAIL"
	case "Run statistics":
		return "STATS"
	case "Navigated":
		return "NAV"
	default:
		return ""
	}
}
