package logger

import (
	"strings"
	"time"
)

// Took is the millisecond-rounded time elapsed since start.
func Took(start time.Time) time.Duration { return RoundMS(time.Since(start)) }

// RoundMS rounds d to milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with ", ". The flag reports
// whether anything was left out.
func SummarizeStrings(values []string, limit int) (string, bool) {
	n := min(max(limit, 0), len(values))
	return strings.Join(values[:n], ", "), n < len(values)
}
