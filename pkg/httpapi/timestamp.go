package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTimestamp accepts either a decimal unix-epoch string ("1700000000.5")
// or an ISO-8601 timestamp (a trailing "Z" is normalized to "+00:00" before
// parsing) and returns unix seconds as a float64.
func parseTimestamp(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("timestamp: empty")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}

	normalized := s
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339Nano, normalized)
	if err != nil {
		return 0, fmt.Errorf("timestamp: invalid format %q: %w", s, err)
	}
	return float64(t.UnixNano()) / 1e9, nil
}

func formatUnix(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func formatISO(t float64) string {
	sec := int64(t)
	nsec := int64((t - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)
}
