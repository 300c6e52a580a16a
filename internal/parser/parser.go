// Package parser validates and converts user-entered field values at the
// edit boundary, so the catalog is never asked to persist malformed data.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mjott/hackshelf/internal/apperr"
)

// ParseDuration converts a user-entered play-time string to seconds.
// Accepted forms:
//
//	"5400"        bare seconds
//	"1:30"        minutes:seconds
//	"2:15:30"     hours:minutes:seconds
//	"1h30m", "45m", "90s"  Go duration syntax
//
// Negative values are rejected.
func ParseDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%w: duration must not be negative", apperr.ErrInvalidInput)
		}
		return secs, nil
	}

	if strings.Contains(s, ":") {
		return parseClock(s)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: unrecognized duration %q", apperr.ErrInvalidInput, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: duration must not be negative", apperr.ErrInvalidInput)
	}
	return int64(d / time.Second), nil
}

// parseClock handles "M:SS" and "H:MM:SS".
func parseClock(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: unrecognized duration %q", apperr.ErrInvalidInput, s)
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: unrecognized duration %q", apperr.ErrInvalidInput, s)
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatDuration renders seconds as "H:MM:SS" for display.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// DateLayout is the canonical completed-date form stored in the catalog.
const DateLayout = "2006-01-02"

// ParseDate validates an ISO date string and returns it in canonical form.
// The empty string is valid and means "not set".
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", apperr.ErrInvalidInput, s)
	}
	return t.Format(DateLayout), nil
}

// Today returns the current date in canonical form, used when a record is
// first marked completed without an explicit date.
func Today() string {
	return time.Now().Format(DateLayout)
}
