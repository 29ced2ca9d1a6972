// Package timeparse normalizes the date strings returned by the task
// database into plain wall-clock instants. The API hands back timestamps
// in several shapes (with or without fractional seconds, with or without
// a timezone suffix, sometimes date-only); we strip any timezone suffix
// and keep the wall-clock value as-is rather than converting.
package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// ParseError reports an input that matched none of the accepted layouts.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timeparse: unrecognized timestamp %q", e.Input)
}

// layouts are tried in order; first match wins. Date-only input yields
// midnight as its time component.
var layouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse normalizes s into a timezone-naive instant.
func Parse(s string) (time.Time, error) {
	stripped := stripZone(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, stripped); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Input: s}
}

// stripZone removes a trailing timezone suffix: a "Z", a "+HH:MM" offset,
// or a "-HH:MM" offset. A negative offset is told apart from the date's
// own hyphens by requiring more than two hyphens in the whole string.
func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1]
	}
	if i := strings.Index(s, "+"); i >= 0 {
		return s[:i]
	}
	if strings.Count(s, "-") > 2 {
		if i := strings.LastIndex(s, "-"); i >= 0 {
			return s[:i]
		}
	}
	return s
}
