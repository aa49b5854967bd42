package utils

import (
	"encoding/json"
	"strings"
	"time"
)

// APIDateTimeLayout is the wire format the ledger accepts for transaction
// dates ("dd MMMM yyyy HH:mm:ss" in its own notation).
const APIDateTimeLayout = "02 January 2006 15:04:05"

// Layouts are tried in order; the ledger mixes them freely across endpoints
// and exported spreadsheets.
var apiDateLayouts = []string{
	APIDateTimeLayout,
	"02 January 2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

// ParseDateValue decodes a date field from a ledger response. The API returns
// dates either as an integer array [y, m, d, h, m, s] or as a formatted
// string.
func ParseDateValue(raw json.RawMessage) (time.Time, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed == "null" {
		return time.Time{}, &DateParseError{Input: trimmed}
	}

	if strings.HasPrefix(trimmed, "[") {
		var parts []int
		if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 3 {
			return time.Time{}, &DateParseError{Input: trimmed}
		}
		// Trailing time components are optional and zero-filled.
		full := make([]int, 6)
		copy(full, parts)
		return time.Date(full[0], time.Month(full[1]), full[2], full[3], full[4], full[5], 0, time.UTC), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, &DateParseError{Input: trimmed}
	}
	return ParseDateString(s)
}

// ParseDateString parses a formatted date in any of the layouts the ledger
// emits.
func ParseDateString(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateParseError{Input: s}
}

// FormatAPIDate renders t in the wire format the ledger accepts for writes.
func FormatAPIDate(t time.Time) string {
	return t.Format(APIDateTimeLayout)
}

// DayOf truncates t to its UTC calendar day. Cutoff comparisons work at day
// granularity.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
