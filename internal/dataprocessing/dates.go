package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpochOffset is the day count between the spreadsheet serial-date
// epoch and the Unix epoch: serial 25569 is 1970-01-01.
const serialEpochOffset = 25569

// ResolveDate interprets a cell as a calendar date. Native dates pass
// through, delimited strings split on "-" or "/" are read positionally
// as day-month-year, and numeric cells are treated as spreadsheet serial
// day counts converted to UTC. Anything else yields nil; the caller
// keeps the record and just skips its month bucket.
//
// The day-month-year reading is unconditional, so an ISO yyyy-mm-dd
// input is misparsed. That matches the source exports we receive today;
// changing it is a product decision, not a parsing fix.
func ResolveDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		return resolveDateString(t)
	case float64:
		return resolveSerial(t)
	case int:
		return resolveSerial(float64(t))
	case int64:
		return resolveSerial(float64(t))
	default:
		return nil
	}
}

func resolveDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) == 3 {
		day, okD := leadingInt(parts[0])
		month, okM := leadingInt(parts[1])
		year, okY := leadingInt(parts[2])
		if !okD || !okM || !okY {
			return nil
		}
		// time.Date normalizes out-of-range components the same way
		// the source system rolled them over.
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &d
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "02 Jan 2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			d = d.UTC()
			return &d
		}
	}
	return nil
}

// leadingInt reads the leading digit run of a date part, so a trailing
// time component ("2024 10:23") does not poison the year.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func resolveSerial(serial float64) *time.Time {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	days := math.Floor(serial - serialEpochOffset)
	d := time.Unix(int64(days)*86400, 0).UTC()
	return &d
}
