package domain

import (
	"strconv"
	"strings"
	"time"
)

// Cell is a single raw column/value pair as extracted from a source file.
// Values are strings, numbers, dates or nil depending on the source cell type.
type Cell struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// RawRow is one physical row from a source export, in column order.
// Column names are not guaranteed unique across (or even within) sources,
// so the row is an ordered list rather than a map.
type RawRow []Cell

// CanonicalRow is a RawRow after header normalization: keys trimmed and
// upper-cased. When two raw keys normalize to the same canonical key the
// later one wins; this is documented last-write-wins, not validated.
type CanonicalRow map[string]any

// Normalize canonicalizes the row's field names.
func (r RawRow) Normalize() CanonicalRow {
	out := make(CanonicalRow, len(r))
	for _, c := range r {
		out[strings.ToUpper(strings.TrimSpace(c.Key))] = c.Value
	}
	return out
}

// usable reports whether a cell value should satisfy a candidate lookup.
// Nil cells, empty strings and numeric zeros all fall through to the next
// candidate, matching how the source exports leave fields blank.
func usable(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

// FirstOf probes the candidate columns in order and returns the first
// usable value. The fallback chains over column aliases are built on this.
func (r CanonicalRow) FirstOf(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && usable(v) {
			return v, true
		}
	}
	return nil, false
}

// FirstString is FirstOf with the result stringified. Missing candidates
// yield "".
func (r CanonicalRow) FirstString(keys ...string) string {
	v, ok := r.FirstOf(keys...)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// FirstNumber is FirstOf with the result coerced to a number. Anything
// that does not parse yields 0; a malformed cell never fails the row.
func (r CanonicalRow) FirstNumber(keys ...string) float64 {
	v, ok := r.FirstOf(keys...)
	if !ok {
		return 0
	}
	return ToNumber(v)
}

// Stringify renders a cell value the way the exports display it.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// ToNumber coerces a cell value to a float64, tolerating thousands
// separators and surrounding whitespace. Unparseable input yields 0.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
