package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type stored in a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindTime
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "missing"
	}
}

// Value is a single table cell: a string, a number, a date, or missing.
// The zero Value is the missing cell.
type Value struct {
	kind Kind
	num  float64
	str  string
	ts   time.Time
}

// Missing returns the missing cell.
func Missing() Value {
	return Value{}
}

// String wraps a string cell. Empty strings stay strings; callers that want
// empty-means-missing semantics should map them before construction.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number wraps a numeric cell. NaN collapses to missing so that undefined
// floats never leak into comparisons or serialization.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Time wraps a date cell.
func Time(t time.Time) Value {
	return Value{kind: KindTime, ts: t}
}

// Kind returns the kind of the cell.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Float returns the numeric value when the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the string value when the cell is a string.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Time returns the date value when the cell is a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String renders the cell for display and CSV export. Missing cells render
// as the empty string; dates render as YYYY-MM-DD.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.Format(DateLayout)
	default:
		return ""
	}
}

// MarshalJSON serializes missing cells (and any undefined float that slipped
// through) as null, dates as YYYY-MM-DD strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindTime:
		return json.Marshal(v.ts.Format(DateLayout))
	default:
		return []byte("null"), nil
	}
}

// key returns a collision-safe representation used for distinct-value counts
// and duplicate detection. The kind prefix keeps String("1") and Number(1)
// apart.
func (v Value) key() string {
	return string('0'+byte(v.kind)) + ":" + v.String()
}

// DateLayout is the canonical date rendering for cells and wire payloads.
const DateLayout = "2006-01-02"

// dateLayouts are the accepted input layouts, tried in order. The US form
// wins over the day-first form for ambiguous values, matching the cleaning
// rules applied upstream. Unpadded month and day forms also accept their
// zero-padded spellings.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date string against the accepted layouts. It never
// panics on malformed input; the second return reports success.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToFloat coerces a cell to a float64. Numbers pass through; strings are
// parsed; everything else (dates, missing, unparseable text) fails.
func ToFloat(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToTime coerces a cell to a date. Dates pass through; strings are parsed
// against the accepted layouts; failures resolve to not-a-date, never an
// error.
func ToTime(v Value) (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.ts, true
	case KindString:
		return ParseDate(v.str)
	default:
		return time.Time{}, false
	}
}
