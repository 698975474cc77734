package table

import (
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindTime
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "numeric"
	case KindTime:
		return "datetime"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	tm   time.Time
}

// Null returns a missing value.
func Null() Value { return Value{} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Number wraps a float. NaN is stored as a number but reports IsMissing.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Time wraps a timestamp.
func Time(t time.Time) Value { return Value{kind: KindTime, tm: t} }

// Kind reports the stored kind; a NaN number is still KindNumber.
func (v Value) Kind() Kind { return v.kind }

// IsMissing is true for null cells and NaN numbers.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing || (v.kind == KindNumber && math.IsNaN(v.num))
}

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber || math.IsNaN(v.num) {
		return 0, false
	}
	return v.num, true
}

// Time returns the timestamp payload.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.tm, true
}

// Str returns the text payload.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

// String renders the value the way it is written to disk. Missing values and
// NaN render as the empty string.
func (v Value) String() string {
	if v.IsMissing() {
		return ""
	}
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindTime:
		return FormatTime(v.tm)
	default:
		return v.str
	}
}

// Key is a kind-qualified string usable as a map key for grouping.
func (v Value) Key() string {
	if v.IsMissing() {
		return "\x00"
	}
	switch v.kind {
	case KindNumber:
		n := v.num
		if n == 0 {
			n = 0 // -0 groups with 0
		}
		return "n:" + strconv.FormatFloat(n, 'g', -1, 64)
	case KindTime:
		return "t:" + strconv.FormatInt(v.tm.UnixNano(), 10)
	default:
		return "s:" + v.str
	}
}

// Equal reports structural equality; two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.IsMissing() || o.IsMissing() {
		return v.IsMissing() && o.IsMissing()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindTime:
		return v.tm.Equal(o.tm)
	default:
		return v.str == o.str
	}
}

// Compare orders values: missing < number < time < text, then by payload.
func Compare(a, b Value) int {
	ka, kb := a.kind, b.kind
	if a.IsMissing() {
		ka = KindMissing
	}
	if b.IsMissing() {
		kb = KindMissing
	}
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case KindNumber:
		return cmp.Compare(a.num, b.num)
	case KindTime:
		return a.tm.Compare(b.tm)
	case KindText:
		return strings.Compare(a.str, b.str)
	default:
		return 0
	}
}

// FormatNumber writes integers without a fractional part and everything else
// with the shortest round-tripping representation.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTime writes a date, or a date and clock when the clock is non-zero.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
