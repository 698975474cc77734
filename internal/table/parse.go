package table

import (
	"strconv"
	"strings"
	"time"
)

// naTokens are the cell spellings read as missing.
var naTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// IsNAToken reports whether a raw cell is one of the missing-value spellings.
func IsNAToken(s string) bool { return naTokens[s] }

// timeLayouts are tried in order when no explicit layout is given. Ambiguous
// slash and dash dates are read month-first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"1-2-06",
	"1-2-2006",
	"1/2/2006",
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

// ParseTime parses s against the known layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimeLayout parses s with a Go layout or a strftime pattern. An empty
// format falls back to ParseTime.
func ParseTimeLayout(s, format string) (time.Time, bool) {
	if format == "" {
		return ParseTime(s)
	}
	t, err := time.Parse(Layout(format), strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var strftime = map[byte]string{
	'Y': "2006", 'y': "06", 'm': "01", 'd': "02", 'H': "15", 'I': "03", 'M': "04",
	'S': "05", 'p': "PM", 'b': "Jan", 'B': "January", 'a': "Mon", 'A': "Monday",
	'f': "000000", 'z': "-0700", 'Z': "MST", '%': "%",
}

// Layout converts a strftime pattern such as "%m-%d-%y" to a Go layout.
// Strings without '%' are returned unchanged.
func Layout(format string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		if l, ok := strftime[format[i+1]]; ok {
			b.WriteString(l)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// NumberFormat controls numeric parsing of raw cells. Zero separators mean
// strict parsing with '.' as the decimal point.
type NumberFormat struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ParseNumber parses a raw cell as a float.
func (nf NumberFormat) ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, false
	}
	if nf.DecimalSeparator != 0 {
		if nf.ThousandsSeparator != 0 && nf.ThousandsSeparator != nf.DecimalSeparator {
			raw = strings.ReplaceAll(raw, string(nf.ThousandsSeparator), "")
		}
		if nf.DecimalSeparator != '.' {
			raw = strings.ReplaceAll(raw, string(nf.DecimalSeparator), ".")
		}
	} else if nf.ThousandsSeparator != 0 {
		raw = strings.ReplaceAll(raw, string(nf.ThousandsSeparator), "")
	}
	if strings.ContainsAny(raw, "_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
