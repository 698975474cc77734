package trend

import (
	"strings"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
)

type unit int

const (
	day unit = iota
	week
	month
	quarter
	year
)

// Frequency is a calendar bucket size. End-anchored frequencies label a
// bucket with its last day, start-anchored ones with its first day.
type Frequency struct {
	code string
	unit unit
	end  bool
}

var frequencies = map[string]Frequency{
	"D":  {"D", day, true},
	"W":  {"W", week, true},
	"M":  {"M", month, true},
	"ME": {"ME", month, true},
	"MS": {"MS", month, false},
	"Q":  {"Q", quarter, true},
	"QE": {"QE", quarter, true},
	"QS": {"QS", quarter, false},
	"Y":  {"Y", year, true},
	"YE": {"YE", year, true},
	"A":  {"A", year, true},
	"YS": {"YS", year, false},
	"AS": {"AS", year, false},
}

// Monthly is the default frequency.
var Monthly = frequencies["M"]

// ParseFrequency reads a frequency code: D, W, M/ME, MS, Q/QE, QS, Y/YE/A
// or YS/AS.
func ParseFrequency(s string) (Frequency, error) {
	f, ok := frequencies[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return Frequency{}, &table.ValueError{Op: "trend", Param: "frequency", Value: s, Reason: "expected one of D, W, M, ME, MS, Q, QE, QS, Y, YE, YS"}
	}
	return f, nil
}

func (f Frequency) String() string { return f.code }

// Period returns the label of the bucket containing t.
func (f Frequency) Period(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch f.unit {
	case week:
		days := (7 - int(t.Weekday())) % 7
		return time.Date(y, m, d+days, 0, 0, 0, 0, loc)
	case month:
		if f.end {
			return time.Date(y, m+1, 0, 0, 0, 0, 0, loc)
		}
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case quarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		if f.end {
			return time.Date(y, first+3, 0, 0, 0, 0, 0, loc)
		}
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case year:
		if f.end {
			return time.Date(y, time.December, 31, 0, 0, 0, 0, loc)
		}
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Next returns the label of the bucket following label.
func (f Frequency) Next(label time.Time) time.Time {
	if f.end {
		return f.Period(label.AddDate(0, 0, 1))
	}
	switch f.unit {
	case quarter:
		return label.AddDate(0, 3, 0)
	case year:
		return label.AddDate(1, 0, 0)
	default:
		return label.AddDate(0, 1, 0)
	}
}
