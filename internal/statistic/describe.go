package statistic

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Description holds the descriptive statistics of one sample.
type Description struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	P25    float64
	P75    float64
	Max    float64
}

// Describe summarizes xs. An empty sample yields NaN for every statistic
// except Count; a single value has an undefined (NaN) standard deviation.
func Describe(xs []float64) Description {
	nan := math.NaN()
	if len(xs) == 0 {
		return Description{Mean: nan, Median: nan, Std: nan, Min: nan, P25: nan, P75: nan, Max: nan}
	}
	sorted := sortedCopy(xs)
	d := Description{
		Count:  len(xs),
		Mean:   stat.Mean(xs, nil),
		Median: quantile(sorted, 0.5),
		Std:    nan,
		Min:    sorted[0],
		P25:    quantile(sorted, 0.25),
		P75:    quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
	if len(xs) > 1 {
		d.Std = stat.StdDev(xs, nil)
	}
	return d
}

// Mean is the arithmetic mean, NaN for an empty sample.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Median is the 0.5 quantile.
func Median(xs []float64) float64 { return Quantile(xs, 0.5) }

// Quantile returns the q-quantile of xs using linear interpolation between
// closest ranks. It is NaN for an empty sample.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return quantile(sortedCopy(xs), q)
}

// Sum adds xs.
func Sum(xs []float64) float64 { return floats.Sum(xs) }

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
