// Package stats provides the pure statistical transforms used by the
// comparison layer: summary statistics, percentile interpolation, a
// two-sample significance test and a weighted performance score.
package stats

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyInput is returned when statistics are requested over zero values.
// Callers are expected to filter before calling; this is a defensive guard.
var ErrEmptyInput = errors.New("cannot calculate statistics on empty input")

// criticalValue is the fixed threshold the two-sample test statistic must
// exceed to be flagged significant. It is deliberately not looked up from a
// degrees-of-freedom table; downstream behavior depends on this exact value.
const criticalValue = 2.0

// Summary holds the derived statistics of a numeric population.
// All fields are rounded to 2 decimal places.
type Summary struct {
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	P95               float64 `json:"p95"`
	P99               float64 `json:"p99"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	StandardDeviation float64 `json:"standardDeviation"`
	Variance          float64 `json:"variance"`
}

// Calculate computes the full summary for values.
// Variance is the population variance (divide by n, not n-1).
func Calculate(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyInput
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(values)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return Summary{
		Mean:              round2(mean),
		Median:            round2(percentileSorted(sorted, 50)),
		P95:               round2(percentileSorted(sorted, 95)),
		P99:               round2(percentileSorted(sorted, 99)),
		Min:               round2(sorted[0]),
		Max:               round2(sorted[len(sorted)-1]),
		StandardDeviation: round2(math.Sqrt(variance)),
		Variance:          round2(variance),
	}, nil
}

// Mean returns the arithmetic average of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile computes the p-th percentile of values using linear
// interpolation between the floor and ceiling ranks of p/100*(n-1),
// clamped to the array bounds at p=0 and p=100.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower < 0 {
		return sorted[0]
	}
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	if lower == upper {
		return sorted[lower]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsSignificantDifference runs the simplified two-sample test: pooled
// (n-1)-weighted variance, standard error over both sample sizes, and a
// fixed critical value of 2.0. Either sample having fewer than 2
// observations reports not-significant.
func IsSignificantDifference(sample1, sample2 []float64) bool {
	n1, n2 := len(sample1), len(sample2)
	if n1 < 2 || n2 < 2 {
		return false
	}

	mean1 := Mean(sample1)
	mean2 := Mean(sample2)
	var1 := sampleVariance(sample1, mean1)
	var2 := sampleVariance(sample2, mean2)

	pooled := (float64(n1-1)*var1 + float64(n2-1)*var2) / float64(n1+n2-2)
	standardError := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))
	if standardError == 0 {
		return false
	}

	tScore := math.Abs(mean1-mean2) / standardError
	return tScore > criticalValue
}

// sampleVariance is the (n-1)-denominator variance used by the pooled
// estimate, as opposed to the population variance reported in Summary.
func sampleVariance(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

// ScoreInput carries the per-sample values consumed by PerformanceScore.
type ScoreInput struct {
	LCP  float64
	FID  float64
	CLS  float64
	TTFB float64
	TTI  float64
}

// PerformanceScore computes the weighted composite score across samples:
// each metric contributes weight * max(0, 100 - value/divisor), clamped at
// zero, summed per sample; the result is the mean over all samples rounded
// to 2 decimals. Returns 0 for an empty input.
func PerformanceScore(samples []ScoreInput) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for _, s := range samples {
		score := 0.0
		score += 0.3 * math.Max(0, 100-s.LCP/25)
		score += 0.2 * math.Max(0, 100-s.FID/1)
		score += 0.2 * math.Max(0, 100-s.CLS*1000)
		score += 0.15 * math.Max(0, 100-s.TTFB/6)
		score += 0.15 * math.Max(0, 100-s.TTI/35)
		total += score
	}

	return round2(total / float64(len(samples)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
