package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEmptyInput(t *testing.T) {
	_, err := Calculate(nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = Calculate([]float64{})
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestCalculateKnownValues(t *testing.T) {
	summary, err := Calculate([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	assert.Equal(t, 5.0, summary.Mean)
	assert.Equal(t, 4.5, summary.Median)
	assert.Equal(t, 2.0, summary.Min)
	assert.Equal(t, 9.0, summary.Max)
	// Population variance: divide by n, not n-1.
	assert.Equal(t, 4.0, summary.Variance)
	assert.Equal(t, 2.0, summary.StandardDeviation)
}

func TestCalculateRounding(t *testing.T) {
	summary, err := Calculate([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.5, summary.Mean)

	summary, err = Calculate([]float64{1.111, 2.222, 3.333})
	require.NoError(t, err)
	assert.Equal(t, 2.22, summary.Mean)
}

func TestPercentileProperties(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{name: "single value", values: []float64{42}},
		{name: "two values", values: []float64{10, 20}},
		{name: "unsorted", values: []float64{9, 1, 5, 3, 7}},
		{name: "duplicates", values: []float64{5, 5, 5, 5}},
		{name: "larger spread", values: []float64{120, 340, 90, 1000, 560, 230, 410}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minVal, err := Percentile(tt.values, 0)
			require.NoError(t, err)
			maxVal, err := Percentile(tt.values, 100)
			require.NoError(t, err)
			median, err := Percentile(tt.values, 50)
			require.NoError(t, err)

			summary, err := Calculate(tt.values)
			require.NoError(t, err)

			assert.Equal(t, summary.Min, round2(minVal), "percentile(0) should equal min")
			assert.Equal(t, summary.Max, round2(maxVal), "percentile(100) should equal max")
			assert.Equal(t, summary.Median, round2(median), "median should equal percentile(50)")
			assert.GreaterOrEqual(t, summary.Mean, summary.Min)
			assert.LessOrEqual(t, summary.Mean, summary.Max)
		})
	}
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40}

	// index = 0.25 * 3 = 0.75, between 10 and 20
	p25, err := Percentile(values, 25)
	require.NoError(t, err)
	assert.InDelta(t, 17.5, p25, 0.001)

	_, err = Percentile(nil, 50)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestIsSignificantDifference(t *testing.T) {
	tests := []struct {
		name        string
		sample1     []float64
		sample2     []float64
		significant bool
	}{
		{
			name:        "too few observations",
			sample1:     []float64{100},
			sample2:     []float64{200, 210},
			significant: false,
		},
		{
			name:        "identical tight samples",
			sample1:     []float64{100, 100, 100},
			sample2:     []float64{100, 100, 100},
			significant: false,
		},
		{
			name:        "clear separation low variance",
			sample1:     []float64{100, 101, 99, 100, 102},
			sample2:     []float64{150, 151, 149, 150, 148},
			significant: true,
		},
		{
			name: "large gap swamped by variance",
			// Means differ by ~20% but the spread is so wide the pooled
			// standard error keeps the statistic at or below 2.0.
			sample1:     []float64{10, 300, 50, 250},
			sample2:     []float64{40, 350, 80, 260},
			significant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.significant, IsSignificantDifference(tt.sample1, tt.sample2))
		})
	}
}

func TestPerformanceScore(t *testing.T) {
	// All-zero metrics score the full 100 from every weighted term.
	assert.Equal(t, 100.0, PerformanceScore([]ScoreInput{{}}))

	assert.Equal(t, 0.0, PerformanceScore(nil))

	// lcp 2500 -> 0.3*max(0,100-100)=0; fid 100 -> 0.2*0=0;
	// cls 0.1 -> 0.2*max(0,100-100)=0; ttfb 600 -> 0.15*0=0;
	// tti 3500 -> 0.15*0=0.
	worst := ScoreInput{LCP: 2500, FID: 100, CLS: 0.1, TTFB: 600, TTI: 3500}
	assert.Equal(t, 0.0, PerformanceScore([]ScoreInput{worst}))

	// Beyond the decay range still clamps at zero, never negative.
	beyond := ScoreInput{LCP: 10000, FID: 500, CLS: 2, TTFB: 5000, TTI: 20000}
	assert.Equal(t, 0.0, PerformanceScore([]ScoreInput{beyond}))

	// Midpoint metrics halve every contribution.
	mid := ScoreInput{LCP: 1250, FID: 50, CLS: 0.05, TTFB: 300, TTI: 1750}
	assert.Equal(t, 50.0, PerformanceScore([]ScoreInput{mid}))

	// Mean across samples.
	assert.Equal(t, 75.0, PerformanceScore([]ScoreInput{{}, mid}))
}
