package comparison

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
	"github.com/Jose0808/PerformanceComparationFramework/internal/stats"
)

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetOutput(os.Stderr)

	return log
}

// sampleWith builds a MetricSample whose compared metrics all carry the
// given value, overridable per metric.
func sampleWith(application string, value float64, overrides map[string]float64) *metrics.MetricSample {
	get := func(metric string) float64 {
		if v, ok := overrides[metric]; ok {
			return v
		}
		return value
	}
	return &metrics.MetricSample{
		Application: application,
		Scenario:    "checkout",
		CoreWebVitals: metrics.CoreWebVitals{
			LCP: get("lcp"),
			FID: get("fid"),
			INP: get("inp"),
			CLS: get("cls"),
		},
		PerformanceMetrics: metrics.PerformanceMetrics{
			TTFB:              get("ttfb"),
			FCP:               get("fcp"),
			TTI:               get("tti"),
			TotalPageLoadTime: get("totalPageLoadTime"),
			DOMContentLoaded:  get("domContentLoaded"),
		},
	}
}

func samplesWithMeans(application, metric string, values ...float64) []*metrics.MetricSample {
	samples := make([]*metrics.MetricSample, 0, len(values))
	for _, v := range values {
		samples = append(samples, sampleWith(application, 0, map[string]float64{metric: v}))
	}
	return samples
}

func TestCompareIdenticalPopulations(t *testing.T) {
	engine := NewEngine(newTestLogger())

	baseline := []*metrics.MetricSample{
		sampleWith("a", 100, nil),
		sampleWith("a", 100, nil),
	}
	candidate := []*metrics.MetricSample{
		sampleWith("b", 100, nil),
		sampleWith("b", 100, nil),
	}

	results := engine.CompareApplications(baseline, candidate, "checkout")
	require.Len(t, results, 9, "every metric should be compared")

	for _, r := range results {
		assert.Equal(t, 0.0, r.ImprovementPercent, r.Metric)
		assert.Equal(t, WinnerTie, r.Winner, r.Metric)
		assert.False(t, r.SignificantDifference, r.Metric)
	}
}

func TestCompareWinnerDecision(t *testing.T) {
	tests := []struct {
		name            string
		baselineMeans   []float64
		candidateMeans  []float64
		wantWinner      Winner
		wantImprovement float64
	}{
		{
			// 104 vs 100: relative diff 4/102 = 3.9% < 5%.
			name:            "inside tie threshold",
			baselineMeans:   []float64{100, 100},
			candidateMeans:  []float64{104, 104},
			wantWinner:      WinnerTie,
			wantImprovement: -4.0,
		},
		{
			// 110 vs 100: relative diff 10/105 = 9.5% >= 5%, lower wins.
			name:            "baseline wins",
			baselineMeans:   []float64{100, 100},
			candidateMeans:  []float64{110, 110},
			wantWinner:      WinnerBaseline,
			wantImprovement: -10.0,
		},
		{
			name:            "candidate wins",
			baselineMeans:   []float64{200, 200},
			candidateMeans:  []float64{150, 150},
			wantWinner:      WinnerCandidate,
			wantImprovement: 25.0,
		},
	}

	engine := NewEngine(newTestLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline := samplesWithMeans("a", "lcp", tt.baselineMeans...)
			candidate := samplesWithMeans("b", "lcp", tt.candidateMeans...)

			results := engine.CompareApplications(baseline, candidate, "checkout")
			require.Len(t, results, 1, "only lcp is measured")

			assert.Equal(t, "lcp", results[0].Metric)
			assert.Equal(t, tt.wantWinner, results[0].Winner)
			assert.InDelta(t, tt.wantImprovement, results[0].ImprovementPercent, 0.001)
		})
	}
}

func TestCompareDiscardsUnmeasuredValues(t *testing.T) {
	engine := NewEngine(newTestLogger())

	// One literal zero for lcp must not drag the mean down; it is treated
	// as "not measured" and excluded from the population entirely.
	baseline := samplesWithMeans("a", "lcp", 100, 0, 100)
	candidate := samplesWithMeans("b", "lcp", 100, 100)

	results := engine.CompareApplications(baseline, candidate, "checkout")
	require.Len(t, results, 1)
	assert.Equal(t, 100.0, results[0].Baseline.Mean)
	assert.Equal(t, WinnerTie, results[0].Winner)
}

func TestCompareSkipsMetricMissingOnOneSide(t *testing.T) {
	engine := NewEngine(newTestLogger())

	baseline := samplesWithMeans("a", "lcp", 100, 110)
	// Candidate never measured lcp at all.
	candidate := samplesWithMeans("b", "ttfb", 50, 60)

	results := engine.CompareApplications(baseline, candidate, "checkout")
	assert.Empty(t, results, "no metric is measured on both sides")
}

func TestDetectRegressions(t *testing.T) {
	engine := NewEngine(newTestLogger())

	// Tight populations: >15% gap and statistically significant.
	realRegression := engine.CompareApplications(
		samplesWithMeans("a", "lcp", 100, 101, 99, 100),
		samplesWithMeans("b", "lcp", 120, 121, 119, 120),
		"checkout",
	)
	require.Len(t, realRegression, 1)
	require.Equal(t, WinnerBaseline, realRegression[0].Winner)
	require.True(t, realRegression[0].SignificantDifference)

	// Same-sized gap but variance so high the significance test fails;
	// must be gated out despite exceeding the magnitude threshold.
	noisyGap := engine.CompareApplications(
		samplesWithMeans("a", "lcp", 10, 300, 50, 250),
		samplesWithMeans("b", "lcp", 40, 350, 80, 260),
		"checkout",
	)
	require.Len(t, noisyGap, 1)
	require.Equal(t, WinnerBaseline, noisyGap[0].Winner)
	require.False(t, noisyGap[0].SignificantDifference)

	// Candidate improvement never counts as a regression.
	improvement := engine.CompareApplications(
		samplesWithMeans("a", "lcp", 200, 201, 199, 200),
		samplesWithMeans("b", "lcp", 100, 101, 99, 100),
		"checkout",
	)
	require.Len(t, improvement, 1)
	require.Equal(t, WinnerCandidate, improvement[0].Winner)

	all := append(append(realRegression, noisyGap...), improvement...)

	regressions := engine.DetectRegressions(all, 15)
	require.Len(t, regressions, 1)
	assert.Equal(t, realRegression[0].Metric, regressions[0].Metric)
	assert.InDelta(t, -20.0, regressions[0].ImprovementPercent, 0.1)
}

func TestDetectRegressionsMagnitudeGate(t *testing.T) {
	engine := NewEngine(newTestLogger())

	// Significant but small: 8% gap stays under a 10% threshold.
	small := engine.CompareApplications(
		samplesWithMeans("a", "ttfb", 100, 101, 99, 100),
		samplesWithMeans("b", "ttfb", 108, 109, 107, 108),
		"checkout",
	)
	require.Len(t, small, 1)
	require.Equal(t, WinnerBaseline, small[0].Winner)
	require.True(t, small[0].SignificantDifference)

	assert.Empty(t, engine.DetectRegressions(small, 10))
	assert.Len(t, engine.DetectRegressions(small, 5), 1)
}

func TestGenerateRecommendations(t *testing.T) {
	engine := NewEngine(newTestLogger())

	results := []Result{
		{
			Scenario: "checkout", Metric: "lcp",
			Winner:             WinnerCandidate,
			ImprovementPercent: 20,
			Candidate:          summaryWithMean(1200),
		},
		{
			Scenario: "checkout", Metric: "ttfb",
			Winner:             WinnerBaseline,
			ImprovementPercent: -25,
			Candidate:          summaryWithMean(700),
		},
		{
			Scenario: "search", Metric: "cls",
			Winner:             WinnerTie,
			ImprovementPercent: 1,
			Candidate:          summaryWithMean(0.25),
		},
	}

	recommendations := engine.GenerateRecommendations(results)

	require.Len(t, recommendations, 4)
	assert.Contains(t, recommendations[0], "improved lcp by 20.0%")
	assert.Contains(t, recommendations[1], "regressed ttfb by 25.0%")
	assert.Contains(t, recommendations[2], "TTFB averages 700ms")
	assert.Contains(t, recommendations[3], "CLS averages 0.250")
}

func TestCheckThresholds(t *testing.T) {
	engine := NewEngine(newTestLogger())

	passing := []*metrics.MetricSample{
		sampleWith("a", 0, map[string]float64{"lcp": 1800, "ttfb": 200}),
	}
	report := engine.CheckThresholds(passing, DefaultThresholds())
	assert.True(t, report.Passed)
	assert.Empty(t, report.Failures)

	failing := []*metrics.MetricSample{
		sampleWith("a", 0, map[string]float64{"lcp": 3000, "ttfb": 200}),
	}
	report = engine.CheckThresholds(failing, DefaultThresholds())
	assert.False(t, report.Passed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "lcp 3000.00 exceeds threshold 2500.00")

	// Unmeasured zeroes are not validated.
	report = engine.CheckThresholds(
		[]*metrics.MetricSample{sampleWith("a", 0, nil)},
		DefaultThresholds(),
	)
	assert.True(t, report.Passed)
	assert.Zero(t, report.Checked)
}

func summaryWithMean(mean float64) stats.Summary {
	return stats.Summary{Mean: mean}
}
