// Package comparison consumes two populations of samples for the same
// scenario and decides, per metric, which application performed better.
package comparison

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
	"github.com/Jose0808/PerformanceComparationFramework/internal/stats"
)

// Winner identifies which side a metric comparison favors.
type Winner string

const (
	// WinnerBaseline means the candidate regressed on this metric.
	WinnerBaseline Winner = "baseline"
	// WinnerCandidate means the candidate improved on this metric.
	WinnerCandidate Winner = "candidate"
	// WinnerTie means the means differ by less than the tie threshold.
	WinnerTie Winner = "tie"
)

// tieThreshold is the relative difference of means below which two sides
// are treated as equivalent.
const tieThreshold = 0.05

// comparedMetrics is the fixed metric set the engine evaluates. All of
// them are lower-is-better.
var comparedMetrics = []string{
	"lcp", "fid", "inp", "cls", "ttfb", "fcp", "tti",
	"totalPageLoadTime", "domContentLoaded",
}

// Result pairs the two sides' summaries for one (scenario, metric) and the
// decision derived from them. Only created once both sides have at least
// one valid sample for the metric.
type Result struct {
	Scenario              string        `json:"scenario"`
	Metric                string        `json:"metric"`
	Baseline              stats.Summary `json:"baseline"`
	Candidate             stats.Summary `json:"candidate"`
	ImprovementPercent    float64       `json:"improvementPercent"`
	SignificantDifference bool          `json:"significantDifference"`
	Winner                Winner        `json:"winner"`
}

// ThresholdReport aggregates per-sample threshold validation. Informational
// only; breaches never abort execution.
type ThresholdReport struct {
	Passed   bool     `json:"passed"`
	Checked  int      `json:"checked"`
	Failures []string `json:"failures"`
}

// Engine builds per-metric comparisons over completed sample populations.
type Engine struct {
	log logrus.FieldLogger
}

// NewEngine creates a comparison engine.
func NewEngine(log logrus.FieldLogger) *Engine {
	return &Engine{
		log: log.WithField("component", "comparison_engine"),
	}
}

// CompareApplications compares the two populations metric by metric.
// Values <= 0 count as "not measured" and are discarded; a metric with no
// valid values on either side is skipped entirely. A genuinely zero
// measurement (a perfectly stable page with CLS 0) is indistinguishable
// from an uncaptured one here.
func (e *Engine) CompareApplications(
	baselineSamples, candidateSamples []*metrics.MetricSample,
	scenarioName string,
) []Result {
	results := make([]Result, 0, len(comparedMetrics))

	for _, metric := range comparedMetrics {
		baselineValues := extractValues(baselineSamples, metric)
		candidateValues := extractValues(candidateSamples, metric)

		if len(baselineValues) == 0 || len(candidateValues) == 0 {
			e.log.WithFields(logrus.Fields{
				"scenario": scenarioName,
				"metric":   metric,
			}).Debug("metric not measured on both sides, skipping")
			continue
		}

		baselineSummary, err := stats.Calculate(baselineValues)
		if err != nil {
			continue
		}
		candidateSummary, err := stats.Calculate(candidateValues)
		if err != nil {
			continue
		}

		improvement := (baselineSummary.Mean - candidateSummary.Mean) / baselineSummary.Mean * 100

		results = append(results, Result{
			Scenario:              scenarioName,
			Metric:                metric,
			Baseline:              baselineSummary,
			Candidate:             candidateSummary,
			ImprovementPercent:    round2(improvement),
			SignificantDifference: stats.IsSignificantDifference(baselineValues, candidateValues),
			Winner:                decideWinner(baselineSummary.Mean, candidateSummary.Mean),
		})
	}

	return results
}

// decideWinner applies the tie threshold to the relative difference of
// means; below it the sides are equivalent, otherwise the smaller mean
// wins since every compared metric is lower-is-better.
func decideWinner(baselineMean, candidateMean float64) Winner {
	avg := (baselineMean + candidateMean) / 2
	if avg == 0 {
		return WinnerTie
	}
	if math.Abs(baselineMean-candidateMean)/avg < tieThreshold {
		return WinnerTie
	}
	if candidateMean < baselineMean {
		return WinnerCandidate
	}
	return WinnerBaseline
}

// DetectRegressions returns only comparisons where the candidate got worse
// by more than thresholdPercent AND the difference is statistically
// significant. Requiring both is a deliberate gate against noise-driven
// false alarms.
func (e *Engine) DetectRegressions(results []Result, thresholdPercent float64) []Result {
	regressions := make([]Result, 0)
	for _, r := range results {
		if r.Winner != WinnerBaseline {
			continue
		}
		if math.Abs(r.ImprovementPercent) <= thresholdPercent {
			continue
		}
		if !r.SignificantDifference {
			continue
		}
		regressions = append(regressions, r)
	}
	return regressions
}

// GenerateRecommendations produces advisory text: callouts for large wins,
// warnings for large regressions, and absolute-threshold guidance for the
// candidate's web vitals. No side effects beyond the returned strings.
func (e *Engine) GenerateRecommendations(results []Result) []string {
	recommendations := make([]string, 0)

	for _, r := range results {
		switch {
		case r.Winner == WinnerCandidate && r.ImprovementPercent > 10:
			recommendations = append(recommendations, fmt.Sprintf(
				"%s improved %s by %.1f%% - keep the change that produced it",
				r.Scenario, r.Metric, r.ImprovementPercent))
		case r.Winner == WinnerBaseline && math.Abs(r.ImprovementPercent) > 10:
			recommendations = append(recommendations, fmt.Sprintf(
				"%s regressed %s by %.1f%% - investigate before promoting the candidate",
				r.Scenario, r.Metric, math.Abs(r.ImprovementPercent)))
		}

		switch r.Metric {
		case "lcp":
			if r.Candidate.Mean > 2500 {
				recommendations = append(recommendations, fmt.Sprintf(
					"%s: candidate LCP averages %.0fms (above 2500ms) - optimize the largest above-the-fold element",
					r.Scenario, r.Candidate.Mean))
			}
		case "cls":
			if r.Candidate.Mean > 0.1 {
				recommendations = append(recommendations, fmt.Sprintf(
					"%s: candidate CLS averages %.3f (above 0.1) - reserve space for late-loading content",
					r.Scenario, r.Candidate.Mean))
			}
		case "ttfb":
			if r.Candidate.Mean > 600 {
				recommendations = append(recommendations, fmt.Sprintf(
					"%s: candidate TTFB averages %.0fms (above 600ms) - review server response and caching",
					r.Scenario, r.Candidate.Mean))
			}
		}
	}

	return recommendations
}

// DefaultThresholds is the fixed threshold set CheckThresholds validates
// against when a scenario supplies no overrides.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		"lcp":               2500,
		"fid":               100,
		"cls":               0.1,
		"ttfb":              600,
		"totalPageLoadTime": 3000,
	}
}

// CheckThresholds validates every sample against the threshold set and
// itemizes breaches as human-readable strings. Unmeasured (zero) values
// are not checked.
func (e *Engine) CheckThresholds(samples []*metrics.MetricSample, thresholds map[string]float64) ThresholdReport {
	report := ThresholdReport{Passed: true, Failures: []string{}}

	for _, sample := range samples {
		for metric, threshold := range thresholds {
			value := metricValue(sample, metric)
			if value <= 0 {
				continue
			}
			report.Checked++
			if value > threshold {
				report.Passed = false
				report.Failures = append(report.Failures, fmt.Sprintf(
					"%s/%s iteration %d: %s %.2f exceeds threshold %.2f",
					sample.Application, sample.Scenario, sample.Iteration,
					metric, value, threshold))
			}
		}
	}

	return report
}

// extractValues pulls one metric out of every sample, discarding values
// <= 0 as "not measured".
func extractValues(samples []*metrics.MetricSample, metric string) []float64 {
	values := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if v := metricValue(sample, metric); v > 0 {
			values = append(values, v)
		}
	}
	return values
}

func metricValue(sample *metrics.MetricSample, metric string) float64 {
	switch metric {
	case "lcp":
		return sample.CoreWebVitals.LCP
	case "fid":
		return sample.CoreWebVitals.FID
	case "inp":
		return sample.CoreWebVitals.INP
	case "cls":
		return sample.CoreWebVitals.CLS
	case "ttfb":
		return sample.PerformanceMetrics.TTFB
	case "fcp":
		return sample.PerformanceMetrics.FCP
	case "tti":
		return sample.PerformanceMetrics.TTI
	case "totalPageLoadTime":
		return sample.PerformanceMetrics.TotalPageLoadTime
	case "domContentLoaded":
		return sample.PerformanceMetrics.DOMContentLoaded
	default:
		return 0
	}
}

// ScoreInputs adapts samples for the weighted performance score.
func ScoreInputs(samples []*metrics.MetricSample) []stats.ScoreInput {
	inputs := make([]stats.ScoreInput, 0, len(samples))
	for _, s := range samples {
		inputs = append(inputs, stats.ScoreInput{
			LCP:  s.CoreWebVitals.LCP,
			FID:  s.CoreWebVitals.FID,
			CLS:  s.CoreWebVitals.CLS,
			TTFB: s.PerformanceMetrics.TTFB,
			TTI:  s.PerformanceMetrics.TTI,
		})
	}
	return inputs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
