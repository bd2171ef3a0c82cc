// Package output renders comparison results, regressions and run summaries
// as console tables.
package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/comparison"
	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
)

// Formatter writes human-readable run output.
type Formatter struct {
	log    logrus.FieldLogger
	writer io.Writer
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(log logrus.FieldLogger, w io.Writer) *Formatter {
	return &Formatter{
		log:    log.WithField("component", "output_formatter"),
		writer: w,
	}
}

// renderTable applies the shared table styling and writes headers and rows.
func (f *Formatter) renderTable(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(f.writer)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetBorder(true)
	table.AppendBulk(rows)
	table.Render()
}

// WriteComparison renders the per-metric comparison table for one scenario.
func (f *Formatter) WriteComparison(scenarioName string, results []comparison.Result) {
	if len(results) == 0 {
		fmt.Fprintf(f.writer, "\n%s: no metric measured on both sides\n", scenarioName)
		return
	}

	fmt.Fprintf(f.writer, "\nScenario: %s\n", color.New(color.Bold).Sprint(scenarioName))

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Metric,
			formatFloat(r.Baseline.Mean),
			formatFloat(r.Candidate.Mean),
			formatFloat(r.Baseline.P95),
			formatFloat(r.Candidate.P95),
			fmt.Sprintf("%+.2f%%", r.ImprovementPercent),
			strconv.FormatBool(r.SignificantDifference),
			colorWinner(r.Winner),
		})
	}

	f.renderTable(
		[]string{"Metric", "Base Mean", "Cand Mean", "Base P95", "Cand P95", "Improvement", "Significant", "Winner"},
		rows,
	)
}

// WriteRegressions renders detected regressions, if any.
func (f *Formatter) WriteRegressions(regressions []comparison.Result) {
	if len(regressions) == 0 {
		fmt.Fprintf(f.writer, "\n%s\n", color.GreenString("No significant regressions detected"))
		return
	}

	fmt.Fprintf(f.writer, "\n%s\n", color.RedString("Regressions detected:"))
	rows := make([][]string, 0, len(regressions))
	for _, r := range regressions {
		rows = append(rows, []string{
			r.Scenario,
			r.Metric,
			formatFloat(r.Baseline.Mean),
			formatFloat(r.Candidate.Mean),
			fmt.Sprintf("%.2f%%", math.Abs(r.ImprovementPercent)),
		})
	}
	f.renderTable([]string{"Scenario", "Metric", "Base Mean", "Cand Mean", "Degradation"}, rows)
}

// WriteRecommendations renders the advisory recommendation list.
func (f *Formatter) WriteRecommendations(recommendations []string) {
	if len(recommendations) == 0 {
		return
	}
	fmt.Fprintf(f.writer, "\nRecommendations:\n")
	for _, rec := range recommendations {
		fmt.Fprintf(f.writer, "  • %s\n", rec)
	}
}

// WriteThresholdReport renders per-application threshold validation.
func (f *Formatter) WriteThresholdReport(application string, report comparison.ThresholdReport) {
	status := color.GreenString("PASS")
	if !report.Passed {
		status = color.RedString("FAIL")
	}
	fmt.Fprintf(f.writer, "\nThresholds %s (%d checks): %s\n", application, report.Checked, status)
	for _, failure := range report.Failures {
		fmt.Fprintf(f.writer, "  ✗ %s\n", failure)
	}
}

// WriteScores renders the weighted performance score per application.
func (f *Formatter) WriteScores(scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	fmt.Fprintf(f.writer, "\nPerformance scores (0-100, higher is better):\n")
	for app, score := range scores {
		fmt.Fprintf(f.writer, "  %s: %.2f\n", app, score)
	}
}

// WriteRunSummary renders the collector's aggregate run statistics.
func (f *Formatter) WriteRunSummary(summary metrics.Summary, failures []metrics.RunFailure) {
	fmt.Fprintf(f.writer, "\nRun summary: %d runs (%d failed) across %d applications, %d scenarios in %s\n",
		summary.TotalRuns, summary.FailedRuns, summary.Applications, summary.Scenarios,
		summary.TotalDuration.Round(timeRounding))

	for _, failure := range failures {
		fmt.Fprintf(f.writer, "  ✗ %s/%s iteration %d: %s\n",
			failure.Application, failure.Scenario, failure.Iteration, failure.Error)
	}
}

const timeRounding = 100 * time.Millisecond

func colorWinner(w comparison.Winner) string {
	switch w {
	case comparison.WinnerCandidate:
		return color.GreenString(string(w))
	case comparison.WinnerBaseline:
		return color.RedString(string(w))
	default:
		return color.YellowString(string(w))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
