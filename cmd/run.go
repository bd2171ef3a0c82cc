package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jose0808/PerformanceComparationFramework/internal/browser"
	"github.com/Jose0808/PerformanceComparationFramework/internal/comparison"
	"github.com/Jose0808/PerformanceComparationFramework/internal/config"
	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
	"github.com/Jose0808/PerformanceComparationFramework/internal/output"
	"github.com/Jose0808/PerformanceComparationFramework/internal/runner"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
	"github.com/Jose0808/PerformanceComparationFramework/internal/stats"
	"github.com/Jose0808/PerformanceComparationFramework/internal/storage"
)

var (
	runScenarios        []string
	storeSamples        bool
	failOnRegression    bool
	errRegressionsFound = errors.New("significant regressions detected")
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scenarios against both applications and compare them",
	Long: `Run every scenario (or the ones named with --scenario) against the
baseline and candidate applications, collect timing telemetry per run, and
print per-metric comparisons, regressions and recommendations.

Configuration comes from environment variables / .env:
  BASELINE_URL, CANDIDATE_URL   application base URLs (required)
  BASELINE_NAME, CANDIDATE_NAME display names
  ENVIRONMENT                   "pre" or "pro"
  SUITE_PATH                    scenario suite file (JSON or YAML)
  ITERATIONS, PARALLELISM       run matrix sizing
  HEADLESS                      browser visibility
  CLICKHOUSE_DSN                optional sample sink (with --store)

Examples:
  perfcompare run
  perfcompare run --scenario login-flow --scenario dashboard
  perfcompare run --store --fail-on-regression`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runComparison(cmd.Context(), cfg, runScenarios)
	},
}

func runComparison(ctx context.Context, cfg *config.AppConfig, scenarioNames []string) error {
	suite, err := scenario.NewLoader(Logger).Load(cfg.SuitePath)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(Logger)
	if err := collector.Start(ctx); err != nil {
		return fmt.Errorf("starting collector: %w", err)
	}
	defer func() {
		if err := collector.Stop(); err != nil {
			Logger.WithError(err).Warn("failed to stop collector")
		}
	}()

	sampler := metrics.NewSampler(Logger)
	interpreter := runner.NewInterpreter(Logger, runner.DefaultRegistry(), sampler)

	orchestrator := runner.NewOrchestrator(runner.OrchestratorConfig{
		Logger:      Logger,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
		Collector:   collector,
		Interpreter: interpreter,
		SessionFactory: func(ctx context.Context) (browser.Session, error) {
			return browser.NewSession(ctx, Logger, browser.Options{Headless: cfg.Headless})
		},
	})

	baseline := runner.Application{
		Name:        cfg.BaselineName,
		BaseURL:     cfg.BaselineURL,
		Environment: cfg.Environment,
	}
	candidate := runner.Application{
		Name:        cfg.CandidateName,
		BaseURL:     cfg.CandidateURL,
		Environment: cfg.Environment,
	}

	if err := orchestrator.Run(ctx, suite, scenarioNames, baseline, candidate); err != nil {
		return err
	}

	return analyze(ctx, cfg, suite, collector, baseline, candidate)
}

// analyze runs strictly after the orchestrator's barrier: it needs the
// complete sample population for both sides.
func analyze(
	ctx context.Context,
	cfg *config.AppConfig,
	suite *scenario.Suite,
	collector metrics.Collector,
	baseline, candidate runner.Application,
) error {
	engine := comparison.NewEngine(Logger)
	formatter := output.NewFormatter(Logger, os.Stdout)

	allResults := make([]comparison.Result, 0)
	allSamples := make([]*metrics.MetricSample, 0)
	scores := make(map[string]float64)

	for _, scenarioName := range collector.Scenarios() {
		baselineSamples := collector.Samples(baseline.Name, scenarioName)
		candidateSamples := collector.Samples(candidate.Name, scenarioName)
		allSamples = append(allSamples, baselineSamples...)
		allSamples = append(allSamples, candidateSamples...)

		results := engine.CompareApplications(baselineSamples, candidateSamples, scenarioName)
		formatter.WriteComparison(scenarioName, results)
		allResults = append(allResults, results...)

		sc, err := suite.Scenario(scenarioName)
		if err != nil {
			continue
		}
		thresholds := comparison.DefaultThresholds()
		for metric, value := range sc.ExpectedMetrics {
			thresholds[metric] = value
		}
		formatter.WriteThresholdReport(candidate.Name,
			engine.CheckThresholds(candidateSamples, thresholds))
	}

	regressions := engine.DetectRegressions(allResults, cfg.RegressionThreshold)
	formatter.WriteRegressions(regressions)
	formatter.WriteRecommendations(engine.GenerateRecommendations(allResults))

	for _, app := range []runner.Application{baseline, candidate} {
		appSamples := make([]*metrics.MetricSample, 0)
		for _, scenarioName := range collector.Scenarios() {
			appSamples = append(appSamples, collector.Samples(app.Name, scenarioName)...)
		}
		if len(appSamples) > 0 {
			scores[app.Name] = stats.PerformanceScore(comparison.ScoreInputs(appSamples))
		}
	}
	formatter.WriteScores(scores)

	formatter.WriteRunSummary(collector.GetSummary(), collector.Failures())

	if storeSamples {
		if err := persistSamples(ctx, cfg, allSamples); err != nil {
			return err
		}
	}

	if failOnRegression && len(regressions) > 0 {
		return fmt.Errorf("%w: %d metric(s)", errRegressionsFound, len(regressions))
	}

	return nil
}

func persistSamples(ctx context.Context, cfg *config.AppConfig, samples []*metrics.MetricSample) error {
	if cfg.ClickHouseDSN == "" {
		return errors.New("--store requires CLICKHOUSE_DSN to be set")
	}

	store, err := storage.NewStore(Logger, cfg.ClickHouseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			Logger.WithError(err).Warn("failed to close sample store")
		}
	}()

	return store.InsertSamples(ctx, samples)
}

func init() {
	runCmd.Flags().StringArrayVar(&runScenarios, "scenario", nil, "scenario name to run (repeatable; default all)")
	runCmd.Flags().BoolVar(&storeSamples, "store", false, "persist samples to ClickHouse")
	runCmd.Flags().BoolVar(&failOnRegression, "fail-on-regression", false, "exit non-zero when regressions are detected")
	rootCmd.AddCommand(runCmd)
}
