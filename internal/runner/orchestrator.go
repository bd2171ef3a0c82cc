package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Jose0808/PerformanceComparationFramework/internal/browser"
	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

// Application is one side of the comparison: a deployment the scenarios
// run against.
type Application struct {
	Name        string
	BaseURL     string
	Environment string
}

// SessionFactory opens a fresh browser session for one worker. Each worker
// owns its session exclusively; sessions are never shared.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// OrchestratorConfig contains configuration for run orchestration.
type OrchestratorConfig struct {
	Logger         logrus.FieldLogger
	Iterations     int
	Parallelism    int
	Collector      metrics.Collector
	Interpreter    *Interpreter
	SessionFactory SessionFactory
}

// Orchestrator fans the (application x scenario x iteration) matrix out
// over a bounded worker pool. Workers share nothing but the collector;
// Run returns only after every worker has joined, which is the barrier the
// comparison phase relies on.
type Orchestrator struct {
	log            logrus.FieldLogger
	iterations     int
	parallelism    int
	collector      metrics.Collector
	interpreter    *Interpreter
	sessionFactory SessionFactory
}

// NewOrchestrator creates a run orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = 1
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 2
	}

	return &Orchestrator{
		log:            cfg.Logger.WithField("component", "orchestrator"),
		iterations:     iterations,
		parallelism:    parallelism,
		collector:      cfg.Collector,
		interpreter:    cfg.Interpreter,
		sessionFactory: cfg.SessionFactory,
	}
}

type runSpec struct {
	app       Application
	sc        *scenario.Scenario
	iteration int
}

// Run executes the named scenarios against both applications. A failed run
// records a failure and never corrupts samples other workers already
// collected; only a canceled context stops the matrix early.
func (o *Orchestrator) Run(
	ctx context.Context,
	suite *scenario.Suite,
	scenarioNames []string,
	applications ...Application,
) error {
	specs, err := o.buildSpecs(suite, scenarioNames, applications)
	if err != nil {
		return err
	}

	o.log.WithFields(logrus.Fields{
		"runs":        len(specs),
		"parallelism": o.parallelism,
	}).Info("starting run matrix")

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, o.parallelism)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			o.runOne(gctx, suite, spec)
			return nil
		})
	}

	// The join below is the analysis barrier: comparison must only read
	// the collector once every worker has finished.
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run matrix aborted: %w", err)
	}

	o.log.WithField("duration", time.Since(start)).Info("run matrix complete")

	return nil
}

func (o *Orchestrator) buildSpecs(
	suite *scenario.Suite,
	scenarioNames []string,
	applications []Application,
) ([]runSpec, error) {
	scenarios := make([]*scenario.Scenario, 0, len(scenarioNames))
	if len(scenarioNames) == 0 {
		scenarios = suite.Scenarios
	} else {
		for _, name := range scenarioNames {
			sc, err := suite.Scenario(name)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, sc)
		}
	}

	specs := make([]runSpec, 0, len(applications)*len(scenarios)*o.iterations)
	for _, app := range applications {
		for _, sc := range scenarios {
			for iteration := 1; iteration <= o.iterations; iteration++ {
				specs = append(specs, runSpec{app: app, sc: sc, iteration: iteration})
			}
		}
	}
	return specs, nil
}

// runOne executes a single (application, scenario, iteration) run in its
// own session. Errors are recorded, not propagated: one bad run must not
// cancel its siblings.
func (o *Orchestrator) runOne(ctx context.Context, suite *scenario.Suite, spec runSpec) {
	log := o.log.WithFields(logrus.Fields{
		"application": spec.app.Name,
		"scenario":    spec.sc.Name,
		"iteration":   spec.iteration,
	})

	session, err := o.sessionFactory(ctx)
	if err != nil {
		log.WithError(err).Error("opening session failed")
		o.recordFailure(spec, err)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("closing session failed")
		}
	}()

	sample, err := o.interpreter.Execute(ctx, session, spec.sc, suite.TestData, RunConfig{
		Application: spec.app.Name,
		BaseURL:     spec.app.BaseURL,
		Environment: spec.app.Environment,
		Iteration:   spec.iteration,
	})
	if err != nil {
		log.WithError(err).Error("scenario run failed")
		o.recordFailure(spec, err)
		return
	}

	o.collector.Record(sample)
}

func (o *Orchestrator) recordFailure(spec runSpec, err error) {
	o.collector.RecordFailure(metrics.RunFailure{
		Application: spec.app.Name,
		Scenario:    spec.sc.Name,
		Iteration:   spec.iteration,
		Error:       err.Error(),
		Timestamp:   time.Now().UTC(),
	})
}
