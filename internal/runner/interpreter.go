package runner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/browser"
	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

const (
	defaultNavigateTimeout = 30 * time.Second
	defaultClickTimeout    = 10 * time.Second
	fillVisibleTimeout     = 5 * time.Second
	maxIdleWait            = 10 * time.Second

	// clickSettleDelay absorbs navigation or content changes a click may
	// trigger before the next step runs.
	clickSettleDelay = 500 * time.Millisecond
)

// RunConfig identifies one scenario run and the application it targets.
type RunConfig struct {
	Application string
	BaseURL     string
	Environment string
	Iteration   int
}

// Interpreter executes scenario scripts step by step, strictly in order,
// against a session. There is no branching or looping within a script.
type Interpreter struct {
	log      logrus.FieldLogger
	registry *Registry
	sampler  *metrics.Sampler
}

// NewInterpreter creates an interpreter backed by the given custom-action
// registry and sampler.
func NewInterpreter(log logrus.FieldLogger, registry *Registry, sampler *metrics.Sampler) *Interpreter {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Interpreter{
		log:      log.WithField("component", "step_interpreter"),
		registry: registry,
		sampler:  sampler,
	}
}

// Execute runs every step of the scenario and, on success, waits for the
// page to settle and harvests one MetricSample. Configuration errors and
// automation timeouts are fatal for this run only; samples already
// collected elsewhere are unaffected.
func (i *Interpreter) Execute(
	ctx context.Context,
	session browser.Session,
	sc *scenario.Scenario,
	data *scenario.TestData,
	cfg RunConfig,
) (*metrics.MetricSample, error) {
	log := i.log.WithFields(logrus.Fields{
		"scenario":    sc.Name,
		"application": cfg.Application,
		"iteration":   cfg.Iteration,
	})

	runMetrics := NewRunMetrics()

	for idx, step := range sc.Steps {
		if err := i.executeStep(ctx, session, sc, data, cfg, runMetrics, idx, step); err != nil {
			return nil, fmt.Errorf("executing scenario %q: %w", sc.Name, err)
		}
	}

	if err := i.sampler.WaitForPageLoad(ctx, session); err != nil {
		return nil, fmt.Errorf("waiting for page load in scenario %q: %w", sc.Name, err)
	}

	sample, err := i.sampler.Sample(ctx, session, metrics.RunInfo{
		Application: cfg.Application,
		Scenario:    sc.Name,
		Iteration:   cfg.Iteration,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("sampling scenario %q: %w", sc.Name, err)
	}

	mergeRunMetrics(sample, runMetrics)

	log.Debug("scenario run complete")

	return sample, nil
}

func (i *Interpreter) executeStep(
	ctx context.Context,
	session browser.Session,
	sc *scenario.Scenario,
	data *scenario.TestData,
	cfg RunConfig,
	runMetrics *RunMetrics,
	idx int,
	step *scenario.Step,
) error {
	log := i.log.WithFields(logrus.Fields{
		"scenario": sc.Name,
		"step":     idx,
		"action":   step.Action,
	})

	switch step.Action {
	case scenario.ActionNavigate:
		target := resolveURL(cfg.BaseURL, step.URL)
		return session.Navigate(ctx, target, step.TimeoutOr(defaultNavigateTimeout))

	case scenario.ActionClick:
		if step.Selector == "" {
			return &scenario.ConfigurationError{
				Scenario: sc.Name, Step: idx,
				Detail: "click step requires a selector",
			}
		}
		if err := session.WaitVisible(ctx, step.Selector, step.TimeoutOr(defaultClickTimeout)); err != nil {
			return err
		}
		if err := session.Click(ctx, step.Selector); err != nil {
			return err
		}
		return sleepCtx(ctx, clickSettleDelay)

	case scenario.ActionFill:
		if step.Selector == "" {
			return &scenario.ConfigurationError{
				Scenario: sc.Name, Step: idx,
				Detail: "fill step requires a selector",
			}
		}
		if step.Value == nil {
			return &scenario.ConfigurationError{
				Scenario: sc.Name, Step: idx,
				Detail: "fill step requires a value",
			}
		}
		if err := session.WaitVisible(ctx, step.Selector, fillVisibleTimeout); err != nil {
			return err
		}
		if err := session.Clear(ctx, step.Selector); err != nil {
			return err
		}
		return session.Fill(ctx, step.Selector, substitute(log, data, *step.Value))

	case scenario.ActionWait:
		if step.Selector != "" {
			return session.WaitVisible(ctx, step.Selector, step.TimeoutOr(maxIdleWait))
		}
		// Idle waits are capped regardless of what the script asked for.
		wait := step.TimeoutOr(maxIdleWait)
		if wait > maxIdleWait {
			wait = maxIdleWait
		}
		return sleepCtx(ctx, wait)

	case scenario.ActionCustom:
		if step.CustomFunction == "" {
			return &scenario.ConfigurationError{
				Scenario: sc.Name, Step: idx,
				Detail: "custom step requires a customFunction identifier",
			}
		}
		fn, ok := i.registry.Lookup(step.CustomFunction)
		if !ok {
			log.WithField("customFunction", step.CustomFunction).
				Warn("unknown custom function, skipping step")
			return nil
		}
		return fn(ctx, &ActionContext{
			Session: session,
			Data:    data,
			Log:     log,
			Metrics: runMetrics,
		})

	default:
		log.Warn("unknown step action, skipping step")
		return nil
	}
}

// resolveURL resolves a step URL against the application base URL.
// Absolute URLs pass through untouched.
func resolveURL(baseURL, stepURL string) string {
	if stepURL == "" {
		return baseURL
	}
	if u, err := url.Parse(stepURL); err == nil && u.IsAbs() {
		return stepURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(stepURL, "/")
}

// mergeRunMetrics folds custom-action measurements into the sample's
// application metrics, averaging repeated readings per key.
func mergeRunMetrics(sample *metrics.MetricSample, runMetrics *RunMetrics) {
	for key, values := range runMetrics.Snapshot() {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "apiResponseTime":
			sample.ApplicationMetrics.APIResponseTimes = append(
				sample.ApplicationMetrics.APIResponseTimes, values...)
		case "fileUploadTime":
			sample.ApplicationMetrics.FormProcessingTimes = append(
				sample.ApplicationMetrics.FormProcessingTimes, values...)
		default:
			if sample.ApplicationMetrics.Custom == nil {
				sample.ApplicationMetrics.Custom = make(map[string]float64)
			}
			sample.ApplicationMetrics.Custom[key] = metrics.Meanf(values)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
