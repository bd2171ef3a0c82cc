package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunFailure records a scenario run that produced no sample.
type RunFailure struct {
	Application string
	Scenario    string
	Iteration   int
	Error       string
	Timestamp   time.Time
}

// Summary provides aggregate statistics across all recorded runs.
type Summary struct {
	TotalDuration time.Duration
	TotalRuns     int
	FailedRuns    int
	Applications  int
	Scenarios     int
}

// Collector accumulates samples from concurrent scenario workers. Append is
// safe from any goroutine; reads return copies so the comparison phase can
// iterate without holding the lock.
type Collector interface {
	Start(ctx context.Context) error
	Stop() error
	Record(sample *MetricSample)
	RecordFailure(failure RunFailure)
	Samples(application, scenario string) []*MetricSample
	Scenarios() []string
	Failures() []RunFailure
	GetSummary() Summary
}

// collector implements Collector.
type collector struct {
	log       logrus.FieldLogger
	mu        sync.RWMutex
	samples   map[string]map[string][]*MetricSample // application -> scenario -> samples
	failures  []RunFailure
	startTime time.Time
}

// NewCollector creates a new sample collector.
func NewCollector(log logrus.FieldLogger) Collector {
	return &collector{
		log:     log.WithField("component", "sample_collector"),
		samples: make(map[string]map[string][]*MetricSample),
	}
}

func (c *collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()

	c.log.Debug("sample collector started")

	return nil
}

func (c *collector) Stop() error {
	c.log.Debug("sample collector stopped")

	return nil
}

func (c *collector) Record(sample *MetricSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byScenario, ok := c.samples[sample.Application]
	if !ok {
		byScenario = make(map[string][]*MetricSample)
		c.samples[sample.Application] = byScenario
	}
	byScenario[sample.Scenario] = append(byScenario[sample.Scenario], sample)
}

func (c *collector) RecordFailure(failure RunFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, failure)
}

func (c *collector) Samples(application, scenario string) []*MetricSample {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := c.samples[application][scenario]
	result := make([]*MetricSample, len(samples))
	copy(result, samples)
	return result
}

func (c *collector) Scenarios() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	for _, byScenario := range c.samples {
		for scenario := range byScenario {
			seen[scenario] = true
		}
	}

	scenarios := make([]string, 0, len(seen))
	for scenario := range seen {
		scenarios = append(scenarios, scenario)
	}
	sort.Strings(scenarios)
	return scenarios
}

func (c *collector) Failures() []RunFailure {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]RunFailure, len(c.failures))
	copy(result, c.failures)
	return result
}

func (c *collector) GetSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	scenarios := make(map[string]bool)
	for _, byScenario := range c.samples {
		for scenario, samples := range byScenario {
			scenarios[scenario] = true
			total += len(samples)
		}
	}

	return Summary{
		TotalDuration: time.Since(c.startTime),
		TotalRuns:     total + len(c.failures),
		FailedRuns:    len(c.failures),
		Applications:  len(c.samples),
		Scenarios:     len(scenarios),
	}
}

// Compile-time interface compliance check
var _ Collector = (*collector)(nil)
