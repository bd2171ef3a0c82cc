package runner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/browser"
	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

// ActionContext carries everything a custom action may need: the live
// session, the run's test data, a scoped logger and the recorder its
// measurements land in.
type ActionContext struct {
	Session browser.Session
	Data    *scenario.TestData
	Log     logrus.FieldLogger
	Metrics *RunMetrics
}

// ActionFunc is a named custom step handler.
type ActionFunc func(ctx context.Context, ac *ActionContext) error

// Registry is the open strategy map for custom step handlers. An unknown
// identifier is a representable outcome (Lookup returns false), not a
// fallthrough: the interpreter logs and skips it so evolving script
// vocabularies never hard-fail old runs.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ActionFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]ActionFunc)}
}

// Register adds or replaces a handler under name.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Lookup returns the handler for name, if any.
func (r *Registry) Lookup(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

// Names lists registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunMetrics accumulates the custom measurements recorded while a single
// scenario run executes. Folded into the sample's application metrics once
// the run completes.
type RunMetrics struct {
	mu     sync.Mutex
	values map[string][]float64
}

// NewRunMetrics creates an empty recorder.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{values: make(map[string][]float64)}
}

// Record appends one reading under name.
func (m *RunMetrics) Record(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = append(m.values[name], value)
}

// Snapshot returns a copy of all recorded readings.
func (m *RunMetrics) Snapshot() map[string][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]float64, len(m.values))
	for k, v := range m.values {
		vals := make([]float64, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

// DefaultRegistry returns a registry pre-loaded with the built-in custom
// actions scripts refer to by name.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("measure-dashboard-widgets", measureDashboardWidgets)
	r.Register("upload-test-file", uploadTestFile)
	r.Register("measure-api-response-time", measureAPIResponseTime)
	r.Register("simulate-user-interactions", simulateUserInteractions)
	return r
}

// measureDashboardWidgets times how long the dashboard takes to show its
// widgets and records the widget count.
func measureDashboardWidgets(ctx context.Context, ac *ActionContext) error {
	start := time.Now()
	if err := ac.Session.WaitVisible(ctx, ".widget, [data-widget]", 10*time.Second); err != nil {
		return err
	}
	ac.Metrics.Record("dashboardWidgetRenderTime", float64(time.Since(start).Milliseconds()))

	var count float64
	if err := ac.Session.Evaluate(ctx, `document.querySelectorAll('.widget, [data-widget]').length`, &count); err != nil {
		return err
	}
	ac.Metrics.Record("dashboardWidgetCount", count)
	return nil
}

// uploadTestFileJS posts a small generated payload through the page's own
// fetch stack and resolves with the round-trip time in milliseconds.
const uploadTestFileJS = `
(async () => {
  const payload = new Blob([new Uint8Array(64 * 1024)], { type: 'application/octet-stream' });
  const form = new FormData();
  form.append('file', payload, 'perf-test-upload.bin');
  const start = performance.now();
  await fetch('/api/upload', { method: 'POST', body: form });
  return performance.now() - start;
})()`

func uploadTestFile(ctx context.Context, ac *ActionContext) error {
	var elapsed float64
	if err := ac.Session.Evaluate(ctx, uploadTestFileJS, &elapsed); err != nil {
		return err
	}
	ac.Metrics.Record("fileUploadTime", elapsed)
	return nil
}

// measureAPIResponseTimeJS issues a lightweight API request from inside the
// page and resolves with its latency in milliseconds.
const measureAPIResponseTimeJS = `
(async () => {
  const start = performance.now();
  await fetch('/api/health', { cache: 'no-store' });
  return performance.now() - start;
})()`

func measureAPIResponseTime(ctx context.Context, ac *ActionContext) error {
	var elapsed float64
	if err := ac.Session.Evaluate(ctx, measureAPIResponseTimeJS, &elapsed); err != nil {
		return err
	}
	ac.Metrics.Record("apiResponseTime", elapsed)
	return nil
}

// simulateUserInteractions drives a short mouse/scroll/keyboard sequence to
// provoke input-responsiveness metrics, recording the total time taken.
func simulateUserInteractions(ctx context.Context, ac *ActionContext) error {
	start := time.Now()

	moves := [][2]float64{{100, 100}, {400, 250}, {200, 500}}
	for _, m := range moves {
		if err := ac.Session.MouseMove(ctx, m[0], m[1]); err != nil {
			return err
		}
	}
	if err := ac.Session.Scroll(ctx, 600); err != nil {
		return err
	}
	if err := ac.Session.Scroll(ctx, -600); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := ac.Session.KeyPress(ctx, "\t"); err != nil {
			return err
		}
	}

	ac.Metrics.Record("interactionTime", float64(time.Since(start).Milliseconds()))
	return nil
}
