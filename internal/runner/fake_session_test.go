package runner

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// fakeSession implements browser.Session in memory, recording every call
// and answering the sampler's introspection queries with fixed telemetry.
type fakeSession struct {
	mu sync.Mutex

	navigations  []string
	clicks       []string
	cleared      []string
	fills        map[string]string
	waitVisibles []string
	lastTimeout  time.Duration
	keyPresses   []string
	mouseMoves   int
	scrolls      int
	closed       bool

	// visibleErr, when set for a selector, fails WaitVisible with it.
	visibleErr map[string]error

	vitals    map[string]float64
	navTiming map[string]float64
	appState  map[string][]float64
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		fills:      make(map[string]string),
		visibleErr: make(map[string]error),
		vitals:     map[string]float64{"lcp": 1200, "fid": 8, "inp": 0, "cls": 0.02},
		navTiming: map[string]float64{
			"ttfb": 180, "dnsTime": 12, "sslTime": 30, "fcp": 900, "tti": 1100,
			"domContentLoaded": 1300, "totalPageLoadTime": 2100, "loadComplete": 2100,
		},
		appState: map[string][]float64{
			"navigationTimes": {310},
		},
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	f.lastTimeout = timeout
	return nil
}

func (f *fakeSession) WaitVisible(_ context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waitVisibles = append(f.waitVisibles, selector)
	f.lastTimeout = timeout
	if err, ok := f.visibleErr[selector]; ok {
		return err
	}
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeSession) Clear(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, selector)
	return nil
}

func (f *fakeSession) Fill(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fills[selector] = value
	return nil
}

// Evaluate answers the sampler's JS probes from canned telemetry.
func (f *fakeSession) Evaluate(_ context.Context, expression string, out interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.Contains(expression, "PerformanceObserver"):
		return unmarshalInto(f.vitals, out)
	case strings.Contains(expression, "getEntriesByType('navigation')"):
		return unmarshalInto(f.navTiming, out)
	case strings.Contains(expression, "getEntriesByType('resource')"):
		return unmarshalInto([]map[string]interface{}{
			{"name": "https://app.example/js/main.js", "duration": 42.0, "size": 1000.0, "transferSize": 600.0},
			{"name": "https://app.example/css/site.css", "duration": 12.0, "size": 300.0, "transferSize": 200.0},
		}, out)
	case strings.Contains(expression, "document.readyState"):
		return unmarshalInto(true, out)
	case strings.Contains(expression, "navigator.userAgent"):
		return unmarshalInto("fake-agent/1.0", out)
	case strings.Contains(expression, "querySelectorAll"):
		return unmarshalInto(4.0, out)
	case strings.Contains(expression, "fetch("):
		return unmarshalInto(55.0, out)
	default:
		return unmarshalInto(nil, out)
	}
}

func (f *fakeSession) WaitForResponse(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (f *fakeSession) WaitForNetworkIdle(_ context.Context, _ time.Duration) error {
	return nil
}

func (f *fakeSession) MouseMove(_ context.Context, _, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mouseMoves++
	return nil
}

func (f *fakeSession) Scroll(_ context.Context, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls++
	return nil
}

func (f *fakeSession) KeyPress(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyPresses = append(f.keyPresses, key)
	return nil
}

func (f *fakeSession) ReadPerformanceState(_ context.Context) (map[string][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]float64, len(f.appState))
	for k, v := range f.appState {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSession) URL(_ context.Context) (string, error) {
	return "https://app.example/dashboard", nil
}

func (f *fakeSession) UserAgent(_ context.Context) (string, error) {
	return "fake-agent/1.0", nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func unmarshalInto(value, out interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
