package metrics

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Jose0808/PerformanceComparationFramework/internal/browser"
)

const (
	// vitalsSettleWindow bounds how long the web-vitals observers are left
	// running before resolving with whatever has been seen so far. True
	// LCP/CLS can still change afterwards; bounded runtime wins here.
	vitalsSettleWindow = 1000 * time.Millisecond

	// pageSettleDelay absorbs late animations and layout work after the
	// document reports ready, before sampling.
	pageSettleDelay = 2 * time.Second

	readyPollInterval = 100 * time.Millisecond
	readyPollTimeout  = 10 * time.Second
	networkIdleWait   = 10 * time.Second
)

// webVitalsJS registers buffered observers for LCP, layout shift (ignoring
// shifts caused by recent user input) and first input, then resolves after
// the settle window with whatever was observed. Unset metrics stay 0.
const webVitalsJS = `
new Promise((resolve) => {
  const vitals = { lcp: 0, fid: 0, inp: 0, cls: 0 };
  try {
    new PerformanceObserver((list) => {
      const entries = list.getEntries();
      const last = entries[entries.length - 1];
      if (last) {
        vitals.lcp = last.renderTime || last.loadTime || last.startTime || 0;
      }
    }).observe({ type: 'largest-contentful-paint', buffered: true });

    new PerformanceObserver((list) => {
      for (const entry of list.getEntries()) {
        if (!entry.hadRecentInput) {
          vitals.cls += entry.value;
        }
      }
    }).observe({ type: 'layout-shift', buffered: true });

    new PerformanceObserver((list) => {
      const first = list.getEntries()[0];
      if (first) {
        vitals.fid = first.processingStart - first.startTime;
      }
    }).observe({ type: 'first-input', buffered: true });
  } catch (e) {
    // Older runtimes without these entry types report all zeroes.
  }
  setTimeout(() => resolve(vitals), %d);
})`

// navigationTimingJS derives the navigation and paint metrics from the
// performance timeline. fcp comes from the paint entry, 0 if absent.
const navigationTimingJS = `
(() => {
  const nav = performance.getEntriesByType('navigation')[0];
  if (!nav) {
    return null;
  }
  const paint = performance.getEntriesByName('first-contentful-paint')[0];
  return {
    ttfb: nav.responseStart - nav.fetchStart,
    dnsTime: nav.domainLookupEnd - nav.domainLookupStart,
    sslTime: nav.secureConnectionStart > 0 ? nav.connectEnd - nav.secureConnectionStart : 0,
    fcp: paint ? paint.startTime : 0,
    tti: nav.domInteractive - nav.fetchStart,
    domContentLoaded: nav.domContentLoadedEventEnd - nav.fetchStart,
    totalPageLoadTime: nav.loadEventEnd - nav.fetchStart,
    loadComplete: nav.loadEventEnd - nav.fetchStart
  };
})()`

// resourceTimingJS lists every loaded sub-resource; classification by
// extension happens on the Go side.
const resourceTimingJS = `
performance.getEntriesByType('resource').map((r) => ({
  name: r.name,
  duration: r.duration,
  size: r.decodedBodySize || 0,
  transferSize: r.transferSize || 0
}))`

const documentReadyJS = `document.readyState === 'complete'`

// RunInfo identifies the run a sample belongs to.
type RunInfo struct {
	Application string
	Scenario    string
	Iteration   int
	Environment string
}

// Sampler harvests one MetricSample from a session that has just completed
// a page load.
type Sampler struct {
	log logrus.FieldLogger
}

// NewSampler creates a sampler.
func NewSampler(log logrus.FieldLogger) *Sampler {
	return &Sampler{
		log: log.WithField("component", "metrics_sampler"),
	}
}

// rawNavigationTiming mirrors the shape produced by navigationTimingJS.
type rawNavigationTiming struct {
	TTFB              float64 `json:"ttfb"`
	DNSTime           float64 `json:"dnsTime"`
	SSLTime           float64 `json:"sslTime"`
	FCP               float64 `json:"fcp"`
	TTI               float64 `json:"tti"`
	DOMContentLoaded  float64 `json:"domContentLoaded"`
	TotalPageLoadTime float64 `json:"totalPageLoadTime"`
	LoadComplete      float64 `json:"loadComplete"`
}

type rawResource struct {
	Name         string  `json:"name"`
	Duration     float64 `json:"duration"`
	Size         float64 `json:"size"`
	TransferSize float64 `json:"transferSize"`
}

// Sample gathers the three metric groups concurrently and joins them into
// one immutable MetricSample. The three queries are independent read-only
// introspections, so they are issued together.
func (s *Sampler) Sample(ctx context.Context, session browser.Session, info RunInfo) (*MetricSample, error) {
	var (
		vitals    CoreWebVitals
		navTiming *rawNavigationTiming
		resources []rawResource
		appState  map[string][]float64
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		expr := fmt.Sprintf(webVitalsJS, vitalsSettleWindow.Milliseconds())
		if err := session.Evaluate(gctx, expr, &vitals); err != nil {
			return fmt.Errorf("collecting web vitals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := session.Evaluate(gctx, navigationTimingJS, &navTiming); err != nil {
			return fmt.Errorf("collecting navigation timing: %w", err)
		}
		if err := session.Evaluate(gctx, resourceTimingJS, &resources); err != nil {
			return fmt.Errorf("collecting resource timing: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		state, err := session.ReadPerformanceState(gctx)
		if err != nil {
			return fmt.Errorf("collecting application metrics: %w", err)
		}
		appState = state
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pageURL, err := session.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page url: %w", err)
	}
	userAgent, err := session.UserAgent(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading user agent: %w", err)
	}

	sample := &MetricSample{
		Timestamp:          time.Now().UTC(),
		URL:                pageURL,
		Environment:        info.Environment,
		Application:        info.Application,
		Scenario:           info.Scenario,
		Iteration:          info.Iteration,
		CoreWebVitals:      clampVitals(vitals),
		PerformanceMetrics: buildPerformanceMetrics(navTiming, resources),
		ApplicationMetrics: buildApplicationMetrics(appState),
		UserAgent:          userAgent,
	}

	s.log.WithFields(logrus.Fields{
		"application": info.Application,
		"scenario":    info.Scenario,
		"iteration":   info.Iteration,
		"lcp":         sample.CoreWebVitals.LCP,
		"ttfb":        sample.PerformanceMetrics.TTFB,
	}).Debug("sample collected")

	return sample, nil
}

// WaitForPageLoad is the composite readiness gate applied before sampling:
// a network-idle wait, a document-ready poll, and a fixed settle delay.
// Idle-wait expiry is tolerated; long-polling pages never go fully quiet.
func (s *Sampler) WaitForPageLoad(ctx context.Context, session browser.Session) error {
	if err := session.WaitForNetworkIdle(ctx, networkIdleWait); err != nil {
		if !browser.IsTimeout(err) {
			return fmt.Errorf("waiting for network idle: %w", err)
		}
		s.log.Debug("network never went idle, continuing")
	}

	deadline := time.Now().Add(readyPollTimeout)
	for {
		var ready bool
		if err := session.Evaluate(ctx, documentReadyJS, &ready); err != nil {
			return fmt.Errorf("polling document readiness: %w", err)
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			return &browser.TimeoutError{Op: "wait for document ready", Timeout: readyPollTimeout}
		}
		select {
		case <-time.After(readyPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-time.After(pageSettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clampVitals(v CoreWebVitals) CoreWebVitals {
	return CoreWebVitals{
		LCP: nonNegative(v.LCP),
		FID: nonNegative(v.FID),
		INP: nonNegative(v.INP),
		CLS: nonNegative(v.CLS),
	}
}

func buildPerformanceMetrics(nav *rawNavigationTiming, resources []rawResource) PerformanceMetrics {
	pm := PerformanceMetrics{
		ResourceLoadTimes: make([]ResourceTiming, 0, len(resources)),
	}
	if nav != nil {
		pm.TTFB = nonNegative(nav.TTFB)
		pm.FCP = nonNegative(nav.FCP)
		pm.TTI = nonNegative(nav.TTI)
		pm.DNSTime = nonNegative(nav.DNSTime)
		pm.SSLTime = nonNegative(nav.SSLTime)
		pm.TotalPageLoadTime = nonNegative(nav.TotalPageLoadTime)
		pm.DOMContentLoaded = nonNegative(nav.DOMContentLoaded)
		pm.LoadComplete = nonNegative(nav.LoadComplete)
	}

	for _, r := range resources {
		pm.ResourceLoadTimes = append(pm.ResourceLoadTimes, ResourceTiming{
			Name:         r.Name,
			Type:         classifyResource(r.Name),
			Duration:     nonNegative(r.Duration),
			Size:         nonNegative(r.Size),
			TransferSize: nonNegative(r.TransferSize),
		})
	}

	return pm
}

func buildApplicationMetrics(state map[string][]float64) ApplicationMetrics {
	am := ApplicationMetrics{
		NavigationTimes:     []float64{},
		APIResponseTimes:    []float64{},
		FormProcessingTimes: []float64{},
	}
	for key, values := range state {
		switch key {
		case "navigationTimes":
			am.NavigationTimes = values
		case "apiResponseTimes":
			am.APIResponseTimes = values
		case "formProcessingTimes":
			am.FormProcessingTimes = values
		default:
			if am.Custom == nil {
				am.Custom = make(map[string]float64)
			}
			if len(values) > 0 {
				am.Custom[key] = Meanf(values)
			}
		}
	}
	return am
}

// classifyResource buckets a resource URL by filename extension.
func classifyResource(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = u.Path
	}
	ext := strings.ToLower(path.Ext(name))
	if class, ok := resourceExtensions[ext]; ok {
		return class
	}
	return "other"
}

// Meanf is a small local average used when folding repeated custom readings
// into a single value.
func Meanf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
