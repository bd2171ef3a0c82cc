// Package metrics defines the per-run telemetry record, harvests it from a
// completed page load, and accumulates samples concurrently across workers.
package metrics

import "time"

// CoreWebVitals holds the page-responsiveness signals observed during the
// settle window. Unobserved metrics default to 0, which downstream layers
// treat as "not captured".
type CoreWebVitals struct {
	LCP float64 `json:"lcp"`
	FID float64 `json:"fid,omitempty"`
	INP float64 `json:"inp,omitempty"`
	CLS float64 `json:"cls"`
}

// ResourceTiming describes one loaded sub-resource.
type ResourceTiming struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Duration     float64 `json:"duration"`
	Size         float64 `json:"size"`
	TransferSize float64 `json:"transferSize"`
}

// PerformanceMetrics holds navigation, paint and resource timing for one
// page load. All durations are milliseconds relative to fetchStart unless
// noted. TTI is approximated as domInteractive - fetchStart, not the
// canonical long-task algorithm.
type PerformanceMetrics struct {
	TTFB              float64          `json:"ttfb"`
	FCP               float64          `json:"fcp"`
	TTI               float64          `json:"tti"`
	DNSTime           float64          `json:"dnsTime"`
	SSLTime           float64          `json:"sslTime"`
	TotalPageLoadTime float64          `json:"totalPageLoadTime"`
	DOMContentLoaded  float64          `json:"domContentLoaded"`
	LoadComplete      float64          `json:"loadComplete"`
	ResourceLoadTimes []ResourceTiming `json:"resourceLoadTimes"`
}

// ApplicationMetrics holds the application-specific timings recorded by the
// instrumented runtime and by custom actions during a run.
type ApplicationMetrics struct {
	NavigationTimes     []float64          `json:"navigationTimes"`
	APIResponseTimes    []float64          `json:"apiResponseTimes"`
	FormProcessingTimes []float64          `json:"formProcessingTimes"`
	Custom              map[string]float64 `json:"custom,omitempty"`
}

// MetricSample is the immutable record of one completed scenario run.
// It is created once by the sampler and never mutated afterwards; the
// collector and comparison layers only ever read it.
type MetricSample struct {
	Timestamp          time.Time          `json:"timestamp"`
	URL                string             `json:"url"`
	Environment        string             `json:"environment"`
	Application        string             `json:"application"`
	Scenario           string             `json:"scenario"`
	Iteration          int                `json:"iteration"`
	CoreWebVitals      CoreWebVitals      `json:"coreWebVitals"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
	ApplicationMetrics ApplicationMetrics `json:"applicationMetrics"`
	UserAgent          string             `json:"userAgent"`
}

// resourceExtensions maps filename extensions to resource classes; anything
// unlisted classifies as "other".
var resourceExtensions = map[string]string{
	".js":    "script",
	".mjs":   "script",
	".css":   "stylesheet",
	".png":   "image",
	".jpg":   "image",
	".jpeg":  "image",
	".gif":   "image",
	".webp":  "image",
	".svg":   "image",
	".ico":   "image",
	".woff":  "font",
	".woff2": "font",
	".ttf":   "font",
	".otf":   "font",
	".eot":   "font",
}
