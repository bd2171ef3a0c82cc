// Package browser provides the controllable-session capability the
// interpreter and sampler run against, plus its chromedp-backed
// implementation. The rest of the system only ever sees the Session
// interface; live runtime state is read through it, never through
// ambient globals.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Session is one controllable browser page. All blocking operations take a
// context and respect its deadline; a deadline miss surfaces as a
// *TimeoutError so callers can distinguish automation timeouts from
// programming errors.
type Session interface {
	// Navigate loads url and waits until DOM content is loaded.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// WaitVisible blocks until the element matched by selector is visible.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string) error

	// Clear empties the value of the element matched by selector.
	Clear(ctx context.Context, selector string) error

	// Fill types value into the element matched by selector.
	Fill(ctx context.Context, selector, value string) error

	// Evaluate runs expression in the page and unmarshals the result into
	// out. Promise results are awaited before unmarshaling.
	Evaluate(ctx context.Context, expression string, out interface{}) error

	// WaitForResponse blocks until a network response whose URL contains
	// urlFragment is observed, or the timeout elapses.
	WaitForResponse(ctx context.Context, urlFragment string, timeout time.Duration) error

	// WaitForNetworkIdle blocks until no network requests have been in
	// flight for a short quiet period, or the timeout elapses.
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error

	// MouseMove moves the pointer to viewport coordinates x,y.
	MouseMove(ctx context.Context, x, y float64) error

	// Scroll wheels the page vertically by deltaY pixels.
	Scroll(ctx context.Context, deltaY float64) error

	// KeyPress sends a single key (e.g. "Tab", "Enter") to the page.
	KeyPress(ctx context.Context, key string) error

	// ReadPerformanceState reads the instrumented performance state the
	// application under test accumulates during a run, keyed by metric
	// name (e.g. navigationTimes, apiResponseTimes).
	ReadPerformanceState(ctx context.Context) (map[string][]float64, error)

	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// UserAgent returns the user agent string of the underlying runtime.
	UserAgent(ctx context.Context) (string, error)

	// Close releases the page and its resources.
	Close() error
}

// TimeoutError reports an automation primitive that did not complete within
// its deadline. Fatal for the current scenario run; retry policy, if any,
// belongs to the iteration loop above this layer.
type TimeoutError struct {
	Op      string
	Target  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
	}
	return fmt.Sprintf("%s %q timed out after %s", e.Op, e.Target, e.Timeout)
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
