package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// networkQuietPeriod is how long the session must see zero in-flight
// requests before the network is considered idle.
const networkQuietPeriod = 500 * time.Millisecond

// Options configures a chromedp session.
type Options struct {
	Headless  bool
	UserAgent string
}

// chromeSession implements Session on top of a dedicated chromedp browser
// context. Each session owns its own page; sessions are never shared
// between workers.
type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	log     logrus.FieldLogger

	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	quietAt  time.Time
	waiters  []*responseWaiter
}

type responseWaiter struct {
	fragment string
	done     chan struct{}
	once     sync.Once
}

func (w *responseWaiter) fulfill() {
	w.once.Do(func() { close(w.done) })
}

// NewSession starts a browser page and returns it as a Session.
func NewSession(parent context.Context, log logrus.FieldLogger, opts Options) (Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:      taskCtx,
		cancels:  []context.CancelFunc{cancelTask, cancelAlloc},
		log:      log.WithField("component", "browser_session"),
		inflight: make(map[network.RequestID]struct{}),
		quietAt:  time.Now(),
	}

	s.listenNetwork()

	// Start the browser process and enable network events up front so
	// response waiters never miss early traffic.
	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("starting browser session: %w", err)
	}

	return s, nil
}

// listenNetwork tracks in-flight requests for the idle gate and fans
// responses out to any registered waiters.
func (s *chromeSession) listenNetwork() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			s.mu.Lock()
			s.inflight[e.RequestID] = struct{}{}
			s.mu.Unlock()
		case *network.EventLoadingFinished:
			s.requestDone(e.RequestID)
		case *network.EventLoadingFailed:
			s.requestDone(e.RequestID)
		case *network.EventResponseReceived:
			s.mu.Lock()
			url := e.Response.URL
			remaining := s.waiters[:0]
			for _, w := range s.waiters {
				if strings.Contains(url, w.fragment) {
					w.fulfill()
				} else {
					remaining = append(remaining, w)
				}
			}
			s.waiters = remaining
			s.mu.Unlock()
		}
	})
}

func (s *chromeSession) requestDone(id network.RequestID) {
	s.mu.Lock()
	delete(s.inflight, id)
	if len(s.inflight) == 0 {
		s.quietAt = time.Now()
	}
	s.mu.Unlock()
}

// run executes actions under a deadline, translating a deadline miss into a
// *TimeoutError for the given operation.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, op, target string, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tctx, actions...) }()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return &TimeoutError{Op: op, Target: target, Timeout: timeout}
			}
			return fmt.Errorf("%s %q: %w", op, target, err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

func (s *chromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s.log.WithField("url", url).Debug("navigating")
	return s.run(ctx, timeout, "navigate", url, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "wait visible", selector,
		chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, 10*time.Second, "click", selector,
		chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) Clear(ctx context.Context, selector string) error {
	return s.run(ctx, 5*time.Second, "clear", selector,
		chromedp.Clear(selector, chromedp.ByQuery))
}

func (s *chromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx, 10*time.Second, "fill", selector,
		chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (s *chromeSession) Evaluate(ctx context.Context, expression string, out interface{}) error {
	return s.run(ctx, 15*time.Second, "evaluate", "",
		chromedp.Evaluate(expression, out, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
}

func (s *chromeSession) WaitForResponse(ctx context.Context, urlFragment string, timeout time.Duration) error {
	w := &responseWaiter{fragment: urlFragment, done: make(chan struct{})}
	s.mu.Lock()
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		return &TimeoutError{Op: "wait for response", Target: urlFragment, Timeout: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chromeSession) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		idle := len(s.inflight) == 0 && time.Since(s.quietAt) >= networkQuietPeriod
		s.mu.Unlock()
		if idle {
			return nil
		}
		if time.Now().After(deadline) {
			// Not fatal on its own: pages with long-polling never go
			// fully quiet, so callers treat idle expiry as best effort.
			return &TimeoutError{Op: "wait for network idle", Timeout: timeout}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *chromeSession) MouseMove(ctx context.Context, x, y float64) error {
	return s.run(ctx, 5*time.Second, "mouse move", "",
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}))
}

func (s *chromeSession) Scroll(ctx context.Context, deltaY float64) error {
	return s.run(ctx, 5*time.Second, "scroll", "",
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseWheel, 0, 0).
				WithDeltaX(0).
				WithDeltaY(deltaY).
				Do(ctx)
		}))
}

func (s *chromeSession) KeyPress(ctx context.Context, key string) error {
	return s.run(ctx, 5*time.Second, "key press", key, chromedp.KeyEvent(key))
}

// readPerformanceStateJS snapshots the metric arrays the instrumented
// application accumulates on a well-known window property.
const readPerformanceStateJS = `JSON.parse(JSON.stringify(window.__appPerformanceMetrics || {}))`

func (s *chromeSession) ReadPerformanceState(ctx context.Context) (map[string][]float64, error) {
	state := make(map[string][]float64)
	if err := s.Evaluate(ctx, readPerformanceStateJS, &state); err != nil {
		return nil, fmt.Errorf("reading instrumented performance state: %w", err)
	}
	return state, nil
}

func (s *chromeSession) URL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, 5*time.Second, "read location", "", chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (s *chromeSession) UserAgent(ctx context.Context) (string, error) {
	var ua string
	if err := s.Evaluate(ctx, "navigator.userAgent", &ua); err != nil {
		return "", err
	}
	return ua, nil
}

func (s *chromeSession) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}

var _ Session = (*chromeSession)(nil)
