// Package storage persists metric samples to ClickHouse for later analysis
// across runs. Entirely optional: the comparison pipeline works from the
// in-memory collector alone.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/metrics"
)

// Store writes metric samples to ClickHouse.
type Store interface {
	InsertSamples(ctx context.Context, samples []*metrics.MetricSample) error
	Close() error
}

type store struct {
	conn driver.Conn
	log  logrus.FieldLogger
}

// NewStore connects to ClickHouse using the native protocol and runs the
// schema migrations before returning.
func NewStore(log logrus.FieldLogger, dsn string) (Store, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing clickhouse dsn: %w", err)
	}
	opts.DialTimeout = 30 * time.Second
	opts.MaxOpenConns = 5
	opts.MaxIdleConns = 5
	opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	if err := Migrate(dsn); err != nil {
		return nil, fmt.Errorf("migrating sample schema: %w", err)
	}

	return &store{
		conn: conn,
		log:  log.WithField("component", "sample_store"),
	}, nil
}

const insertSamplesQuery = `
INSERT INTO metric_samples (
	timestamp, url, environment, application, scenario, iteration,
	lcp, fid, inp, cls,
	ttfb, fcp, tti, dns_time, ssl_time,
	total_page_load_time, dom_content_loaded, load_complete,
	user_agent
)`

// InsertSamples batch-inserts samples. Resource timings are not persisted;
// per-metric population analysis only needs the scalar fields.
func (s *store) InsertSamples(ctx context.Context, samples []*metrics.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertSamplesQuery)
	if err != nil {
		return fmt.Errorf("preparing sample batch: %w", err)
	}

	for _, sample := range samples {
		if err := batch.Append(
			sample.Timestamp,
			sample.URL,
			sample.Environment,
			sample.Application,
			sample.Scenario,
			int32(sample.Iteration),
			sample.CoreWebVitals.LCP,
			sample.CoreWebVitals.FID,
			sample.CoreWebVitals.INP,
			sample.CoreWebVitals.CLS,
			sample.PerformanceMetrics.TTFB,
			sample.PerformanceMetrics.FCP,
			sample.PerformanceMetrics.TTI,
			sample.PerformanceMetrics.DNSTime,
			sample.PerformanceMetrics.SSLTime,
			sample.PerformanceMetrics.TotalPageLoadTime,
			sample.PerformanceMetrics.DOMContentLoaded,
			sample.PerformanceMetrics.LoadComplete,
			sample.UserAgent,
		); err != nil {
			return fmt.Errorf("appending sample to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending sample batch: %w", err)
	}

	s.log.WithField("count", len(samples)).Info("persisted samples")

	return nil
}

func (s *store) Close() error {
	return s.conn.Close()
}

var _ Store = (*store)(nil)
