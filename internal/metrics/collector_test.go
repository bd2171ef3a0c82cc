package metrics

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleFor(application, scenarioName string, iteration int) *MetricSample {
	return &MetricSample{
		Timestamp:   time.Now().UTC(),
		Application: application,
		Scenario:    scenarioName,
		Iteration:   iteration,
	}
}

func TestCollectorRecordAndRead(t *testing.T) {
	coll := NewCollector(newTestLogger())
	require.NoError(t, coll.Start(context.Background()))

	coll.Record(sampleFor("baseline", "homepage", 1))
	coll.Record(sampleFor("baseline", "homepage", 2))
	coll.Record(sampleFor("candidate", "homepage", 1))
	coll.Record(sampleFor("baseline", "checkout", 1))

	assert.Len(t, coll.Samples("baseline", "homepage"), 2)
	assert.Len(t, coll.Samples("candidate", "homepage"), 1)
	assert.Len(t, coll.Samples("baseline", "checkout"), 1)
	assert.Empty(t, coll.Samples("candidate", "checkout"))
	assert.Empty(t, coll.Samples("unknown", "homepage"))

	assert.Equal(t, []string{"checkout", "homepage"}, coll.Scenarios())

	require.NoError(t, coll.Stop())
}

func TestCollectorConcurrentRecord(t *testing.T) {
	coll := NewCollector(newTestLogger())
	require.NoError(t, coll.Start(context.Background()))

	var wg sync.WaitGroup
	const workers = 8
	const perWorker = 50

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			app := "baseline"
			if worker%2 == 1 {
				app = "candidate"
			}
			for i := 0; i < perWorker; i++ {
				coll.Record(sampleFor(app, "homepage", i))
			}
		}(w)
	}
	wg.Wait()

	total := len(coll.Samples("baseline", "homepage")) + len(coll.Samples("candidate", "homepage"))
	assert.Equal(t, workers*perWorker, total)
}

func TestCollectorSamplesReturnsCopy(t *testing.T) {
	coll := NewCollector(newTestLogger())

	coll.Record(sampleFor("baseline", "homepage", 1))
	coll.Record(sampleFor("baseline", "homepage", 2))

	first := coll.Samples("baseline", "homepage")
	first[0] = sampleFor("tampered", "homepage", 9)

	second := coll.Samples("baseline", "homepage")
	assert.Equal(t, "baseline", second[0].Application)
}

func TestCollectorFailuresAndSummary(t *testing.T) {
	coll := NewCollector(newTestLogger())
	require.NoError(t, coll.Start(context.Background()))

	coll.Record(sampleFor("baseline", "homepage", 1))
	coll.Record(sampleFor("candidate", "homepage", 1))
	coll.Record(sampleFor("baseline", "checkout", 1))

	for i := 1; i <= 2; i++ {
		coll.RecordFailure(RunFailure{
			Application: "candidate",
			Scenario:    "checkout",
			Iteration:   i,
			Error:       fmt.Sprintf("run %d timed out", i),
			Timestamp:   time.Now().UTC(),
		})
	}

	failures := coll.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "candidate", failures[0].Application)
	assert.Contains(t, failures[0].Error, "timed out")

	summary := coll.GetSummary()
	assert.Equal(t, 5, summary.TotalRuns)
	assert.Equal(t, 2, summary.FailedRuns)
	assert.Equal(t, 2, summary.Applications)
	assert.Equal(t, 2, summary.Scenarios)
	assert.GreaterOrEqual(t, summary.TotalDuration, time.Duration(0))
}
