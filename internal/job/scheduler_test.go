package job

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRegisterValidation(t *testing.T) {
	s := NewScheduler(testLogger())

	t.Run("nil runnable", func(t *testing.T) {
		_, err := s.Register("@every 1m", nil)
		assert.Error(t, err)
	})
	t.Run("empty spec", func(t *testing.T) {
		_, err := s.Register("", &countingJob{})
		assert.Error(t, err)
	})
	t.Run("malformed spec", func(t *testing.T) {
		_, err := s.Register("not a cron spec", &countingJob{})
		assert.Error(t, err)
	})
	t.Run("descriptor spec", func(t *testing.T) {
		_, err := s.Register("@every 5m", &countingJob{})
		assert.NoError(t, err)
	})
	t.Run("standard five field spec", func(t *testing.T) {
		_, err := s.Register("*/10 * * * *", &countingJob{})
		assert.NoError(t, err)
	})
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(testLogger())
	j := &countingJob{}
	_, err := s.Register("@every 10ms", j)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return j.runs.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerStopWaitsForJobs(t *testing.T) {
	s := NewScheduler(testLogger())
	_, err := s.Register("@every 10ms", &countingJob{})
	require.NoError(t, err)

	s.Start()
	time.Sleep(30 * time.Millisecond)

	done := s.Stop()
	select {
	case <-done.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	s := NewScheduler(testLogger())
	s.Start()
	s.Start()
	<-s.Stop().Done()
	<-s.Stop().Done()
}

func TestSchedulerLogsFailures(t *testing.T) {
	s := NewScheduler(testLogger())
	j := &countingJob{err: assert.AnError}
	_, err := s.Register("@every 10ms", j)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	// A failing job keeps getting rescheduled.
	assert.Eventually(t, func() bool {
		return j.runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}
