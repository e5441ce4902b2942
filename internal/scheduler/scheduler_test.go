package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		expr        string
		expectError bool
	}{
		{expr: "0 0 2 * * *"},
		{expr: "*/30 * * * * *"},
		{expr: "@daily"},
		{expr: "@every 6h"},
		{expr: "0 2 * * *", expectError: true},
		{expr: "not a schedule", expectError: true},
		{expr: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetNextRunTimes(t *testing.T) {
	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	times, err := GetNextRunTimes("0 0 2 * * *", from, 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 13, 2, 0, 0, 0, time.UTC),
	}, times)

	_, err = GetNextRunTimes("bogus", from, 3)
	assert.Error(t, err)
}

func TestService_AddAndRemoveJobs(t *testing.T) {
	s := NewService()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddPruneJob("nightly", "0 0 2 * * *", noop))
	require.NoError(t, s.AddPruneJob("hourly", "0 0 * * * *", noop))
	assert.Error(t, s.AddPruneJob("broken", "every tuesday", noop))

	jobs := s.GetScheduledJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "hourly", jobs[0].Name)
	assert.Equal(t, "nightly", jobs[1].Name)

	// replacing keeps a single entry
	require.NoError(t, s.AddPruneJob("nightly", "0 30 2 * * *", noop))
	assert.Len(t, s.GetScheduledJobs(), 2)

	s.RemovePruneJob("hourly")
	s.RemovePruneJob("unknown")
	jobs = s.GetScheduledJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "nightly", jobs[0].Name)
	assert.Equal(t, "0 30 2 * * *", jobs[0].Schedule)
}

func TestService_RunsJob(t *testing.T) {
	s := NewService()

	var runs atomic.Int32
	require.NoError(t, s.AddPruneJob("every-second", "* * * * * *", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("folder unavailable")
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestService_StopCancelsJobContext(t *testing.T) {
	s := NewService()

	started := make(chan struct{})
	var once atomic.Bool
	var cancelled atomic.Bool
	require.NoError(t, s.AddPruneJob("slow", "* * * * * *", func(ctx context.Context) error {
		if once.Swap(true) {
			return nil
		}
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))

	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	s.Stop()
	assert.True(t, cancelled.Load())
}
