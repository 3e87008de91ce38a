package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/pkg/timeutil"
)

type countingJob struct {
	name  string
	calls int32
	err   error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }
func (j *countingJob) Run(context.Context) error {
	atomic.AddInt32(&j.calls, 1)
	return j.err
}

func TestDailySchedule_Next(t *testing.T) {
	s, err := NewDailySchedule(8, 30, timeutil.StockholmTZ)
	require.NoError(t, err)

	// 06:00 UTC on 2025-03-10 is 07:00 in Stockholm: same day.
	next := s.Next(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 8, 30, 0, 0, timeutil.StockholmTZ), next)

	// Exactly at the run time: next day.
	next = s.Next(time.Date(2025, 3, 10, 8, 30, 0, 0, timeutil.StockholmTZ))
	assert.Equal(t, time.Date(2025, 3, 11, 8, 30, 0, 0, timeutil.StockholmTZ), next)

	// Across the spring DST change the wall-clock time stays 08:30.
	next = s.Next(time.Date(2025, 3, 29, 12, 0, 0, 0, timeutil.StockholmTZ))
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, 30, next.Day())

	_, err = NewDailySchedule(24, 0, nil)
	assert.Error(t, err)
	_, err = NewDailySchedule(0, 60, nil)
	assert.Error(t, err)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(time.Hour)
	base := timeutil.Date(2025, 1, 1)
	assert.Equal(t, base.Add(time.Hour), s.Next(base))
	assert.Equal(t, "@every 1h0m0s", s.String())
}

func TestScheduler_Register(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Nil(t, jobs[0].LastRun)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(Config{})
	boom := errors.New("boom")
	job := &countingJob{name: "failing", err: boom}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "failing")
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Success)
	assert.True(t, result.Manual)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	info := s.ListJobs()[0]
	require.NotNil(t, info.LastRun)
	assert.False(t, info.LastRun.Success)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	var mu sync.Mutex
	now := timeutil.Date(2025, 3, 10)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	s := New(Config{Clock: clock, TickInterval: 5 * time.Millisecond})
	job := &countingJob{name: "reminders"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&job.calls), "not due yet")

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls), "runs once per slot")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
