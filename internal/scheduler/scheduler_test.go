package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedChecker struct{ leader bool }

func (c fixedChecker) IsLeader(context.Context) bool { return c.leader }

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

type panickingJob struct{ runs int }

func (j *panickingJob) Name() string { return "panicker" }

func (j *panickingJob) Run(context.Context) error {
	j.runs++
	panic("job blew up")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresElector(t *testing.T) {
	_, err := New(nil, testLogger(), nil)
	require.Error(t, err)
}

func TestTickSkipsOnNonLeader(t *testing.T) {
	s, err := New(fixedChecker{leader: false}, testLogger(), nil)
	require.NoError(t, err)

	job := &countingJob{name: "reaper"}
	s.tick(context.Background(), job)
	assert.Zero(t, job.runs, "non-leader replica must not run jobs")
}

func TestTickRunsOnLeader(t *testing.T) {
	s, err := New(fixedChecker{leader: true}, testLogger(), nil)
	require.NoError(t, err)

	job := &countingJob{name: "reaper"}
	s.tick(context.Background(), job)
	assert.Equal(t, 1, job.runs)
}

func TestTickSurvivesJobError(t *testing.T) {
	s, err := New(fixedChecker{leader: true}, testLogger(), nil)
	require.NoError(t, err)

	job := &countingJob{name: "backfill", err: errors.New("resolver down")}
	s.tick(context.Background(), job)
	s.tick(context.Background(), job)
	assert.Equal(t, 2, job.runs, "a failing job keeps getting scheduled")
}

func TestTickRecoversPanic(t *testing.T) {
	s, err := New(fixedChecker{leader: true}, testLogger(), nil)
	require.NoError(t, err)

	job := &panickingJob{}
	require.NotPanics(t, func() { s.tick(context.Background(), job) })
	assert.Equal(t, 1, job.runs)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s, err := New(fixedChecker{leader: true}, testLogger(), nil)
	require.NoError(t, err)

	job := &countingJob{name: "reaper"}
	s.Register(job, 0, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, job.runs, "zero initial delay runs the job once before the first interval")
}

func TestUntilNextHour(t *testing.T) {
	loc := time.UTC

	t.Run("later today", func(t *testing.T) {
		now := time.Date(2026, 4, 15, 3, 30, 0, 0, loc)
		assert.Equal(t, 90*time.Minute, UntilNextHour(5, now))
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2026, 4, 15, 6, 0, 0, 1, loc)
		got := UntilNextHour(5, now)
		assert.Equal(t, 23*time.Hour-time.Nanosecond, got)
	})

	t.Run("exactly at the hour waits a full day", func(t *testing.T) {
		now := time.Date(2026, 4, 15, 5, 0, 0, 0, loc)
		assert.Equal(t, 24*time.Hour, UntilNextHour(5, now))
	})
}
