package jobs

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPruner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (c *countingPruner) Prune(maxAge time.Duration) int {
	c.calls.Add(1)
	c.maxAge.Store(int64(maxAge))
	return 1
}

type countingCleaner struct{ calls atomic.Int32 }

func (c *countingCleaner) Cleanup(time.Duration) int {
	c.calls.Add(1)
	return 0
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsHousekeeping(t *testing.T) {
	guard := &countingPruner{}
	limiter := &countingCleaner{}

	s, err := NewScheduler(Config{Interval: 20 * time.Millisecond, StartMarkerTTL: time.Hour}, guard, limiter, quietLogger())
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool {
		return guard.calls.Load() >= 2 && limiter.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown())

	assert.Equal(t, int64(time.Hour), guard.maxAge.Load())
}

func TestScheduler_DefaultsStartMarkerTTL(t *testing.T) {
	guard := &countingPruner{}
	s, err := NewScheduler(Config{Interval: 20 * time.Millisecond}, guard, &countingCleaner{}, quietLogger())
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return guard.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown())
	assert.Equal(t, int64(24*time.Hour), guard.maxAge.Load())
}

func TestNewScheduler_RejectsZeroInterval(t *testing.T) {
	_, err := NewScheduler(Config{}, &countingPruner{}, &countingCleaner{}, quietLogger())
	require.Error(t, err)
}
