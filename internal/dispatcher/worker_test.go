package dispatcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(Config{Concurrency: 3, Backlog: 16})
	p.Start()

	var done atomic.Int64
	for i := 0; i < 10; i++ {
		ok := p.Enqueue(Job{ID: "job", Run: func() { done.Add(1) }})
		require.True(t, ok)
	}
	p.Stop()
	require.EqualValues(t, 10, done.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(Config{Concurrency: 2, Backlog: 16})
	p.Start()

	var inFlight, peak atomic.Int64
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		p.Enqueue(Job{ID: "job", Run: func() {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
		}})
	}
	p.Stop()
	require.LessOrEqual(t, peak.Load(), int64(2))
	require.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestPoolSurvivesPanic(t *testing.T) {
	p := New(Config{Concurrency: 1, Backlog: 4})
	p.Start()

	var ran atomic.Bool
	require.True(t, p.Enqueue(Job{ID: "boom", Run: func() { panic("kaboom") }}))
	require.True(t, p.Enqueue(Job{ID: "after", Run: func() { ran.Store(true) }}))
	p.Stop()
	require.True(t, ran.Load())
}

func TestPoolBacklogFull(t *testing.T) {
	p := New(Config{Concurrency: 1, Backlog: 1})
	p.Start()

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, p.Enqueue(Job{ID: "blocker", Run: func() {
		close(started)
		<-release
	}}))
	<-started

	// One slot in the backlog, then refusal.
	require.True(t, p.Enqueue(Job{ID: "queued", Run: func() {}}))
	require.False(t, p.Enqueue(Job{ID: "overflow", Run: func() {}}))

	close(release)
	p.Stop()
}

func TestPoolStopTwiceAndRefusesAfter(t *testing.T) {
	p := New(Config{Concurrency: 1})
	p.Start()
	p.Stop()
	p.Stop()
	require.False(t, p.Enqueue(Job{ID: "late", Run: func() {}}))
}
