package service

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler() SchedulerService {
	return NewSchedulerService(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduler_Schedule(t *testing.T) {
	t.Run("Runs the task after the delay", func(t *testing.T) {
		// Given: a scheduler
		scheduler := newTestScheduler()
		var calls atomic.Int32

		// When: scheduling a short task
		scheduler.Schedule("room_X", 50*time.Millisecond, func() { calls.Add(1) })

		// Then: it is pending and then runs once
		assert.True(t, scheduler.Pending("room_X"))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.False(t, scheduler.Pending("room_X"))
	})

	t.Run("Rescheduling replaces the pending task", func(t *testing.T) {
		// Given: a task scheduled under a key
		scheduler := newTestScheduler()
		var first, second atomic.Int32
		scheduler.Schedule("k", 20*time.Millisecond, func() { first.Add(1) })

		// When: the key is scheduled again
		scheduler.Schedule("k", 20*time.Millisecond, func() { second.Add(1) })

		// Then: only the replacement runs
		assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(40 * time.Millisecond)
		assert.Zero(t, first.Load())
	})
}

func TestScheduler_Cancel(t *testing.T) {
	t.Run("Cancelled task never runs", func(t *testing.T) {
		// Given: a pending task
		scheduler := newTestScheduler()
		var calls atomic.Int32
		scheduler.Schedule("k", 20*time.Millisecond, func() { calls.Add(1) })

		// When: cancelling it
		cancelled := scheduler.Cancel("k")

		// Then: nothing runs
		assert.True(t, cancelled)
		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, calls.Load())
	})

	t.Run("Cancelling a fired or unknown key is harmless", func(t *testing.T) {
		// Given: a task that already ran
		scheduler := newTestScheduler()
		done := make(chan struct{})
		scheduler.Schedule("k", time.Millisecond, func() { close(done) })
		<-done

		// When / Then: cancel reports nothing to do
		assert.False(t, scheduler.Cancel("k"))
		assert.False(t, scheduler.Cancel("missing"))
	})
}

func TestScheduler_PanicIsContained(t *testing.T) {
	// Given: a task that panics and a second healthy task
	scheduler := newTestScheduler()
	var calls atomic.Int32
	scheduler.Schedule("bad", time.Millisecond, func() { panic("boom") })
	scheduler.Schedule("good", 10*time.Millisecond, func() { calls.Add(1) })

	// Then: the healthy task still runs
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_Stop(t *testing.T) {
	// Given: a pending task
	scheduler := newTestScheduler()
	var calls atomic.Int32
	scheduler.Schedule("k", 10*time.Millisecond, func() { calls.Add(1) })

	// When: stopping the scheduler and scheduling again
	scheduler.Stop()
	scheduler.Schedule("k2", time.Millisecond, func() { calls.Add(1) })

	// Then: nothing runs
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, scheduler.Pending("k2"))
}
