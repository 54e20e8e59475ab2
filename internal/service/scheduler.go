package service

import (
	"log/slog"
	"sync"
	"time"
)

// SchedulerService runs deferred tasks identified by a key. Scheduling a key
// that is already pending replaces the earlier task.
type SchedulerService interface {
	Schedule(key string, delay time.Duration, task func())
	Cancel(key string) bool
	Pending(key string) bool
	Stop()
}

type scheduledTask struct {
	seq   uint64
	timer *time.Timer
}

type schedulerService struct {
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	tasks   map[string]scheduledTask
	stopped bool
}

func NewSchedulerService(logger *slog.Logger) SchedulerService {
	return &schedulerService{
		logger: logger.With("component", "scheduler"),
		tasks:  make(map[string]scheduledTask),
	}
}

func (that *schedulerService) Schedule(key string, delay time.Duration, task func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped {
		return
	}

	if previous, ok := that.tasks[key]; ok {
		previous.timer.Stop()
	}

	that.seq++
	seq := that.seq
	that.tasks[key] = scheduledTask{
		seq:   seq,
		timer: time.AfterFunc(delay, func() { that.fire(key, seq, task) }),
	}
}

func (that *schedulerService) fire(key string, seq uint64, task func()) {
	that.mu.Lock()
	current, ok := that.tasks[key]
	if !ok || current.seq != seq {
		// cancelled or replaced after the timer already started
		that.mu.Unlock()
		return
	}
	delete(that.tasks, key)
	that.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("scheduled task panicked", "key", key, "panic", r)
		}
	}()

	task()
}

// Cancel reports whether a pending task was removed. A task that already
// started running is not interrupted.
func (that *schedulerService) Cancel(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	task, ok := that.tasks[key]
	if !ok {
		return false
	}

	task.timer.Stop()
	delete(that.tasks, key)

	return true
}

func (that *schedulerService) Pending(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.tasks[key]

	return ok
}

func (that *schedulerService) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for key, task := range that.tasks {
		task.timer.Stop()
		delete(that.tasks, key)
	}
	that.stopped = true
}
