package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
}

// Scheduler runs tasks at fixed intervals. The clock is injectable so
// tests can drive time with quartz.NewMock.
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	clock   quartz.Clock
	logger  *log.Logger
}

// NewScheduler creates a new scheduler on the real clock
func NewScheduler(logger *log.Logger) *Scheduler {
	return NewSchedulerWithClock(logger, quartz.NewReal())
}

// NewSchedulerWithClock creates a scheduler with an explicit clock
func NewSchedulerWithClock(logger *log.Logger, clock quartz.Clock) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		tasks:  make([]*Task, 0),
		clock:  clock,
		logger: logger.With("component", "scheduler"),
	}
}

// AddTask adds a task to the scheduler. Has no effect once started.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
}

// Start runs every task once immediately, then on its interval
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}

	s.logger.Info("scheduler started", "tasks", len(s.tasks))
}

// Stop cancels all running tasks and waits for them to finish
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mutex.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	defer s.wg.Done()

	s.run(ctx, task)

	ticker := s.clock.NewTicker(task.Interval, "task", task.Name)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, task)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task *Task) {
	if err := task.Fn(ctx); err != nil {
		s.logger.Error("task failed", "task", task.Name, "err", err)
	}
}
