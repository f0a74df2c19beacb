package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/sirupsen/logrus"
)

// Task is a periodic maintenance job, e.g. re-queueing expired leases.
type Task struct {
	ID       string
	Name     string
	Fn       func(context.Context) error
	Interval time.Duration
	LastRun  time.Time
	LastErr  error
	Runs     int64

	stop chan struct{}
}

type TaskScheduler struct {
	tasks  map[string]*Task
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger
}

func NewTaskScheduler(logger *logging.Logger) *TaskScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskScheduler{
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// AddTask registers fn and starts ticking it every interval.
func (ts *TaskScheduler) AddTask(id, name string, fn func(context.Context) error, interval time.Duration) (*Task, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("task %s needs a positive interval", id)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.tasks[id]; exists {
		return nil, fmt.Errorf("task with ID %s already exists", id)
	}

	task := &Task{
		ID:       id,
		Name:     name,
		Fn:       fn,
		Interval: interval,
		stop:     make(chan struct{}),
	}
	ts.tasks[id] = task

	ts.wg.Add(1)
	go ts.loop(task)

	ts.logger.WithFields(logrus.Fields{"task": id, "interval": interval.String()}).Info("task scheduled")
	return task, nil
}

func (ts *TaskScheduler) loop(task *Task) {
	defer ts.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ts.ctx.Done():
			return
		case <-task.stop:
			return
		case <-ticker.C:
			ts.run(task)
		}
	}
}

func (ts *TaskScheduler) run(task *Task) error {
	err := task.Fn(ts.ctx)

	ts.mu.Lock()
	task.LastRun = time.Now()
	task.LastErr = err
	task.Runs++
	ts.mu.Unlock()

	if err != nil {
		ts.logger.WithFields(logrus.Fields{"task": task.ID}).Errorf("task %s failed: %v", task.Name, err)
	}
	return err
}

// RunTask executes a task once, synchronously, outside its schedule.
func (ts *TaskScheduler) RunTask(id string) error {
	ts.mu.RLock()
	task, exists := ts.tasks[id]
	ts.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task with ID %s not found", id)
	}

	return ts.run(task)
}

func (ts *TaskScheduler) RemoveTask(id string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	task, exists := ts.tasks[id]
	if !exists {
		return fmt.Errorf("task with ID %s not found", id)
	}

	close(task.stop)
	delete(ts.tasks, id)
	ts.logger.WithField("task", id).Info("task removed")
	return nil
}

// GetTask returns a snapshot of the task's bookkeeping.
func (ts *TaskScheduler) GetTask(id string) (Task, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	task, exists := ts.tasks[id]
	if !exists {
		return Task{}, fmt.Errorf("task with ID %s not found", id)
	}
	return *task, nil
}

func (ts *TaskScheduler) ListTasks() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	ids := make([]string, 0, len(ts.tasks))
	for id := range ts.tasks {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels every task and waits for in-flight runs to return.
func (ts *TaskScheduler) Stop() {
	ts.cancel()
	ts.wg.Wait()
}
