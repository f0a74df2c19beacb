package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/sirupsen/logrus/hooks/test"
)

func newScheduler() *TaskScheduler {
	l, _ := test.NewNullLogger()
	return NewTaskScheduler(logging.Wrap(l))
}

func TestTaskScheduler_RunsOnInterval(t *testing.T) {
	ts := newScheduler()
	defer ts.Stop()

	var n int32
	_, err := ts.AddTask("reap", "reap leases", func(context.Context) error {
		atomic.AddInt32(&n, 1)
		return nil
	}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&n) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&n) < 3 {
		t.Errorf("task ran %d times, want >= 3", atomic.LoadInt32(&n))
	}
}

func TestTaskScheduler_AddTask_Validation(t *testing.T) {
	ts := newScheduler()
	defer ts.Stop()

	noop := func(context.Context) error { return nil }
	if _, err := ts.AddTask("a", "a", noop, 0); err == nil {
		t.Error("AddTask() zero interval, want error")
	}
	if _, err := ts.AddTask("a", "a", noop, time.Hour); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := ts.AddTask("a", "a", noop, time.Hour); err == nil {
		t.Error("AddTask() duplicate id, want error")
	}
}

func TestTaskScheduler_RunTask_RecordsError(t *testing.T) {
	ts := newScheduler()
	defer ts.Stop()

	boom := errors.New("boom")
	_, _ = ts.AddTask("t", "t", func(context.Context) error { return boom }, time.Hour)

	if err := ts.RunTask("t"); !errors.Is(err, boom) {
		t.Errorf("RunTask() error = %v", err)
	}
	task, err := ts.GetTask("t")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Runs != 1 || task.LastRun.IsZero() {
		t.Errorf("task bookkeeping = %+v", task)
	}
	if err := ts.RunTask("missing"); err == nil {
		t.Error("RunTask(missing) error = nil")
	}
}

func TestTaskScheduler_RemoveTask(t *testing.T) {
	ts := newScheduler()
	defer ts.Stop()

	_, _ = ts.AddTask("t", "t", func(context.Context) error { return nil }, time.Hour)
	if err := ts.RemoveTask("t"); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if len(ts.ListTasks()) != 0 {
		t.Errorf("ListTasks() = %v", ts.ListTasks())
	}
	if err := ts.RemoveTask("t"); err == nil {
		t.Error("RemoveTask() twice, want error")
	}
}
