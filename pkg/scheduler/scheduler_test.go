package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luoxiv/enervision/pkg/scheduler"
)

// TestAddIntervalRuns 测试固定间隔任务被周期执行.
func TestAddIntervalRuns(t *testing.T) {
	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	var runs atomic.Int64

	err = s.AddInterval("test.tick", 20*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}, context.Background())
	if err != nil {
		t.Fatalf("add interval: %v", err)
	}

	s.Start()

	time.Sleep(150 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if runs.Load() == 0 {
		t.Error("expected job to run at least once")
	}
}

// TestDuplicateJobName 测试重名任务被拒绝.
func TestDuplicateJobName(t *testing.T) {
	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer s.Stop()

	job := func(ctx context.Context) {}

	if err := s.AddInterval("dup", time.Minute, job, context.Background()); err != nil {
		t.Fatalf("first add: %v", err)
	}

	if err := s.AddInterval("dup", time.Minute, job, context.Background()); err == nil {
		t.Error("expected error for duplicate job name")
	}
}

// TestRemoveJobByName 测试移除任务.
func TestRemoveJobByName(t *testing.T) {
	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer s.Stop()

	if err := s.AddInterval("removable", time.Minute, func(ctx context.Context) {}, context.Background()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := len(s.GetJobInfos()); got != 1 {
		t.Fatalf("expected 1 job info, got %d", got)
	}

	if err := s.RemoveJobByName("removable"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := len(s.GetJobInfos()); got != 0 {
		t.Errorf("expected 0 job infos after removal, got %d", got)
	}

	if err := s.RemoveJobByName("removable"); err == nil {
		t.Error("expected error removing missing job")
	}
}
