package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "outbox-retention"}
	failing := &testJob{name: "low-stock-digest", err: errors.New("boom")}
	after := &testJob{name: "after"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{ok, failing, after},
		Lock:   lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "low-stock-digest: boom") {
		t.Fatalf("expected combined job error, got %v", err)
	}
	for _, job := range []*testJob{ok, failing, after} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{job},
		Lock:   &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs)
	}
}

func TestNewServiceRejectsDuplicateNames(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{&testJob{name: "a"}, nil, &testJob{name: "a"}},
		Lock:   &fakeLock{},
	})
	if err == nil {
		t.Fatal("expected duplicate job error")
	}

	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{&testJob{name: "a"}, nil, &testJob{name: "b"}},
		Lock:   &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if names := service.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected job names %v", names)
	}
}

type expiringLock struct {
	fakeLock
	extendsLeft int
}

func (e *expiringLock) Extend(context.Context) (bool, error) {
	if e.extendsLeft == 0 {
		return false, nil
	}
	e.extendsLeft--
	return true, nil
}

func TestRunOnceStopsWhenLockLost(t *testing.T) {
	first := &testJob{name: "outbox-retention"}
	second := &testJob{name: "low-stock-digest"}
	third := &testJob{name: "after"}
	lock := &expiringLock{extendsLeft: 1}
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{first, second, third},
		Lock:   lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if first.runs != 1 || second.runs != 1 || third.runs != 0 {
		t.Fatalf("unexpected runs: %d %d %d", first.runs, second.runs, third.runs)
	}
}
