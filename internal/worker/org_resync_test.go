package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeResyncer struct {
	calls int
	err   error
}

func (f *fakeResyncer) ResyncAll(ctx context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

type fakeLock struct {
	available  bool
	acquireErr error
	acquired   int
	released   int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	f.acquired++
	return f.available, f.acquireErr
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released++
	return nil
}

func TestRunOnceResyncs(t *testing.T) {
	r := &fakeResyncer{}
	w := NewOrgResyncWorker(r, nil, 0)

	w.RunOnce(context.Background())
	if r.calls != 1 {
		t.Errorf("ResyncAll calls = %d, want 1", r.calls)
	}
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	r := &fakeResyncer{}
	lock := &fakeLock{available: false}
	w := NewOrgResyncWorker(r, lock, 0)

	w.RunOnce(context.Background())
	if r.calls != 0 {
		t.Error("cycle must not run without the lock")
	}
	if lock.released != 0 {
		t.Error("a lock we never held must not be released")
	}
}

func TestRunOnceReleasesLockAfterCycle(t *testing.T) {
	r := &fakeResyncer{}
	lock := &fakeLock{available: true}
	w := NewOrgResyncWorker(r, lock, 0)

	w.RunOnce(context.Background())
	if r.calls != 1 {
		t.Errorf("ResyncAll calls = %d, want 1", r.calls)
	}
	if lock.released != 1 {
		t.Errorf("lock releases = %d, want 1", lock.released)
	}
}

func TestRunOnceReleasesLockOnResyncError(t *testing.T) {
	r := &fakeResyncer{err: errors.New("remote down")}
	lock := &fakeLock{available: true}
	w := NewOrgResyncWorker(r, lock, 0)

	w.RunOnce(context.Background())
	if lock.released != 1 {
		t.Errorf("lock releases = %d, want 1", lock.released)
	}
}

func TestStartRunsOnceImmediately(t *testing.T) {
	r := &fakeResyncer{}
	w := NewOrgResyncWorker(r, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// The first cycle runs before the ticker fires.
	deadline := time.After(2 * time.Second)
	for r.calls == 0 {
		select {
		case <-deadline:
			t.Fatal("worker did not run an initial cycle")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
