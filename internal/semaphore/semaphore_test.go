package semaphore

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestSem(t *testing.T) *Semaphore {
	t.Helper()
	return &Semaphore{Name: "/sem_test", Dir: t.TempDir()}
}

func TestAcquirePostCycle(t *testing.T) {
	s := newTestSem(t)

	if err := s.Acquire(time.Second); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := s.Post(); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := s.Acquire(time.Second); err != nil {
		t.Fatalf("acquire after post: %v", err)
	}
	if err := s.Post(); err != nil {
		t.Fatalf("second post: %v", err)
	}
}

func TestAcquireTimesOut(t *testing.T) {
	s := newTestSem(t)

	if err := s.Acquire(time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	start := time.Now()
	err := s.Acquire(200 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("second acquire: %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Fatalf("timed out after %v, before the deadline", elapsed)
	}
}

func TestPostWithoutHolderSucceeds(t *testing.T) {
	s := newTestSem(t)
	if err := s.Post(); err != nil {
		t.Fatalf("post on free semaphore: %v", err)
	}
}

func TestUnlinkAbsentIsNoError(t *testing.T) {
	s := newTestSem(t)
	if err := s.Unlink(); err != nil {
		t.Fatalf("unlink absent: %v", err)
	}
}

func TestMutualExclusion(t *testing.T) {
	s := newTestSem(t)

	var inside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(5 * time.Second); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if n := inside.Add(1); n != 1 {
				t.Errorf("%d holders inside the critical section", n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			if err := s.Post(); err != nil {
				t.Errorf("post: %v", err)
			}
		}()
	}
	wg.Wait()
}
