package lock

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquire_ReleaseReacquire(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()

	release2, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("re-Acquire after release: %v", err)
	}
	release2()
}

func TestAcquire_TimesOutWhileHeld(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if _, err := km.Acquire("u1", 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestAcquire_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	r1, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("Acquire u1: %v", err)
	}
	defer r1()

	r2, err := km.Acquire("u2", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("u2 must not contend with u1: %v", err)
	}
	r2()
}

func TestAcquire_WaiterGetsLockOnRelease(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	got := make(chan error, 1)
	go func() {
		r, err := km.Acquire("u1", time.Second)
		if err == nil {
			r()
		}
		got <- err
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("waiter failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiter never acquired the lock")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	km := NewKeyedMutex()
	release, err := km.Acquire("u1", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
	release() // second call must be a no-op, not a hang or panic

	r, err := km.Acquire("u1", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	r()
}

func TestAcquire_MutualExclusionUnderContention(t *testing.T) {
	km := NewKeyedMutex()

	var inCritical, max, counter int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := km.Acquire("u1", 5*time.Second)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > max {
				max = inCritical
			}
			counter++
			inCritical--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if max > 1 {
		t.Fatalf("critical section overlap: %d", max)
	}
	if counter != 20 {
		t.Fatalf("counter = %d, want 20", counter)
	}
}

func TestEviction_EntriesDoNotLeak(t *testing.T) {
	km := NewKeyedMutex()
	for i := 0; i < 100; i++ {
		release, err := km.Acquire("u1", time.Second)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		release()
	}
	km.mu.Lock()
	n := len(km.entries)
	km.mu.Unlock()
	if n != 0 {
		t.Fatalf("entries leaked: %d", n)
	}
}
