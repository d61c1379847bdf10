package bot

import (
	"sync"
	"testing"
)

func TestRenderTrackerReplace(t *testing.T) {
	tr := newRenderTracker()

	if prev := tr.replace(1, []int{10, 11}); len(prev) != 0 {
		t.Fatalf("prev = %v, want empty", prev)
	}
	prev := tr.replace(1, []int{20})
	if len(prev) != 2 || prev[0] != 10 || prev[1] != 11 {
		t.Fatalf("prev = %v, want [10 11]", prev)
	}

	got := tr.take(1)
	if len(got) != 1 || got[0] != 20 {
		t.Fatalf("take = %v, want [20]", got)
	}
	if again := tr.take(1); len(again) != 0 {
		t.Fatalf("second take = %v, want empty", again)
	}
}

func TestRenderTrackerChatsAreIndependent(t *testing.T) {
	tr := newRenderTracker()
	tr.replace(1, []int{10})
	tr.replace(2, []int{20})

	if got := tr.take(1); len(got) != 1 || got[0] != 10 {
		t.Fatalf("chat 1 = %v, want [10]", got)
	}
	if got := tr.take(2); len(got) != 1 || got[0] != 20 {
		t.Fatalf("chat 2 = %v, want [20]", got)
	}
}

func TestUserLocksSerialize(t *testing.T) {
	locks := newUserLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("lock map holds %d entries, want 0", remaining)
	}
}

func TestUserLocksIndependentUsers(t *testing.T) {
	locks := newUserLocks()

	unlockA := locks.lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := locks.lock(2)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
