package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesSameKey(t *testing.T) {
	locks := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("session:1")
			counter++
			locks.Unlock("session:1")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("Expected counter 100, got %d", counter)
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	locks := New()
	locks.Lock("a")

	done := make(chan struct{})
	go func() {
		locks.Lock("b")
		locks.Unlock("b")
		close(done)
	}()

	<-done
	locks.Unlock("a")
}

func TestLocksAreDroppedWhenUnused(t *testing.T) {
	locks := New()
	locks.Lock("a")
	locks.Unlock("a")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("Expected empty lock map, got %d entries", len(locks.locks))
	}
}

func TestUnlockUnheldKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic on unlock of unheld key")
		}
	}()
	New().Unlock("missing")
}
