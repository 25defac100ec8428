package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}

	auto := NewWorkerPool(-1)
	defer auto.Close()
	if auto.Workers() != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want GOMAXPROCS", auto.Workers())
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ClosedRunsInline(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	ran := 0
	pool.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if pool.IsRunning() {
		t.Error("closed pool reports running")
	}
}

func TestRows_CoversEveryRowOnce(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	for _, height := range []int{0, 1, 31, 32, 100, 257} {
		var mu sync.Mutex
		seen := make([]int, height)
		Rows(pool, height, 8, func(y0, y1 int) {
			mu.Lock()
			defer mu.Unlock()
			for y := y0; y < y1; y++ {
				seen[y]++
			}
		})
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("height %d: row %d visited %d times", height, y, n)
			}
		}
	}
}

func TestRows_NilPool(t *testing.T) {
	calls := 0
	Rows(nil, 500, 1, func(y0, y1 int) {
		calls++
		if y0 != 0 || y1 != 500 {
			t.Errorf("band = [%d, %d)", y0, y1)
		}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestShared(t *testing.T) {
	if Shared() != Shared() || !Shared().IsRunning() {
		t.Error("Shared must return one running pool")
	}
}
