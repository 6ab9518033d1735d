package workerpool

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunInvokesEveryWorkerOnce(t *testing.T) {
	const n = 16
	var seen [n]int32
	Run(n, func(id int) {
		atomic.AddInt32(&seen[id], 1)
	})
	for id, c := range seen {
		if c != 1 {
			t.Fatalf("worker %d ran %d times, want 1", id, c)
		}
	}
}

func TestRunErrPropagatesFirstError(t *testing.T) {
	want := errors.New("boom")
	err := RunErr(4, func(id int) error {
		if id == 2 {
			return want
		}
		return nil
	})
	if err != want {
		t.Fatalf("RunErr() = %v, want %v", err, want)
	}
}

func TestRunErrNilWhenAllSucceed(t *testing.T) {
	if err := RunErr(4, func(id int) error { return nil }); err != nil {
		t.Fatalf("RunErr() = %v, want nil", err)
	}
}

func TestProgressTrackerTicksOncePerPercent(t *testing.T) {
	p := NewProgressTracker(100, 1, "test")
	for i := 0; i < 100; i++ {
		p.Track(1)
	}
	if p.lastPct != 100 {
		t.Fatalf("lastPct = %d, want 100", p.lastPct)
	}
}

func TestProgressTrackerIgnoresSmallChunks(t *testing.T) {
	p := NewProgressTracker(1000, 50, "test")
	p.Track(10)
	if p.done != 0 {
		t.Fatalf("done = %d, want 0 (chunk below threshold)", p.done)
	}
	p.Track(60)
	if p.done != 60 {
		t.Fatalf("done = %d, want 60", p.done)
	}
}
