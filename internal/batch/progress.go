package batch

import (
	"sync"
	"time"
)

// BatchRun aggregates live progress for one scheduler run. Counters are
// monotonic: done and errors only grow, and done == total once the run has
// settled every item. CurrentName is best-effort display state; under
// concurrency the last writer wins.
type BatchRun struct {
	mu          sync.Mutex
	total       int
	done        int
	errors      int
	currentName string
	startedAt   time.Time
	finishedAt  time.Time
}

// NewBatchRun creates a run over total items, started now.
func NewBatchRun(total int) *BatchRun {
	return &BatchRun{total: total, startedAt: time.Now()}
}

// SetCurrent updates the in-flight item label.
func (r *BatchRun) SetCurrent(name string) {
	r.mu.Lock()
	r.currentName = name
	r.mu.Unlock()
}

// Record counts one settled item, applied exactly once per item.
func (r *BatchRun) Record(failed bool) {
	r.mu.Lock()
	r.done++
	if failed {
		r.errors++
	}
	if r.done >= r.total {
		r.finishedAt = time.Now()
	}
	r.mu.Unlock()
}

// RunSnapshot is the read-model the UI polls.
type RunSnapshot struct {
	Total       int
	Done        int
	Errors      int
	CurrentName string
	Elapsed     time.Duration
	Completed   bool
}

// Snapshot returns a consistent copy of the run counters.
func (r *BatchRun) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	elapsed := time.Since(r.startedAt)
	if !r.finishedAt.IsZero() {
		elapsed = r.finishedAt.Sub(r.startedAt)
	}
	return RunSnapshot{
		Total:       r.total,
		Done:        r.done,
		Errors:      r.errors,
		CurrentName: r.currentName,
		Elapsed:     elapsed,
		Completed:   r.done >= r.total,
	}
}
