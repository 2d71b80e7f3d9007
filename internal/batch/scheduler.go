package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Error codes the scheduler assigns when it settles an item itself rather
// than the operation doing so.
const (
	// CodeCancelled marks items skipped because the batch context was
	// cancelled before they started.
	CodeCancelled = "CANCELLED"
	// CodeQuotaExhausted marks items skipped after a worker observed
	// quota exhaustion; product policy blocks further spend mid-batch.
	CodeQuotaExhausted = "QUOTA_EXHAUSTED"
	// CodeOperationFailed is the fallback when an operation returned an
	// error without settling its item.
	CodeOperationFailed = "OPERATION_FAILED"
)

// Operation performs the remote call for one work item. It is responsible
// for the item's intermediate transitions and should settle the item itself
// (Complete/Fail with a precise code); if it only returns an error, the
// scheduler settles the item with CodeOperationFailed. One attempt per item
// per run; retries are a new batch with fresh items.
type Operation func(ctx context.Context, item *WorkItem) error

// Scheduler drains a queue of work items with at most Limit operations in
// flight. Completion order across items is not defined; workers race for
// the next item.
type Scheduler struct {
	Run *BatchRun

	// StopOn reports errors that halt dispatch of not-yet-started items
	// (quota exhaustion). Items already in flight settle naturally;
	// skipped items are terminally failed with CodeQuotaExhausted so
	// every enqueued item still ends in exactly one terminal state.
	StopOn func(error) bool
}

// Execute runs op over every item with at most limit concurrent attempts
// and blocks until all items have settled. A single item's failure never
// aborts the batch, and no error escapes: outcomes live on the items and in
// the run counters.
func (s *Scheduler) Execute(ctx context.Context, items []*WorkItem, limit int, op Operation) {
	if len(items) == 0 {
		return
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	queue := make(chan *WorkItem, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	var stopped atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range queue {
				// Cancellation and quota short-circuit are checked
				// between pops only; the in-flight attempt settles
				// on its own.
				if ctx.Err() != nil {
					s.settleSkipped(item, CodeCancelled, "batch cancelled before this item started")
					continue
				}
				if stopped.Load() {
					s.settleSkipped(item, CodeQuotaExhausted, "quota exhausted, item not attempted")
					continue
				}

				s.Run.SetCurrent(item.Name)
				err := s.attempt(ctx, item, op)
				if err != nil {
					slog.Debug("item failed", "worker", workerID, "item", item.Name, "error", err)
					if s.StopOn != nil && s.StopOn(err) {
						slog.Warn("halting dispatch of remaining items", "cause", err)
						stopped.Store(true)
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

// attempt runs one operation and guarantees the item settles exactly once.
func (s *Scheduler) attempt(ctx context.Context, item *WorkItem, op Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal panic: %v", r)
		}
		if !item.Terminal() {
			if err != nil {
				item.Fail(CodeOperationFailed, err.Error(), TriUnknown)
			} else {
				// Operation returned nil without settling the item:
				// treat the attempt as successful but unconfirmed.
				item.Complete(Result{}, false)
			}
		}
		s.Run.Record(item.Status() == StatusError)
	}()
	return op(ctx, item)
}

func (s *Scheduler) settleSkipped(item *WorkItem, code, msg string) {
	item.Fail(code, msg, TriFalse)
	s.Run.Record(true)
}
