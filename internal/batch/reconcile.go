package batch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Schedule lists the waits between reconciliation attempts. The first
// attempt is always immediate, so a schedule of n delays allows n+1
// attempts in total. An empty schedule means a single attempt.
type Schedule []time.Duration

// DefaultSchedule is the production polling schedule: immediate, then
// +300ms, +800ms, +1.5s, +2.5s, at most 5 attempts.
func DefaultSchedule() Schedule {
	return Schedule{300 * time.Millisecond, 800 * time.Millisecond, 1500 * time.Millisecond, 2500 * time.Millisecond}
}

// ZeroSchedule returns a schedule allowing the given number of attempts
// with no waiting in between, useful in tests and refresh passes that
// should not sleep.
func ZeroSchedule(attempts int) Schedule {
	if attempts < 1 {
		attempts = 1
	}
	return make(Schedule, attempts-1)
}

// backOff adapts the fixed schedule to the backoff.BackOff contract.
type scheduleBackOff struct {
	delays []time.Duration
	next   int
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.next >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.next]
	b.next++
	return d
}

func (b *scheduleBackOff) Reset() { b.next = 0 }

var errUnconfirmed = errors.New("authoritative state not yet confirmed")

// Await polls fetch until confirmed reports true or the schedule is
// exhausted. The remote system settles asynchronously, so a success
// response upstream may mean "accepted" rather than "finalized"; Await is
// how the client converges on the authoritative answer.
//
// It returns the last successfully fetched value and whether it was
// confirmed. Exhaustion is not an error: callers keep the last optimistic
// state and a later out-of-band refresh may still land.
func Await[T any](ctx context.Context, sched Schedule, fetch func(context.Context) (T, error), confirmed func(T) bool) (T, bool) {
	var last T
	seen := false

	op := func() error {
		v, err := fetch(ctx)
		if err != nil {
			// Transient fetch failures just consume an attempt.
			return err
		}
		last = v
		seen = true
		if !confirmed(v) {
			return errUnconfirmed
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(&scheduleBackOff{delays: sched}, ctx))
	return last, err == nil && seen
}
