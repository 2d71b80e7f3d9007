package batch

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pollState struct {
	TxHash string
}

func TestAwait_ConvergesOnThirdAttempt(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (pollState, error) {
		calls++
		if calls < 3 {
			return pollState{}, nil
		}
		return pollState{TxHash: "0xfeed"}, nil
	}

	state, ok := Await(context.Background(), ZeroSchedule(5), fetch,
		func(s pollState) bool { return s.TxHash != "" })

	if !ok {
		t.Fatal("Await() not confirmed, want confirmation on 3rd attempt")
	}
	if calls != 3 {
		t.Errorf("fetch calls = %d, want 3", calls)
	}
	if state.TxHash != "0xfeed" {
		t.Errorf("TxHash = %q, want 0xfeed", state.TxHash)
	}
}

func TestAwait_ExhaustionKeepsLastState(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (pollState, error) {
		calls++
		return pollState{}, nil
	}

	state, ok := Await(context.Background(), ZeroSchedule(3), fetch,
		func(s pollState) bool { return s.TxHash != "" })

	if ok {
		t.Fatal("Await() confirmed, want exhaustion")
	}
	if calls != 3 {
		t.Errorf("fetch calls = %d, want 3 (schedule bound)", calls)
	}
	// Exhaustion is not an error: the last observed state is returned so
	// the caller can keep showing it.
	if state.TxHash != "" {
		t.Errorf("state = %+v, want zero value", state)
	}
}

func TestAwait_FetchErrorsConsumeAttempts(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (pollState, error) {
		calls++
		if calls == 1 {
			return pollState{}, errors.New("transient")
		}
		return pollState{TxHash: "0xbeef"}, nil
	}

	state, ok := Await(context.Background(), ZeroSchedule(2), fetch,
		func(s pollState) bool { return s.TxHash != "" })
	if !ok || state.TxHash != "0xbeef" {
		t.Errorf("ok=%v state=%+v, want confirmed 0xbeef", ok, state)
	}
}

func TestAwait_OnlyErrorsMeansUnconfirmed(t *testing.T) {
	fetch := func(ctx context.Context) (pollState, error) {
		return pollState{}, errors.New("network down")
	}
	_, ok := Await(context.Background(), ZeroSchedule(3), fetch,
		func(s pollState) bool { return true })
	if ok {
		t.Error("Await() confirmed despite every fetch failing")
	}
}

func TestAwait_ContextCancellationStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fetch := func(ctx context.Context) (pollState, error) {
		calls++
		cancel()
		return pollState{}, nil
	}

	_, ok := Await(ctx, Schedule{time.Hour, time.Hour}, fetch,
		func(s pollState) bool { return false })
	if ok {
		t.Fatal("Await() confirmed after cancellation")
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestDefaultSchedule(t *testing.T) {
	sched := DefaultSchedule()
	// Immediate first attempt plus four waits: five attempts total.
	if len(sched) != 4 {
		t.Fatalf("schedule has %d waits, want 4", len(sched))
	}
	want := []time.Duration{300 * time.Millisecond, 800 * time.Millisecond, 1500 * time.Millisecond, 2500 * time.Millisecond}
	for i, d := range sched {
		if d != want[i] {
			t.Errorf("sched[%d] = %s, want %s", i, d, want[i])
		}
	}
}

func TestZeroSchedule(t *testing.T) {
	if got := len(ZeroSchedule(5)); got != 4 {
		t.Errorf("ZeroSchedule(5) waits = %d, want 4", got)
	}
	if got := len(ZeroSchedule(0)); got != 0 {
		t.Errorf("ZeroSchedule(0) waits = %d, want 0", got)
	}
}
