package batch

import (
	"fmt"
	"testing"
)

func pendingItems(n int) []*WorkItem {
	items := make([]*WorkItem, n)
	for i := range items {
		items[i] = NewAssetItem(fmt.Sprintf("%d", i+1), fmt.Sprintf("asset-%d", i+1))
	}
	return items
}

func TestCheckBatch_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		pending int
		plan    string
		want    GateOutcome
	}{
		{"empty set", 0, "free", GateEmpty},
		{"under cap", 5, "free", GateProceed},
		{"exactly at cap", 10, "free", GateProceed},
		{"over cap", 11, "free", GateOverLimit},
		{"unbounded plan", 500, "pro", GateProceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := CheckBatch(pendingItems(tt.pending), ResolvePolicy(tt.plan))
			if gate.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", gate.Outcome, tt.want)
			}
		})
	}
}

func TestCheckBatch_CappedTakesDeterministicPrefix(t *testing.T) {
	// 37 pending on a free plan (cap 10): the capped path runs exactly
	// the first 10, in fetch order.
	items := pendingItems(37)
	gate := CheckBatch(items, ResolvePolicy("free"))
	if gate.Outcome != GateOverLimit {
		t.Fatalf("Outcome = %v, want GateOverLimit", gate.Outcome)
	}

	capped := gate.Resolve(DecisionCapped)
	if len(capped) != 10 {
		t.Fatalf("capped batch = %d items, want 10", len(capped))
	}
	for i, item := range capped {
		if item.ID != items[i].ID {
			t.Errorf("capped[%d] = %s, want %s (prefix order)", i, item.ID, items[i].ID)
		}
	}
}

func TestGateResult_Resolve(t *testing.T) {
	items := pendingItems(37)
	gate := CheckBatch(items, ResolvePolicy("free"))

	if got := gate.Resolve(DecisionProcessAll); len(got) != 37 {
		t.Errorf("process-all = %d items, want 37", len(got))
	}
	if got := gate.Resolve(DecisionCancel); got != nil {
		t.Errorf("cancel = %d items, want none", len(got))
	}
	if got := gate.Resolve(DecisionUpgrade); got != nil {
		t.Errorf("upgrade = %d items, want none", len(got))
	}
}

func TestGateResult_ItemsOnlyForProceed(t *testing.T) {
	over := CheckBatch(pendingItems(11), ResolvePolicy("free"))
	if over.Items() != nil {
		t.Error("Items() must be nil for over-limit gates; a decision is required")
	}

	ok := CheckBatch(pendingItems(3), ResolvePolicy("free"))
	if len(ok.Items()) != 3 {
		t.Errorf("Items() = %d, want 3", len(ok.Items()))
	}
}
