package batch

import "testing"

func TestWorkItem_ForwardOnlyTransitions(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		steps   []Status
		wantErr bool
	}{
		{
			name:  "embed happy path",
			kind:  KindEmbed,
			steps: []Status{StatusUploading, StatusProcessing},
		},
		{
			name:  "embed may skip uploading",
			kind:  KindEmbed,
			steps: []Status{StatusProcessing},
		},
		{
			name:    "embed cannot go backwards",
			kind:    KindEmbed,
			steps:   []Status{StatusProcessing, StatusUploading},
			wantErr: true,
		},
		{
			name:    "embed cannot repeat a state",
			kind:    KindEmbed,
			steps:   []Status{StatusUploading, StatusUploading},
			wantErr: true,
		},
		{
			name:  "anchor happy path",
			kind:  KindAnchor,
			steps: []Status{StatusAnchoring},
		},
		{
			name:    "anchor rejects embed states",
			kind:    KindAnchor,
			steps:   []Status{StatusUploading},
			wantErr: true,
		},
		{
			name:    "error requires Fail",
			kind:    KindEmbed,
			steps:   []Status{StatusError},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item *WorkItem
			if tt.kind == KindEmbed {
				item = NewFileItem("/tmp/a.png", "a.png")
			} else {
				item = NewAssetItem("42", "a.png")
			}

			var lastErr error
			for _, next := range tt.steps {
				lastErr = item.Transition(next)
				if lastErr != nil {
					break
				}
			}
			if (lastErr != nil) != tt.wantErr {
				t.Errorf("Transition() error = %v, wantErr %v", lastErr, tt.wantErr)
			}
		})
	}
}

func TestWorkItem_TerminalStatesAreSticky(t *testing.T) {
	item := NewFileItem("/tmp/a.png", "a.png")
	item.Complete(Result{Fingerprint: "fp-1"}, true)

	if err := item.Transition(StatusProcessing); err == nil {
		t.Error("Transition() out of done should fail")
	}

	// Fail after Complete must not flip the status.
	item.Fail("EMBED_FAILED", "late failure", TriUnknown)
	if got := item.Status(); got != StatusDone {
		t.Errorf("status = %s, want %s", got, StatusDone)
	}

	// Complete after Fail must not flip either.
	failed := NewAssetItem("7", "b.png")
	failed.Fail("OPERATION_FAILED", "boom", TriTrue)
	failed.Complete(Result{TxHash: "0xabc"}, true)
	if got := failed.Status(); got != StatusError {
		t.Errorf("status = %s, want %s", got, StatusError)
	}
	if snap := failed.Snapshot(); snap.QuotaDeducted != TriTrue {
		t.Errorf("QuotaDeducted = %s, want yes", snap.QuotaDeducted)
	}
}

func TestWorkItem_CompleteUsesKindTerminal(t *testing.T) {
	embed := NewFileItem("/tmp/a.png", "a.png")
	embed.Complete(Result{}, true)
	if got := embed.Status(); got != StatusDone {
		t.Errorf("embed terminal = %s, want %s", got, StatusDone)
	}

	anchor := NewAssetItem("42", "a.png")
	anchor.Complete(Result{TxHash: "0xabc"}, true)
	if got := anchor.Status(); got != StatusAnchored {
		t.Errorf("anchor terminal = %s, want %s", got, StatusAnchored)
	}
}

func TestWorkItem_ReconcileOverridesOptimisticAndFailedState(t *testing.T) {
	item := NewAssetItem("42", "a.png")
	_ = item.Transition(StatusAnchoring)
	item.ApplyOptimistic(Result{AssetID: "42"})
	item.Complete(Result{AssetID: "42"}, false)

	snap := item.Snapshot()
	if snap.Confirmed {
		t.Fatal("optimistic completion must not be confirmed")
	}

	// A later authoritative row confirms the anchor.
	item.ReconcileAuthoritative(Result{AssetID: "42", TxHash: "0xfeed", BlockHeight: 123})
	snap = item.Snapshot()
	if !snap.Confirmed || snap.Result.TxHash != "0xfeed" || snap.Status != StatusAnchored {
		t.Errorf("after reconcile: %+v", snap)
	}

	// Even a row settled as error may be corrected by authoritative state.
	failed := NewAssetItem("7", "b.png")
	failed.Fail("OPERATION_FAILED", "timeout", TriUnknown)
	failed.ReconcileAuthoritative(Result{AssetID: "7", TxHash: "0xbeef"})
	snap = failed.Snapshot()
	if snap.Status != StatusAnchored || snap.ErrorCode != "" {
		t.Errorf("after reconcile of failed item: %+v", snap)
	}
}

func TestNewFileItem_FreshIDs(t *testing.T) {
	a := NewFileItem("/tmp/a.png", "a.png")
	b := NewFileItem("/tmp/a.png", "a.png")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids must be fresh per item: %q vs %q", a.ID, b.ID)
	}
}
