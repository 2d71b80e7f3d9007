// Package batch implements the client-side batch orchestration core:
// work items, the bounded-concurrency scheduler, plan policies, the
// pre-flight quota gate, and reconciliation against authoritative server
// state. It is transport-free; remote calls are supplied as operations.
package batch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind selects which status machine a work item follows.
type Kind string

const (
	// KindEmbed is a file upload + fingerprint embedding.
	KindEmbed Kind = "embed"
	// KindAnchor is a blockchain anchoring of an existing asset.
	KindAnchor Kind = "anchor"
)

// Status is a work item state. Items only move forward; terminal states are
// never left within one batch run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusAnchoring  Status = "anchoring"
	StatusAnchored   Status = "anchored"
	StatusError      Status = "error"
)

// statusRank orders the legal forward transitions per kind. StatusError is
// reachable from any non-terminal state.
var statusRank = map[Kind]map[Status]int{
	KindEmbed: {
		StatusPending:    0,
		StatusUploading:  1,
		StatusProcessing: 2,
		StatusDone:       3,
	},
	KindAnchor: {
		StatusPending:   0,
		StatusAnchoring: 1,
		StatusAnchored:  2,
	},
}

// TriState is a yes/no/unknown flag, used for "did the failed attempt still
// consume quota server-side".
type TriState int

const (
	TriUnknown TriState = iota
	TriFalse
	TriTrue
)

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "yes"
	case TriFalse:
		return "no"
	default:
		return "unknown"
	}
}

// Result is the success payload of a settled work item.
type Result struct {
	Fingerprint string
	PSNR        float64
	DownloadURL string
	AssetID     string
	TxHash      string
	BlockHeight int64
}

// WorkItem is one unit of batch work and its outcome. Identity is by ID
// only; ids are never reused across batch runs. The scheduler owns all
// mutations during a run, so the mutex only protects concurrent snapshot
// reads from the UI.
type WorkItem struct {
	ID      string
	Name    string
	Kind    Kind
	Path    string // embedding payload: local file
	AssetID string // anchoring payload: server-side asset id

	mu            sync.Mutex
	status        Status
	result        Result
	confirmed     bool
	errMsg        string
	errCode       string
	quotaDeducted TriState
}

// NewFileItem builds an embedding work item for a local file with a fresh
// client-generated id.
func NewFileItem(path, name string) *WorkItem {
	return &WorkItem{
		ID:     uuid.New().String(),
		Name:   name,
		Kind:   KindEmbed,
		Path:   path,
		status: StatusPending,
	}
}

// NewAssetItem builds an anchoring work item for an existing server asset.
// The server-assigned asset id doubles as the item id.
func NewAssetItem(assetID, name string) *WorkItem {
	return &WorkItem{
		ID:      assetID,
		Name:    name,
		Kind:    KindAnchor,
		AssetID: assetID,
		status:  StatusPending,
	}
}

// Status returns the current status.
func (w *WorkItem) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Terminal reports whether the item has settled.
func (w *WorkItem) Terminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return terminal(w.status)
}

// Transition moves the item forward to next. Moving backwards or out of a
// terminal state is rejected.
func (w *WorkItem) Transition(next Status) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if terminal(w.status) {
		return fmt.Errorf("item %s: cannot leave terminal state %s", w.ID, w.status)
	}
	if next == StatusError {
		return fmt.Errorf("item %s: use Fail to enter error state", w.ID)
	}
	ranks := statusRank[w.Kind]
	nextRank, ok := ranks[next]
	if !ok {
		return fmt.Errorf("item %s: status %s invalid for kind %s", w.ID, next, w.Kind)
	}
	if nextRank <= ranks[w.status] {
		return fmt.Errorf("item %s: cannot transition %s -> %s", w.ID, w.status, next)
	}
	w.status = next
	return nil
}

// Complete settles the item in its success terminal state. confirmed
// records whether the result reflects authoritative server state or an
// optimistic assumption still awaiting confirmation.
func (w *WorkItem) Complete(res Result, confirmed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if terminal(w.status) {
		return
	}
	w.result = res
	w.confirmed = confirmed
	if w.Kind == KindAnchor {
		w.status = StatusAnchored
	} else {
		w.status = StatusDone
	}
}

// Fail settles the item in the error terminal state. code is a stable
// taxonomy tag used to pick a remediation message; quota records whether
// the attempt still consumed quota.
func (w *WorkItem) Fail(code, msg string, quota TriState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if terminal(w.status) {
		return
	}
	w.status = StatusError
	w.errCode = code
	w.errMsg = msg
	w.quotaDeducted = quota
}

// ApplyOptimistic records a guessed result without settling the item. The
// reconciler either confirms it or the item keeps it as last known state.
func (w *WorkItem) ApplyOptimistic(res Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if terminal(w.status) {
		return
	}
	w.result = res
	w.confirmed = false
}

// ReconcileAuthoritative overwrites the item's outcome from a fresh
// authoritative fetch. This is the only path allowed to touch an item after
// the scheduler has settled it, and it may flip an optimistic or failed row
// to confirmed success (out-of-band confirmations arrive late).
func (w *WorkItem) ReconcileAuthoritative(res Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.result = res
	w.confirmed = true
	w.errCode = ""
	w.errMsg = ""
	if w.Kind == KindAnchor {
		w.status = StatusAnchored
	} else {
		w.status = StatusDone
	}
}

// ItemSnapshot is a consistent copy of a work item for display.
type ItemSnapshot struct {
	ID            string
	Name          string
	Kind          Kind
	Status        Status
	Result        Result
	Confirmed     bool
	ErrorCode     string
	ErrorMsg      string
	QuotaDeducted TriState
}

// Snapshot returns a consistent copy of the item's mutable state.
func (w *WorkItem) Snapshot() ItemSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ItemSnapshot{
		ID:            w.ID,
		Name:          w.Name,
		Kind:          w.Kind,
		Status:        w.status,
		Result:        w.result,
		Confirmed:     w.confirmed,
		ErrorCode:     w.errCode,
		ErrorMsg:      w.errMsg,
		QuotaDeducted: w.quotaDeducted,
	}
}

func terminal(s Status) bool {
	return s == StatusDone || s == StatusAnchored || s == StatusError
}
