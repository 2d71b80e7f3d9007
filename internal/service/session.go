// Package service composes the API client and the batch core into the
// embed and anchor workflows.
package service

import (
	"sync"
	"time"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/batch"
)

// Session is the session-scoped state store: it owns the work items and the
// BatchRun of the batch currently (or last) run, so the progress UI and the
// services share one source of local state by reference instead of ambient
// globals. The composition root creates one Session and injects it
// everywhere.
type Session struct {
	mu    sync.Mutex
	items []*batch.WorkItem
	run   *batch.BatchRun
}

// NewSession creates an empty session store.
func NewSession() *Session {
	return &Session{}
}

// Begin installs a fresh batch over items and returns its run. Any previous
// batch state is discarded; item ids are never reused across batches.
func (s *Session) Begin(items []*batch.WorkItem) *batch.BatchRun {
	run := batch.NewBatchRun(len(items))
	s.mu.Lock()
	s.items = items
	s.run = run
	s.mu.Unlock()
	return run
}

// Run returns the current batch run, or nil when no batch has started.
func (s *Session) Run() *batch.BatchRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Snapshot returns the run's read-model, or a zero snapshot when idle.
func (s *Session) Snapshot() batch.RunSnapshot {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return batch.RunSnapshot{}
	}
	return run.Snapshot()
}

// ItemSnapshots returns consistent copies of all items in the current
// batch.
func (s *Session) ItemSnapshots() []batch.ItemSnapshot {
	s.mu.Lock()
	items := s.items
	s.mu.Unlock()
	snaps := make([]batch.ItemSnapshot, len(items))
	for i, item := range items {
		snaps[i] = item.Snapshot()
	}
	return snaps
}

// ApplyAssetUpdate reconciles a later, out-of-band authoritative update
// (websocket event or background refresh) into the matching item. Rows
// already rendered as pending are allowed to flip to confirmed afterwards.
func (s *Session) ApplyAssetUpdate(assetID string, res batch.Result) bool {
	s.mu.Lock()
	items := s.items
	s.mu.Unlock()
	for _, item := range items {
		if item.Kind == batch.KindAnchor && item.AssetID == assetID {
			item.ReconcileAuthoritative(res)
			return true
		}
	}
	return false
}

// ReconcileAsset folds a server-pushed asset row into the session. Only
// anchored rows carry authoritative state worth applying; pending rows are
// display-only events.
func (s *Session) ReconcileAsset(asset api.Asset) bool {
	if !asset.Anchored() {
		return false
	}
	return s.ApplyAssetUpdate(string(asset.ID), resultFromAsset(asset))
}

// Summary is the completion report of one batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
	Items     []batch.ItemSnapshot
}

func summarize(run *batch.BatchRun, items []*batch.WorkItem) *Summary {
	snap := run.Snapshot()
	summary := &Summary{
		Total:   snap.Total,
		Failed:  snap.Errors,
		Elapsed: snap.Elapsed,
	}
	summary.Succeeded = snap.Done - snap.Errors
	summary.Items = make([]batch.ItemSnapshot, len(items))
	for i, item := range items {
		summary.Items[i] = item.Snapshot()
	}
	return summary
}
