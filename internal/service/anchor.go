package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/batch"
)

// AnchorService runs bulk blockchain anchoring over pending assets.
type AnchorService struct {
	remote   Remote
	session  *Session
	schedule batch.Schedule
}

// NewAnchorService creates an anchor workflow bound to the session store.
func NewAnchorService(remote Remote, session *Session) *AnchorService {
	return &AnchorService{
		remote:   remote,
		session:  session,
		schedule: batch.DefaultSchedule(),
	}
}

// SetSchedule overrides the reconciliation polling schedule.
func (s *AnchorService) SetSchedule(sched batch.Schedule) {
	s.schedule = sched
}

// AnchorOptions configures one bulk-anchor run.
type AnchorOptions struct {
	// Decide resolves an over-limit batch. Nil defaults to cancel; the
	// gate never truncates without an explicit decision.
	Decide func(batch.GateResult) batch.Decision
	// Concurrency overrides the plan's worker limit when > 0.
	Concurrency int
}

// AnchorOutcome reports what the bulk run did, including the gate verdict
// for runs that never started.
type AnchorOutcome struct {
	Gate     batch.GateResult
	Decision batch.Decision
	Ran      bool
	Summary  *Summary
}

// RunBulk anchors every pending asset (assets without a transaction hash;
// already-anchored assets are excluded by construction, so re-running never
// double-submits). Batches over the plan's cap go through the decision
// callback first.
func (s *AnchorService) RunBulk(ctx context.Context, opts AnchorOptions) (*AnchorOutcome, error) {
	profile, err := s.remote.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	policy := batch.ResolvePolicy(profile.Plan)

	assets, err := s.remote.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}

	// Pending set, in fetch order. The capped path takes a prefix of
	// exactly this order.
	var items []*batch.WorkItem
	for _, a := range assets {
		if a.Anchored() {
			continue
		}
		items = append(items, batch.NewAssetItem(string(a.ID), a.Filename))
	}

	gate := batch.CheckBatch(items, policy)
	outcome := &AnchorOutcome{Gate: gate, Decision: batch.DecisionCancel}

	var toRun []*batch.WorkItem
	switch gate.Outcome {
	case batch.GateEmpty:
		slog.Info("no pending assets to anchor")
		return outcome, nil
	case batch.GateProceed:
		toRun = gate.Items()
	case batch.GateOverLimit:
		decision := batch.DecisionCancel
		if opts.Decide != nil {
			decision = opts.Decide(gate)
		}
		outcome.Decision = decision
		toRun = gate.Resolve(decision)
		if toRun == nil {
			slog.Info("bulk anchor not started", "pending", gate.Requested, "limit", gate.Limit)
			return outcome, nil
		}
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = policy.MaxConcurrency
	}

	run := s.session.Begin(toRun)
	slog.Info("bulk anchor starting", "assets", len(toRun), "plan", policy.Plan, "concurrency", limit)

	scheduler := &batch.Scheduler{Run: run, StopOn: api.IsQuotaExhausted}
	scheduler.Execute(ctx, toRun, limit, s.anchorOne)

	// End-of-batch bulk refresh: one authoritative pass to confirm rows
	// the per-item polling left optimistic.
	s.refresh(ctx, toRun)

	outcome.Ran = true
	outcome.Summary = summarize(run, toRun)
	slog.Info("bulk anchor complete",
		"succeeded", outcome.Summary.Succeeded, "failed", outcome.Summary.Failed,
		"total", outcome.Summary.Total, "elapsed", outcome.Summary.Elapsed.Round(time.Millisecond))
	return outcome, nil
}

func (s *AnchorService) anchorOne(ctx context.Context, item *batch.WorkItem) error {
	if err := item.Transition(batch.StatusAnchoring); err != nil {
		return err
	}

	res, err := s.remote.AnchorAsset(ctx, item.AssetID)
	if err != nil {
		failItem(item, err)
		return err
	}

	result := batch.Result{
		AssetID:     item.AssetID,
		TxHash:      res.TxHash,
		BlockHeight: int64(res.BlockHeight),
	}
	if res.TxHash != "" {
		item.Complete(result, true)
		return nil
	}

	// Accepted but not finalized: poll the authoritative list for the
	// transaction hash. Exhaustion keeps the optimistic row; a later
	// out-of-band event may still confirm it.
	item.ApplyOptimistic(result)
	asset, ok := batch.Await(ctx, s.schedule,
		func(ctx context.Context) (api.Asset, error) {
			return s.findAsset(ctx, item.AssetID)
		},
		func(a api.Asset) bool { return a.Anchored() },
	)
	if ok {
		item.Complete(resultFromAsset(asset), true)
	} else {
		item.Complete(result, false)
	}
	return nil
}

func (s *AnchorService) findAsset(ctx context.Context, assetID string) (api.Asset, error) {
	assets, err := s.remote.Assets(ctx)
	if err != nil {
		return api.Asset{}, err
	}
	for _, a := range assets {
		if string(a.ID) == assetID {
			return a, nil
		}
	}
	return api.Asset{}, fmt.Errorf("asset %s not in authoritative list", assetID)
}

// refresh reconciles all items against one fresh authoritative fetch.
func (s *AnchorService) refresh(ctx context.Context, items []*batch.WorkItem) {
	assets, err := s.remote.Assets(ctx)
	if err != nil {
		slog.Warn("post-batch refresh failed, keeping optimistic state", "error", err)
		return
	}
	byID := make(map[string]api.Asset, len(assets))
	for _, a := range assets {
		byID[string(a.ID)] = a
	}
	for _, item := range items {
		asset, ok := byID[item.AssetID]
		if !ok || !asset.Anchored() {
			continue
		}
		if snap := item.Snapshot(); !snap.Confirmed || snap.Result.TxHash != asset.TxHash {
			item.ReconcileAuthoritative(resultFromAsset(asset))
		}
	}
}
