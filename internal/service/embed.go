package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/batch"
)

// EmbedService runs batch fingerprint embedding over local files.
type EmbedService struct {
	remote   Remote
	session  *Session
	schedule batch.Schedule
}

// NewEmbedService creates an embed workflow bound to the session store.
func NewEmbedService(remote Remote, session *Session) *EmbedService {
	return &EmbedService{
		remote:   remote,
		session:  session,
		schedule: batch.DefaultSchedule(),
	}
}

// SetSchedule overrides the reconciliation polling schedule.
func (s *EmbedService) SetSchedule(sched batch.Schedule) {
	s.schedule = sched
}

// EmbedOptions configures one embedding batch.
type EmbedOptions struct {
	// Strength of the frequency-domain embedding, a sub-1.0 value like
	// 0.1; server default if 0.
	Strength float64
	// Author recorded into the fingerprint.
	Author string
	// Video routes files through the frame-level video endpoint.
	Video bool
	// Concurrency overrides the plan's worker limit when > 0.
	Concurrency int
}

// RunBatch embeds every file with the plan's concurrency limit and blocks
// until the batch settles. Per-item failures are isolated; the returned
// summary carries the per-item outcomes.
func (s *EmbedService) RunBatch(ctx context.Context, paths []string, opts EmbedOptions) (*Summary, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to embed")
	}

	// Plan limits are loaded once per batch from the authoritative
	// profile.
	profile, err := s.remote.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	policy := batch.ResolvePolicy(profile.Plan)
	limit := policy.MaxConcurrency
	if opts.Concurrency > 0 {
		limit = opts.Concurrency
	}

	items := make([]*batch.WorkItem, len(paths))
	for i, path := range paths {
		items[i] = batch.NewFileItem(path, filepath.Base(path))
	}

	run := s.session.Begin(items)
	slog.Info("embed batch starting", "files", len(items), "plan", policy.Plan, "concurrency", limit)

	scheduler := &batch.Scheduler{Run: run, StopOn: api.IsQuotaExhausted}
	scheduler.Execute(ctx, items, limit, s.embedOne(opts))

	summary := summarize(run, items)
	slog.Info("embed batch complete",
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"total", summary.Total, "elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

func (s *EmbedService) embedOne(opts EmbedOptions) batch.Operation {
	return func(ctx context.Context, item *batch.WorkItem) error {
		if err := item.Transition(batch.StatusUploading); err != nil {
			return err
		}

		var (
			res *api.EmbedResult
			err error
		)
		if opts.Video {
			res, err = s.remote.EmbedVideo(ctx, item.Path, opts.Author)
		} else {
			res, err = s.remote.Embed(ctx, api.EmbedRequest{
				Path:     item.Path,
				Strength: opts.Strength,
				Author:   opts.Author,
			})
		}
		if err != nil {
			failItem(item, err)
			return err
		}

		// Bytes are fully sent once the call returns; the server may
		// still be finalizing.
		if err := item.Transition(batch.StatusProcessing); err != nil {
			return err
		}

		result := resultFromEmbed(res)
		if res.Fingerprint != "" {
			item.Complete(result, true)
			return nil
		}

		// Accepted without a fingerprint yet: poll the authoritative
		// list until the asset shows one, then keep whichever state we
		// last saw.
		item.ApplyOptimistic(result)
		assetID := result.AssetID
		asset, ok := batch.Await(ctx, s.schedule,
			func(ctx context.Context) (api.Asset, error) {
				return s.findAsset(ctx, assetID, item.Name)
			},
			func(a api.Asset) bool { return a.Fingerprint != "" },
		)
		if ok {
			item.Complete(resultFromAsset(asset), true)
		} else {
			item.Complete(result, false)
		}
		return nil
	}
}

// findAsset locates the uploaded file in the authoritative asset list, by
// server id when the embed response carried one, else by filename.
func (s *EmbedService) findAsset(ctx context.Context, assetID, name string) (api.Asset, error) {
	assets, err := s.remote.Assets(ctx)
	if err != nil {
		return api.Asset{}, err
	}
	for _, a := range assets {
		if assetID != "" && string(a.ID) == assetID {
			return a, nil
		}
		if assetID == "" && a.Filename == name {
			return a, nil
		}
	}
	return api.Asset{}, fmt.Errorf("asset %q not in authoritative list yet", name)
}

func resultFromEmbed(res *api.EmbedResult) batch.Result {
	result := batch.Result{
		Fingerprint: res.Fingerprint,
		PSNR:        res.PSNR,
		DownloadURL: res.DownloadURL,
	}
	if res.AssetID != nil {
		result.AssetID = string(*res.AssetID)
	}
	return result
}

func resultFromAsset(a api.Asset) batch.Result {
	result := batch.Result{
		Fingerprint: a.Fingerprint,
		DownloadURL: a.OutputPath,
		AssetID:     string(a.ID),
		TxHash:      a.TxHash,
	}
	if a.PSNR != nil {
		result.PSNR = *a.PSNR
	}
	if a.BlockHeight != nil {
		result.BlockHeight = int64(*a.BlockHeight)
	}
	return result
}
