package service

import (
	"context"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/batch"
)

// Remote is the slice of the watermark service the workflows consume.
// *api.Client satisfies it; tests use in-memory fakes.
type Remote interface {
	Me(ctx context.Context) (*api.Profile, error)
	Assets(ctx context.Context) ([]api.Asset, error)
	Embed(ctx context.Context, req api.EmbedRequest) (*api.EmbedResult, error)
	EmbedVideo(ctx context.Context, path, author string) (*api.EmbedResult, error)
	AnchorAsset(ctx context.Context, assetID string) (*api.AnchorResult, error)
}

// failItem settles an item from a normalized API error, carrying the stable
// code and the server's quota-deduction report forward for display.
func failItem(item *batch.WorkItem, err error) {
	code := api.BusinessCode(err)
	if api.IsQuotaExhausted(err) {
		code = batch.CodeQuotaExhausted
	}
	if code == "" {
		code = batch.CodeOperationFailed
	}

	quota := batch.TriUnknown
	if deducted, known := api.QuotaDeducted(err); known {
		if deducted {
			quota = batch.TriTrue
		} else {
			quota = batch.TriFalse
		}
	}
	item.Fail(code, err.Error(), quota)
}

// Remediation maps a stable error code to the user-facing next step.
func Remediation(code string) string {
	switch code {
	case api.CodeWatermarkExists:
		return "the file already carries a fingerprint; run a detection instead of re-embedding"
	case api.CodeInvalidImage:
		return "the file could not be parsed as an image; convert it to PNG or JPEG and enqueue it again"
	case api.CodeInvalidInput:
		return "the input was rejected; check the file and parameters before retrying"
	case api.CodeEmbedFailed:
		return "embedding failed server-side; check whether quota was deducted before retrying"
	case batch.CodeQuotaExhausted:
		return "your plan's quota is spent; upgrade the plan to continue"
	case batch.CodeCancelled:
		return "the batch was cancelled before this item started; enqueue a new batch to process it"
	default:
		return "the operation failed; enqueue a new batch to retry this item"
	}
}
