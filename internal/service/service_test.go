package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/veilmark/veilmark/internal/api"
)

// fakeRemote is an in-memory watermark service for workflow tests.
type fakeRemote struct {
	mu          sync.Mutex
	profile     api.Profile
	assets      []api.Asset
	assetsCalls int

	anchorCalls map[string]int

	embedFn  func(req api.EmbedRequest) (*api.EmbedResult, error)
	anchorFn func(assetID string, call int) (*api.AnchorResult, error)
	assetsFn func(call int) []api.Asset

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeRemote(plan string) *fakeRemote {
	return &fakeRemote{
		profile:     api.Profile{ID: "u1", Username: "tester", Plan: plan},
		anchorCalls: make(map[string]int),
	}
}

func (f *fakeRemote) Me(ctx context.Context) (*api.Profile, error) {
	profile := f.profile
	return &profile, nil
}

func (f *fakeRemote) Assets(ctx context.Context) ([]api.Asset, error) {
	f.mu.Lock()
	f.assetsCalls++
	call := f.assetsCalls
	fn := f.assetsFn
	assets := f.assets
	f.mu.Unlock()
	if fn != nil {
		return fn(call), nil
	}
	return assets, nil
}

func (f *fakeRemote) Embed(ctx context.Context, req api.EmbedRequest) (*api.EmbedResult, error) {
	f.trackInflight()
	defer f.inflight.Add(-1)
	return f.embedFn(req)
}

func (f *fakeRemote) EmbedVideo(ctx context.Context, path, author string) (*api.EmbedResult, error) {
	f.trackInflight()
	defer f.inflight.Add(-1)
	return f.embedFn(api.EmbedRequest{Path: path, Author: author})
}

func (f *fakeRemote) AnchorAsset(ctx context.Context, assetID string) (*api.AnchorResult, error) {
	f.trackInflight()
	defer f.inflight.Add(-1)
	f.mu.Lock()
	f.anchorCalls[assetID]++
	call := f.anchorCalls[assetID]
	f.mu.Unlock()
	if f.anchorFn != nil {
		return f.anchorFn(assetID, call)
	}
	return &api.AnchorResult{Message: "anchored", TxHash: "0x" + assetID}, nil
}

func (f *fakeRemote) trackInflight() {
	cur := f.inflight.Add(1)
	for {
		max := f.maxInflight.Load()
		if cur <= max || f.maxInflight.CompareAndSwap(max, cur) {
			return
		}
	}
}

func pendingAsset(id, filename string) api.Asset {
	return api.Asset{ID: api.FlexID(id), Filename: filename, Fingerprint: "fp-" + id, AssetType: "image"}
}

func anchoredAsset(id, filename string) api.Asset {
	a := pendingAsset(id, filename)
	a.TxHash = "0x" + id
	return a
}
