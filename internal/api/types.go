package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexID unmarshals an identifier the server sends as either a JSON number
// or a string. Asset ids are numeric today but were strings historically.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// FlexInt64 unmarshals an integer the server sends as number or string
// (block heights arrive both ways).
type FlexInt64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt64(n)
	return nil
}

// EmbedResult is the success payload of the embed endpoints.
type EmbedResult struct {
	Success           bool    `json:"success"`
	Fingerprint       string  `json:"fingerprint,omitempty"`
	PSNR              float64 `json:"psnr,omitempty"`
	DownloadURL       string  `json:"download_url,omitempty"`
	AssetID           *FlexID `json:"asset_id,omitempty"`
	QuotaUsed         *int    `json:"quota_used,omitempty"`
	QuotaTotal        *int    `json:"quota_total,omitempty"`
	QuotaEmbedUsed    *int    `json:"quota_embed_used,omitempty"`
	QuotaEmbedTotal   *int    `json:"quota_embed_total,omitempty"`
	QuotaDeducted     *bool   `json:"quota_deducted,omitempty"`
	ProcessingTimeSec float64 `json:"processing_time_sec,omitempty"`
	Message           string  `json:"message"`
	ErrorCode         string  `json:"error,omitempty"`
}

// AnchorResult is the response of POST /anchor/{id}. The server is
// idempotent: anchoring an already-anchored asset replies "Already anchored"
// with the existing transaction hash.
type AnchorResult struct {
	Message     string    `json:"message"`
	TxHash      string    `json:"tx_hash"`
	BlockHeight FlexInt64 `json:"block_height"`
	Channel     string    `json:"channel,omitempty"`
}

// MatchedAsset is an evidence-store row a detected fingerprint matched.
type MatchedAsset struct {
	ID         FlexID  `json:"id"`
	UserID     string  `json:"user_id"`
	AuthorName string  `json:"author_name,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	AssetType  string  `json:"asset_type,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// DetectionResult is the payload of the detect endpoints.
type DetectionResult struct {
	Success              bool          `json:"success"`
	HasWatermark         bool          `json:"has_watermark"`
	ExtractedFingerprint string        `json:"extracted_fingerprint,omitempty"`
	PHash                string        `json:"phash,omitempty"`
	MatchedAsset         *MatchedAsset `json:"matched_asset,omitempty"`
	Confidence           float64       `json:"confidence"`
	ConfidenceLevel      string        `json:"confidence_level,omitempty"`
	IsOriginalAuthor     bool          `json:"is_original_author"`
	QuotaDetectUsed      *int          `json:"quota_detect_used,omitempty"`
	QuotaDetectTotal     *int          `json:"quota_detect_total,omitempty"`
	Message              string        `json:"message"`
}

// Asset is one row of the authoritative asset list.
type Asset struct {
	ID          FlexID     `json:"id"`
	UserID      string     `json:"user_id"`
	Filename    string     `json:"filename"`
	Fingerprint string     `json:"fingerprint"`
	Timestamp   string     `json:"timestamp"`
	PSNR        *float64   `json:"psnr,omitempty"`
	OutputPath  string     `json:"output_path,omitempty"`
	AuthorName  string     `json:"author_name,omitempty"`
	PreviewURL  string     `json:"preview_url,omitempty"`
	TxHash      string     `json:"tx_hash,omitempty"`
	BlockHeight *FlexInt64 `json:"block_height,omitempty"`
	AssetType   string     `json:"asset_type"`
}

// Anchored reports whether the asset already has a confirmed transaction
// hash on chain.
func (a Asset) Anchored() bool {
	return a.TxHash != ""
}

// Profile is the authenticated user's profile including plan and quotas.
type Profile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	DisplayName      string `json:"display_name,omitempty"`
	Plan             string `json:"plan"`
	QuotaUsed        int    `json:"quota_used"`
	QuotaTotal       int    `json:"quota_total"`
	QuotaEmbedUsed   *int   `json:"quota_embed_used,omitempty"`
	QuotaEmbedTotal  *int   `json:"quota_embed_total,omitempty"`
	QuotaDetectUsed  *int   `json:"quota_detect_used,omitempty"`
	QuotaDetectTotal *int   `json:"quota_detect_total,omitempty"`
	SubscriptionStat string `json:"subscription_status,omitempty"`
	RemainingDays    *int   `json:"remaining_days,omitempty"`
}

// Stats holds the dashboard counters.
type Stats struct {
	TotalAssets        int `json:"total_assets"`
	ActiveMonitors     int `json:"active_monitors"`
	TotalInfringements int `json:"total_infringements"`
}

// AssetEvent is a server-pushed update for a single asset row, delivered
// over the websocket stream. Anchoring finalizes asynchronously, so an event
// may update a row the client already rendered as pending.
type AssetEvent struct {
	Type  string `json:"type"` // "asset.updated" | "asset.created"
	Asset Asset  `json:"asset"`
}
