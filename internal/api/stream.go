package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// StreamAssets subscribes to server-pushed asset updates on /ws/assets.
// Anchoring finalizes asynchronously, so updates for rows the client already
// rendered can arrive at any time; consumers must treat each event as a
// fresh authoritative row. The returned channel closes when ctx is done or
// the connection drops.
func (c *Client) StreamAssets(ctx context.Context) (<-chan AssetEvent, error) {
	wsURL := websocketURL(c.baseURL) + "/ws/assets"

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	events := make(chan AssetEvent)

	// Close the connection when the caller gives up so the read pump
	// unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event AssetEvent
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil {
					slog.Warn("asset stream closed", "error", err)
				}
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}
