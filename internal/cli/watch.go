package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live asset updates from the server",
	Long: `Subscribe to server-pushed asset events. Anchoring finalizes
asynchronously, so confirmations for assets you anchored earlier can arrive
here long after the batch finished.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := client.StreamAssets(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Println("Watching asset updates (Ctrl+C to stop)...")
	for event := range events {
		badge := "updated"
		if event.Asset.Anchored() {
			badge = "anchored tx=" + event.Asset.TxHash
		}
		// Anchoring finalizes out of band: fold confirmations into the
		// session so rows settled optimistically flip to confirmed.
		if session.ReconcileAsset(event.Asset) {
			badge += " (confirmed)"
		}
		fmt.Printf("%s  %s %s  %s\n", event.Type, event.Asset.ID, event.Asset.Filename, badge)
	}
	return nil
}
