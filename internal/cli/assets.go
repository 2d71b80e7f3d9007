package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilmark/veilmark/internal/api"
)

var assetsJSON bool

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List your watermarked assets",
	Args:  cobra.NoArgs,
	RunE:  runAssets,
}

func init() {
	assetsCmd.Flags().BoolVar(&assetsJSON, "json", false, "print assets as JSON")
}

func runAssets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	assets, err := client.Assets(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}

	if assetsJSON {
		return printJSON(assets)
	}
	if len(assets) == 0 {
		fmt.Println("No assets yet; embed something first.")
		return nil
	}

	fmt.Printf("%-8s %-32s %-7s %-10s %s\n", "ID", "FILENAME", "TYPE", "ANCHOR", "FINGERPRINT")
	for _, a := range assets {
		fmt.Printf("%-8s %-32s %-7s %-10s %s\n",
			a.ID, truncate(a.Filename, 32), a.AssetType, anchorState(a), truncate(a.Fingerprint, 16))
	}
	return nil
}

func anchorState(a api.Asset) string {
	if a.Anchored() {
		return "anchored"
	}
	return "pending"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
