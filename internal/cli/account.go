package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var accountJSON bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show your plan, quota usage and dashboard stats",
	Args:  cobra.NoArgs,
	RunE:  runAccount,
}

func init() {
	accountCmd.Flags().BoolVar(&accountJSON, "json", false, "print account info as JSON")
}

func runAccount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	if accountJSON {
		return printJSON(profile)
	}

	fmt.Printf("User:  %s (%s)\n", profile.Username, profile.Role)
	fmt.Printf("Plan:  %s\n", profile.Plan)
	fmt.Printf("Quota: %d/%d used\n", profile.QuotaUsed, profile.QuotaTotal)
	if profile.QuotaEmbedUsed != nil && profile.QuotaEmbedTotal != nil {
		fmt.Printf("  embed:  %d/%d\n", *profile.QuotaEmbedUsed, *profile.QuotaEmbedTotal)
	}
	if profile.QuotaDetectUsed != nil && profile.QuotaDetectTotal != nil {
		fmt.Printf("  detect: %d/%d\n", *profile.QuotaDetectUsed, *profile.QuotaDetectTotal)
	}
	if profile.RemainingDays != nil {
		fmt.Printf("Subscription: %s, %d days left\n", profile.SubscriptionStat, *profile.RemainingDays)
	}

	// Dashboard counters are best-effort; the profile is the point here.
	if stats, err := client.Stats(ctx); err == nil {
		fmt.Printf("Assets: %d  Monitors: %d  Infringements: %d\n",
			stats.TotalAssets, stats.ActiveMonitors, stats.TotalInfringements)
	}
	return nil
}
