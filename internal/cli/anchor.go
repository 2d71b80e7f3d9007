package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veilmark/veilmark/internal/batch"
	"github.com/veilmark/veilmark/internal/service"
)

var (
	anchorYes         bool
	anchorForce       bool
	anchorConcurrency int
	anchorJSON        bool
)

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Anchor all pending assets on chain",
	Long: `Anchor every asset that does not yet carry a blockchain transaction hash.
Already-anchored assets are excluded, so re-running never double-submits.

Free and personal plans cap how many assets one bulk run may anchor
(free=10, personal=30). When the pending set exceeds the cap you choose:
process the first N, upgrade the plan, or cancel. Nothing is truncated
silently.`,
	Args: cobra.NoArgs,
	RunE: runAnchor,
}

func init() {
	anchorCmd.Flags().BoolVarP(&anchorYes, "yes", "y", false, "anchor the first N assets without prompting when over the plan cap")
	anchorCmd.Flags().BoolVar(&anchorForce, "force", false, "process the whole pending set even beyond the plan cap")
	anchorCmd.Flags().IntVar(&anchorConcurrency, "concurrency", 0, "override the plan's worker limit")
	anchorCmd.Flags().BoolVar(&anchorJSON, "json", false, "print the batch summary as JSON")
}

func runAnchor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc := service.NewAnchorService(client, session)
	opts := service.AnchorOptions{
		Concurrency: anchorConcurrency,
		Decide:      decideOverLimit,
	}

	var outcome *service.AnchorOutcome
	summary, err := runWithProgress(ctx, func(ctx context.Context) (*service.Summary, error) {
		var err error
		outcome, err = svc.RunBulk(ctx, opts)
		if err != nil {
			return nil, err
		}
		return outcome.Summary, nil
	})
	if err != nil {
		return err
	}

	if !outcome.Ran {
		switch {
		case outcome.Gate.Outcome == batch.GateEmpty:
			fmt.Println("No pending assets; everything is already anchored.")
		case outcome.Decision == batch.DecisionUpgrade:
			fmt.Printf("Your plan caps bulk anchoring at %d assets (%d pending).\n", outcome.Gate.Limit, outcome.Gate.Requested)
			fmt.Println("Upgrade at: " + client.BaseURL() + "/pricing")
		default:
			fmt.Println("Cancelled; no assets were anchored.")
		}
		return nil
	}

	if anchorJSON {
		return printJSON(summary)
	}
	printSummary("Anchored", summary)
	return nil
}

// decideOverLimit asks the user what to do with an over-cap pending set.
// Non-interactive runs only proceed with an explicit flag.
func decideOverLimit(gate batch.GateResult) batch.Decision {
	if anchorForce {
		return batch.DecisionProcessAll
	}
	if anchorYes {
		return batch.DecisionCapped
	}
	if !stdinIsTerminal() {
		fmt.Fprintf(os.Stderr, "%d assets pending but your plan allows %d per run; pass --yes or --force\n", gate.Requested, gate.Limit)
		return batch.DecisionCancel
	}

	fmt.Printf("%d assets are pending but your plan allows %d per run.\n", gate.Requested, gate.Limit)
	fmt.Printf("[p] process the first %d  [u] upgrade plan  [c] cancel: ", gate.Limit)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return batch.DecisionCancel
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "p":
		return batch.DecisionCapped
	case "u":
		return batch.DecisionUpgrade
	default:
		return batch.DecisionCancel
	}
}
