package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/veilmark/veilmark/internal/batch"
	"github.com/veilmark/veilmark/internal/service"
)

// runWithProgress executes a batch workflow while showing the live progress
// UI on a TTY. The workflow runs in its own goroutine; the UI only reads
// session snapshots.
func runWithProgress(ctx context.Context, run func(context.Context) (*service.Summary, error)) (*service.Summary, error) {
	type outcome struct {
		summary *service.Summary
		err     error
	}

	finished := make(chan struct{})
	results := make(chan outcome, 1)
	go func() {
		summary, err := run(ctx)
		close(finished)
		results <- outcome{summary, err}
	}()

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if err := runBatchProgress(session, finished); err != nil {
			// UI failure is cosmetic; the batch still settles below.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	} else {
		printPlainProgress(os.Stderr, session, finished)
	}

	out := <-results
	return out.summary, out.err
}

var plainProgressInterval = time.Second

// printPlainProgress is the non-TTY fallback: periodic progress lines,
// emitted only when the counters moved.
func printPlainProgress(w io.Writer, session *service.Session, finished <-chan struct{}) {
	ticker := time.NewTicker(plainProgressInterval)
	defer ticker.Stop()

	var last batch.RunSnapshot
	for {
		select {
		case <-finished:
			return
		case <-ticker.C:
			snap := session.Snapshot()
			if snap.Total == 0 || (snap.Done == last.Done && snap.Errors == last.Errors) {
				continue
			}
			last = snap
			fmt.Fprintf(w, "progress: %d/%d done, %d failed\n", snap.Done, snap.Total, snap.Errors)
		}
	}
}

// printSummary prints the completion toast and per-item outcomes.
func printSummary(verb string, summary *service.Summary) {
	succeeded := fmt.Sprintf("%s %d/%d", verb, summary.Succeeded, summary.Total)
	if summary.Failed == 0 {
		fmt.Println(colors.ok.Render("✓ " + succeeded))
	} else {
		fmt.Println(colors.fail.Render(fmt.Sprintf("%s, %d failed", succeeded, summary.Failed)))
	}
	fmt.Printf("  elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))

	for _, item := range summary.Items {
		switch item.Status {
		case batch.StatusError:
			fmt.Printf("  ✗ %s [%s]: %s\n", item.Name, item.ErrorCode, item.ErrorMsg)
			if item.QuotaDeducted == batch.TriTrue {
				fmt.Println("    note: this attempt still consumed quota; retrying will spend more")
			}
			fmt.Printf("    %s\n", service.Remediation(item.ErrorCode))
		case batch.StatusAnchored:
			fmt.Printf("  %s %s %s\n", anchorBadge(item), item.Name, item.Result.TxHash)
		case batch.StatusDone:
			line := fmt.Sprintf("  ✓ %s", item.Name)
			if item.Result.Fingerprint != "" {
				line += "  fingerprint=" + item.Result.Fingerprint
			}
			if !item.Confirmed {
				line += "  (awaiting server confirmation)"
			}
			fmt.Println(line)
		}
	}
}

// anchorBadge distinguishes confirmed anchors from optimistic ones.
func anchorBadge(item batch.ItemSnapshot) string {
	if item.Confirmed {
		return colors.ok.Render("⚓")
	}
	return colors.dim.Render("⚓?")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
