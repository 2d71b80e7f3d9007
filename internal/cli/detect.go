package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilmark/veilmark/internal/api"
)

var (
	detectVideo bool
	detectText  string
	detectJSON  bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Extract a fingerprint from suspect content",
	Long: `Check whether a file (or text) carries an embedded fingerprint and match it
against the evidence store. Use this on content you suspect was copied: a
match names the registered author and asset.

Detection draws on its own quota, separate from embedding.

Examples:
  veilmark detect suspicious.png
  veilmark detect repost.mp4 --video
  veilmark detect --text "pasted article body"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectVideo, "video", false, "use the frame-level video endpoint")
	detectCmd.Flags().StringVar(&detectText, "text", "", "scan the given text for a zero-width watermark instead of a file")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print the detection report as JSON")
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		result *api.DetectionResult
		err    error
	)
	switch {
	case detectText != "":
		result, err = client.DetectText(ctx, api.TextDetectRequest{Text: detectText})
	case len(args) == 1:
		if _, statErr := os.Stat(args[0]); statErr != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], statErr)
		}
		if detectVideo {
			result, err = client.DetectVideo(ctx, args[0])
		} else {
			result, err = client.Detect(ctx, args[0])
		}
	default:
		return fmt.Errorf("nothing to detect: pass a file or --text")
	}
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	if detectJSON {
		return printJSON(result)
	}
	printDetection(result)
	return nil
}

func printDetection(res *api.DetectionResult) {
	if !res.HasWatermark {
		fmt.Println("No fingerprint found.")
		if res.Message != "" {
			fmt.Printf("  %s\n", res.Message)
		}
		return
	}

	fmt.Println(colors.ok.Render("✓ Fingerprint detected"))
	if res.ExtractedFingerprint != "" {
		fmt.Printf("  fingerprint: %s\n", truncate(res.ExtractedFingerprint, 48))
	}
	fmt.Printf("  confidence:  %.0f%%", res.Confidence*100)
	if res.ConfidenceLevel != "" {
		fmt.Printf(" (%s)", res.ConfidenceLevel)
	}
	fmt.Println()

	if m := res.MatchedAsset; m != nil {
		fmt.Printf("  matched:     %s (asset %s", m.AuthorName, m.ID)
		if m.Similarity > 0 {
			fmt.Printf(", similarity %.1f%%", m.Similarity)
		}
		fmt.Println(")")
		if m.Filename != "" {
			fmt.Printf("               %s  %s\n", m.Filename, m.Timestamp)
		}
	} else {
		fmt.Println("  matched:     no evidence-store record")
	}
	if res.IsOriginalAuthor {
		fmt.Println("  this fingerprint belongs to your own account")
	}
}
