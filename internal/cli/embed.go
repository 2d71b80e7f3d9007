package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/service"
)

var (
	embedStrength    float64
	embedAuthor      string
	embedVideo       bool
	embedText        string
	embedConcurrency int
	embedJSON        bool
)

var embedCmd = &cobra.Command{
	Use:   "embed [file...]",
	Short: "Embed fingerprints into files in bulk",
	Long: `Embed digital fingerprints into one or more files. Files are processed by
a worker pool whose size follows your plan (free=2 ... enterprise=8);
each file is uploaded once and either succeeds or fails on its own, so a
single bad file never aborts the batch.

Examples:
  veilmark embed photo.png                      # single image
  veilmark embed shots/*.jpg --author "A. Chen" # bulk embedding
  veilmark embed clip.mp4 --video               # frame-level video embed
  veilmark embed --text "confidential draft"    # zero-width text watermark`,
	Args: cobra.ArbitraryArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().Float64Var(&embedStrength, "strength", 0, "embedding strength, e.g. 0.1 (server default if unset)")
	embedCmd.Flags().StringVar(&embedAuthor, "author", "", "author name recorded in the fingerprint")
	embedCmd.Flags().BoolVar(&embedVideo, "video", false, "use the frame-level video endpoint")
	embedCmd.Flags().StringVar(&embedText, "text", "", "embed a zero-width watermark into the given text instead of files")
	embedCmd.Flags().IntVar(&embedConcurrency, "concurrency", 0, "override the plan's worker limit")
	embedCmd.Flags().BoolVar(&embedJSON, "json", false, "print the batch summary as JSON")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if embedText != "" {
		return runEmbedText(ctx, embedText)
	}
	if len(args) == 0 {
		return fmt.Errorf("nothing to embed: pass files or --text")
	}
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
	}

	svc := service.NewEmbedService(client, session)
	opts := service.EmbedOptions{
		Strength:    embedStrength,
		Author:      embedAuthor,
		Video:       embedVideo,
		Concurrency: embedConcurrency,
	}

	summary, err := runWithProgress(ctx, func(ctx context.Context) (*service.Summary, error) {
		return svc.RunBatch(ctx, args, opts)
	})
	if err != nil {
		return err
	}

	if embedJSON {
		return printJSON(summary)
	}
	printSummary("Embedded", summary)
	return nil
}

func runEmbedText(ctx context.Context, text string) error {
	result, err := client.EmbedText(ctx, api.TextEmbedRequest{
		Text:       text,
		AuthorName: embedAuthor,
	})
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}
	if embedJSON {
		return printJSON(result)
	}
	fmt.Printf("Fingerprint: %s\n", result.Fingerprint)
	if result.WatermarkedText != "" {
		fmt.Println(result.WatermarkedText)
	}
	return nil
}
