package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

var summarizeKind string

var summarizeCmd = &cobra.Command{
	Use:   "summarize [doc-id]",
	Short: "Summarize an ingested document",
	Long: `Generates a summary of the document in the requested style.
Summaries are stored; asking again returns the same text.

Kinds: abstract (2-3 sentences), structured (sectioned), key_points (bullets).`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeKind, "kind", "k", "abstract", "summary kind: abstract, structured, key_points")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summaryService == nil {
		return errors.New("summary service not configured (is GEMINI_API_KEY set?)")
	}

	kind, err := domain.ParseSummaryKind(summarizeKind)
	if err != nil {
		return fmt.Errorf("invalid --kind %q (want abstract, structured, or key_points)", summarizeKind)
	}

	summary, err := summaryService.Summarize(context.Background(), args[0], kind)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return fmt.Errorf("summarize failed: %w", err)
	}

	cmd.Println(summary.Content)
	return nil
}
