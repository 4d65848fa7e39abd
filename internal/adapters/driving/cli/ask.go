package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
)

var (
	askTopK       int
	askDocumentID string
	askNoCompress bool
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about ingested documents",
	Long: `Embeds the question, retrieves the most similar segments, and
generates an answer grounded in them. Repeated questions are served
from the query cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of segments to retrieve (0 = configured default)")
	askCmd.Flags().StringVarP(&askDocumentID, "document", "d", "", "restrict retrieval to one document ID")
	askCmd.Flags().BoolVar(&askNoCompress, "no-compress", false, "skip context compression")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured (is GEMINI_API_KEY set?)")
	}

	result, err := queryService.Ask(context.Background(), args[0], driving.AskOptions{
		TopK:            askTopK,
		DocumentID:      askDocumentID,
		SkipCompression: askNoCompress,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.New("no relevant segments found; ingest some documents first")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %s", result.Confidence)
	if result.Cached {
		cmd.Printf(" (cached)")
	}
	cmd.Println()

	if len(result.Citations) > 0 {
		cmd.Println("Sources:")
		for i, c := range result.Citations {
			cmd.Printf("  [%d] %s, segment %d (%.2f)\n", i+1, c.DocumentTitle, c.Ordinal, c.Score)
		}
	}
	return nil
}
