package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the index",
	Long: `Reads each file, splits it into overlapping segments, embeds them,
and stores the result. Re-ingesting an unchanged file is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured (is GEMINI_API_KEY set?)")
	}

	ctx := context.Background()
	failed := 0

	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		report, err := ingestService.Ingest(ctx, filepath.Base(path), raw)
		if err != nil {
			cmd.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		if report.Deduplicated {
			cmd.Printf("= %s: already ingested (%s)\n", path, report.Document.ID)
			continue
		}

		cmd.Printf("✓ %s: %d segments (%s)\n", path, report.SegmentCount, formatElapsed(report.Elapsed))
		if len(report.FailedSegments) > 0 {
			cmd.Printf("  warning: %d segments failed to embed and were skipped\n", len(report.FailedSegments))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
