// Package cli implements the cobra command tree. Commands talk to the
// core through the driving ports; wiring happens once in the root
// command's PersistentPreRunE.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/compress/scaledown"
	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/config/file"
	embeddinggemini "github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/embedding/gemini"
	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/extract"
	llmgemini "github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/llm/gemini"
	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/storage/sqlite"
	"github.com/paperstack-labs/paperstack-cli/internal/chunker"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
	"github.com/paperstack-labs/paperstack-cli/internal/core/services"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by the commands. Wired by initServices; tests inject
// their own implementations.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	summaryService  driving.SummaryService
	documentService driving.DocumentService

	// wired guards against re-initialisation (and lets tests skip it).
	wired bool

	// store is kept for Close on exit.
	store *sqlite.Store
)

// Root flags.
var (
	flagVerbose bool
	flagDataDir string
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "paperstack",
	Short: "Ask questions about your documents",
	Long: `Paperstack ingests documents, embeds them, and answers questions
grounded in their content. Answers cite the passages they came from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		// Commands that don't touch the pipeline skip wiring.
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose progress output on stderr")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.paperstack/data)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.paperstack/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()
	return rootCmd.Execute()
}

// initServices builds the full pipeline from configuration. Services
// that depend on a missing API key are left nil; their commands report
// the gap instead of failing here, so metadata commands keep working
// without keys.
func initServices() error {
	if wired {
		return nil
	}

	settings, err := file.LoadSettings(flagConfig)
	if err != nil {
		return err
	}

	s, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store = s

	documentService = services.NewDocumentService(store.DocumentStore())

	prompts, err := file.NewPromptStore(promptDir())
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logger.Warn("GEMINI_API_KEY not set; ingest, ask and summarize are unavailable")
		wired = true
		return nil
	}

	embeddingProvider, err := embeddinggemini.NewEmbeddingProvider(embeddinggemini.Config{
		APIKey:     geminiKey,
		Model:      settings.Embedding.Model,
		Dimensions: settings.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}

	generationProvider, err := llmgemini.NewGenerationProvider(llmgemini.Config{
		APIKey: geminiKey,
		Model:  settings.Generation.Model,
	})
	if err != nil {
		return fmt.Errorf("configuring generation provider: %w", err)
	}

	var compressor driven.CompressionProvider
	if key := os.Getenv("SCALEDOWN_API_KEY"); key != "" {
		c, err := scaledown.NewCompressionProvider(scaledown.Config{APIKey: key})
		if err != nil {
			return fmt.Errorf("configuring compression provider: %w", err)
		}
		compressor = c
	} else {
		logger.Debug("SCALEDOWN_API_KEY not set; compression disabled")
	}

	embedder := services.NewEmbedder(embeddingProvider,
		services.WithBatchSize(settings.Embedding.BatchSize),
		services.WithBatchDelay(settings.BatchDelay()),
	)
	generator := services.NewGenerator(generationProvider, prompts)
	retrieval := services.NewRetrievalService(store.DocumentStore())

	ingestService = services.NewIngestService(
		store.DocumentStore(),
		extract.NewDispatcher(),
		chunker.New(
			chunker.WithChunkSize(settings.Chunking.ChunkSize),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
		embedder,
	)
	queryService = services.NewQueryService(
		store.QueryCacheStore(),
		embedder,
		retrieval,
		compressor,
		generator,
		services.WithTopK(settings.Query.TopK),
		services.WithCompressionRate(settings.Query.CompressionRate),
	)
	summaryService = services.NewSummaryService(
		store.DocumentStore(),
		store.SummaryStore(),
		generator,
	)

	wired = true
	return nil
}

// promptDir derives the prompt directory from the data directory flag
// so test runs stay self-contained.
func promptDir() string {
	if flagDataDir == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(flagDataDir), "prompts")
}

// formatElapsed renders a duration for human output.
func formatElapsed(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
