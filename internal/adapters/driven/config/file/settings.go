package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default pipeline settings. A missing config file yields exactly these.
const (
	DefaultChunkSize          = 512
	DefaultChunkOverlap       = 50
	DefaultEmbeddingBatchSize = 10
	DefaultBatchDelaySeconds  = 2
	DefaultTopK               = 5
	DefaultCompressionRate    = 0.5
)

// Settings holds the pipeline configuration loaded from the TOML
// config file. API keys are never stored here; they come from the
// environment (GEMINI_API_KEY, SCALEDOWN_API_KEY).
type Settings struct {
	// Chunking controls document segmentation.
	Chunking ChunkingSettings `toml:"chunking"`

	// Embedding controls the embedding provider and batching.
	Embedding EmbeddingSettings `toml:"embedding"`

	// Query controls retrieval and compression.
	Query QuerySettings `toml:"query"`

	// Generation controls the LLM provider.
	Generation GenerationSettings `toml:"generation"`
}

// ChunkingSettings controls document segmentation.
type ChunkingSettings struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"chunk_overlap"`
}

// EmbeddingSettings controls the embedding provider and batching.
type EmbeddingSettings struct {
	Model             string `toml:"model"`
	Dimensions        int    `toml:"dimensions"`
	BatchSize         int    `toml:"batch_size"`
	BatchDelaySeconds int    `toml:"batch_delay_seconds"`
}

// QuerySettings controls retrieval and compression.
type QuerySettings struct {
	TopK            int     `toml:"top_k"`
	CompressionRate float64 `toml:"compression_rate"`
}

// GenerationSettings controls the LLM provider.
type GenerationSettings struct {
	Model string `toml:"model"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			BatchSize:         DefaultEmbeddingBatchSize,
			BatchDelaySeconds: DefaultBatchDelaySeconds,
		},
		Query: QuerySettings{
			TopK:            DefaultTopK,
			CompressionRate: DefaultCompressionRate,
		},
	}
}

// BatchDelay returns the configured inter-batch delay as a duration.
func (s Settings) BatchDelay() time.Duration {
	return time.Duration(s.Embedding.BatchDelaySeconds) * time.Second
}

// LoadSettings reads the config file at path, filling unset fields
// with defaults. A missing file is not an error. If path is empty,
// defaults to ~/.paperstack/config.toml.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return settings, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".paperstack", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing config %s: %w", path, err)
	}

	settings.applyDefaults()
	return settings, nil
}

// SaveSettings writes settings to path, creating parent directories.
func SaveSettings(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Restricted permissions; the file may name models and endpoints.
	return os.WriteFile(path, data, 0600)
}

// applyDefaults fills zero-valued fields after a partial config file.
func (s *Settings) applyDefaults() {
	if s.Chunking.ChunkSize <= 0 {
		s.Chunking.ChunkSize = DefaultChunkSize
	}
	if s.Chunking.Overlap <= 0 {
		s.Chunking.Overlap = DefaultChunkOverlap
	}
	if s.Embedding.BatchSize <= 0 {
		s.Embedding.BatchSize = DefaultEmbeddingBatchSize
	}
	if s.Embedding.BatchDelaySeconds <= 0 {
		s.Embedding.BatchDelaySeconds = DefaultBatchDelaySeconds
	}
	if s.Query.TopK <= 0 {
		s.Query.TopK = DefaultTopK
	}
	if s.Query.CompressionRate <= 0 || s.Query.CompressionRate >= 1 {
		s.Query.CompressionRate = DefaultCompressionRate
	}
}
