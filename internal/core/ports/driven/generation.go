package driven

import "context"

// GenerationProvider produces text from a fully assembled prompt.
//
// There is no degraded substitute for generation: provider errors
// propagate to the caller instead of falling back silently.
type GenerationProvider interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string
}

// GenerateOptions configures sampling for one generation call.
// Summaries run at lower variance than open-ended answers; this is a
// tuning concern carried per call, not per provider.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
