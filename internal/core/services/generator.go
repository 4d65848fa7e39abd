package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Sampling parameters per task. Factual tasks run at low variance.
const (
	answerTemperature  = 0.3
	answerMaxTokens    = 1024
	summaryTemperature = 0.2
	summaryMaxTokens   = 1024
)

// notFoundPhrases mark answers that state the context does not contain
// the information.
var notFoundPhrases = []string{
	"not present",
	"not found",
	"not mentioned",
	"does not contain",
	"no information",
	"cannot find",
	"not explicitly",
	"not stated",
}

// hedgingPhrases mark uncertain answers.
var hedgingPhrases = []string{
	"possibly",
	"it seems",
	"appears to",
	"unclear",
	"not certain",
	"might be",
	"may be",
}

// Generator produces grounded answers and summaries through a
// generation provider. Prompts instruct the provider to answer
// strictly from the supplied context and to say so when the context
// does not contain the answer. Provider failures surface to the
// caller; there is no degraded substitute for generation.
type Generator struct {
	provider driven.GenerationProvider
	prompts  driven.PromptStore
}

// NewGenerator creates a generator. prompts may be nil, in which case
// embedded default templates are used.
func NewGenerator(provider driven.GenerationProvider, prompts driven.PromptStore) *Generator {
	return &Generator{provider: provider, prompts: prompts}
}

// Answer generates an answer to question grounded in contextText.
// The confidence field is a coarse heuristic derived from the answer
// wording; it is advisory, not a probability.
func (g *Generator) Answer(ctx context.Context, contextText, question string) (*domain.Answer, error) {
	template := g.loadPrompt(driven.PromptAnswer, driven.DefaultAnswerPrompt)
	prompt := fmt.Sprintf(template, contextText, question)

	text, err := g.provider.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{
		Text:       strings.TrimSpace(text),
		Confidence: assessConfidence(text),
	}
	logger.Debug("Generated answer (%d chars, confidence %s)", len(answer.Text), answer.Confidence)
	return answer, nil
}

// Summarize generates a summary of fullText in the given style.
func (g *Generator) Summarize(ctx context.Context, fullText string, kind domain.SummaryKind) (string, error) {
	var template string
	switch kind {
	case domain.SummaryAbstract:
		template = g.loadPrompt(driven.PromptSummaryAbstract, driven.DefaultAbstractPrompt)
	case domain.SummaryStructured:
		template = g.loadPrompt(driven.PromptSummaryStructured, driven.DefaultStructuredPrompt)
	case domain.SummaryKeyPoints:
		template = g.loadPrompt(driven.PromptSummaryKeyPoints, driven.DefaultKeyPointsPrompt)
	default:
		return "", fmt.Errorf("%w: unknown summary kind %q", domain.ErrInvalidInput, kind)
	}

	text, err := g.provider.Generate(ctx, fmt.Sprintf(template, fullText), driven.GenerateOptions{
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate %s summary: %w", kind, err)
	}

	return strings.TrimSpace(text), nil
}

// loadPrompt returns the stored template for name, or fallback when no
// prompt store is configured or the store cannot serve it.
func (g *Generator) loadPrompt(name, fallback string) string {
	if g.prompts == nil {
		return fallback
	}
	prompt, err := g.prompts.Load(name)
	if err != nil || prompt == "" {
		logger.Warn("Prompt %q unavailable, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// assessConfidence classifies an answer by its wording.
func assessConfidence(answer string) domain.Confidence {
	lower := strings.ToLower(answer)

	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return domain.ConfidenceNotFound
		}
	}
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return domain.ConfidenceMedium
		}
	}
	return domain.ConfidenceHigh
}
