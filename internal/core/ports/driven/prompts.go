package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the
// binary, or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a
	// sensible default or an error, depending on whether the prompt
	// is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access. Useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswer grounds question answering in retrieved context.
	// The template expects %s (context) and %s (question) placeholders.
	PromptAnswer = "answer"

	// PromptSummaryAbstract produces a 2-3 sentence overview.
	// The template expects a %s (document text) placeholder.
	PromptSummaryAbstract = "summary_abstract"

	// PromptSummaryStructured produces a sectioned summary.
	// The template expects a %s (document text) placeholder.
	PromptSummaryStructured = "summary_structured"

	// PromptSummaryKeyPoints produces a bulleted key-point list.
	// The template expects a %s (document text) placeholder.
	PromptSummaryKeyPoints = "summary_key_points"
)

// Default templates for the well-known prompts. The generator falls
// back to these when no store is configured or a store cannot serve a
// name; the file store seeds its user-editable copies from them.
const (
	DefaultAnswerPrompt = `You are an expert document analyst. Answer the following question based ONLY on the provided context.

IMPORTANT INSTRUCTIONS:
1. Only use information explicitly stated in the context
2. If the answer is not found in the context, clearly state "This information is not present in the provided documents."
3. Be precise and technically accurate
4. Cite specific parts of the context when relevant
5. Do not make up or hallucinate any information

CONTEXT:
%s

QUESTION: %s

ANSWER:`

	DefaultAbstractPrompt = `You are an expert at summarizing documents accurately and concisely.

Provide a concise 2-3 sentence summary of this document that captures:
- The main question or problem it addresses
- The key approach
- The primary findings or conclusions

Only include information explicitly stated in the document.

DOCUMENT:
%s

SUMMARY:`

	DefaultStructuredPrompt = `You are an expert at summarizing documents accurately and concisely.

Provide a structured summary of this document with the following sections:
- **Background**: Brief context and problem statement (2-3 sentences)
- **Approach**: Key methods used (2-3 sentences)
- **Results**: Main findings (3-4 sentences)
- **Significance**: Why this matters (1-2 sentences)

Only include information explicitly stated in the document.

DOCUMENT:
%s

SUMMARY:`

	DefaultKeyPointsPrompt = `You are an expert at summarizing documents accurately and concisely.

Extract the 5-7 most important key points from this document.
Format as a bulleted list where each point:
- Captures a distinct and significant finding or claim
- Is self-contained and understandable
- Uses precise language from the document

Only include information explicitly stated in the document.

DOCUMENT:
%s

KEY POINTS:`
)

// DefaultPrompts maps each well-known prompt name to its default
// template.
var DefaultPrompts = map[string]string{
	PromptAnswer:            DefaultAnswerPrompt,
	PromptSummaryAbstract:   DefaultAbstractPrompt,
	PromptSummaryStructured: DefaultStructuredPrompt,
	PromptSummaryKeyPoints:  DefaultKeyPointsPrompt,
}
