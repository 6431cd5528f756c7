package core

import "context"

// SummaryModel is the summarization oracle. Bounds are in model tokens and are
// passed through untouched.
type SummaryModel interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
