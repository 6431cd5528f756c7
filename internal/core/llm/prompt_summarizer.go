package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Nightfall2318/text-summary-app/internal/core"
)

// PromptSummarizer turns a general LLM into a summarization model by stating
// the length bounds in the system prompt.
type PromptSummarizer struct {
	provider core.LLMProvider
}

func NewPromptSummarizer(provider core.LLMProvider) *PromptSummarizer {
	return &PromptSummarizer{provider: provider}
}

func (p *PromptSummarizer) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	out, err := p.provider.Generate(ctx, summaryInstruction(maxLength, minLength), text)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

// Close releases the provider when it holds a connection.
func (p *PromptSummarizer) Close() error {
	if c, ok := p.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func summaryInstruction(maxLength, minLength int) string {
	const rules = "Do not add information that is not in the text. Reply with the summary only."
	if maxLength <= 0 {
		return "Summarize the user's text in a single short sentence. " + rules
	}
	if minLength <= 0 {
		return fmt.Sprintf("Summarize the user's text in plain prose of at most %d words. %s", maxLength, rules)
	}
	return fmt.Sprintf("Summarize the user's text in plain prose of between %d and %d words. %s", minLength, maxLength, rules)
}

var _ core.SummaryModel = (*PromptSummarizer)(nil)
