package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Nightfall2318/text-summary-app/internal/core"
)

// OpenAILLM generates text with the chat completions API.
type OpenAILLM struct {
	client openai.Client
	model  string
}

func NewOpenAILLM(apiKey, model string, opts ...option.RequestOption) *OpenAILLM {
	if model == "" {
		model = "gpt-4o-mini"
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAILLM{client: openai.NewClient(reqOpts...), model: model}
}

func (o *OpenAILLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(userPrompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices: %w", ErrEmptyOutput)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", errors.New("openai: completion blocked by the content filter")
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		if choice.Message.Refusal != "" {
			return "", fmt.Errorf("openai: model refused: %s", choice.Message.Refusal)
		}
		return "", fmt.Errorf("openai: %w", ErrEmptyOutput)
	}
	return choice.Message.Content, nil
}

var _ core.LLMProvider = (*OpenAILLM)(nil)
