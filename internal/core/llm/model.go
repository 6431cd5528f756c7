package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/config"
	"github.com/Nightfall2318/text-summary-app/internal/core"
)

// NewSummaryModel builds the summarization oracle selected by SUMMARY_PROVIDER.
// The result implements io.Closer when it holds a client connection.
func NewSummaryModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (core.SummaryModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.SummaryProvider {
	case config.ProviderGemini:
		g, err := NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		logger.Info("summary model ready", zap.String("provider", cfg.SummaryProvider), zap.String("model", g.modelName))
		return NewPromptSummarizer(g), nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		o := NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIModel, option.WithRequestTimeout(cfg.OracleTimeout))
		logger.Info("summary model ready", zap.String("provider", cfg.SummaryProvider), zap.String("model", o.model))
		return NewPromptSummarizer(o), nil

	case config.ProviderHuggingFace, "":
		h := NewHuggingFaceSummarizer(cfg.HFBaseURL, cfg.HFAPIToken, cfg.HFModel, cfg.OracleTimeout, logger)
		logger.Info("summary model ready", zap.String("provider", config.ProviderHuggingFace), zap.String("model", h.model))
		return h, nil

	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.SummaryProvider)
	}
}
