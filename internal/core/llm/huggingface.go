package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/core"
)

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// HuggingFaceSummarizer calls a hosted summarization pipeline
// (facebook/bart-large-cnn by default) with greedy decoding.
type HuggingFaceSummarizer struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

type HFOption func(*resty.Client)

// WithRetries sets how often 429 and 5xx responses are retried.
func WithRetries(n int) HFOption {
	return func(c *resty.Client) {
		c.SetRetryCount(n)
	}
}

func NewHuggingFaceSummarizer(baseURL, token, model string, timeout time.Duration, logger *zap.Logger, opts ...HFOption) *HuggingFaceSummarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = "facebook/bart-large-cnn"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 429 (Too Many Requests) and 5xx server errors
			return r != nil && (r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504))
		})
	if token != "" {
		client.SetAuthToken(token)
	}
	for _, o := range opts {
		o(client)
	}

	return &HuggingFaceSummarizer{http: client, model: model, logger: logger}
}

func (h *HuggingFaceSummarizer) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	var (
		out    []hfSummary
		apiErr hfError
	)

	resp, err := h.http.R().
		SetContext(ctx).
		SetBody(hfRequest{
			Inputs:     text,
			Parameters: hfParameters{MaxLength: maxLength, MinLength: minLength, DoSample: false},
			Options:    hfOptions{WaitForModel: true},
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/" + h.model)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		h.logger.Warn("huggingface inference failed",
			zap.String("model", h.model),
			zap.Int("status", resp.StatusCode()),
			zap.String("error", msg),
		)
		return "", fmt.Errorf("huggingface %d: %s", resp.StatusCode(), msg)
	}

	if len(out) == 0 {
		return "", errors.New("huggingface: empty response")
	}
	summary := strings.TrimSpace(out[0].SummaryText)
	if summary == "" {
		return "", fmt.Errorf("huggingface: %w", ErrEmptyOutput)
	}
	return summary, nil
}

var _ core.SummaryModel = (*HuggingFaceSummarizer)(nil)
