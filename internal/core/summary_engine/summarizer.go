package summary_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nightfall2318/text-summary-app/internal/core"
	"go.uber.org/zap"
)

// ErrEmptySummary is returned when the model produced no text for a chunk.
var ErrEmptySummary = errors.New("model returned an empty summary")

const (
	TooShortMessage        = "Text too short for meaningful summarization."
	CannotSummarizeMessage = "Cannot summarize due to text extraction error."
)

// ProgressReporter receives progress percentages for a task.
type ProgressReporter interface {
	SetProgress(taskID string, progress int)
}

// Config tunes the chunking policy.
//
// ChunkSize:     characters per chunk sent to the model (e.g., 1024).
// MinTextLength: texts shorter than this are not summarized (e.g., 100).
type Config struct {
	ChunkSize     int
	MinTextLength int
}

// Summarizer splits long texts, summarizes every chunk with the model and
// reports progress while doing so.
type Summarizer struct {
	model    core.SummaryModel
	progress ProgressReporter
	cfg      Config
	logger   *zap.Logger
}

func NewSummarizer(model core.SummaryModel, progress ProgressReporter, cfg Config, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	return &Summarizer{model: model, progress: progress, cfg: cfg, logger: logger}
}

// Summarize returns the summary of text. An empty taskID disables progress
// reporting. Model errors are returned, never folded into the summary.
func (s *Summarizer) Summarize(ctx context.Context, text, taskID string, maxLength, minLength int) (string, error) {
	length := charLen(text)
	if length == 0 || length < s.cfg.MinTextLength {
		return TooShortMessage, nil
	}
	if strings.HasPrefix(text, core.ErrorMarker) {
		return CannotSummarizeMessage, nil
	}

	if length <= s.cfg.ChunkSize {
		s.report(taskID, 50)
		summary, err := s.model.Summarize(ctx, text, maxLength, minLength)
		if err == nil && strings.TrimSpace(summary) == "" {
			err = ErrEmptySummary
		}
		if err != nil {
			return "", fmt.Errorf("summarize chunk 1/1: %w", err)
		}
		return summary, nil
	}

	chunks := SplitChunks(text, s.cfg.ChunkSize)
	n := len(chunks)
	chunkMax, chunkMin := maxLength/n, minLength/n

	s.logger.Debug("summarizing in chunks",
		zap.String("task_id", taskID),
		zap.Int("chars", length),
		zap.Int("chunks", n),
		zap.Int("chunk_max", chunkMax),
		zap.Int("chunk_min", chunkMin),
	)

	summaries := make([]string, 0, n)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		summary, err := s.model.Summarize(ctx, chunk, chunkMax, chunkMin)
		if err == nil && strings.TrimSpace(summary) == "" {
			err = ErrEmptySummary
		}
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, n, err)
		}
		summaries = append(summaries, summary)
		s.report(taskID, 100*(i+1)/n)
	}

	return strings.Join(summaries, " "), nil
}

func (s *Summarizer) report(taskID string, progress int) {
	if taskID == "" || s.progress == nil {
		return
	}
	s.progress.SetProgress(taskID, progress)
}
