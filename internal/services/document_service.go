package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/core"
	"github.com/Nightfall2318/text-summary-app/internal/core/tasks"
	"github.com/Nightfall2318/text-summary-app/internal/models"
)

var (
	ErrNoFile        = errors.New("no file selected")
	ErrEmptyFile     = errors.New("uploaded file is empty")
	ErrInvalidLength = errors.New("invalid summary length bounds")
)

const uploadMessage = "File processed successfully"

// TaskDispatcher queues a summarization and returns its task id.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// TaskReader looks up the observable state of a task.
type TaskReader interface {
	Get(id string) (models.TaskRecord, error)
}

type Options struct {
	DefaultMaxLength int
	DefaultMinLength int
	TempDir          string
}

type DocumentService struct {
	extractor  core.DocumentExtractor
	metadata   core.MetadataExtractor
	storage    core.ObjectClient // nil disables archiving
	texts      *tasks.TextStore
	dispatcher TaskDispatcher
	tasks      TaskReader
	opts       Options
	logger     *zap.Logger
}

func NewDocumentService(
	extractor core.DocumentExtractor,
	metadata core.MetadataExtractor,
	storage core.ObjectClient,
	texts *tasks.TextStore,
	dispatcher TaskDispatcher,
	taskReader TaskReader,
	opts Options,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultMaxLength <= 0 {
		opts.DefaultMaxLength = 150
	}
	if opts.DefaultMinLength < 0 || opts.DefaultMinLength > opts.DefaultMaxLength {
		opts.DefaultMinLength = 40
	}
	return &DocumentService{
		extractor:  extractor,
		metadata:   metadata,
		storage:    storage,
		texts:      texts,
		dispatcher: dispatcher,
		tasks:      taskReader,
		opts:       opts,
		logger:     logger,
	}
}

// Upload extracts the text of one uploaded file, caches it for regeneration
// and queues its summary. Extraction failures are returned as extracted text.
func (s *DocumentService) Upload(ctx context.Context, filename string, r io.Reader) (*models.UploadResponse, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || r == nil {
		return nil, ErrNoFile
	}

	staged, size, err := s.stage(filename, r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(staged)
	if size == 0 {
		return nil, ErrEmptyFile
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(staged); err == nil {
		contentType = mt.String()
	}
	declared := declaredType(contentType, filename)

	text := s.extractor.Extract(ctx, staged, declared)
	if core.IsExtractionError(text) {
		s.logger.Warn("extraction returned an error result", zap.String("file", filename), zap.String("result", text))
	}

	var meta models.FileMetadata
	if s.metadata != nil {
		meta = s.metadata.Extract(ctx, staged, filename)
	}

	key, location := s.archive(ctx, staged, filename, contentType)

	taskID, err := s.dispatcher.Dispatch(ctx, text, s.opts.DefaultMaxLength, s.opts.DefaultMinLength)
	if err != nil {
		s.unarchive(ctx, key)
		return nil, fmt.Errorf("queue summary: %w", err)
	}
	fileID := s.texts.Put(text)

	s.logger.Info("file processed",
		zap.String("file", filename),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
		zap.String("file_id", fileID),
		zap.String("task_id", taskID),
	)

	return &models.UploadResponse{
		Message:       uploadMessage,
		Filename:      filename,
		Path:          location,
		ExtractedText: text,
		TaskID:        taskID,
		FileID:        fileID,
		Metadata:      meta,
	}, nil
}

// Regenerate summarizes a previously extracted text again. Nil bounds take
// the configured defaults.
func (s *DocumentService) Regenerate(ctx context.Context, fileID string, maxLength, minLength *int) (string, error) {
	text, ok := s.texts.Get(fileID)
	if !ok {
		return "", tasks.ErrFileNotFound
	}

	maxLen, minLen := s.opts.DefaultMaxLength, s.opts.DefaultMinLength
	if maxLength != nil {
		maxLen = *maxLength
	}
	if minLength != nil {
		minLen = *minLength
	}
	if maxLen <= 0 || minLen < 0 || minLen > maxLen {
		return "", fmt.Errorf("%w: max_length=%d min_length=%d", ErrInvalidLength, maxLen, minLen)
	}

	taskID, err := s.dispatcher.Dispatch(ctx, text, maxLen, minLen)
	if err != nil {
		return "", fmt.Errorf("queue summary: %w", err)
	}
	s.logger.Info("regenerating summary", zap.String("file_id", fileID), zap.String("task_id", taskID))
	return taskID, nil
}

// Progress reports a task's state. Result and Error are only set once the task
// is terminal.
func (s *DocumentService) Progress(taskID string) (models.ProgressResponse, error) {
	rec, err := s.tasks.Get(taskID)
	if err != nil {
		return models.ProgressResponse{}, err
	}

	resp := models.ProgressResponse{Progress: rec.Progress, Status: rec.Status}
	switch rec.Status {
	case models.StatusCompleted:
		resp.Result = rec.Result
	case models.StatusError:
		resp.Error = rec.Error
	}
	return resp, nil
}

// stage copies the upload into a private temp file that keeps the original
// extension.
func (s *DocumentService) stage(filename string, r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.opts.TempDir, "upload-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}
	return f.Name(), size, nil
}

// archive keeps a copy of the upload and returns its key and location.
// Failures are logged only.
func (s *DocumentService) archive(ctx context.Context, staged, filename, contentType string) (string, string) {
	if s.storage == nil {
		return "", ""
	}

	f, err := os.Open(staged)
	if err != nil {
		s.logger.Warn("archive skipped", zap.String("file", filename), zap.Error(err))
		return "", ""
	}
	defer f.Close()

	key := objectKey(filename)
	location, err := s.storage.UploadFile(ctx, key, f, contentType)
	if err != nil {
		s.logger.Warn("archive failed", zap.String("file", filename), zap.Error(err))
		return "", ""
	}
	return key, location
}

// unarchive removes the copy of an upload that was rejected after archiving.
// It runs even when ctx is already cancelled.
func (s *DocumentService) unarchive(ctx context.Context, key string) {
	if s.storage == nil || key == "" {
		return
	}
	if err := s.storage.DeleteFile(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("archive rollback failed", zap.String("key", key), zap.Error(err))
	}
}

// declaredType prefers the sniffed type and falls back to the extension when
// the sniffed type maps to no extraction strategy.
func declaredType(sniffed, filename string) string {
	if core.KindOf(sniffed, "") != core.KindUnknown {
		return sniffed
	}
	return strings.ToLower(filepath.Ext(filename))
}

// objectKey creates a consistent archive key layout.
func objectKey(filename string) string {
	filename = filepath.Base(strings.TrimSpace(filename))
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join(uuid.NewString(), filename)
}
