package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/core/tasks"
	"github.com/Nightfall2318/text-summary-app/internal/models"
	"github.com/Nightfall2318/text-summary-app/internal/services"
)

const (
	msgNoFilePart     = "No file part"
	msgNoFileSelected = "No file selected"
	msgMissingFileID  = "Missing file_id parameter"
	msgInvalidBody    = "Invalid request body"
	msgFileNotFound   = "File not found. Please upload the file again."
	msgTaskNotFound   = "Task not found"
	msgRegenerating   = "Regenerating summary"
)

// DocumentService is what the handlers need from services.DocumentService.
type DocumentService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*models.UploadResponse, error)
	Regenerate(ctx context.Context, fileID string, maxLength, minLength *int) (string, error)
	Progress(taskID string) (models.ProgressResponse, error)
}

// TaskCounter reports how many tasks are tracked.
type TaskCounter interface {
	Len() int
}

type DocumentHandler struct {
	svc            DocumentService
	tasks          TaskCounter
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewDocumentHandler(svc DocumentService, tasks TaskCounter, maxUploadBytes int64, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{svc: svc, tasks: tasks, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Routes mounts the document endpoints on r. Upload extracts synchronously, so
// it gets its own limit. A zero timeout means no limit.
func (h *DocumentHandler) Routes(r chi.Router, uploadTimeout, requestTimeout time.Duration) {
	r.Group(func(r chi.Router) {
		if uploadTimeout > 0 {
			r.Use(middleware.Timeout(uploadTimeout))
		}
		r.Post("/upload", h.UploadDocument)
	})

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		r.Post("/regenerate", h.RegenerateSummary)
		r.Get("/progress/{task_id}", h.GetProgress)
		r.Get("/health", h.Health)
	})
}

// UploadDocument extracts the uploaded file synchronously and queues its summary.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFilePart)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file part without a filename is parsed as a plain form value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, msgNoFileSelected)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFilePart)
		return
	}
	defer file.Close()

	resp, err := h.svc.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegenerateSummary queues a new summary of an uploaded file.
func (h *DocumentHandler) RegenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req models.RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		writeError(w, http.StatusBadRequest, msgMissingFileID)
		return
	}

	taskID, err := h.svc.Regenerate(r.Context(), req.FileID, req.MaxLength, req.MinLength)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RegenerateResponse{Message: msgRegenerating, TaskID: taskID})
}

func (h *DocumentHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Progress(chi.URLParam(r, "task_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *DocumentHandler) Health(w http.ResponseWriter, _ *http.Request) {
	n := 0
	if h.tasks != nil {
		n = h.tasks.Len()
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Tasks: n})
}

func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoFile):
		writeError(w, http.StatusBadRequest, msgNoFileSelected)
	case errors.Is(err, services.ErrEmptyFile), errors.Is(err, services.ErrInvalidLength):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrFileNotFound):
		writeError(w, http.StatusNotFound, msgFileNotFound)
	case errors.Is(err, tasks.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, tasks.ErrDispatcherClosed):
		writeError(w, http.StatusServiceUnavailable, "Service is shutting down")
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
