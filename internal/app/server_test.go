package app

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nightfall2318/text-summary-app/internal/config"
	"github.com/Nightfall2318/text-summary-app/internal/models"
)

// deadlineService records whether each call saw a context deadline.
type deadlineService struct {
	uploadDeadline     bool
	uploadRemaining    time.Duration
	regenerateDeadline bool
}

func (s *deadlineService) Upload(ctx context.Context, filename string, r io.Reader) (*models.UploadResponse, error) {
	var deadline time.Time
	deadline, s.uploadDeadline = ctx.Deadline()
	if s.uploadDeadline {
		s.uploadRemaining = time.Until(deadline)
	}
	_, _ = io.Copy(io.Discard, r)
	return &models.UploadResponse{Filename: filename}, nil
}

func (s *deadlineService) Regenerate(ctx context.Context, _ string, _, _ *int) (string, error) {
	_, s.regenerateDeadline = ctx.Deadline()
	return "task-1", nil
}

func (s *deadlineService) Progress(string) (models.ProgressResponse, error) {
	return models.ProgressResponse{Status: models.StatusProcessing}, nil
}

type zeroCounter struct{}

func (zeroCounter) Len() int { return 0 }

func postFile(t *testing.T, h http.Handler) int {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "scan.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestServerTimeouts(t *testing.T) {
	t.Run("Should not bound upload extraction by the request timeout", func(t *testing.T) {
		svc := &deadlineService{}
		srv := NewServer(&config.Config{Port: "0", RequestTimeout: time.Minute}, svc, zeroCounter{}, nil)

		require.Equal(t, http.StatusOK, postFile(t, srv.Handler()))
		assert.False(t, svc.uploadDeadline)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/regenerate", strings.NewReader(`{"file_id":"f"}`)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.regenerateDeadline)
	})

	t.Run("Should apply a configured upload timeout", func(t *testing.T) {
		svc := &deadlineService{}
		srv := NewServer(&config.Config{Port: "0", RequestTimeout: time.Minute, UploadTimeout: 10 * time.Minute}, svc, zeroCounter{}, nil)

		require.Equal(t, http.StatusOK, postFile(t, srv.Handler()))
		assert.True(t, svc.uploadDeadline)
		assert.Greater(t, svc.uploadRemaining, 9*time.Minute)
	})
}
