package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nightfall2318/text-summary-app/internal/core"
	"github.com/Nightfall2318/text-summary-app/internal/core/ingestion_engine"
	"github.com/Nightfall2318/text-summary-app/internal/core/summary_engine"
	"github.com/Nightfall2318/text-summary-app/internal/core/tasks"
	"github.com/Nightfall2318/text-summary-app/internal/models"
)

// prefixModel summarizes a chunk as its first 20 runes.
type prefixModel struct{}

func (prefixModel) Summarize(_ context.Context, text string, _, _ int) (string, error) {
	r := []rune(text)
	return string(r[:min(len(r), 20)]), nil
}

// blankModel answers every chunk with whitespace.
type blankModel struct{}

func (blankModel) Summarize(context.Context, string, int, int) (string, error) {
	return "  ", nil
}

type dispatchCall struct {
	text                 string
	maxLength, minLength int
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, text string, maxLength, minLength int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.calls = append(d.calls, dispatchCall{text, maxLength, minLength})
	return "task-" + string(rune('a'+len(d.calls)-1)), nil
}

type stubExtractor struct {
	declared string
	text     string
}

func (s *stubExtractor) Extract(_ context.Context, _, declaredType string) string {
	s.declared = declaredType
	return s.text
}

type stubMetadata struct{ names []string }

func (s *stubMetadata) Extract(_ context.Context, _, originalName string) models.FileMetadata {
	s.names = append(s.names, originalName)
	return models.FileMetadata{Filename: originalName, SizeBytes: 1}
}

type failingArchive struct{ calls int }

func (f *failingArchive) UploadFile(context.Context, string, io.Reader, string) (string, error) {
	f.calls++
	return "", errors.New("bucket unavailable")
}
func (f *failingArchive) DeleteFile(context.Context, string) error { return nil }

type memArchive struct {
	key     string
	body    string
	deleted []string
}

func (m *memArchive) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.key, m.body = key, string(b)
	return "mem://" + key, nil
}
func (m *memArchive) DeleteFile(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func newTestService(t *testing.T, ext core.DocumentExtractor, archive core.ObjectClient, d TaskDispatcher) (*DocumentService, *tasks.Registry) {
	t.Helper()
	reg := tasks.NewRegistry(time.Hour)
	svc := NewDocumentService(ext, &stubMetadata{}, archive, tasks.NewTextStore(0), d, reg,
		Options{DefaultMaxLength: 150, DefaultMinLength: 40, TempDir: t.TempDir()}, nil)
	return svc, reg
}

func TestUploadEndToEnd(t *testing.T) {
	reg := tasks.NewRegistry(time.Hour)
	sum := summary_engine.NewSummarizer(prefixModel{}, reg, summary_engine.Config{ChunkSize: 1024, MinTextLength: 100}, nil)
	disp := tasks.NewDispatcher(reg, sum, nil, tasks.WithWorkers(2))
	t.Cleanup(func() { disp.Shutdown(context.Background()) })

	extractor := ingestion_engine.NewExtractor(ingestion_engine.Config{}, nil, nil)
	svc := NewDocumentService(extractor, nil, nil, tasks.NewTextStore(0), disp, reg,
		Options{TempDir: t.TempDir()}, nil)

	input := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)[:2000]

	resp, err := svc.Upload(context.Background(), "fox.txt", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "File processed successfully", resp.Message)
	assert.Equal(t, "fox.txt", resp.Filename)
	assert.Equal(t, input, resp.ExtractedText)
	assert.NotEmpty(t, resp.TaskID)
	assert.NotEmpty(t, resp.FileID)

	var progress models.ProgressResponse
	require.Eventually(t, func() bool {
		progress, err = svc.Progress(resp.TaskID)
		return err == nil && progress.Status == models.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 100, progress.Progress)
	assert.NotEmpty(t, progress.Result)
	assert.Less(t, len(progress.Result), len(input))
	assert.Empty(t, progress.Error)

	t.Run("Should regenerate from the cached text", func(t *testing.T) {
		maxLen, minLen := 60, 10
		taskID, err := svc.Regenerate(context.Background(), resp.FileID, &maxLen, &minLen)
		require.NoError(t, err)
		assert.NotEqual(t, resp.TaskID, taskID)

		require.Eventually(t, func() bool {
			p, err := svc.Progress(taskID)
			return err == nil && p.Status == models.StatusCompleted
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestUploadBlankSummaryFailsTask(t *testing.T) {
	reg := tasks.NewRegistry(time.Hour)
	sum := summary_engine.NewSummarizer(blankModel{}, reg, summary_engine.Config{ChunkSize: 1024, MinTextLength: 100}, nil)
	disp := tasks.NewDispatcher(reg, sum, nil, tasks.WithWorkers(1))
	t.Cleanup(func() { disp.Shutdown(context.Background()) })

	extractor := ingestion_engine.NewExtractor(ingestion_engine.Config{}, nil, nil)
	svc := NewDocumentService(extractor, nil, nil, tasks.NewTextStore(0), disp, reg, Options{TempDir: t.TempDir()}, nil)

	resp, err := svc.Upload(context.Background(), "fox.txt", strings.NewReader(strings.Repeat("word ", 100)))
	require.NoError(t, err)

	var progress models.ProgressResponse
	require.Eventually(t, func() bool {
		progress, err = svc.Progress(resp.TaskID)
		return err == nil && progress.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.StatusError, progress.Status)
	assert.Contains(t, progress.Error, summary_engine.ErrEmptySummary.Error())
	assert.Empty(t, progress.Result)
}

func TestUploadRejectsMissingInput(t *testing.T) {
	d := &recordingDispatcher{}
	svc, _ := newTestService(t, &stubExtractor{text: "x"}, nil, d)

	_, err := svc.Upload(context.Background(), "  ", strings.NewReader("data"))
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = svc.Upload(context.Background(), "empty.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	assert.Empty(t, d.calls)
}

func TestUploadForwardsExtractionErrors(t *testing.T) {
	d := &recordingDispatcher{}
	ext := &stubExtractor{text: "Error: PDF has no pages"}
	svc, _ := newTestService(t, ext, nil, d)

	resp, err := svc.Upload(context.Background(), "scan.pdf", strings.NewReader("%PDF-1.4\n"))
	require.NoError(t, err)

	assert.Equal(t, "Error: PDF has no pages", resp.ExtractedText)
	assert.Equal(t, "application/pdf", ext.declared)
	require.Len(t, d.calls, 1)
	assert.Equal(t, dispatchCall{"Error: PDF has no pages", 150, 40}, d.calls[0])
}

func TestUploadDeclaredType(t *testing.T) {
	t.Run("Should fall back to the extension for unmapped sniffed types", func(t *testing.T) {
		ext := &stubExtractor{text: "ok"}
		svc, _ := newTestService(t, ext, nil, &recordingDispatcher{})

		_, err := svc.Upload(context.Background(), "page.TXT", strings.NewReader("<html><body>hi</body></html>"))
		require.NoError(t, err)
		assert.Equal(t, ".txt", ext.declared)
	})

	t.Run("Should keep a sniffed plain text type", func(t *testing.T) {
		ext := &stubExtractor{text: "ok"}
		svc, _ := newTestService(t, ext, nil, &recordingDispatcher{})

		_, err := svc.Upload(context.Background(), "notes", strings.NewReader("just some words"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ext.declared, "text/plain"), ext.declared)
	})
}

func TestUploadArchive(t *testing.T) {
	t.Run("Should return the archive location", func(t *testing.T) {
		archive := &memArchive{}
		svc, _ := newTestService(t, &stubExtractor{text: "ok"}, archive, &recordingDispatcher{})

		resp, err := svc.Upload(context.Background(), "my notes.txt", strings.NewReader("hello archive"))
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(archive.key, "/my_notes.txt"), archive.key)
		assert.Equal(t, "hello archive", archive.body)
		assert.Equal(t, "mem://"+archive.key, resp.Path)
		assert.Empty(t, archive.deleted)
		assert.Equal(t, 1, svc.texts.Len())
	})

	t.Run("Should not fail the upload when archiving fails", func(t *testing.T) {
		archive := &failingArchive{}
		d := &recordingDispatcher{}
		svc, _ := newTestService(t, &stubExtractor{text: "ok"}, archive, d)

		resp, err := svc.Upload(context.Background(), "a.txt", strings.NewReader("hello"))
		require.NoError(t, err)

		assert.Equal(t, 1, archive.calls)
		assert.Empty(t, resp.Path)
		assert.Len(t, d.calls, 1)
	})
}

func TestUploadDispatchFailure(t *testing.T) {
	t.Run("Should roll back the archive and cache nothing", func(t *testing.T) {
		archive := &memArchive{}
		d := &recordingDispatcher{err: tasks.ErrDispatcherClosed}
		svc, _ := newTestService(t, &stubExtractor{text: "ok"}, archive, d)

		resp, err := svc.Upload(context.Background(), "a.txt", strings.NewReader("hello"))
		assert.ErrorIs(t, err, tasks.ErrDispatcherClosed)
		assert.Nil(t, resp)

		require.NotEmpty(t, archive.key)
		assert.Equal(t, []string{archive.key}, archive.deleted)
		assert.Equal(t, 0, svc.texts.Len())
	})

	t.Run("Should roll back even when the request was cancelled", func(t *testing.T) {
		archive := &memArchive{}
		d := &recordingDispatcher{err: context.Canceled}
		svc, _ := newTestService(t, &stubExtractor{text: "ok"}, archive, d)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		archiveThenCancel := &cancelOnUpload{memArchive: archive, cancel: cancel}
		svc.storage = archiveThenCancel

		_, err := svc.Upload(ctx, "a.txt", strings.NewReader("hello"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{archive.key}, archive.deleted)
		assert.Equal(t, 0, svc.texts.Len())
	})

	t.Run("Should not touch the archive when nothing was archived", func(t *testing.T) {
		archive := &failingArchive{}
		svc, _ := newTestService(t, &stubExtractor{text: "ok"}, archive, &recordingDispatcher{err: tasks.ErrDispatcherClosed})

		_, err := svc.Upload(context.Background(), "a.txt", strings.NewReader("hello"))
		assert.ErrorIs(t, err, tasks.ErrDispatcherClosed)
		assert.Equal(t, 0, svc.texts.Len())
	})
}

// cancelOnUpload cancels the request right after the archive write.
type cancelOnUpload struct {
	*memArchive
	cancel context.CancelFunc
}

func (c *cancelOnUpload) UploadFile(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	loc, err := c.memArchive.UploadFile(ctx, key, r, contentType)
	c.cancel()
	return loc, err
}

func TestRegenerate(t *testing.T) {
	ptr := func(v int) *int { return &v }

	t.Run("Should reject an unknown file id without dispatching", func(t *testing.T) {
		d := &recordingDispatcher{}
		svc, _ := newTestService(t, &stubExtractor{}, nil, d)

		_, err := svc.Regenerate(context.Background(), "missing", nil, nil)
		assert.ErrorIs(t, err, tasks.ErrFileNotFound)
		assert.Empty(t, d.calls)
	})

	tests := []struct {
		name     string
		max, min *int
		want     *dispatchCall
	}{
		{"defaults", nil, nil, &dispatchCall{"cached", 150, 40}},
		{"custom bounds", ptr(80), ptr(20), &dispatchCall{"cached", 80, 20}},
		{"only max", ptr(60), nil, &dispatchCall{"cached", 60, 40}},
		{"zero max", ptr(0), nil, nil},
		{"negative min", nil, ptr(-1), nil},
		{"min above max", ptr(30), ptr(31), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			svc, _ := newTestService(t, &stubExtractor{}, nil, d)
			fileID := svc.texts.Put("cached")

			taskID, err := svc.Regenerate(context.Background(), fileID, tt.max, tt.min)
			if tt.want == nil {
				assert.ErrorIs(t, err, ErrInvalidLength)
				assert.Empty(t, d.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "task-a", taskID)
			assert.Equal(t, []dispatchCall{*tt.want}, d.calls)
		})
	}
}

func TestProgress(t *testing.T) {
	svc, reg := newTestService(t, &stubExtractor{}, nil, &recordingDispatcher{})

	_, err := svc.Progress("nope")
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)

	running := reg.Create()
	reg.SetProgress(running, 40)
	p, err := svc.Progress(running)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressResponse{Progress: 40, Status: models.StatusProcessing}, p)

	failed := reg.Create()
	reg.Fail(failed, errors.New("model offline"))
	p, err = svc.Progress(failed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, p.Status)
	assert.Equal(t, "model offline", p.Error)
	assert.Empty(t, p.Result)

	done := reg.Create()
	reg.Complete(done, "short summary")
	p, err = svc.Progress(done)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressResponse{Progress: 100, Status: models.StatusCompleted, Result: "short summary"}, p)
}
