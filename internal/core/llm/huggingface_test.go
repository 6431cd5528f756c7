package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceSummarizer(t *testing.T) {
	t.Run("Should post the pipeline request and return the summary", func(t *testing.T) {
		var got hfRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/models/facebook/bart-large-cnn", r.URL.Path)
			assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"summary_text":"  A short summary. "}]`))
		}))
		defer srv.Close()

		h := NewHuggingFaceSummarizer(srv.URL+"/", "hf_test", "", time.Second, nil)
		summary, err := h.Summarize(context.Background(), "long text", 50, 13)
		require.NoError(t, err)

		assert.Equal(t, "A short summary.", summary)
		assert.Equal(t, "long text", got.Inputs)
		assert.Equal(t, hfParameters{MaxLength: 50, MinLength: 13, DoSample: false}, got.Parameters)
		assert.True(t, got.Options.WaitForModel)
	})

	t.Run("Should surface the API error message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"min_length must be <= max_length"}`))
		}))
		defer srv.Close()

		h := NewHuggingFaceSummarizer(srv.URL, "", "", time.Second, nil)
		_, err := h.Summarize(context.Background(), "text", 0, 5)
		require.Error(t, err)
		assert.Equal(t, "huggingface 400: min_length must be <= max_length", err.Error())
	})

	t.Run("Should retry a transient failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
				return
			}
			_, _ = w.Write([]byte(`[{"summary_text":"ok"}]`))
		}))
		defer srv.Close()

		h := NewHuggingFaceSummarizer(srv.URL, "", "", 5*time.Second, nil)
		summary, err := h.Summarize(context.Background(), "text", 10, 1)
		require.NoError(t, err)
		assert.Equal(t, "ok", summary)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Should reject an empty result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		h := NewHuggingFaceSummarizer(srv.URL, "", "", time.Second, nil, WithRetries(0))
		_, err := h.Summarize(context.Background(), "text", 10, 1)
		assert.EqualError(t, err, "huggingface: empty response")
	})

	t.Run("Should reject a blank summary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"summary_text":"   "}]`))
		}))
		defer srv.Close()

		h := NewHuggingFaceSummarizer(srv.URL, "", "", time.Second, nil, WithRetries(0))
		summary, err := h.Summarize(context.Background(), "text", 10, 1)
		assert.ErrorIs(t, err, ErrEmptyOutput)
		assert.Empty(t, summary)
	})
}
