package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReaderBackendAvailability(t *testing.T) {
	require.False(t, NewReaderBackend("", time.Second).Available())
	require.True(t, NewReaderBackend("http://reader.svc:3000", time.Second).Available())
}

func TestReaderBackendAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		require.Equal(t, "https://example.com/spa-page", r.URL.Query().Get("url"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(readerResponse{
			Title:       "Rendered Page Title",
			Description: "Only visible after scripts run.",
			PublishedAt: "2026-03-01T10:00:00Z",
		})
	}))
	defer server.Close()

	backend := NewReaderBackend(server.URL, time.Second)

	meta, err := backend.Attempt(context.Background(), "https://example.com/spa-page", "example.com")
	require.NoError(t, err)
	require.Equal(t, "Rendered Page Title", meta.Title)
	require.Equal(t, "Only visible after scripts run.", meta.Description)
	require.Equal(t, 2026, meta.PublishedAt.Year())
}

func TestReaderBackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	backend := NewReaderBackend(server.URL, time.Second)

	_, err := backend.Attempt(context.Background(), "https://example.com/a", "example.com")
	require.Error(t, err)
}

func TestPremiumBackendAvailability(t *testing.T) {
	require.False(t, NewPremiumBackend("", "", time.Second).Available())
	require.False(t, NewPremiumBackend("https://api.extractor.example", "", time.Second).Available())
	require.True(t, NewPremiumBackend("https://api.extractor.example", "key", time.Second).Available())
}

func TestPremiumBackendAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret-key", r.Header.Get("x-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(premiumResponse{
			Title:   "Paywalled Headline",
			Excerpt: "The first paragraph behind the wall.",
			Author:  "Sam Ortiz",
		})
	}))
	defer server.Close()

	backend := NewPremiumBackend(server.URL, "secret-key", time.Second)

	meta, err := backend.Attempt(context.Background(), "https://example.com/premium", "example.com")
	require.NoError(t, err)
	require.Equal(t, "Paywalled Headline", meta.Title)
	require.Equal(t, "Sam Ortiz", meta.Author)
}

func TestLLMBackendUnavailableWithoutKey(t *testing.T) {
	backend := NewLLMTitleBackend("", "gpt-4o-mini", 1, nil)
	require.False(t, backend.Available())
}
