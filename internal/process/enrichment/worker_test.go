package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newsfold/linkresolver/internal/core/canonical"
	db "github.com/newsfold/linkresolver/internal/storage"
)

type fakeRepo struct {
	pending  []db.Link
	enriched []db.Link

	saved   map[string]db.EnrichmentUpdate
	failed  map[string]string
	reset   []string
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		saved:  map[string]db.EnrichmentUpdate{},
		failed: map[string]string{},
	}
}

func (r *fakeRepo) ClaimPendingLinks(_ context.Context, limit, _ int) ([]db.Link, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}

	return r.pending, nil
}

func (r *fakeRepo) SaveEnrichment(_ context.Context, id string, update db.EnrichmentUpdate) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.saved[id] = update

	return nil
}

func (r *fakeRepo) MarkEnrichmentFailed(_ context.Context, id, errMsg string) error {
	r.failed[id] = errMsg
	return nil
}

func (r *fakeRepo) ListEnrichedTitles(_ context.Context, _ int) ([]db.Link, error) {
	return r.enriched, nil
}

func (r *fakeRepo) ResetEnrichment(_ context.Context, ids []string) (int64, error) {
	r.reset = append(r.reset, ids...)
	return int64(len(ids)), nil
}

type stubCanonicalizer struct{}

func (stubCanonicalizer) Canonicalize(_ context.Context, rawURL string) canonical.ResolutionResult {
	return canonical.ResolutionResult{
		OriginalURL:  rawURL,
		CanonicalURL: canonical.Normalize(rawURL),
		Domain:       canonical.ExtractDomain(rawURL),
		Status:       canonical.StatusSuccess,
	}
}

func newTestWorker(repo Repository, backends ...Backend) *Worker {
	return NewWorker(repo, stubCanonicalizer{}, New(nil, backends...), WorkerOptions{}, nil)
}

func TestWorkerProcessBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []db.Link{
		{ID: "link-1", URL: "http://www.example.com/posts/first-story?utm_source=feed"},
		{ID: "link-2", URL: "https://example.com/posts/second-story", FallbackTitle: "Second Story From Feed"},
	}

	backend := &stubBackend{name: SourceReadability, available: true, meta: &Metadata{Title: "Extracted Headline"}}
	worker := newTestWorker(repo, backend, NewURLFallbackBackend())

	require.NoError(t, worker.ProcessBatch(context.Background()))
	require.Len(t, repo.saved, 2)

	first := repo.saved["link-1"]
	require.Equal(t, "https://example.com/posts/first-story", first.CanonicalURL)
	require.Equal(t, "example.com", first.Domain)
	require.Equal(t, "Extracted Headline", first.Title)
	require.Equal(t, SourceReadability, first.Source)

	second := repo.saved["link-2"]
	require.Equal(t, "Second Story From Feed", second.Title, "feed-supplied title short-circuits extraction")
	require.Equal(t, SourcePreexisting, second.Source)
}

func TestWorkerMarksFailedOnPersistError(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []db.Link{{ID: "link-1", URL: "https://example.com/posts/a-story"}}
	repo.saveErr = errors.New("connection refused")

	worker := newTestWorker(repo, NewURLFallbackBackend())

	require.NoError(t, worker.ProcessBatch(context.Background()))
	require.Empty(t, repo.saved)
	require.Contains(t, repo.failed, "link-1")
}

func TestWorkerAuditResetsBlockedTitles(t *testing.T) {
	repo := newFakeRepo()
	repo.enriched = []db.Link{
		{ID: "good", Title: "A Perfectly Fine Headline"},
		{ID: "bad-challenge", Title: "Just a moment..."},
		{ID: "bad-domain", Title: "example.com"},
	}

	worker := newTestWorker(repo, NewURLFallbackBackend())
	worker.AuditBlockedTitles(context.Background())

	require.ElementsMatch(t, []string{"bad-challenge", "bad-domain"}, repo.reset)
}

func TestWorkerAuditNoResetWhenClean(t *testing.T) {
	repo := newFakeRepo()
	repo.enriched = []db.Link{{ID: "good", Title: "A Perfectly Fine Headline"}}

	worker := newTestWorker(repo, NewURLFallbackBackend())
	worker.AuditBlockedTitles(context.Background())

	require.Empty(t, repo.reset)
}
