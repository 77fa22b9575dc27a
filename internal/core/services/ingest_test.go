package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulochat/bulochat/internal/adapters/driven/storage/memory"
	"github.com/bulochat/bulochat/internal/adapters/driven/vectorindex/bruteforce"
	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driving"
)

// --- Mock implementations for ingest testing ---
// Note: These are prefixed with "ingest" to avoid conflicts with chat_test.go mocks

// ingestMockFetcher implements driven.Fetcher for testing.
type ingestMockFetcher struct {
	refs       []domain.PostRef
	listErr    error
	posts      map[string]*domain.FetchedPost
	fetchErrs  map[string]error
	fetchCalls int
}

func (m *ingestMockFetcher) ListPosts(_ context.Context, _ string, maxPosts int) ([]domain.PostRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	refs := m.refs
	if maxPosts > 0 && maxPosts < len(refs) {
		refs = refs[:maxPosts]
	}
	return refs, nil
}

func (m *ingestMockFetcher) FetchPost(_ context.Context, url string) (*domain.FetchedPost, error) {
	m.fetchCalls++
	if err, ok := m.fetchErrs[url]; ok {
		return nil, err
	}
	post, ok := m.posts[url]
	if !ok {
		return nil, errors.New("no post configured for " + url)
	}
	return post, nil
}

func (m *ingestMockFetcher) Close() error { return nil }

// ingestMockEmbedder implements driven.EmbeddingService for testing. It
// returns a distinct deterministic vector per input.
type ingestMockEmbedder struct {
	dim        int
	batchCalls int
	embedErr   error
}

func (m *ingestMockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return make([]float32, m.dim), nil
}

func (m *ingestMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, m.dim)
		vec[0] = float32(i)
		out[i] = vec
	}
	return out, nil
}

func (m *ingestMockEmbedder) Dimensions() int              { return m.dim }
func (m *ingestMockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *ingestMockEmbedder) Ping(_ context.Context) error { return nil }
func (m *ingestMockEmbedder) Close() error                 { return nil }

func onboardedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SaveProfile(context.Background(), &domain.BusinessProfile{
		Name:      "Phone Clinic",
		SourceURL: "https://blog.example.com/phoneclinic",
	}))
	return store
}

func TestIngestRun_NotConfigured(t *testing.T) {
	svc := NewIngestService(memory.NewStore(), &ingestMockFetcher{}, &ingestMockEmbedder{dim: 4}, nil, nil)

	_, err := svc.Run(context.Background(), driving.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestIngestRun_StoresNewPosts(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{
			{URL: "https://blog/p/1", Title: "Battery"},
			{URL: "https://blog/p/2", Title: "Screens"},
		},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Title: "Battery", Body: "Battery swaps take 20 minutes."},
			"https://blog/p/2": {URL: "https://blog/p/2", Title: "Screens", Body: "Screen repairs are same day."},
		},
	}
	index := bruteforce.New(4)
	svc := NewIngestService(store, fetcher, &ingestMockEmbedder{dim: 4}, index, nil)

	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.Stored)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed())

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 2, index.Len())
}

func TestIngestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{{URL: "https://blog/p/1", Title: "Battery"}},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Title: "Battery", Body: "Battery swaps take 20 minutes."},
		},
	}
	embedder := &ingestMockEmbedder{dim: 4}
	index := bruteforce.New(4)
	svc := NewIngestService(store, fetcher, embedder, index, nil)

	first, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stored)
	assert.Equal(t, 1, embedder.batchCalls)

	// Unchanged content: skipped, and the embedder is never called again.
	second, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stored)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, embedder.batchCalls)
	assert.Equal(t, 1, index.Len())
}

func TestIngestRun_ReprocessesChangedContent(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{{URL: "https://blog/p/1", Title: "Battery"}},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Title: "Battery", Body: "Old price: $40."},
		},
	}
	index := bruteforce.New(4)
	svc := NewIngestService(store, fetcher, &ingestMockEmbedder{dim: 4}, index, nil)

	_, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	before, err := store.GetDocumentByURL(ctx, "https://blog/p/1")
	require.NoError(t, err)

	fetcher.posts["https://blog/p/1"].Body = "New price: $50."
	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)

	after, err := store.GetDocumentByURL(ctx, "https://blog/p/1")
	require.NoError(t, err)
	assert.NotEqual(t, before.ContentHash, after.ContentHash)
	// Identity is stable across reprocessing.
	assert.Equal(t, before.ID, after.ID)
	// The old chunks were replaced, not accumulated.
	assert.Equal(t, 1, index.Len())
}

func TestIngestRun_EmptyBody(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{{URL: "https://blog/p/empty", Title: "Placeholder"}},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/empty": {URL: "https://blog/p/empty", Title: "Placeholder", Body: "   "},
		},
	}
	embedder := &ingestMockEmbedder{dim: 4}
	svc := NewIngestService(store, fetcher, embedder, bruteforce.New(4), nil)

	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)
	// No chunks, so no embedding work.
	assert.Equal(t, 0, embedder.batchCalls)

	// The hash is still recorded: the next run skips the post.
	second, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
}

func TestIngestRun_ErrorIsolation(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{
			{URL: "https://blog/p/1", Title: "Good"},
			{URL: "https://blog/p/2", Title: "Broken"},
			{URL: "https://blog/p/3", Title: "Also good"},
		},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Title: "Good", Body: "one"},
			"https://blog/p/3": {URL: "https://blog/p/3", Title: "Also good", Body: "three"},
		},
		fetchErrs: map[string]error{
			"https://blog/p/2": errors.New("upstream 500"),
		},
	}
	svc := NewIngestService(store, fetcher, &ingestMockEmbedder{dim: 4}, bruteforce.New(4), nil)

	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stored)
	require.Equal(t, 1, report.Failed())
	assert.Equal(t, "https://blog/p/2", report.Errors[0].URL)
	assert.Equal(t, domain.StageFetch, report.Errors[0].Stage)
}

func TestIngestRun_EmbedFailureRecorded(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{{URL: "https://blog/p/1", Title: "Post"}},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Title: "Post", Body: "text"},
		},
	}
	embedder := &ingestMockEmbedder{dim: 4, embedErr: errors.New("quota exceeded")}
	svc := NewIngestService(store, fetcher, embedder, bruteforce.New(4), nil)

	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	assert.Equal(t, domain.StageEmbed, report.Errors[0].Stage)

	// Nothing was stored for the failed post.
	_, err = store.GetDocumentByURL(ctx, "https://blog/p/1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestRun_MaxPosts(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	posts := make(map[string]*domain.FetchedPost)
	var refs []domain.PostRef
	for i := 1; i <= 5; i++ {
		url := fmt.Sprintf("https://blog/p/%d", i)
		refs = append(refs, domain.PostRef{URL: url})
		posts[url] = &domain.FetchedPost{URL: url, Body: fmt.Sprintf("post %d", i)}
	}
	fetcher := &ingestMockFetcher{refs: refs, posts: posts}
	svc := NewIngestService(store, fetcher, &ingestMockEmbedder{dim: 4}, bruteforce.New(4), nil)

	report, err := svc.Run(ctx, driving.IngestOptions{MaxPosts: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.Stored)
}

func TestIngestRun_Cancellation(t *testing.T) {
	store := onboardedStore(t)
	fetcher := &ingestMockFetcher{
		refs: []domain.PostRef{
			{URL: "https://blog/p/1"},
			{URL: "https://blog/p/2"},
		},
		posts: map[string]*domain.FetchedPost{
			"https://blog/p/1": {URL: "https://blog/p/1", Body: "one"},
			"https://blog/p/2": {URL: "https://blog/p/2", Body: "two"},
		},
	}
	svc := NewIngestService(store, fetcher, &ingestMockEmbedder{dim: 4}, bruteforce.New(4), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Run(ctx, driving.IngestOptions{})
	require.ErrorIs(t, err, context.Canceled)
	// The checkpoint fires before any document is touched.
	assert.Equal(t, 0, report.Stored)
	assert.Equal(t, 0, fetcher.fetchCalls)
}

func TestRebuildIndex(t *testing.T) {
	ctx := context.Background()
	store := onboardedStore(t)
	require.NoError(t, store.ReplaceDocument(ctx,
		&domain.Document{ID: "d1", SourceURL: "https://blog/p/1", ContentHash: "h"},
		[]domain.Chunk{
			{ID: "c1", DocumentID: "d1", Text: "alpha", Position: 0, Embedding: []float32{1, 0, 0, 0}},
			{ID: "c2", DocumentID: "d1", Text: "beta", Position: 1, Embedding: []float32{0, 1, 0, 0}},
		}))

	index := bruteforce.New(4)
	svc := NewIngestService(store, &ingestMockFetcher{}, &ingestMockEmbedder{dim: 4}, index, nil)

	require.NoError(t, svc.RebuildIndex(ctx))
	assert.Equal(t, 2, index.Len())
}

func TestIngestStatus_IdleWhenNotRunning(t *testing.T) {
	svc := NewIngestService(memory.NewStore(), &ingestMockFetcher{}, &ingestMockEmbedder{dim: 4}, nil, nil)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.Processed)
}
