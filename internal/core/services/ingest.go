package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bulochat/bulochat/internal/chunker"
	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
	"github.com/bulochat/bulochat/internal/core/ports/driving"
	"github.com/bulochat/bulochat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestPipeline = (*IngestService)(nil)

// IngestService coordinates the ingestion pipeline: list posts, detect
// changes by content hash, chunk, embed and store what changed.
type IngestService struct {
	store    driven.ContentStore
	fetcher  driven.Fetcher
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	splitter *chunker.Splitter

	// Status tracking
	mu     sync.RWMutex
	active *driving.IngestStatus
}

// NewIngestService creates an ingestion pipeline. The splitter is optional;
// nil selects the default chunk size and overlap.
func NewIngestService(
	store driven.ContentStore,
	fetcher driven.Fetcher,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	splitter *chunker.Splitter,
) *IngestService {
	if splitter == nil {
		splitter = chunker.New()
	}
	return &IngestService{
		store:    store,
		fetcher:  fetcher,
		embedder: embedder,
		index:    index,
		splitter: splitter,
	}
}

// Run ingests the configured blog. Per-document failures are collected into
// the report; Run itself fails only for configuration problems, a listing
// failure or cancellation.
func (s *IngestService) Run(ctx context.Context, opts driving.IngestOptions) (*domain.IngestReport, error) {
	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotConfigured
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	refs, err := s.fetcher.ListPosts(ctx, profile.SourceURL, opts.MaxPosts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	status := &driving.IngestStatus{Running: true}
	s.setStatus(status)
	defer s.clearStatus()

	logger.Info("Ingesting %d posts from %s", len(refs), profile.SourceURL)

	report := &domain.IngestReport{Listed: len(refs)}
	for _, ref := range refs {
		// Cancellation checkpoint between documents. Partial progress is
		// already persisted and stays valid.
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := s.processPost(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			var ingErr *domain.IngestError
			if !errors.As(err, &ingErr) {
				ingErr = &domain.IngestError{URL: ref.URL, Stage: domain.StageStore, Err: err}
			}
			logger.Warn("Failed to ingest %s at %s: %v", ref.URL, ingErr.Stage, ingErr.Err)
			report.Errors = append(report.Errors, *ingErr)
			s.updateStatus(func(st *driving.IngestStatus) { st.Errors++ })
			continue
		}

		switch outcome.Kind {
		case domain.OutcomeSkipped:
			logger.Debug("Unchanged: %s", ref.URL)
			report.Skipped++
			s.updateStatus(func(st *driving.IngestStatus) { st.Skipped++ })
		case domain.OutcomeStored:
			logger.Debug("Stored: %s (%d chunks)", ref.URL, outcome.ChunkCount)
			report.Stored++
			s.updateStatus(func(st *driving.IngestStatus) { st.Processed++ })
		}
	}

	logger.Info("Ingest complete: %d stored, %d skipped, %d failed",
		report.Stored, report.Skipped, report.Failed())
	return report, nil
}

// processPost runs the per-document pipeline: fetch, hash, compare, chunk,
// embed, store, index.
func (s *IngestService) processPost(ctx context.Context, ref domain.PostRef) (*domain.IngestOutcome, error) {
	post, err := s.fetcher.FetchPost(ctx, ref.URL)
	if err != nil {
		return nil, &domain.IngestError{URL: ref.URL, Stage: domain.StageFetch, Err: err}
	}

	hash := domain.HashContent(domain.CanonicalBytes(post))

	existing, err := s.store.GetDocumentByURL(ctx, ref.URL)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.IngestError{URL: ref.URL, Stage: domain.StageStore, Err: err}
	}
	if existing != nil && !domain.ShouldProcess(existing.ContentHash, hash) {
		return &domain.IngestOutcome{Kind: domain.OutcomeSkipped}, nil
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		SourceURL:   ref.URL,
		Title:       post.Title,
		ContentHash: hash,
	}
	if existing != nil {
		// Keep identity and first-ingest time stable across reprocessing.
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}

	segments := s.splitter.Split(post.Body)

	chunks := make([]domain.Chunk, 0, len(segments))
	if len(segments) > 0 {
		embeddings, err := s.embedder.EmbedBatch(ctx, segments)
		if err != nil {
			return nil, &domain.IngestError{URL: ref.URL, Stage: domain.StageEmbed, Err: err}
		}
		if len(embeddings) != len(segments) {
			return nil, &domain.IngestError{
				URL:   ref.URL,
				Stage: domain.StageEmbed,
				Err:   fmt.Errorf("embedding count %d does not match segment count %d", len(embeddings), len(segments)),
			}
		}

		for i, segment := range segments {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				Text:       segment,
				Position:   i,
				Embedding:  embeddings[i],
			})
		}
	}

	// An empty body still records the document and its hash, so the next
	// run can skip it.
	if err := s.store.ReplaceDocument(ctx, doc, chunks); err != nil {
		return nil, &domain.IngestError{URL: ref.URL, Stage: domain.StageStore, Err: err}
	}

	if s.index != nil {
		if err := s.index.ReplaceDocument(ctx, doc.ID, chunks); err != nil {
			return nil, &domain.IngestError{URL: ref.URL, Stage: domain.StageStore, Err: err}
		}
	}

	return &domain.IngestOutcome{Kind: domain.OutcomeStored, ChunkCount: len(chunks)}, nil
}

// RebuildIndex loads every persisted chunk embedding into the vector index.
// Called once at startup before any retrieval is served.
func (s *IngestService) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	chunks, err := s.store.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	loaded := 0
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			continue
		}
		if err := s.index.Add(ctx, chunk); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
		}
		loaded++
	}

	logger.Debug("Vector index rebuilt: %d chunks", loaded)
	return nil
}

// Status reports the progress of the active run.
func (s *IngestService) Status(_ context.Context) (*driving.IngestStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active != nil {
		// Return a copy to avoid race conditions
		st := *s.active
		return &st, nil
	}
	return &driving.IngestStatus{Running: false}, nil
}

func (s *IngestService) setStatus(status *driving.IngestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = status
}

func (s *IngestService) clearStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

func (s *IngestService) updateStatus(fn func(*driving.IngestStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		fn(s.active)
	}
}
