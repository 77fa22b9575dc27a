// Package memory provides an in-memory ContentStore used in tests and as
// a fallback when no database path is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store is an in-memory implementation of driven.ContentStore.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document // keyed by source URL
	chunks    map[string][]domain.Chunk  // keyed by document ID
	cache     map[string]domain.CacheEntry
	profile   *domain.BusinessProfile
}

// NewStore creates an empty in-memory content store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		cache:     make(map[string]domain.CacheEntry),
	}
}

// GetDocumentByURL retrieves a document by source URL.
func (s *Store) GetDocumentByURL(_ context.Context, sourceURL string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[sourceURL]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ReplaceDocument atomically replaces the document for doc.SourceURL and
// all of its chunks. The single lock makes readers see either the old or
// the new state, never a mix.
func (s *Store) ReplaceDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.documents[doc.SourceURL]; ok {
		delete(s.chunks, old.ID)
	}

	stored := *doc
	s.documents[doc.SourceURL] = stored
	copied := make([]domain.Chunk, len(chunks))
	copy(copied, chunks)
	s.chunks[doc.ID] = copied
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for url, doc := range s.documents {
		if doc.ID == id {
			delete(s.documents, url)
			delete(s.chunks, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ListDocuments returns all documents ordered by source URL.
func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].SourceURL < docs[j].SourceURL })
	return docs, nil
}

// ListChunks returns every stored chunk in (document, position) order.
func (s *Store) ListChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var all []domain.Chunk
	for _, id := range docIDs {
		chunks := append([]domain.Chunk(nil), s.chunks[id]...)
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
		all = append(all, chunks...)
	}
	return all, nil
}

// GetCachedAnswer retrieves a cached answer by question hash.
func (s *Store) GetCachedAnswer(_ context.Context, questionHash string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[questionHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// SaveCachedAnswer stores an answer. Existing entries are never
// overwritten; a duplicate key returns domain.ErrAlreadyCached.
func (s *Store) SaveCachedAnswer(_ context.Context, questionHash, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[questionHash]; ok {
		return domain.ErrAlreadyCached
	}
	s.cache[questionHash] = domain.CacheEntry{
		QuestionHash: questionHash,
		Answer:       answer,
		CreatedAt:    time.Now(),
	}
	return nil
}

// GetProfile retrieves the singleton business profile.
func (s *Store) GetProfile(_ context.Context) (*domain.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, domain.ErrNotFound
	}
	profile := *s.profile
	profile.FAQs = append([]domain.FAQ(nil), s.profile.FAQs...)
	return &profile, nil
}

// SaveProfile creates or replaces the singleton business profile.
func (s *Store) SaveProfile(_ context.Context, profile *domain.BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *profile
	stored.FAQs = append([]domain.FAQ(nil), profile.FAQs...)
	stored.UpdatedAt = time.Now()
	s.profile = &stored
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
