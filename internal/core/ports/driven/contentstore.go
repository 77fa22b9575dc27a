package driven

import (
	"context"

	"github.com/bulochat/bulochat/internal/core/domain"
)

// ContentStore persists documents, chunks, cached answers and the business
// profile. Backed by SQLite; a memory implementation exists for tests.
//
// The persisted layout is four keyed collections: documents (unique on
// source URL), chunks (foreign-keyed to a document, cascade-delete), the
// answer cache (keyed by question hash, immutable) and the singleton
// business profile.
type ContentStore interface {
	// GetDocumentByURL retrieves a document by source URL.
	// Returns domain.ErrNotFound if no document exists for the URL.
	GetDocumentByURL(ctx context.Context, sourceURL string) (*domain.Document, error)

	// ReplaceDocument atomically replaces any existing document for
	// doc.SourceURL, and all of its chunks, with the given state.
	// Concurrent readers observe either the fully-old or fully-new
	// document; never a stale hash with fresh chunks or vice versa.
	ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// DeleteDocument removes a document and, by cascade, its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListChunks returns every stored chunk in (document, position)
	// order. Used to rebuild the vector index at startup.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// GetCachedAnswer retrieves a cached answer by question hash.
	// Returns domain.ErrNotFound on a cache miss.
	GetCachedAnswer(ctx context.Context, questionHash string) (*domain.CacheEntry, error)

	// SaveCachedAnswer stores an answer under a question hash. The cache
	// is append-only per key: if the hash is already present the stored
	// answer is kept and domain.ErrAlreadyCached is returned.
	SaveCachedAnswer(ctx context.Context, questionHash, answer string) error

	// GetProfile retrieves the singleton business profile.
	// Returns domain.ErrNotFound if onboarding has not run.
	GetProfile(ctx context.Context) (*domain.BusinessProfile, error)

	// SaveProfile creates or replaces the singleton business profile.
	SaveProfile(ctx context.Context, profile *domain.BusinessProfile) error

	// Close releases resources.
	Close() error
}
