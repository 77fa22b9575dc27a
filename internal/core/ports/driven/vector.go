package driven

import (
	"context"

	"github.com/bulochat/bulochat/internal/core/domain"
)

// VectorIndex provides nearest-neighbour retrieval over chunk embeddings.
// The index holds a fixed dimension D; any vector of a different length is
// rejected with domain.ErrDimensionMismatch.
//
// Writes are synchronous: an Add or RemoveDocument is visible to every
// subsequent Search. ReplaceDocument performs a document's cascade removal
// and reinsertion as one critical section so concurrent queries never see
// partial state.
type VectorIndex interface {
	// Add inserts a chunk's embedding into the index.
	Add(ctx context.Context, chunk domain.Chunk) error

	// RemoveDocument removes all chunks belonging to a document.
	RemoveDocument(ctx context.Context, documentID string) error

	// ReplaceDocument removes a document's chunks and inserts the given
	// ones atomically with respect to concurrent searches.
	ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// Search returns up to k hits ordered by ascending distance from the
	// query vector. Hits at identical distance keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len reports the number of indexed chunks.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's owning document.
	DocumentID string

	// Text is the matched chunk's text.
	Text string

	// Distance is the Euclidean (L2) distance to the query vector.
	// Smaller is closer.
	Distance float64
}
