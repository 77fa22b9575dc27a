// Package bruteforce provides an in-memory exact nearest-neighbour index.
//
// The index scans every stored vector on each query, O(N*D). At the target
// corpus scale (a few thousand chunks) the exact scan is faster to operate
// and simpler to reason about than an approximate structure, and returns
// exact results. Swapping in an ANN index later only requires another
// implementation of the VectorIndex port.
package bruteforce

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunkID    string
	documentID string
	text       string
	embedding  []float32
}

// Index holds chunk embeddings and answers exact k-nearest-neighbour
// queries by L2 distance. All methods are safe for concurrent use; a
// document's removal and reinsertion via ReplaceDocument is a single
// critical section, so searches never observe a half-replaced document.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
}

// New creates an index with the given fixed dimension. The dimension is
// set by the embedding model at wiring time and never changes within a
// deployment.
func New(dimensions int) *Index {
	return &Index{dim: dimensions}
}

// Add inserts a chunk's embedding into the index.
func (x *Index) Add(_ context.Context, chunk domain.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.addLocked(chunk)
}

func (x *Index) addLocked(chunk domain.Chunk) error {
	if len(chunk.Embedding) != x.dim {
		return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), x.dim)
	}

	x.entries = append(x.entries, entry{
		chunkID:    chunk.ID,
		documentID: chunk.DocumentID,
		text:       chunk.Text,
		embedding:  chunk.Embedding,
	})
	return nil
}

// RemoveDocument removes all chunks belonging to a document.
func (x *Index) RemoveDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeDocumentLocked(documentID)
	return nil
}

func (x *Index) removeDocumentLocked(documentID string) {
	kept := x.entries[:0]
	for _, e := range x.entries {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}
	x.entries = kept
}

// ReplaceDocument removes a document's chunks and inserts the given ones
// under one lock acquisition. A dimension mismatch leaves none of the new
// chunks inserted.
func (x *Index) ReplaceDocument(_ context.Context, documentID string, chunks []domain.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Embedding) != x.dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), x.dim)
		}
	}

	x.removeDocumentLocked(documentID)
	for _, chunk := range chunks {
		if err := x.addLocked(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to k hits in ascending L2 distance. Equal distances
// keep insertion order.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 || len(x.entries) == 0 {
		return nil, nil
	}

	type scored struct {
		entry    *entry
		distance float64
	}

	results := make([]scored, 0, len(x.entries))
	for i := range x.entries {
		e := &x.entries[i]
		results = append(results, scored{entry: e, distance: l2Distance(query, e.embedding)})
	}

	// Entries were appended in insertion order, so a stable sort keeps
	// ties in that order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].distance < results[j].distance
	})

	if k > len(results) {
		k = len(results)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			ChunkID:    results[i].entry.chunkID,
			DocumentID: results[i].entry.documentID,
			Text:       results[i].entry.text,
			Distance:   results[i].distance,
		}
	}
	return hits, nil
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
	return nil
}

// l2Distance computes the Euclidean distance between two equal-length
// vectors. Accumulation is done in float64 to limit rounding error.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
