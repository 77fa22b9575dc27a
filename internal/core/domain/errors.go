package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCached indicates a cached answer already exists for a
	// question hash. The cache is append-only per key, so callers treat
	// this as benign: the stored answer wins.
	ErrAlreadyCached = errors.New("answer already cached")

	// ErrDimensionMismatch indicates a vector whose length differs from
	// the index's fixed dimension. This is a configuration error and is
	// fatal to the run; vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNotConfigured indicates no business profile has been onboarded.
	// This is a user-visible condition, not an exception path.
	ErrNotConfigured = errors.New("business profile not configured")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and retrieval are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the language model service is not
	// configured. Answer generation is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// Ingest stages, used to classify per-document failures.
const (
	StageFetch = "fetch"
	StageEmbed = "embed"
	StageStore = "store"
)

// IngestError records a single document's failure during an ingestion run.
// Per-document failures are isolated: they are collected into the run report
// and never abort the run.
type IngestError struct {
	URL   string
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	return e.Stage + " " + e.URL + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *IngestError) Unwrap() error {
	return e.Err
}
