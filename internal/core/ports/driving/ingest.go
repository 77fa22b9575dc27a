package driving

import (
	"context"

	"github.com/bulochat/bulochat/internal/core/domain"
)

// IngestOptions configures a single ingestion run.
type IngestOptions struct {
	// MaxPosts truncates the upstream listing when positive.
	MaxPosts int
}

// IngestPipeline orchestrates fetching, change detection, chunking,
// embedding and storage for the configured source.
type IngestPipeline interface {
	// Run ingests the configured blog. Per-document failures are
	// recovered and collected into the report; Run only returns an error
	// for configuration-class failures or cancellation.
	Run(ctx context.Context, opts IngestOptions) (*domain.IngestReport, error)

	// RebuildIndex loads all persisted chunk embeddings into the vector
	// index. Called once at startup before any retrieval.
	RebuildIndex(ctx context.Context) error

	// Status reports progress of the active run, if any.
	Status(ctx context.Context) (*IngestStatus, error)
}

// IngestStatus describes an in-progress ingestion run.
type IngestStatus struct {
	Running   bool
	Processed int
	Skipped   int
	Errors    int
}
