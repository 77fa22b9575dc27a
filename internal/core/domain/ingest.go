package domain

// OutcomeKind classifies the terminal state of one document's ingestion.
type OutcomeKind int

const (
	// OutcomeSkipped means the stored content hash matched; no chunking,
	// embedding or storage work was performed.
	OutcomeSkipped OutcomeKind = iota

	// OutcomeStored means the document was new or changed and was fully
	// reprocessed.
	OutcomeStored

	// OutcomeFailed means processing failed at some stage; the failure is
	// recorded in the run report.
	OutcomeFailed
)

// String returns a human-readable outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeStored:
		return "stored"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IngestOutcome is the result of ingesting a single document.
type IngestOutcome struct {
	Kind OutcomeKind

	// ChunkCount is the number of chunks stored. Only meaningful for
	// OutcomeStored; an empty body legitimately stores zero chunks.
	ChunkCount int
}

// IngestReport summarises an ingestion run. Per-document errors are
// recovered locally and surfaced here rather than aborting the run.
type IngestReport struct {
	// Listed is the number of posts returned by the fetcher listing.
	Listed int

	// Stored is the number of documents fully reprocessed.
	Stored int

	// Skipped is the number of documents left untouched because their
	// content hash was unchanged.
	Skipped int

	// Errors holds one entry per failed document.
	Errors []IngestError
}

// Failed is the number of documents that could not be processed.
func (r *IngestReport) Failed() int {
	return len(r.Errors)
}
