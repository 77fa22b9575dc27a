package domain

import "time"

// Document represents an ingested blog post with metadata.
// It is the canonical representation after content extraction.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURL is the original post location. At most one live
	// Document exists per URL.
	SourceURL string

	// Title is the human-readable title.
	Title string

	// ContentHash is the SHA-256 of the canonicalised extracted content.
	// It is the sole input to change detection.
	ContentHash string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last reprocessed.
	UpdatedAt time.Time
}

// Chunk represents a retrievable unit within a document.
// Documents are split into chunks for granular semantic retrieval.
// Chunks are owned exclusively by their document and are deleted
// whenever the document is reprocessed or removed.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the text content of this chunk.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic retrieval.
	// All chunks in a deployment share one fixed dimension.
	Embedding []float32
}

// PostRef identifies a post discovered by a fetcher listing call.
type PostRef struct {
	// URL is the permanent post location.
	URL string

	// Title is the listed title. It may differ from the title
	// extracted from the post body.
	Title string
}

// FetchedPost is the extracted content of a single post before hashing
// and chunking.
type FetchedPost struct {
	URL         string
	Title       string
	Body        string
	Tags        []string
	Author      string
	PublishedAt string
}
