package driving

import "context"

// ChatService answers natural-language questions against the ingested
// knowledge base, caching answers by question fingerprint.
type ChatService interface {
	// Answer returns the reply for a question. Identical question text
	// (byte-for-byte) is served from the cache without touching the
	// embedder or the language model.
	Answer(ctx context.Context, question string) (*AnswerResult, error)
}

// AnswerResult carries the reply and how it was produced.
type AnswerResult struct {
	// Text is the answer shown to the user.
	Text string

	// Cached is true when the answer was served from the answer cache.
	Cached bool
}
