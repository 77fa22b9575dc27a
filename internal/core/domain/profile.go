package domain

import "time"

// FAQ is a single curated question/answer pair registered during onboarding.
type FAQ struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// BusinessProfile is the singleton configuration describing the business the
// chatbot answers for. It is written by onboarding and consumed read-only by
// the retrieval pipeline.
type BusinessProfile struct {
	// Name is the business name.
	Name string

	// SourceURL is the blog that backs the knowledge base.
	SourceURL string

	// Personality tunes the tone of generated answers.
	Personality string

	// FAQs are matched literally against incoming questions.
	FAQs []FAQ

	// MarketingInfo is free-form promotional text appended to every
	// generation context.
	MarketingInfo string

	// UpdatedAt is when the profile was last saved.
	UpdatedAt time.Time
}

// CacheEntry is a previously generated answer keyed by question hash.
// Entries are write-once: a hash is never overwritten.
type CacheEntry struct {
	QuestionHash string
	Answer       string
	CreatedAt    time.Time
}
