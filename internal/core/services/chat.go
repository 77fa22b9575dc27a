package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
	"github.com/bulochat/bulochat/internal/core/ports/driving"
	"github.com/bulochat/bulochat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultTopK is the number of chunks retrieved for a question.
const DefaultTopK = 3

// notConfiguredReply is returned before any retrieval work when no business
// profile has been onboarded.
const notConfiguredReply = "I'm not set up yet. Please complete onboarding so I can learn about the business."

// excerptSeparator joins retrieved chunk texts inside the prompt context.
const excerptSeparator = "\n\n---\n\n"

// ChatService answers questions against the ingested knowledge base.
//
// Answers are cached by the SHA-256 of the raw question text and each
// question hash is computed at most once at a time: concurrent callers
// asking the identical question share a single retrieval and generation.
type ChatService struct {
	store    driven.ContentStore
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	topK     int

	flight singleflight.Group
}

// ChatOption configures the chat service.
type ChatOption func(*ChatService)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) ChatOption {
	return func(s *ChatService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewChatService creates a chat service.
func NewChatService(
	store driven.ContentStore,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	opts ...ChatOption,
) *ChatService {
	s := &ChatService{
		store:    store,
		embedder: embedder,
		index:    index,
		llm:      llm,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer returns the reply for a question. Byte-identical questions are
// served from the cache without touching the embedder or the model.
func (s *ChatService) Answer(ctx context.Context, question string) (*driving.AnswerResult, error) {
	hash := domain.QuestionHash(question)

	if entry, err := s.store.GetCachedAnswer(ctx, hash); err == nil {
		logger.Debug("Answer cache hit for %s", hash[:8])
		return &driving.AnswerResult{Text: entry.Answer, Cached: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("read answer cache: %w", err)
	}

	// Concurrent identical questions collapse into one computation. The
	// flight key is released when the shared call returns, success or not.
	v, err, _ := s.flight.Do(hash, func() (any, error) {
		// A racing caller may have finished while this one was queued.
		if entry, err := s.store.GetCachedAnswer(ctx, hash); err == nil {
			return &driving.AnswerResult{Text: entry.Answer, Cached: true}, nil
		}
		return s.computeAnswer(ctx, hash, question)
	})
	if err != nil {
		return nil, err
	}
	return v.(*driving.AnswerResult), nil
}

// computeAnswer runs the full retrieval pipeline for a cache miss.
func (s *ChatService) computeAnswer(ctx context.Context, hash, question string) (*driving.AnswerResult, error) {
	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &driving.AnswerResult{Text: notConfiguredReply}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.index.Search(ctx, queryVec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Retrieved %d chunks for question %s", len(hits), hash[:8])

	system := buildSystemPrompt(profile, question, hits)

	answer, err := s.llm.Generate(ctx, system, question, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	// A cancelled request must not populate the cache.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.SaveCachedAnswer(ctx, hash, answer); err != nil && !errors.Is(err, domain.ErrAlreadyCached) {
		return nil, fmt.Errorf("cache answer: %w", err)
	}

	return &driving.AnswerResult{Text: answer}, nil
}

// buildSystemPrompt assembles the grounding context for the model: the
// business identity, retrieved blog excerpts, any FAQ whose question
// contains the user's question verbatim, and current marketing notes.
func buildSystemPrompt(profile *domain.BusinessProfile, question string, hits []driven.VectorHit) string {
	var b strings.Builder

	b.WriteString("You are the customer-facing assistant for ")
	b.WriteString(profile.Name)
	b.WriteString(".\n")
	if profile.Personality != "" {
		b.WriteString("Personality: ")
		b.WriteString(profile.Personality)
		b.WriteString("\n")
	}
	b.WriteString("Answer using only the reference material below. ")
	b.WriteString("If the material does not cover the question, say so honestly instead of guessing.\n")

	if len(hits) > 0 {
		b.WriteString("\n## Reference material\n")
		texts := make([]string, len(hits))
		for i, hit := range hits {
			texts[i] = hit.Text
		}
		b.WriteString(strings.Join(texts, excerptSeparator))
		b.WriteString("\n")
	}

	if matched := matchFAQs(profile.FAQs, question); len(matched) > 0 {
		b.WriteString("\n## Matching FAQs\n")
		for _, faq := range matched {
			b.WriteString("Q: ")
			b.WriteString(faq.Question)
			b.WriteString("\nA: ")
			b.WriteString(faq.Answer)
			b.WriteString("\n")
		}
	}

	if profile.MarketingInfo != "" {
		b.WriteString("\n## Current promotions\n")
		b.WriteString(profile.MarketingInfo)
		b.WriteString("\n")
	}

	return b.String()
}

// matchFAQs returns every FAQ whose question text contains the user's
// question as a literal substring, in declaration order. Matching is
// exact: no normalisation of case or whitespace is applied.
func matchFAQs(faqs []domain.FAQ, question string) []domain.FAQ {
	if question == "" {
		return nil
	}
	var matched []domain.FAQ
	for _, faq := range faqs {
		if strings.Contains(faq.Question, question) {
			matched = append(matched, faq)
		}
	}
	return matched
}
