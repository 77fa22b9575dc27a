package driven

import (
	"context"

	"github.com/bulochat/bulochat/internal/core/domain"
)

// Fetcher retrieves raw posts from a remote blog. It is an external
// collaborator of the ingestion pipeline: arbitrarily unreliable,
// rate-limited, and source-format specific. Implementations are expected
// to pace their own outbound requests and to honour context cancellation
// on every call.
type Fetcher interface {
	// ListPosts returns references to posts available at the source,
	// newest first as listed upstream. maxPosts truncates the listing
	// when positive; zero or negative means no limit.
	ListPosts(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostRef, error)

	// FetchPost retrieves and extracts the content of a single post.
	FetchPost(ctx context.Context, url string) (*domain.FetchedPost, error)

	// Close releases resources.
	Close() error
}
