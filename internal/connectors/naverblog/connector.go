// Package naverblog fetches post listings and content from a Naver blog.
//
// Listings come from the PostTitleListAsync endpoint, which serves
// JSON-like text with single-quoted values. Post content is fetched as
// plain HTML and the smart-editor markup is extracted with regular
// expressions; no browser automation is involved.
package naverblog

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
	"github.com/bulochat/bulochat/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Fetcher = (*Connector)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://blog.naver.com"
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond paces outbound requests. The listing
	// endpoint is unauthenticated; polite pacing keeps us off the
	// blocklist.
	DefaultRequestsPerSecond = 2

	// postsPerPage is the listing page size.
	postsPerPage = 30
)

// blogIDPattern extracts the blog identifier from any Naver blog URL form.
var blogIDPattern = regexp.MustCompile(`blog\.naver\.com/([a-zA-Z0-9_-]+)`)

// Markup extraction patterns for the Naver post page. The PC page embeds
// the real document in a mainFrame iframe; content patterns target the
// smart-editor markup inside it.
var (
	mainFramePattern = regexp.MustCompile(`id="mainFrame"[^>]*src="([^"]+)"`)
	titlePattern     = regexp.MustCompile(`<meta\s+property="og:title"\s+content="([^"]*)"`)
	paragraphPattern = regexp.MustCompile(`(?s)<p[^>]*class="se-text-paragraph[^"]*"[^>]*>(.*?)</p>`)
	tagPattern       = regexp.MustCompile(`(?s)<a[^>]*class="[^"]*(?:item_tag|post_tag|se_component_hashtag)[^"]*"[^>]*>(.*?)</a>`)
	authorPattern    = regexp.MustCompile(`(?s)class="nick_name"[^>]*>(.*?)<`)
	datePattern      = regexp.MustCompile(`(?s)class="se_publishDate[^"]*"[^>]*>(.*?)<`)
	markupPattern    = regexp.MustCompile(`<[^>]+>`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Connector fetches posts from a Naver blog over plain HTTP.
type Connector struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// Option configures the connector.
type Option func(*Connector)

// WithBaseURL overrides the Naver endpoint. Tests point it at a local
// server.
func WithBaseURL(url string) Option {
	return func(c *Connector) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRequestRate sets the outbound request pacing in requests per second.
func WithRequestRate(rps float64) Option {
	return func(c *Connector) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		c.client = client
	}
}

// New creates a Naver blog connector.
func New(opts ...Option) *Connector {
	c := &Connector{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractBlogID pulls the blog identifier out of a Naver blog URL.
func ExtractBlogID(blogURL string) (string, error) {
	match := blogIDPattern.FindStringSubmatch(blogURL)
	if match == nil {
		return "", fmt.Errorf("no blog ID in URL %q", blogURL)
	}
	return match[1], nil
}

// listResponse is the PostTitleListAsync payload after quote fixup.
type listResponse struct {
	PostList []listItem `json:"postList"`
}

// listItem is one listing entry. Naver serves logNo sometimes quoted and
// sometimes bare, so both fields tolerate either form.
type listItem struct {
	LogNo flexString `json:"logNo"`
	Title flexString `json:"title"`
}

// flexString decodes a JSON string or bare literal into a string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	*s = flexString(strings.Trim(string(b), `"`))
	return nil
}

// ListPosts returns references to the blog's posts, newest first as the
// listing endpoint serves them. maxPosts truncates the listing when
// positive.
func (c *Connector) ListPosts(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostRef, error) {
	blogID, err := ExtractBlogID(sourceURL)
	if err != nil {
		return nil, err
	}

	var refs []domain.PostRef
	for page := 1; ; page++ {
		listURL := fmt.Sprintf("%s/PostTitleListAsync.naver?blogId=%s&currentPage=%d&countPerPage=%d",
			c.baseURL, blogID, page, postsPerPage)

		body, err := c.get(ctx, listURL)
		if err != nil {
			return nil, fmt.Errorf("list page %d: %w", page, err)
		}

		// The endpoint emits single-quoted values, which is not valid
		// JSON. The payload carries no escaped quotes, so a blanket
		// replacement is safe.
		fixed := strings.ReplaceAll(string(body), "'", `"`)

		var list listResponse
		if err := json.Unmarshal([]byte(fixed), &list); err != nil {
			return nil, fmt.Errorf("parse list page %d: %w", page, err)
		}
		if len(list.PostList) == 0 {
			break
		}

		for _, item := range list.PostList {
			if item.LogNo == "" {
				continue
			}
			refs = append(refs, domain.PostRef{
				URL:   fmt.Sprintf("%s/%s/%s", c.baseURL, blogID, item.LogNo),
				Title: strings.TrimSpace(html.UnescapeString(string(item.Title))),
			})
			if maxPosts > 0 && len(refs) >= maxPosts {
				return refs, nil
			}
		}
		logger.Debug("Listed page %d: %d posts", page, len(list.PostList))
	}

	return refs, nil
}

// FetchPost retrieves a post page and extracts its content. When the page
// is the PC frameset wrapper, the mainFrame document is followed once.
func (c *Connector) FetchPost(ctx context.Context, url string) (*domain.FetchedPost, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	page := string(body)
	if frame := mainFramePattern.FindStringSubmatch(page); frame != nil {
		frameURL := html.UnescapeString(frame[1])
		if strings.HasPrefix(frameURL, "/") {
			frameURL = c.baseURL + frameURL
		}
		inner, err := c.get(ctx, frameURL)
		if err != nil {
			return nil, fmt.Errorf("fetch main frame: %w", err)
		}
		page = string(inner)
	}

	post := &domain.FetchedPost{URL: url}

	if m := titlePattern.FindStringSubmatch(page); m != nil {
		post.Title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	var paragraphs []string
	for _, m := range paragraphPattern.FindAllStringSubmatch(page, -1) {
		if text := cleanMarkup(m[1]); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	post.Body = strings.Join(paragraphs, "\n")

	for _, m := range tagPattern.FindAllStringSubmatch(page, -1) {
		if tag := strings.TrimPrefix(cleanMarkup(m[1]), "#"); tag != "" {
			post.Tags = append(post.Tags, tag)
		}
	}

	if m := authorPattern.FindStringSubmatch(page); m != nil {
		post.Author = cleanMarkup(m[1])
	}
	if m := datePattern.FindStringSubmatch(page); m != nil {
		post.PublishedAt = cleanMarkup(m[1])
	}

	return post, nil
}

// get performs a paced GET request and returns the response body.
func (c *Connector) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; bulochat/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// cleanMarkup strips tags, decodes entities and collapses whitespace.
func cleanMarkup(s string) string {
	s = markupPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}
