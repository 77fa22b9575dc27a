package naverblog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractBlogID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://blog.naver.com/phoneclinic", "phoneclinic", false},
		{"https://blog.naver.com/phone_clinic-1/223456789", "phone_clinic-1", false},
		{"http://blog.naver.com/shop", "shop", false},
		{"https://example.com/blog", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractBlogID(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ExtractBlogID(%q): expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractBlogID(%q): %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractBlogID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func newTestConnector(t *testing.T, handler http.Handler) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(WithBaseURL(server.URL), WithRequestRate(1000))
}

func TestListPosts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/PostTitleListAsync.naver", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("blogId"); got != "phoneclinic" {
			t.Errorf("blogId = %q", got)
		}
		if got := r.URL.Query().Get("countPerPage"); got != "30" {
			t.Errorf("countPerPage = %q", got)
		}

		// Single-quoted pseudo-JSON, as the live endpoint serves it.
		switch r.URL.Query().Get("currentPage") {
		case "1":
			fmt.Fprint(w, `{'postList': [{'logNo': '101', 'title': 'First post'}, {'logNo': 102, 'title': 'Second&nbsp;post'}]}`)
		default:
			fmt.Fprint(w, `{'postList': []}`)
		}
	})
	c := newTestConnector(t, mux)

	refs, err := c.ListPosts(context.Background(), "https://blog.naver.com/phoneclinic", 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs", len(refs))
	}
	if refs[0].Title != "First post" {
		t.Errorf("title = %q", refs[0].Title)
	}
	// Quoted and bare logNo values both resolve.
	for i, wantSuffix := range []string{"/phoneclinic/101", "/phoneclinic/102"} {
		if got := refs[i].URL; got[len(got)-len(wantSuffix):] != wantSuffix {
			t.Errorf("refs[%d].URL = %q, want suffix %q", i, got, wantSuffix)
		}
	}
	// HTML entities in listed titles are decoded.
	if refs[1].Title != "Second post" {
		t.Errorf("title = %q", refs[1].Title)
	}
}

func TestListPosts_MaxPosts(t *testing.T) {
	pagesServed := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/PostTitleListAsync.naver", func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		fmt.Fprint(w, `{'postList': [{'logNo': '1', 'title': 'a'}, {'logNo': '2', 'title': 'b'}, {'logNo': '3', 'title': 'c'}]}`)
	})
	c := newTestConnector(t, mux)

	refs, err := c.ListPosts(context.Background(), "https://blog.naver.com/shop", 2)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("got %d refs, want 2", len(refs))
	}
	// The limit stops paging, not just trims afterwards.
	if pagesServed != 1 {
		t.Errorf("served %d pages, want 1", pagesServed)
	}
}

func TestListPosts_BadURL(t *testing.T) {
	c := New()
	if _, err := c.ListPosts(context.Background(), "https://example.com/", 0); err == nil {
		t.Fatal("expected error for non-Naver URL")
	}
}

const postPage = `<html><head>
<meta property="og:title" content="Battery swap guide &amp; pricing" />
</head><body>
<div class="se-main-container">
<p class="se-text-paragraph"><span>Battery swaps take</span> <b>20 minutes</b>.</p>
<p class="se-text-paragraph">Walk-ins welcome.</p>
<p class="se-text-paragraph">   </p>
</div>
<div class="post_tag">
<a class="item_tag" href="#">#battery</a>
<a class="item_tag" href="#">#repair</a>
</div>
<span class="nick_name">Phone Clinic</span>
<span class="se_publishDate pcol2">2024. 3. 2. 14:00</span>
</body></html>`

func TestFetchPost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shop/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, postPage)
	})
	c := newTestConnector(t, mux)

	post, err := c.FetchPost(context.Background(), mustURL(t, c, "/shop/101"))
	if err != nil {
		t.Fatalf("fetch post: %v", err)
	}

	if post.Title != "Battery swap guide & pricing" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Body != "Battery swaps take 20 minutes .\nWalk-ins welcome." {
		t.Errorf("body = %q", post.Body)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "battery" || post.Tags[1] != "repair" {
		t.Errorf("tags = %v", post.Tags)
	}
	if post.Author != "Phone Clinic" {
		t.Errorf("author = %q", post.Author)
	}
	if post.PublishedAt != "2024. 3. 2. 14:00" {
		t.Errorf("published = %q", post.PublishedAt)
	}
}

func TestFetchPost_FollowsMainFrame(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shop/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><iframe id="mainFrame" src="/PostView.naver?blogId=shop&amp;logNo=101"></iframe></body></html>`)
	})
	mux.HandleFunc("/PostView.naver", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("logNo"); got != "101" {
			t.Errorf("logNo = %q", got)
		}
		fmt.Fprint(w, postPage)
	})
	c := newTestConnector(t, mux)

	post, err := c.FetchPost(context.Background(), mustURL(t, c, "/shop/101"))
	if err != nil {
		t.Fatalf("fetch post: %v", err)
	}
	if post.Title != "Battery swap guide & pricing" {
		t.Errorf("title = %q", post.Title)
	}
}

func TestFetchPost_NotFound(t *testing.T) {
	c := newTestConnector(t, http.NotFoundHandler())
	if _, err := c.FetchPost(context.Background(), mustURL(t, c, "/gone")); err == nil {
		t.Fatal("expected error for 404")
	}
}

// mustURL joins a path onto the connector's configured base.
func mustURL(t *testing.T, c *Connector, path string) string {
	t.Helper()
	return c.baseURL + path
}
