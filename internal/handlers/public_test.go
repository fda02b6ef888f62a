package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ecotrack/internal/cache"
	"ecotrack/internal/models"
)

func TestHome_ShowsRecentPublishedPosts(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Draft Thoughts", models.PostStatusDraft, "Tips")
	for _, title := range []string{"First Light", "Second Wind", "Third Rail", "Fourth Wall"} {
		env.createPost(t, title, models.PostStatusPublished, "Environment")
	}

	rec := httptest.NewRecorder()
	env.Public.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Home: status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "Draft Thoughts") {
		t.Error("Home must not list drafts")
	}
	if got := strings.Count(body, `class="post-card"`); got != homepagePosts {
		t.Errorf("Home: %d post cards, want %d", got, homepagePosts)
	}
	if !strings.Contains(body, "Fourth Wall") {
		t.Error("Home should show the newest post")
	}
}

func TestBlog_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Solar Roofs", models.PostStatusPublished, "Technology")
	env.createPost(t, "Compost Basics", models.PostStatusPublished, "Tips")

	tests := []struct {
		query   string
		want    []string
		notWant []string
	}{
		{"", []string{"Solar Roofs", "Compost Basics"}, nil},
		{"?category=Tips", []string{"Compost Basics"}, []string{"Solar Roofs"}},
		{"?category=Nonsense", []string{"Solar Roofs", "Compost Basics"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Public.Blog(rec, httptest.NewRequest(http.MethodGet, "/blog"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			body := rec.Body.String()
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("unexpected %q", s)
				}
			}
		})
	}
}

func TestBlogPost_ShowsApprovedCommentsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "Green Commutes", models.PostStatusPublished, "Lifestyle")

	approved, _ := env.Posts.AddComment(ctx, post.ID, models.Comment{Author: "Ann", Content: "Visible comment"})
	env.Posts.AddComment(ctx, post.ID, models.Comment{Author: "Bob", Content: "Hidden comment"})
	if err := env.Posts.ModerateComment(ctx, post.ID, approved.ID, models.ModerationApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}

	req := withChiURLParams(httptest.NewRequest(http.MethodGet, "/blog/"+post.Slug, nil), "slug", post.Slug)
	rec := httptest.NewRecorder()
	env.Public.BlogPost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<p>Body of Green Commutes</p>") {
		t.Error("post body should be rendered as HTML")
	}
	if !strings.Contains(body, "Visible comment") {
		t.Error("approved comment missing")
	}
	if strings.Contains(body, "Hidden comment") {
		t.Error("pending comment must not be shown")
	}
}

func TestBlogPost_DraftAndMissingReturn404(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createPost(t, "Unfinished", models.PostStatusDraft, "General")

	for _, s := range []string{draft.Slug, "does-not-exist"} {
		req := withChiURLParams(httptest.NewRequest(http.MethodGet, "/blog/"+s, nil), "slug", s)
		rec := httptest.NewRecorder()
		env.Public.BlogPost(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", s, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Page not found") {
			t.Errorf("%s: expected the 404 page", s)
		}
	}
}

func TestCommentSubmit_ValidCommentIsPending(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "Tree Planting", models.PostStatusPublished, "Community")

	form := url.Values{
		"author":  {"Rita"},
		"email":   {"rita@example.com"},
		"content": {"Great read!"},
	}
	req := withChiURLParams(formRequest("/blog/"+post.Slug+"/comments", form), "slug", post.Slug)
	rec := httptest.NewRecorder()
	env.Public.CommentSubmit(rec, req)

	assertRedirect(t, rec, "/blog/"+post.Slug)
	if f := flashes(t, rec); len(f) != 1 || f[0].Type != "success" {
		t.Errorf("flashes = %+v, want one success", f)
	}

	stored, _ := env.Posts.FindByID(context.Background(), post.ID)
	if len(stored.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(stored.Comments))
	}
	c := stored.Comments[0]
	if c.Status != models.CommentStatusPending || c.Author != "Rita" {
		t.Errorf("comment = %+v, want pending from Rita", c)
	}
}

func TestCommentSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "Wind Farms", models.PostStatusPublished, "Technology")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing name", url.Values{"content": {"Hi"}}, "Please enter your name."},
		{"missing content", url.Values{"author": {"Sam"}}, "Please enter a comment."},
		{"bad email", url.Values{"author": {"Sam"}, "content": {"Hi"}, "email": {"nope"}}, "Please enter a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withChiURLParams(formRequest("/blog/"+post.Slug+"/comments", tt.form), "slug", post.Slug)
			rec := httptest.NewRecorder()
			env.Public.CommentSubmit(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body should contain %q", tt.want)
			}
		})
	}

	stored, _ := env.Posts.FindByID(context.Background(), post.ID)
	if len(stored.Comments) != 0 {
		t.Errorf("invalid comments must not be stored, got %d", len(stored.Comments))
	}
}

func TestCatalogPages(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/product/overview", http.StatusOK, "More in this section"},
		{"/solutions/enterprise", http.StatusOK, "This section will be available soon"},
		{"/legal/privacy", http.StatusOK, "Privacy"},
		{"/product/nothing-here", http.StatusNotFound, "Page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Public.CatalogPage(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body should contain %q", tt.want)
			}
		})
	}
}

func TestAboutAndPricing(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Public.About(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("About: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.Public.Pricing(rec, httptest.NewRequest(http.MethodGet, "/pricing", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Pricing: status = %d", rec.Code)
	}
	for _, plan := range env.Catalog.Site().Plans {
		if !strings.Contains(rec.Body.String(), plan.Name) {
			t.Errorf("Pricing should list plan %q", plan.Name)
		}
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Carbon Budgets Explained", models.PostStatusPublished, "Environment")
	env.createPost(t, "Carbon Draft", models.PostStatusDraft, "Environment")

	rec := httptest.NewRecorder()
	env.Public.Search(rec, httptest.NewRequest(http.MethodGet, "/search?q=carbon", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Carbon Budgets Explained") {
		t.Error("published match missing")
	}
	if strings.Contains(body, "Carbon Draft") {
		t.Error("drafts must not be searchable")
	}

	rec = httptest.NewRecorder()
	env.Public.Search(rec, httptest.NewRequest(http.MethodGet, "/search?q=zzzzqqq", nil))
	if !strings.Contains(rec.Body.String(), "No results for") {
		t.Error("expected the empty result message")
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.Public.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHome_PageCache(t *testing.T) {
	env := newCachedTestEnv(t)
	ctx := context.Background()
	env.createPost(t, "Cached Story", models.PostStatusPublished, "General")

	rec := httptest.NewRecorder()
	env.Public.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cached, ok := env.PageCache.Get(ctx, cache.HomepageKey())
	if !ok || !strings.Contains(string(cached), "Cached Story") {
		t.Fatal("homepage should be cached after the first render")
	}

	// A post created behind the cache's back is not visible until invalidation.
	env.createPost(t, "Fresh Story", models.PostStatusPublished, "General")
	rec = httptest.NewRecorder()
	env.Public.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(rec.Body.String(), "Fresh Story") {
		t.Error("cached homepage should be served")
	}

	env.PageCache.InvalidatePost(ctx, "")
	rec = httptest.NewRecorder()
	env.Public.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Fresh Story") {
		t.Error("homepage should be rebuilt after invalidation")
	}
}

func TestBlogPost_CachesArticleFragment(t *testing.T) {
	env := newCachedTestEnv(t)
	post := env.createPost(t, "Fragment Post", models.PostStatusPublished, "General")

	req := withChiURLParams(httptest.NewRequest(http.MethodGet, "/blog/"+post.Slug, nil), "slug", post.Slug)
	env.Public.BlogPost(httptest.NewRecorder(), req)

	cached, ok := env.PageCache.Get(context.Background(), cache.PostKey(post.Slug))
	if !ok {
		t.Fatal("article fragment should be cached")
	}
	if strings.Contains(string(cached), "csrf_token") {
		t.Error("cached fragment must not contain the comment form")
	}
}
