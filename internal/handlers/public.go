// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ecotrack/internal/cache"
	"ecotrack/internal/markdown"
	"ecotrack/internal/models"
	"ecotrack/internal/pages"
	"ecotrack/internal/render"
	"ecotrack/internal/store"
)

// homepagePosts is how many recent posts the homepage shows.
const homepagePosts = 3

// Public groups handlers for the public marketing site and blog. Listing
// pages are served from the Valkey page cache when possible and stored
// there on a miss.
type Public struct {
	renderer  *render.Renderer
	posts     *store.PostStore
	catalog   *pages.Catalog
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group. pageCache may be nil, in
// which case every request is rendered.
func NewPublic(renderer *render.Renderer, posts *store.PostStore, catalog *pages.Catalog, pageCache *cache.PageCache) *Public {
	return &Public{
		renderer:  renderer,
		posts:     posts,
		catalog:   catalog,
		pageCache: pageCache,
	}
}

// article is the data behind the post_article fragment.
type article struct {
	*models.BlogPost
	HTML     template.HTML
	Approved []models.Comment
}

// Home renders the landing page with the most recent published posts.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.HomepageKey()

	if p.serveFromCache(w, r, key) {
		return
	}

	posts, err := p.posts.Recent(ctx, homepagePosts)
	if err != nil {
		slog.Error("list recent posts failed", "error", err)
		serverError(w)
		return
	}

	p.renderCached(w, r, key, "home", &render.PageData{
		Title:   "Carbon tracking for modern teams",
		Section: "home",
		Data:    map[string]any{"Posts": posts},
	})
}

// Blog lists published posts, newest first, optionally for one category.
func (p *Public) Blog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" && !models.IsCategory(category) {
		category = ""
	}
	key := cache.BlogIndexKey(category)

	if p.serveFromCache(w, r, key) {
		return
	}

	posts, err := p.posts.ListPublished(ctx, category)
	if err != nil {
		slog.Error("list published posts failed", "error", err, "category", category)
		serverError(w)
		return
	}

	p.renderCached(w, r, key, "blog", &render.PageData{
		Title:   "Blog",
		Section: "blog",
		Data: map[string]any{
			"Posts":    posts,
			"Category": category,
		},
	})
}

// BlogPost shows a published post with its approved comments.
func (p *Public) BlogPost(w http.ResponseWriter, r *http.Request) {
	p.showPost(w, r, chi.URLParam(r, "slug"), nil)
}

// CommentSubmit adds a reader comment to a published post. New comments
// wait for moderation before they are shown.
func (p *Public) CommentSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postSlug := chi.URLParam(r, "slug")

	post, err := p.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", postSlug)
		serverError(w)
		return
	}
	if post == nil || !post.IsPublished() {
		p.NotFound(w, r)
		return
	}

	author := strings.TrimSpace(r.FormValue("author"))
	email := strings.TrimSpace(r.FormValue("email"))
	content := strings.TrimSpace(r.FormValue("content"))

	if errMsg := validateComment(author, email, content); errMsg != "" {
		p.showPost(w, r, postSlug, map[string]any{
			"Error":   errMsg,
			"Author":  author,
			"Email":   email,
			"Content": content,
		})
		return
	}

	if _, err := p.posts.AddComment(ctx, post.ID, models.Comment{
		Author:  author,
		Email:   email,
		Content: content,
	}); err != nil {
		slog.Error("add comment failed", "error", err, "post", post.ID)
		serverError(w)
		return
	}

	slog.Info("comment submitted", "post", post.Slug)
	render.SetFlash(w, r, "success", "Thanks! Your comment will appear once it has been approved.")
	http.Redirect(w, r, "/blog/"+post.Slug, http.StatusSeeOther)
}

// showPost renders a post page. The article and its approved comments are
// the same for every visitor, so that fragment is cached on its own while
// the comment form carries the request's CSRF token.
func (p *Public) showPost(w http.ResponseWriter, r *http.Request, postSlug string, form map[string]any) {
	ctx := r.Context()
	key := cache.PostKey(postSlug)

	post, err := p.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", postSlug)
		serverError(w)
		return
	}
	if post == nil || !post.IsPublished() {
		p.NotFound(w, r)
		return
	}

	var fragment template.HTML
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		fragment = template.HTML(cached)
	} else {
		fragment, err = p.renderer.Fragment("post_article", article{
			BlogPost: post,
			HTML:     template.HTML(markdown.Sanitize(post.Content)),
			Approved: post.ApprovedComments(),
		})
		if err != nil {
			slog.Error("render post failed", "error", err, "slug", postSlug)
			serverError(w)
			return
		}
		p.pageCache.Set(ctx, key, []byte(fragment))
	}

	data := map[string]any{"Article": fragment, "Slug": post.Slug}
	for k, v := range form {
		data[k] = v
	}
	status := http.StatusOK
	if form != nil {
		status = http.StatusUnprocessableEntity
	}

	p.renderer.Public(w, r, "post", &render.PageData{
		Title:   post.Title,
		Section: "blog",
		Data:    data,
		Status:  status,
	})
}

// CatalogPage renders a page of the product, solutions, resources, company
// or legal sections from the embedded catalog.
func (p *Public) CatalogPage(w http.ResponseWriter, r *http.Request) {
	p.catalogPage(w, r, strings.TrimPrefix(r.URL.Path, "/"))
}

// About renders the company's about page.
func (p *Public) About(w http.ResponseWriter, r *http.Request) {
	p.catalogPage(w, r, "about")
}

func (p *Public) catalogPage(w http.ResponseWriter, r *http.Request, pagePath string) {
	page, ok := p.catalog.Get(pagePath)
	if !ok {
		p.NotFound(w, r)
		return
	}

	var related []models.CompanyPage
	if page.Section != "" {
		for _, other := range p.catalog.Section(page.Section) {
			if other.Path != page.Path {
				related = append(related, other)
			}
		}
	}

	p.renderer.Public(w, r, "page", &render.PageData{
		Title:   page.Title,
		Section: page.Section,
		Data: map[string]any{
			"Page":    page,
			"Related": related,
		},
	})
}

// Pricing renders the plans listed in the site catalog.
func (p *Public) Pricing(w http.ResponseWriter, r *http.Request) {
	p.renderer.Public(w, r, "pricing", &render.PageData{
		Title:   "Pricing",
		Section: "pricing",
	})
}

// Search matches published posts and catalog pages against ?q=.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var posts []models.BlogPost
	var catalogPages []models.CompanyPage
	if q != "" {
		var err error
		posts, err = p.posts.Search(r.Context(), q)
		if err != nil {
			slog.Error("search posts failed", "error", err)
			serverError(w)
			return
		}
		catalogPages = p.catalog.Search(q)
	}

	p.renderer.Public(w, r, "search", &render.PageData{
		Title:   "Search",
		Section: "search",
		Data: map[string]any{
			"Query": q,
			"Posts": posts,
			"Pages": catalogPages,
		},
	})
}

// NotFound renders the site's 404 page.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderer.Public(w, r, "not_found", &render.PageData{
		Title:  "Page not found",
		Status: http.StatusNotFound,
	})
}

// serveFromCache writes a cached page and reports whether it did. Requests
// carrying a flash message are always rendered so the message is shown.
func (p *Public) serveFromCache(w http.ResponseWriter, r *http.Request, key string) bool {
	if render.HasFlash(r) {
		return false
	}
	cached, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	render.WriteHTML(w, http.StatusOK, cached)
	return true
}

// renderCached renders a public page, storing the visitor-independent
// result in the page cache.
func (p *Public) renderCached(w http.ResponseWriter, r *http.Request, key, name string, data *render.PageData) {
	if render.HasFlash(r) {
		p.renderer.Public(w, r, name, data)
		return
	}

	body, err := p.renderer.PublicHTML(name, data)
	if err != nil {
		slog.Error("render page failed", "error", err, "template", name)
		serverError(w)
		return
	}
	p.pageCache.Set(r.Context(), key, body)
	render.WriteHTML(w, http.StatusOK, body)
}

func serverError(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
