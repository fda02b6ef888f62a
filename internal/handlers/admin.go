// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the EcoTrack site.
// Handlers are grouped by concern (admin, public, support, auth) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"ecotrack/internal/cache"
	"ecotrack/internal/markdown"
	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/render"
	"ecotrack/internal/session"
	"ecotrack/internal/store"
)

const (
	// dashboardListLen is how many pending comments and tickets the
	// dashboard previews.
	dashboardListLen = 5

	// autoExcerptLen is the length of excerpts derived from post content.
	autoExcerptLen = 160
)

// commentTabs are the status tabs of the moderation queue.
var commentTabs = []string{"pending", "approved", "rejected", "all"}

// Admin groups all admin dashboard HTTP handlers and their dependencies.
type Admin struct {
	renderer  *render.Renderer
	sessions  *session.Store
	posts     *store.PostStore
	tickets   *store.TicketStore
	admins    *store.AdminStore
	pageCache *cache.PageCache
	images    ImageStore
}

// NewAdmin creates a new Admin handler group. pageCache and images may be
// nil; without an image store the post form only takes image URLs.
func NewAdmin(renderer *render.Renderer, sessions *session.Store, posts *store.PostStore, tickets *store.TicketStore, admins *store.AdminStore, pageCache *cache.PageCache, images ImageStore) *Admin {
	return &Admin{
		renderer:  renderer,
		sessions:  sessions,
		posts:     posts,
		tickets:   tickets,
		admins:    admins,
		pageCache: pageCache,
		images:    images,
	}
}

// Dashboard renders the overview page with post, comment, ticket and
// account counts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postStats, err := a.posts.Stats(ctx)
	if err != nil {
		slog.Error("post stats failed", "error", err)
	}
	ticketStats, err := a.tickets.Stats(ctx)
	if err != nil {
		slog.Error("ticket stats failed", "error", err)
	}
	adminCount, err := a.admins.Count(ctx)
	if err != nil {
		slog.Error("count admins failed", "error", err)
	}
	pending, err := a.posts.Comments(ctx, models.CommentStatusPending)
	if err != nil {
		slog.Error("list pending comments failed", "error", err)
	}
	recent, err := a.tickets.List(ctx, "")
	if err != nil {
		slog.Error("list tickets failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"PostStats":       postStats,
			"TicketStats":     ticketStats,
			"AdminCount":      adminCount,
			"PendingComments": head(pending, dashboardListLen),
			"RecentTickets":   head(recent, dashboardListLen),
		},
	})
}

// --- Posts CRUD ---

// PostsList renders the posts table, filtered by ?q=, ?status= and
// ?category=.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.PostFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}

	posts, err := a.posts.Filter(ctx, filter)
	if err != nil {
		slog.Error("filter posts failed", "error", err)
	}
	all, err := a.posts.List(ctx)
	if err != nil {
		slog.Error("list posts failed", "error", err)
	}

	a.renderer.Page(w, r, "posts", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data: map[string]any{
			"Posts":  posts,
			"Filter": filter,
			"Total":  len(all),
		},
	})
}

// PostNew renders the new post form.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	post := &models.BlogPost{
		Status:   models.PostStatusDraft,
		Category: models.DefaultCategory,
	}
	if sess != nil {
		post.Author = sess.Name
	}
	a.renderPostForm(w, r, post, true, "", http.StatusOK)
}

// PostCreate handles the new post form submission.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	if tooLarge, err := readPostForm(w, r); err != nil {
		a.rejectPostForm(w, r, &models.BlogPost{Status: models.PostStatusDraft, Category: models.DefaultCategory}, true, tooLarge, err)
		return
	}
	post := postFromForm(r)
	if errMsg := validatePost(post); errMsg != "" {
		a.renderPostForm(w, r, post, true, errMsg, http.StatusUnprocessableEntity)
		return
	}
	typedImage := post.Image
	if errMsg := a.attachImage(r, post); errMsg != "" {
		a.renderPostForm(w, r, post, true, errMsg, http.StatusUnprocessableEntity)
		return
	}
	preparePost(post)

	created, err := a.posts.Create(r.Context(), post)
	if err != nil {
		slog.Error("create post failed", "error", err)
		if post.Image != typedImage {
			a.dropImage(r.Context(), post.Image)
			post.Image = typedImage
		}
		a.renderPostForm(w, r, post, true, "Failed to save the post.", http.StatusInternalServerError)
		return
	}

	a.invalidatePost(r.Context(), created.Slug, "create")
	render.SetFlash(w, r, "success", "Post created.")
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// PostEdit renders the edit form for an existing post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	a.renderPostForm(w, r, post, false, "", http.StatusOK)
}

// PostUpdate handles the edit post form submission.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.findPost(w, r)
	if !ok {
		return
	}
	if tooLarge, err := readPostForm(w, r); err != nil {
		a.rejectPostForm(w, r, existing, false, tooLarge, err)
		return
	}

	post := postFromForm(r)
	post.ID = existing.ID
	post.Slug = existing.Slug
	post.Date = existing.Date
	if errMsg := validatePost(post); errMsg != "" {
		a.renderPostForm(w, r, post, false, errMsg, http.StatusUnprocessableEntity)
		return
	}
	typedImage := post.Image
	if errMsg := a.attachImage(r, post); errMsg != "" {
		a.renderPostForm(w, r, post, false, errMsg, http.StatusUnprocessableEntity)
		return
	}
	preparePost(post)

	if err := a.posts.Update(r.Context(), post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("update post failed", "error", err, "post", post.ID)
		if post.Image != typedImage {
			a.dropImage(r.Context(), post.Image)
			post.Image = typedImage
		}
		a.renderPostForm(w, r, post, false, "Failed to save the post.", http.StatusInternalServerError)
		return
	}

	if post.Slug != existing.Slug {
		a.pageCache.Invalidate(r.Context(), cache.PostKey(existing.Slug))
	}
	if existing.Image != post.Image {
		a.dropImage(r.Context(), existing.Image)
	}
	a.invalidatePost(r.Context(), post.Slug, "update")
	render.SetFlash(w, r, "success", "Post updated.")
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// PostDelete removes a post together with its comments.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}

	if err := a.posts.Delete(r.Context(), post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("delete post failed", "error", err, "post", post.ID)
		serverError(w)
		return
	}

	a.dropImage(r.Context(), post.Image)
	a.invalidatePost(r.Context(), post.Slug, "delete")
	render.SetFlash(w, r, "success", "Post deleted.")
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// findPost loads the post named by the {id} URL parameter, writing a 404
// when it does not exist.
func (a *Admin) findPost(w http.ResponseWriter, r *http.Request) (*models.BlogPost, bool) {
	id := chi.URLParam(r, "id")
	post, err := a.posts.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find post failed", "error", err, "post", id)
		serverError(w)
		return nil, false
	}
	if post == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return post, true
}

func (a *Admin) renderPostForm(w http.ResponseWriter, r *http.Request, post *models.BlogPost, isNew bool, errMsg string, status int) {
	title := "Edit Post"
	if isNew {
		title = "New Post"
	}
	a.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   title,
		Section: "posts",
		Status:  status,
		Data: map[string]any{
			"IsNew":   isNew,
			"Post":    post,
			"Error":   errMsg,
			"Uploads": a.images != nil,
		},
	})
}

// rejectPostForm answers a post form whose body could not be read.
func (a *Admin) rejectPostForm(w http.ResponseWriter, r *http.Request, post *models.BlogPost, isNew, tooLarge bool, err error) {
	if tooLarge {
		a.renderPostForm(w, r, post, isNew, "Image is too large (max 5 MB).", http.StatusRequestEntityTooLarge)
		return
	}
	slog.Warn("read post form failed", "error", err)
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

// postFromForm reads the editable post fields from the submitted form.
func postFromForm(r *http.Request) *models.BlogPost {
	status := models.PostStatus(r.FormValue("status"))
	if status == "" {
		status = models.PostStatusDraft
	}
	category := strings.TrimSpace(r.FormValue("category"))
	if category == "" {
		category = models.DefaultCategory
	}
	return &models.BlogPost{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Excerpt:  strings.TrimSpace(r.FormValue("excerpt")),
		Content:  r.FormValue("content"),
		Author:   strings.TrimSpace(r.FormValue("author")),
		Category: category,
		Status:   status,
		Image:    strings.TrimSpace(r.FormValue("image")),
	}
}

// preparePost sanitizes the content and fills in a missing excerpt.
func preparePost(p *models.BlogPost) {
	p.Content = markdown.Sanitize(p.Content)
	if p.Excerpt == "" {
		p.Excerpt = markdown.Excerpt(p.Content, autoExcerptLen)
	}
	if p.Author == "" {
		p.Author = "EcoTrack Team"
	}
}

// --- Comment moderation ---

// Comments renders the moderation queue for one ?status= tab, pending by
// default.
func (a *Admin) Comments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if !slices.Contains(commentTabs, status) {
		status = string(models.CommentStatusPending)
	}
	filter := models.CommentStatus(status)
	if status == "all" {
		filter = ""
	}

	comments, err := a.posts.Comments(r.Context(), filter)
	if err != nil {
		slog.Error("list comments failed", "error", err)
	}

	a.renderer.Page(w, r, "comments", &render.PageData{
		Title:   "Comments",
		Section: "comments",
		Data: map[string]any{
			"Comments": comments,
			"Status":   status,
			"Statuses": commentTabs,
		},
	})
}

// CommentModerate approves, rejects or deletes one comment.
func (a *Admin) CommentModerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID := chi.URLParam(r, "postID")
	commentID := chi.URLParam(r, "commentID")
	action := models.ModerationAction(chi.URLParam(r, "action"))

	switch action {
	case models.ModerationApprove, models.ModerationReject, models.ModerationDelete:
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	post, err := a.posts.FindByID(ctx, postID)
	if err != nil {
		slog.Error("find post failed", "error", err, "post", postID)
		serverError(w)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	err = a.posts.ModerateComment(ctx, postID, commentID, action)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, store.ErrNotPending):
		render.SetFlash(w, r, "error", "Only pending comments can be approved or rejected.")
	case err != nil:
		slog.Error("moderate comment failed", "error", err, "comment", commentID, "action", action)
		serverError(w)
		return
	default:
		a.invalidatePost(ctx, post.Slug, "comment "+string(action))
		render.SetFlash(w, r, "success", moderationMessage(action))
	}

	http.Redirect(w, r, "/admin/comments", http.StatusSeeOther)
}

func moderationMessage(action models.ModerationAction) string {
	switch action {
	case models.ModerationApprove:
		return "Comment approved."
	case models.ModerationReject:
		return "Comment rejected."
	default:
		return "Comment deleted."
	}
}

// invalidatePost purges every cached page that can show the post and logs
// the event.
func (a *Admin) invalidatePost(ctx context.Context, postSlug, action string) {
	a.pageCache.InvalidatePost(ctx, postSlug)
	slog.Info("post changed", "slug", postSlug, "action", action)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
