// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecotrack/internal/models"
	"ecotrack/internal/slug"
)

// postsVersion is the current schema version of the blogPosts collection.
const postsVersion = 1

// legacyDateLayout is how the browser app stored post and comment dates.
const legacyDateLayout = "January 2, 2006"

// PostStore handles blog posts and their comments.
type PostStore struct {
	posts *Collection[models.BlogPost]
	now   func() time.Time
}

// NewPostStore creates a PostStore on the given backend.
func NewPostStore(backend Backend) *PostStore {
	return &PostStore{
		posts: NewCollection[models.BlogPost](backend, CollectionPosts, postsVersion,
			Migration{From: 0, Up: migratePostV0},
		),
		now: time.Now,
	}
}

// List returns every post, newest first (the order they are stored in).
func (s *PostStore) List(ctx context.Context) ([]models.BlogPost, error) {
	posts, err := s.posts.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Filter returns the posts matching every active predicate of f.
func (s *PostStore) Filter(ctx context.Context, f models.PostFilter) ([]models.BlogPost, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.BlogPost
	for i := range posts {
		if f.Match(&posts[i]) {
			out = append(out, posts[i])
		}
	}
	return out, nil
}

// ListPublished returns published posts, optionally restricted to one
// category. Used by the public blog.
func (s *PostStore) ListPublished(ctx context.Context, category string) ([]models.BlogPost, error) {
	return s.Filter(ctx, models.PostFilter{
		Status:   string(models.PostStatusPublished),
		Category: category,
	})
}

// Recent returns at most n published posts.
func (s *PostStore) Recent(ctx context.Context, n int) ([]models.BlogPost, error) {
	posts, err := s.ListPublished(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts, nil
}

// Search returns published posts whose title or excerpt contains q,
// case-insensitively.
func (s *PostStore) Search(ctx context.Context, q string) ([]models.BlogPost, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, nil
	}
	posts, err := s.ListPublished(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []models.BlogPost
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Excerpt), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.BlogPost, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// FindBySlug retrieves a post by slug regardless of status. Returns nil if
// not found.
func (s *PostStore) FindBySlug(ctx context.Context, postSlug string) (*models.BlogPost, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == postSlug {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// Create assigns an id, slug and date to p and prepends it to the collection.
func (s *PostStore) Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	created := *p
	created.ID = uuid.NewString()
	created.Date = s.now()
	created.Comments = []models.Comment{}
	if created.Status == "" {
		created.Status = models.PostStatusDraft
	}
	if created.Category == "" {
		created.Category = models.DefaultCategory
	}

	err := s.posts.Update(ctx, func(posts []models.BlogPost) ([]models.BlogPost, error) {
		created.Slug = slug.Unique(created.Title, slugTaken(posts, ""))
		return append([]models.BlogPost{created}, posts...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &created, nil
}

// Update replaces the editable fields of an existing post. The id, date and
// comments are preserved; the slug follows the title.
func (s *PostStore) Update(ctx context.Context, p *models.BlogPost) error {
	err := s.posts.Update(ctx, func(posts []models.BlogPost) ([]models.BlogPost, error) {
		for i := range posts {
			if posts[i].ID != p.ID {
				continue
			}
			cur := &posts[i]
			if cur.Title != p.Title || cur.Slug == "" {
				cur.Slug = slug.Unique(p.Title, slugTaken(posts, cur.ID))
			}
			cur.Title = p.Title
			cur.Excerpt = p.Excerpt
			cur.Content = p.Content
			cur.Image = p.Image
			cur.Author = p.Author
			cur.Status = p.Status
			cur.Category = p.Category
			p.Slug = cur.Slug
			return posts, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("update post %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a post and all of its comments.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	err := s.posts.Update(ctx, func(posts []models.BlogPost) ([]models.BlogPost, error) {
		for i := range posts {
			if posts[i].ID == id {
				return append(posts[:i], posts[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

// AddComment appends a reader comment to a post. New comments always start
// out pending moderation.
func (s *PostStore) AddComment(ctx context.Context, postID string, c models.Comment) (*models.Comment, error) {
	c.ID = uuid.NewString()
	c.Date = s.now()
	c.Status = models.CommentStatusPending

	err := s.posts.Update(ctx, func(posts []models.BlogPost) ([]models.BlogPost, error) {
		for i := range posts {
			if posts[i].ID == postID {
				posts[i].Comments = append(posts[i].Comments, c)
				return posts, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("add comment to %s: %w", postID, err)
	}
	return &c, nil
}

// ModerateComment approves, rejects or deletes a comment. Approve and reject
// change only the comment's status; delete removes it whatever its state.
func (s *PostStore) ModerateComment(ctx context.Context, postID, commentID string, action models.ModerationAction) error {
	err := s.posts.Update(ctx, func(posts []models.BlogPost) ([]models.BlogPost, error) {
		for i := range posts {
			if posts[i].ID != postID {
				continue
			}
			idx := posts[i].CommentIndex(commentID)
			if idx < 0 {
				return nil, ErrNotFound
			}
			if action == models.ModerationDelete {
				posts[i].Comments = append(posts[i].Comments[:idx], posts[i].Comments[idx+1:]...)
				return posts, nil
			}
			next, ok := posts[i].Comments[idx].Moderate(action)
			if !ok {
				return nil, ErrNotPending
			}
			posts[i].Comments[idx].Status = next
			return posts, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("moderate comment %s: %w", commentID, err)
	}
	return nil
}

// Comments returns every comment across all posts, optionally limited to a
// single status.
func (s *PostStore) Comments(ctx context.Context, status models.CommentStatus) ([]models.PostComment, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.PostComment
	for _, p := range posts {
		for _, c := range p.Comments {
			if status != "" && c.Status != status {
				continue
			}
			out = append(out, models.PostComment{Comment: c, PostID: p.ID, PostTitle: p.Title})
		}
	}
	return out, nil
}

// Stats counts posts and comments for the dashboard.
func (s *PostStore) Stats(ctx context.Context) (models.PostStats, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return models.PostStats{}, err
	}
	return models.ComputePostStats(posts), nil
}

// slugTaken reports whether a slug is used by any post other than exceptID.
func slugTaken(posts []models.BlogPost, exceptID string) func(string) bool {
	return func(candidate string) bool {
		for _, p := range posts {
			if p.ID != exceptID && p.Slug == candidate {
				return true
			}
		}
		return false
	}
}

// migratePostV0 upgrades a post written by the browser app: numeric ids,
// display-formatted dates, no slug, and comments with "text" instead of
// "content" and no moderation status.
func migratePostV0(rec map[string]any) error {
	rec["id"] = stringID(rec["id"])
	rec["date"] = legacyDate(rec["date"])
	if s, _ := rec["slug"].(string); s == "" {
		title, _ := rec["title"].(string)
		rec["slug"] = slug.Generate(title)
	}
	if st, _ := rec["status"].(string); st == "" {
		rec["status"] = string(models.PostStatusPublished)
	}
	if cat, _ := rec["category"].(string); cat == "" {
		rec["category"] = models.DefaultCategory
	}

	comments, _ := rec["comments"].([]any)
	for _, item := range comments {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c["id"] = stringID(c["id"])
		c["date"] = legacyDate(c["date"])
		if text, ok := c["text"].(string); ok {
			if _, has := c["content"]; !has {
				c["content"] = text
			}
			delete(c, "text")
		}
		if st, _ := c["status"].(string); st == "" {
			c["status"] = string(models.CommentStatusApproved)
		}
	}
	if comments == nil {
		rec["comments"] = []any{}
	}
	return nil
}

// stringID normalises a legacy id (number or string) to a string.
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return uuid.NewString()
}

// legacyDate converts a display date like "March 15, 2025" to RFC 3339.
// Values that already parse as RFC 3339 are kept.
func legacyDate(v any) string {
	s, _ := v.(string)
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s
	}
	if t, err := time.Parse(legacyDateLayout, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return time.Time{}.Format(time.RFC3339)
}

// SeedIfEmpty writes posts as the whole collection, but only when the
// collection holds no posts yet. It reports whether anything was written.
func (s *PostStore) SeedIfEmpty(ctx context.Context, posts []models.BlogPost) (bool, error) {
	seeded := false
	err := s.posts.Update(ctx, func(existing []models.BlogPost) ([]models.BlogPost, error) {
		if len(existing) > 0 {
			return existing, nil
		}
		seeded = true
		return posts, nil
	})
	if err != nil {
		return false, fmt.Errorf("seed posts: %w", err)
	}
	return seeded, nil
}
