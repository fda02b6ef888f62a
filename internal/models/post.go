// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the records kept in the persisted collections and
// the small amount of behaviour that belongs to them (filters, status
// transitions, display helpers).
package models

import (
	"strings"
	"time"
)

// PostStatus represents the publishing state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known post status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Categories lists the blog categories offered by the editor, in display order.
var Categories = []string{"General", "Technology", "Environment", "Lifestyle", "Community", "Tips"}

// DefaultCategory is assigned when the editor leaves the category empty.
const DefaultCategory = "General"

// IsCategory reports whether name is one of the known blog categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// BlogPost is a single article shown on the blog. Content holds sanitized
// rich-text HTML produced by the admin editor.
type BlogPost struct {
	ID       string     `json:"id"`
	Slug     string     `json:"slug"`
	Title    string     `json:"title"`
	Excerpt  string     `json:"excerpt"`
	Content  string     `json:"content"`
	Image    string     `json:"image"`
	Author   string     `json:"author"`
	Date     time.Time  `json:"date"`
	Status   PostStatus `json:"status"`
	Category string     `json:"category"`
	Comments []Comment  `json:"comments"`
}

// IsPublished returns true if the post is visible on the public blog.
func (p *BlogPost) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// ApprovedComments returns the comments that passed moderation, in order.
func (p *BlogPost) ApprovedComments() []Comment {
	var out []Comment
	for _, c := range p.Comments {
		if c.Status == CommentStatusApproved {
			out = append(out, c)
		}
	}
	return out
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *BlogPost) CommentIndex(id string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// PostFilter selects posts in the admin list. Empty fields and the value
// "all" disable the corresponding predicate; active predicates are ANDed.
type PostFilter struct {
	Query    string // substring of title or author, case-insensitive
	Status   string
	Category string
}

// Match reports whether p satisfies every active predicate of the filter.
func (f PostFilter) Match(p *BlogPost) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Author), q) {
			return false
		}
	}
	if f.Status != "" && f.Status != "all" && string(p.Status) != f.Status {
		return false
	}
	if f.Category != "" && f.Category != "all" && p.Category != f.Category {
		return false
	}
	return true
}

// PostStats summarises the blog for the dashboard overview.
type PostStats struct {
	TotalPosts       int
	PublishedPosts   int
	DraftPosts       int
	TotalComments    int
	PendingComments  int
	ApprovedComments int
	RejectedComments int
}

// ComputePostStats counts posts and comments by status.
func ComputePostStats(posts []BlogPost) PostStats {
	var s PostStats
	for _, p := range posts {
		s.TotalPosts++
		switch p.Status {
		case PostStatusPublished:
			s.PublishedPosts++
		case PostStatusDraft:
			s.DraftPosts++
		}
		for _, c := range p.Comments {
			s.TotalComments++
			switch c.Status {
			case CommentStatusPending:
				s.PendingComments++
			case CommentStatusApproved:
				s.ApprovedComments++
			case CommentStatusRejected:
				s.RejectedComments++
			}
		}
	}
	return s
}
