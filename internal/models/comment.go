// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// CommentStatus is the moderation state of a reader comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusRejected CommentStatus = "rejected"
)

// ModerationAction is what an editor does to a comment.
type ModerationAction string

const (
	ModerationApprove ModerationAction = "approve"
	ModerationReject  ModerationAction = "reject"
	ModerationDelete  ModerationAction = "delete"
)

// Comment is a reader comment attached to a blog post.
type Comment struct {
	ID      string        `json:"id"`
	Author  string        `json:"author"`
	Email   string        `json:"email,omitempty"`
	Content string        `json:"content"`
	Date    time.Time     `json:"date"`
	Status  CommentStatus `json:"status"`
}

// Moderate returns the status a comment moves to under action. Only pending
// comments can be approved or rejected; delete is handled by the caller and
// is allowed from any state.
func (c *Comment) Moderate(action ModerationAction) (CommentStatus, bool) {
	if c.Status != CommentStatusPending {
		return c.Status, false
	}
	switch action {
	case ModerationApprove:
		return CommentStatusApproved, true
	case ModerationReject:
		return CommentStatusRejected, true
	}
	return c.Status, false
}

// PostComment pairs a comment with the post it belongs to, for the
// moderation queue.
type PostComment struct {
	Comment
	PostID    string
	PostTitle string
}
