package models

import "testing"

// TestPostFilterMatch verifies that every active predicate must hold.
func TestPostFilterMatch(t *testing.T) {
	post := &BlogPost{
		Title:    "Sustainable Transportation Choices",
		Author:   "David Martinez",
		Status:   PostStatusPublished,
		Category: "Lifestyle",
	}

	tests := []struct {
		name   string
		filter PostFilter
		want   bool
	}{
		{name: "empty filter", filter: PostFilter{}, want: true},
		{name: "all sentinels", filter: PostFilter{Status: "all", Category: "all"}, want: true},
		{name: "title substring any case", filter: PostFilter{Query: "TRANSPORT"}, want: true},
		{name: "author substring", filter: PostFilter{Query: "martinez"}, want: true},
		{name: "query padded", filter: PostFilter{Query: "  david  "}, want: true},
		{name: "query misses", filter: PostFilter{Query: "solar"}, want: false},
		{name: "status match", filter: PostFilter{Status: "published"}, want: true},
		{name: "status mismatch", filter: PostFilter{Status: "draft"}, want: false},
		{name: "category match", filter: PostFilter{Category: "Lifestyle"}, want: true},
		{name: "category mismatch", filter: PostFilter{Category: "Tips"}, want: false},
		{name: "all three match", filter: PostFilter{Query: "choices", Status: "published", Category: "Lifestyle"}, want: true},
		{name: "one of three fails", filter: PostFilter{Query: "choices", Status: "published", Category: "Tips"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(post); got != tt.want {
				t.Errorf("%+v.Match() = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestIsCategory(t *testing.T) {
	for _, c := range Categories {
		if !IsCategory(c) {
			t.Errorf("IsCategory(%q) = false", c)
		}
	}
	for _, c := range []string{"", "general", "Politics"} {
		if IsCategory(c) {
			t.Errorf("IsCategory(%q) = true", c)
		}
	}
	if !IsCategory(DefaultCategory) {
		t.Error("default category must be a known category")
	}
}

// TestCommentModerate verifies the pending → {approved, rejected} machine.
func TestCommentModerate(t *testing.T) {
	tests := []struct {
		from   CommentStatus
		action ModerationAction
		want   CommentStatus
		ok     bool
	}{
		{CommentStatusPending, ModerationApprove, CommentStatusApproved, true},
		{CommentStatusPending, ModerationReject, CommentStatusRejected, true},
		{CommentStatusPending, ModerationDelete, CommentStatusPending, false},
		{CommentStatusApproved, ModerationReject, CommentStatusApproved, false},
		{CommentStatusRejected, ModerationApprove, CommentStatusRejected, false},
		{CommentStatusPending, ModerationAction("bogus"), CommentStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			c := &Comment{Status: tt.from}
			got, ok := c.Moderate(tt.action)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Moderate(%q) = (%q, %v), want (%q, %v)", tt.action, got, ok, tt.want, tt.ok)
			}
			if c.Status != tt.from {
				t.Error("Moderate must not mutate the comment")
			}
		})
	}
}

func TestApprovedComments(t *testing.T) {
	p := &BlogPost{Comments: []Comment{
		{ID: "1", Status: CommentStatusApproved},
		{ID: "2", Status: CommentStatusPending},
		{ID: "3", Status: CommentStatusRejected},
		{ID: "4", Status: CommentStatusApproved},
	}}
	got := p.ApprovedComments()
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("ApprovedComments() = %+v", got)
	}
	if p.CommentIndex("3") != 2 || p.CommentIndex("x") != -1 {
		t.Error("CommentIndex mismatch")
	}
}

// TestTicketTransitions verifies open → in_progress → closed with no
// skipping and no reopening.
func TestTicketTransitions(t *testing.T) {
	tests := []struct {
		from   TicketStatus
		target TicketStatus
		want   bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusInProgress, TicketStatusClosed, true},
		{TicketStatusOpen, TicketStatusClosed, false},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusInProgress, false},
		{TicketStatusOpen, TicketStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.target), func(t *testing.T) {
			tk := &SupportTicket{Status: tt.from}
			if got := tk.CanTransition(tt.target); got != tt.want {
				t.Errorf("CanTransition = %v, want %v", got, tt.want)
			}
		})
	}

	closed := &SupportTicket{Status: TicketStatusClosed}
	if _, ok := closed.NextStatus(); ok {
		t.Error("closed tickets have no next status")
	}
}

func TestComputeStats(t *testing.T) {
	posts := []BlogPost{
		{Status: PostStatusPublished, Comments: []Comment{{Status: CommentStatusPending}, {Status: CommentStatusRejected}}},
		{Status: PostStatusDraft},
		{Status: PostStatusPublished, Comments: []Comment{{Status: CommentStatusApproved}}},
	}
	ps := ComputePostStats(posts)
	want := PostStats{TotalPosts: 3, PublishedPosts: 2, DraftPosts: 1, TotalComments: 3, PendingComments: 1, ApprovedComments: 1, RejectedComments: 1}
	if ps != want {
		t.Errorf("ComputePostStats = %+v, want %+v", ps, want)
	}

	ts := ComputeTicketStats([]SupportTicket{
		{Status: TicketStatusOpen}, {Status: TicketStatusOpen}, {Status: TicketStatusClosed},
	})
	if ts != (TicketStats{Open: 2, Closed: 1}) {
		t.Errorf("ComputeTicketStats = %+v", ts)
	}
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role           Role
		admin, canEdit bool
	}{
		{RoleAdmin, true, true},
		{RoleEditor, false, true},
		{RoleViewer, false, false},
		{Role(""), false, false},
	}
	for _, tt := range tests {
		u := &AdminUser{Role: tt.role}
		if u.IsAdmin() != tt.admin || u.CanEdit() != tt.canEdit {
			t.Errorf("role %q: IsAdmin=%v CanEdit=%v", tt.role, u.IsAdmin(), u.CanEdit())
		}
	}
	if Role("owner").Valid() {
		t.Error("unknown role should be invalid")
	}
}
