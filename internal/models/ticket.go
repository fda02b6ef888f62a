// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketSource records which form created the ticket.
type TicketSource string

const (
	TicketSourceContact TicketSource = "contact"
	TicketSourceChatbot TicketSource = "chatbot"
)

// SupportTicket is a request submitted through the contact page or the
// chatbot widget.
type SupportTicket struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Company     string       `json:"company,omitempty"`
	Subject     string       `json:"subject"`
	Message     string       `json:"message"`
	Source      TicketSource `json:"source"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Response    *string      `json:"response,omitempty"`
	RespondedAt *time.Time   `json:"respondedAt,omitempty"`
}

// ticketFlow is the only forward path a ticket can take. There is no
// reopening.
var ticketFlow = map[TicketStatus]TicketStatus{
	TicketStatusOpen:       TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusClosed,
}

// NextStatus returns the status that follows the ticket's current one.
// ok is false for closed tickets.
func (t *SupportTicket) NextStatus() (TicketStatus, bool) {
	next, ok := ticketFlow[t.Status]
	return next, ok
}

// CanTransition reports whether moving to target is a legal single step.
func (t *SupportTicket) CanTransition(target TicketStatus) bool {
	next, ok := t.NextStatus()
	return ok && next == target
}

// IsClosed returns true once the ticket reached its terminal state.
func (t *SupportTicket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// TicketStats counts tickets per status for the dashboard.
type TicketStats struct {
	Open       int
	InProgress int
	Closed     int
}

// ComputeTicketStats counts tickets by status.
func ComputeTicketStats(tickets []SupportTicket) TicketStats {
	var s TicketStats
	for _, t := range tickets {
		switch t.Status {
		case TicketStatusOpen:
			s.Open++
		case TicketStatusInProgress:
			s.InProgress++
		case TicketStatusClosed:
			s.Closed++
		}
	}
	return s
}
