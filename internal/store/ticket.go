// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecotrack/internal/models"
)

// ticketsVersion is the current schema version of the supportTickets collection.
const ticketsVersion = 1

// TicketStore handles support tickets.
type TicketStore struct {
	tickets *Collection[models.SupportTicket]
	now     func() time.Time
}

// NewTicketStore creates a TicketStore on the given backend.
func NewTicketStore(backend Backend) *TicketStore {
	return &TicketStore{
		tickets: NewCollection[models.SupportTicket](backend, CollectionTickets, ticketsVersion,
			Migration{From: 0, Up: migrateTicketV0},
		),
		now: time.Now,
	}
}

// Submit stores a new ticket in the open state and returns it.
func (s *TicketStore) Submit(ctx context.Context, t models.SupportTicket) (*models.SupportTicket, error) {
	now := s.now()
	t.ID = uuid.NewString()
	t.Status = models.TicketStatusOpen
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Response = nil
	t.RespondedAt = nil
	if t.Source == "" {
		t.Source = models.TicketSourceContact
	}

	err := s.tickets.Update(ctx, func(tickets []models.SupportTicket) ([]models.SupportTicket, error) {
		return append(tickets, t), nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit ticket: %w", err)
	}
	return &t, nil
}

// List returns tickets newest first, optionally limited to one status
// ("" or "all" for every ticket).
func (s *TicketStore) List(ctx context.Context, status string) ([]models.SupportTicket, error) {
	tickets, err := s.tickets.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	var out []models.SupportTicket
	for _, t := range tickets {
		if status != "" && status != "all" && string(t.Status) != status {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Count returns the total number of stored tickets.
func (s *TicketStore) Count(ctx context.Context) (int, error) {
	tickets, err := s.tickets.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return len(tickets), nil
}

// FindByID retrieves a ticket by id. Returns nil if not found.
func (s *TicketStore) FindByID(ctx context.Context, id string) (*models.SupportTicket, error) {
	tickets, err := s.tickets.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, nil
}

// SetStatus moves a ticket one step along open → in_progress → closed.
// Skipping a step or moving backwards returns ErrInvalidTransition.
func (s *TicketStore) SetStatus(ctx context.Context, id string, target models.TicketStatus) (*models.SupportTicket, error) {
	var updated models.SupportTicket
	err := s.tickets.Update(ctx, func(tickets []models.SupportTicket) ([]models.SupportTicket, error) {
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			if !tickets[i].CanTransition(target) {
				return nil, ErrInvalidTransition
			}
			tickets[i].Status = target
			tickets[i].UpdatedAt = s.now()
			updated = tickets[i]
			return tickets, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("set ticket %s status: %w", id, err)
	}
	return &updated, nil
}

// Advance moves a ticket to the next status in its lifecycle.
func (s *TicketStore) Advance(ctx context.Context, id string) (*models.SupportTicket, error) {
	t, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("advance ticket %s: %w", id, ErrNotFound)
	}
	next, ok := t.NextStatus()
	if !ok {
		return nil, fmt.Errorf("advance ticket %s: %w", id, ErrInvalidTransition)
	}
	return s.SetStatus(ctx, id, next)
}

// Respond attaches an admin response and closes the ticket in one write.
func (s *TicketStore) Respond(ctx context.Context, id, response string) (*models.SupportTicket, error) {
	response = strings.TrimSpace(response)
	var updated models.SupportTicket
	err := s.tickets.Update(ctx, func(tickets []models.SupportTicket) ([]models.SupportTicket, error) {
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			if tickets[i].IsClosed() {
				return nil, ErrAlreadyClosed
			}
			now := s.now()
			tickets[i].Response = &response
			tickets[i].RespondedAt = &now
			tickets[i].Status = models.TicketStatusClosed
			tickets[i].UpdatedAt = now
			updated = tickets[i]
			return tickets, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("respond to ticket %s: %w", id, err)
	}
	return &updated, nil
}

// Stats counts tickets per status.
func (s *TicketStore) Stats(ctx context.Context) (models.TicketStats, error) {
	tickets, err := s.tickets.Get(ctx)
	if err != nil {
		return models.TicketStats{}, fmt.Errorf("ticket stats: %w", err)
	}
	return models.ComputeTicketStats(tickets), nil
}

// migrateTicketV0 upgrades tickets written by the browser contact form,
// which kept firstName and lastName separately and had no source or
// updatedAt.
func migrateTicketV0(rec map[string]any) error {
	rec["id"] = stringID(rec["id"])
	if _, ok := rec["name"]; !ok {
		first, _ := rec["firstName"].(string)
		last, _ := rec["lastName"].(string)
		rec["name"] = strings.TrimSpace(first + " " + last)
	}
	delete(rec, "firstName")
	delete(rec, "lastName")
	if src, _ := rec["source"].(string); src == "" {
		rec["source"] = string(models.TicketSourceContact)
	}
	if st, _ := rec["status"].(string); st == "" {
		rec["status"] = string(models.TicketStatusOpen)
	}
	if _, ok := rec["updatedAt"]; !ok {
		rec["updatedAt"] = rec["createdAt"]
	}
	return nil
}
