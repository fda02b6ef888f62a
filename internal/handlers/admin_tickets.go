package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"ecotrack/internal/models"
	"ecotrack/internal/render"
	"ecotrack/internal/store"
)

// ticketTabs are the accepted values of the ?status= filter.
var ticketTabs = map[string]bool{
	"all":                                 true,
	string(models.TicketStatusOpen):       true,
	string(models.TicketStatusInProgress): true,
	string(models.TicketStatusClosed):     true,
}

// TicketsList renders the support ticket queue, newest first.
func (a *Admin) TicketsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if !ticketTabs[status] {
		status = "all"
	}

	tickets, err := a.tickets.List(ctx, status)
	if err != nil {
		slog.Error("list tickets failed", "error", err)
	}
	stats, err := a.tickets.Stats(ctx)
	if err != nil {
		slog.Error("ticket stats failed", "error", err)
	}

	a.renderer.Page(w, r, "tickets", &render.PageData{
		Title:   "Support tickets",
		Section: "tickets",
		Data: map[string]any{
			"Tickets": tickets,
			"Stats":   stats,
			"Status":  status,
		},
	})
}

// TicketDetail renders one ticket with its response form.
func (a *Admin) TicketDetail(w http.ResponseWriter, r *http.Request) {
	t, ok := a.findTicket(w, r)
	if !ok {
		return
	}
	a.renderTicket(w, r, t, "", "", http.StatusOK)
}

// TicketAdvance moves a ticket one step along open, in progress, closed.
func (a *Admin) TicketAdvance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := a.tickets.Advance(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, store.ErrInvalidTransition):
		render.SetFlash(w, r, "error", "This ticket is already closed.")
	case err != nil:
		slog.Error("advance ticket failed", "error", err, "ticket", id)
		serverError(w)
		return
	default:
		slog.Info("ticket status changed", "ticket", id, "status", t.Status)
		render.SetFlash(w, r, "success", "Ticket marked as "+statusWords(t.Status)+".")
	}

	http.Redirect(w, r, "/admin/tickets/"+id, http.StatusSeeOther)
}

// TicketRespond stores an admin response and closes the ticket.
func (a *Admin) TicketRespond(w http.ResponseWriter, r *http.Request) {
	t, ok := a.findTicket(w, r)
	if !ok {
		return
	}

	response := strings.TrimSpace(r.FormValue("response"))
	switch {
	case response == "":
		a.renderTicket(w, r, t, "Please write a response.", response, http.StatusUnprocessableEntity)
		return
	case utf8.RuneCountInString(response) > maxResponseLen:
		a.renderTicket(w, r, t, "Response is too long (max 5,000 characters).", response, http.StatusUnprocessableEntity)
		return
	}

	_, err := a.tickets.Respond(r.Context(), t.ID, response)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, store.ErrAlreadyClosed):
		a.renderTicket(w, r, t, "This ticket is already closed.", response, http.StatusConflict)
		return
	case err != nil:
		slog.Error("respond to ticket failed", "error", err, "ticket", t.ID)
		serverError(w)
		return
	}

	slog.Info("ticket answered", "ticket", t.ID)
	render.SetFlash(w, r, "success", "Response sent and ticket closed.")
	http.Redirect(w, r, "/admin/tickets/"+t.ID, http.StatusSeeOther)
}

func (a *Admin) findTicket(w http.ResponseWriter, r *http.Request) (*models.SupportTicket, bool) {
	id := chi.URLParam(r, "id")
	t, err := a.tickets.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find ticket failed", "error", err, "ticket", id)
		serverError(w)
		return nil, false
	}
	if t == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return t, true
}

func (a *Admin) renderTicket(w http.ResponseWriter, r *http.Request, t *models.SupportTicket, errMsg, draft string, status int) {
	next, hasNext := t.NextStatus()
	a.renderer.Page(w, r, "ticket_detail", &render.PageData{
		Title:   t.Subject,
		Section: "tickets",
		Status:  status,
		Data: map[string]any{
			"Ticket":  t,
			"HasNext": hasNext,
			"Next":    next,
			"Error":   errMsg,
			"Draft":   draft,
		},
	})
}

func statusWords(s models.TicketStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
