// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"ecotrack/internal/assistant"
	"ecotrack/internal/models"
	"ecotrack/internal/render"
	"ecotrack/internal/store"
)

// maxJSONBody caps request bodies on the widget API.
const maxJSONBody = 64 << 10

// Support groups the contact form and the chatbot widget API. Both create
// tickets through the same store contract.
type Support struct {
	renderer  *render.Renderer
	tickets   *store.TicketStore
	responder assistant.Responder
}

// NewSupport creates a new Support handler group.
func NewSupport(renderer *render.Renderer, tickets *store.TicketStore, responder assistant.Responder) *Support {
	return &Support{
		renderer:  renderer,
		tickets:   tickets,
		responder: responder,
	}
}

// contactForm holds the submitted contact form so it can be re-rendered.
type contactForm struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
	Subject   string
	Message   string
}

func (f contactForm) ticket() models.SupportTicket {
	return models.SupportTicket{
		Name:    strings.TrimSpace(f.FirstName + " " + f.LastName),
		Email:   f.Email,
		Company: f.Company,
		Subject: f.Subject,
		Message: f.Message,
		Source:  models.TicketSourceContact,
	}
}

// ContactPage renders the contact form.
func (s *Support) ContactPage(w http.ResponseWriter, r *http.Request) {
	s.renderContact(w, r, contactForm{}, "", http.StatusOK)
}

// ContactSubmit turns the contact form into an open support ticket.
func (s *Support) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	form := contactForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Company:   strings.TrimSpace(r.FormValue("company")),
		Subject:   strings.TrimSpace(r.FormValue("subject")),
		Message:   strings.TrimSpace(r.FormValue("message")),
	}

	t := form.ticket()
	if errMsg := validateTicket(&t); errMsg != "" {
		s.renderContact(w, r, form, errMsg, http.StatusUnprocessableEntity)
		return
	}

	created, err := s.tickets.Submit(r.Context(), t)
	if err != nil {
		slog.Error("submit ticket failed", "error", err, "source", t.Source)
		s.renderContact(w, r, form, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	slog.Info("support ticket submitted", "ticket", created.ID, "source", created.Source)
	render.SetFlash(w, r, "success", "Support ticket submitted successfully! We'll get back to you soon.")
	http.Redirect(w, r, "/company/contact", http.StatusSeeOther)
}

func (s *Support) renderContact(w http.ResponseWriter, r *http.Request, form contactForm, errMsg string, status int) {
	s.renderer.Public(w, r, "contact", &render.PageData{
		Title:   "Contact us",
		Section: "company",
		Status:  status,
		Data: map[string]any{
			"Form":  form,
			"Error": errMsg,
		},
	})
}

// ticketRequest is the JSON body of POST /api/tickets.
type ticketRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CreateTicket accepts a ticket from the chatbot widget and returns it
// with status 201.
func (s *Support) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	t := models.SupportTicket{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Company: strings.TrimSpace(req.Company),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Source:  models.TicketSourceChatbot,
	}
	if errMsg := validateTicket(&t); errMsg != "" {
		writeJSONError(w, http.StatusBadRequest, errMsg)
		return
	}

	created, err := s.tickets.Submit(r.Context(), t)
	if err != nil {
		slog.Error("submit ticket failed", "error", err, "source", t.Source)
		writeJSONError(w, http.StatusInternalServerError, "Failed to submit ticket.")
		return
	}

	slog.Info("support ticket submitted", "ticket", created.ID, "source", created.Source)
	writeJSON(w, http.StatusCreated, created)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat answers one chatbot message. The responder may take a while; a
// client that goes away cancels the wait.
func (s *Support) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := assistant.Validate(req.Message); err != nil {
		msg := "Please type a message."
		if errors.Is(err, assistant.ErrMessageTooLong) {
			msg = "Your message is too long."
		}
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	reply, err := s.responder.Reply(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Debug("chat request abandoned", "responder", s.responder.Name())
			return
		}
		slog.Error("chat reply failed", "error", err, "responder", s.responder.Name())
		writeJSONError(w, http.StatusInternalServerError, "The assistant is unavailable right now.")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// decodeJSON reads a single JSON object from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
