package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ecotrack/internal/assistant"
	"ecotrack/internal/models"
)

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateTicket_ValidAddsOpenTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, _ := env.Tickets.Count(ctx)

	rec := httptest.NewRecorder()
	env.Support.CreateTicket(rec, jsonRequest("/api/tickets",
		`{"name":"Dana","email":"dana@example.com","subject":"Scope 3","message":"How do you handle supplier data?"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var got models.SupportTicket
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.Status != models.TicketStatusOpen || got.Source != models.TicketSourceChatbot {
		t.Errorf("ticket = %+v, want open chatbot ticket with id", got)
	}

	after, _ := env.Tickets.Count(ctx)
	if after != before+1 {
		t.Errorf("ticket count = %d, want %d", after, before+1)
	}
}

func TestCreateTicket_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"name":`, "Invalid request body."},
		{"unknown field", `{"name":"A","bogus":1}`, "Invalid request body."},
		{"missing name", `{"email":"a@b.co","subject":"s","message":"m"}`, "Name is required."},
		{"bad email", `{"name":"A","email":"nope","subject":"s","message":"m"}`, "Please enter a valid email address."},
		{"missing subject", `{"name":"A","email":"a@b.co","message":"m"}`, "Subject is required."},
		{"blank message", `{"name":"A","email":"a@b.co","subject":"s","message":"   "}`, "Message is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Support.CreateTicket(rec, jsonRequest("/api/tickets", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			json.NewDecoder(rec.Body).Decode(&resp)
			if resp["error"] != tt.want {
				t.Errorf("error = %q, want %q", resp["error"], tt.want)
			}
		})
	}

	if n, _ := env.Tickets.Count(context.Background()); n != 0 {
		t.Errorf("invalid tickets must not be stored, got %d", n)
	}
}

func TestChat_RepliesWithScriptedAnswer(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Support.Chat(rec, jsonRequest("/api/chat", `{"message":"How do I start?"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp chatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != assistant.DefaultReply {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestChat_RejectsEmptyAndOversizedMessages(t *testing.T) {
	env := newTestEnv(t)

	long, _ := json.Marshal(map[string]string{"message": strings.Repeat("a", assistant.MaxMessageLength+1)})
	for _, body := range []string{`{"message":""}`, `{"message":"  "}`, string(long)} {
		rec := httptest.NewRecorder()
		env.Support.Chat(rec, jsonRequest("/api/chat", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Error("expected a JSON error")
		}
	}
}

func TestChat_CancelledRequestWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.Support = NewSupport(env.Renderer, env.Tickets, assistant.NewScripted("", time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := jsonRequest("/api/chat", `{"message":"hello"}`).WithContext(ctx)

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		env.Support.Chat(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Chat did not return after cancellation")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("cancelled chat wrote %q", rec.Body.String())
	}
}

func TestContactSubmit_CreatesTicket(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"first_name": {"Lee"},
		"last_name":  {"Park"},
		"email":      {"lee@example.com"},
		"company":    {"Acme"},
		"subject":    {"Pricing"},
		"message":    {"Can we get a demo?"},
	}
	rec := httptest.NewRecorder()
	env.Support.ContactSubmit(rec, formRequest("/company/contact", form))

	assertRedirect(t, rec, "/company/contact")
	f := flashes(t, rec)
	if len(f) != 1 || !strings.HasPrefix(f[0].Message, "Support ticket submitted successfully!") {
		t.Errorf("flashes = %+v", f)
	}

	tickets, _ := env.Tickets.List(context.Background(), "")
	if len(tickets) != 1 {
		t.Fatalf("tickets = %d, want 1", len(tickets))
	}
	got := tickets[0]
	if got.Name != "Lee Park" || got.Company != "Acme" || got.Source != models.TicketSourceContact {
		t.Errorf("ticket = %+v", got)
	}
}

func TestContactSubmit_InvalidKeepsInput(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"first_name": {"Lee"},
		"email":      {"lee@example.com"},
		"message":    {"Kept message text"},
	}
	rec := httptest.NewRecorder()
	env.Support.ContactSubmit(rec, formRequest("/company/contact", form))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Subject is required.") {
		t.Error("expected the subject error")
	}
	if !strings.Contains(body, "Kept message text") {
		t.Error("form input should be kept")
	}
}

func TestContactPage(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.Support.ContactPage(rec, httptest.NewRequest(http.MethodGet, "/company/contact", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
