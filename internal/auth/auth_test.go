// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"testing"

	"ecotrack/internal/models"
	"ecotrack/internal/store"
)

func seededAccounts(t *testing.T) (*store.AdminStore, *models.AdminUser) {
	t.Helper()
	admins := store.NewAdminStore(store.NewMemoryBackend())
	main, err := admins.EnsureMainAdmin(context.Background(), "admin@ecotrack.local", "Main Admin", "admin123")
	if err != nil {
		t.Fatalf("EnsureMainAdmin: %v", err)
	}
	return admins, main
}

// TestStatic verifies that only the exact demo pair is accepted.
func TestStatic(t *testing.T) {
	admins, main := seededAccounts(t)
	s := NewStatic("admin", "admin123", admins)

	tests := []struct {
		name     string
		username string
		password string
		wantOK   bool
	}{
		{"demo credentials", "admin", "admin123", true},
		{"wrong password", "admin", "admin124", false},
		{"wrong username", "root", "admin123", false},
		{"case differs", "Admin", "admin123", false},
		{"empty", "", "", false},
		{"trailing space", "admin ", "admin123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Authenticate: %v", err)
				}
				if id.AdminID != main.ID || id.Role != models.RoleAdmin {
					t.Errorf("identity: %+v, want main admin %s", id, main.ID)
				}
				return
			}
			if !errors.Is(err, ErrInvalidCredentials) || id != nil {
				t.Errorf("got (%+v, %v), want ErrInvalidCredentials", id, err)
			}
		})
	}
}

func TestStaticWithoutMainAdmin(t *testing.T) {
	s := NewStatic("admin", "admin123", store.NewAdminStore(store.NewMemoryBackend()))
	id, err := s.Authenticate(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Role != models.RoleAdmin || id.Name != "admin" {
		t.Errorf("fallback identity: %+v", id)
	}
}

func TestStaticEmptyConfigRejectsEverything(t *testing.T) {
	admins, _ := seededAccounts(t)
	s := NewStatic("", "", admins)
	if _, err := s.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty configured pair must never match, got %v", err)
	}
}

func TestAccounts(t *testing.T) {
	admins, _ := seededAccounts(t)
	ctx := context.Background()
	editor, err := admins.Create(ctx, "editor@ecotrack.local", "editor-pass", "Eddie", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a := NewAccounts(admins)

	id, err := a.Authenticate(ctx, " Editor@EcoTrack.local ", "editor-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.AdminID != editor.ID || id.Role != models.RoleEditor {
		t.Errorf("identity: %+v", id)
	}

	for _, tc := range []struct{ user, pass string }{
		{"editor@ecotrack.local", "wrong"},
		{"nobody@ecotrack.local", "editor-pass"},
		{"", "editor-pass"},
		{"editor@ecotrack.local", ""},
	} {
		if _, err := a.Authenticate(ctx, tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q): got %v, want ErrInvalidCredentials", tc.user, tc.pass, err)
		}
	}
}

func TestAccountsReportsTOTP(t *testing.T) {
	admins, main := seededAccounts(t)
	ctx := context.Background()
	admins.SetTOTPSecret(ctx, main.ID, "JBSWY3DPEHPK3PXP")
	admins.EnableTOTP(ctx, main.ID)

	id, err := NewAccounts(admins).Authenticate(ctx, "admin@ecotrack.local", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !id.TOTPEnabled {
		t.Error("identity should report TOTP enabled")
	}
}

type failingAuth struct{ err error }

func (f failingAuth) Authenticate(context.Context, string, string) (*Identity, error) {
	return nil, f.err
}

func TestChain(t *testing.T) {
	admins, main := seededAccounts(t)
	ctx := context.Background()
	chain := Chain{NewStatic("admin", "admin123", admins), NewAccounts(admins)}

	// Static pair.
	if id, err := chain.Authenticate(ctx, "admin", "admin123"); err != nil || id.AdminID != main.ID {
		t.Errorf("static via chain: %+v, %v", id, err)
	}
	// Account credentials fall through to the second authenticator.
	if id, err := chain.Authenticate(ctx, "admin@ecotrack.local", "admin123"); err != nil || id.AdminID != main.ID {
		t.Errorf("account via chain: %+v, %v", id, err)
	}
	if _, err := chain.Authenticate(ctx, "admin", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("mismatch via chain: %v", err)
	}

	boom := errors.New("backend down")
	broken := Chain{failingAuth{boom}, NewAccounts(admins)}
	if _, err := broken.Authenticate(ctx, "admin@ecotrack.local", "admin123"); !errors.Is(err, boom) {
		t.Errorf("infrastructure error should stop the chain, got %v", err)
	}

	if _, err := (Chain{}).Authenticate(ctx, "a", "b"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty chain: %v", err)
	}
}
