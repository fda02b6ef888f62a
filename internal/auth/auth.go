// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth decides whether a username and password pair may enter the
// admin dashboard. Authenticators are pluggable: the configured demo pair,
// stored admin accounts, or a chain of both.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ecotrack/internal/models"
	"ecotrack/internal/store"
)

// ErrInvalidCredentials is returned for any username/password mismatch.
// Callers show one generic message whatever the cause.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Identity is the admin account a successful login resolves to.
type Identity struct {
	AdminID     string
	Email       string
	Name        string
	Role        models.Role
	TOTPEnabled bool
}

// Authenticator checks a credential pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// AccountSource is the subset of the admin store authenticators need.
type AccountSource interface {
	MainAdmin(ctx context.Context) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	CheckPassword(u *models.AdminUser, password string) bool
}

var _ AccountSource = (*store.AdminStore)(nil)

// Static accepts one configured username and password, compared in
// constant time, and resolves to the main admin account.
type Static struct {
	username string
	password string
	accounts AccountSource
}

// NewStatic creates a Static authenticator for the given pair.
func NewStatic(username, password string, accounts AccountSource) *Static {
	return &Static{username: username, password: password, accounts: accounts}
}

// Authenticate implements Authenticator.
func (s *Static) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK || s.username == "" {
		return nil, ErrInvalidCredentials
	}

	main, err := s.accounts.MainAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("static auth: %w", err)
	}
	if main == nil {
		return &Identity{Name: s.username, Role: models.RoleAdmin}, nil
	}
	return identityOf(main), nil
}

// dummyHash keeps the cost of a failed lookup close to a failed password check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ecotrack-timing-pad"), bcrypt.DefaultCost)

// Accounts authenticates against stored admin accounts by email and
// bcrypt password hash.
type Accounts struct {
	accounts AccountSource
}

// NewAccounts creates an account-backed authenticator.
func NewAccounts(accounts AccountSource) *Accounts {
	return &Accounts{accounts: accounts}
}

// Authenticate implements Authenticator.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	email := strings.TrimSpace(username)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account auth: %w", err)
	}
	if u == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if !a.accounts.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	return identityOf(u), nil
}

// Chain tries each authenticator in order and returns the first success.
// Errors other than ErrInvalidCredentials stop the chain.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	for _, a := range c {
		id, err := a.Authenticate(ctx, username, password)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
	}
	return nil, ErrInvalidCredentials
}

func identityOf(u *models.AdminUser) *Identity {
	return &Identity{
		AdminID:     u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		TOTPEnabled: u.TOTPEnabled && u.TOTPSecret != nil,
	}
}
