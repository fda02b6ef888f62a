// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ecotrack/internal/models"
)

// adminsVersion is the current schema version of the adminUsers collection.
const adminsVersion = 1

// AdminStore handles admin accounts.
type AdminStore struct {
	admins *Collection[models.AdminUser]
	now    func() time.Time
}

// NewAdminStore creates an AdminStore on the given backend.
func NewAdminStore(backend Backend) *AdminStore {
	return &AdminStore{
		admins: NewCollection[models.AdminUser](backend, CollectionAdmins, adminsVersion,
			Migration{From: 0, Up: migrateAdminV0},
		),
		now: time.Now,
	}
}

// List returns all admin accounts in stored order. The main admin is
// always inserted first.
func (s *AdminStore) List(ctx context.Context) ([]models.AdminUser, error) {
	users, err := s.admins.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return users, nil
}

// FindByID retrieves an admin by id. Returns nil if not found.
func (s *AdminStore) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindByEmail retrieves an admin by email, ignoring case. Returns nil if
// not found.
func (s *AdminStore) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	for i := range users {
		if normalizeEmail(users[i].Email) == email {
			return &users[i], nil
		}
	}
	return nil, nil
}

// MainAdmin returns the sentinel main admin account. Returns nil if the
// collection has not been seeded yet.
func (s *AdminStore) MainAdmin(ctx context.Context) (*models.AdminUser, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].IsMainAdmin {
			return &users[i], nil
		}
	}
	return nil, nil
}

// EnsureMainAdmin creates the main admin if none exists and returns it.
// An existing main admin is returned untouched.
func (s *AdminStore) EnsureMainAdmin(ctx context.Context, email, name, password string) (*models.AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var main models.AdminUser
	err = s.admins.Update(ctx, func(users []models.AdminUser) ([]models.AdminUser, error) {
		for _, u := range users {
			if u.IsMainAdmin {
				main = u
				return users, nil
			}
		}
		main = models.AdminUser{
			ID:           uuid.NewString(),
			Email:        normalizeEmail(email),
			Name:         name,
			Role:         models.RoleAdmin,
			IsMainAdmin:  true,
			PasswordHash: string(hash),
			CreatedAt:    s.now(),
		}
		return append([]models.AdminUser{main}, users...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure main admin: %w", err)
	}
	return &main, nil
}

// Create adds a regular admin account with a bcrypt-hashed password.
// New accounts are never the main admin.
func (s *AdminStore) Create(ctx context.Context, email, password, name string, role models.Role) (*models.AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.AdminUser{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	err = s.admins.Update(ctx, func(users []models.AdminUser) ([]models.AdminUser, error) {
		if emailTaken(users, u.Email, "") {
			return nil, ErrDuplicateEmail
		}
		return append(users, u), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &u, nil
}

// Delete removes an admin account. The main admin and the acting user's
// own account are protected.
func (s *AdminStore) Delete(ctx context.Context, id, actorID string) error {
	err := s.admins.Update(ctx, func(users []models.AdminUser) ([]models.AdminUser, error) {
		for i := range users {
			if users[i].ID != id {
				continue
			}
			if users[i].IsMainAdmin {
				return nil, ErrMainAdmin
			}
			if id == actorID {
				return nil, ErrSelfDelete
			}
			return append(users[:i], users[i+1:]...), nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("delete admin %s: %w", id, err)
	}
	return nil
}

// UpdateProfile changes an account's display name and email.
func (s *AdminStore) UpdateProfile(ctx context.Context, id, name, email string) (*models.AdminUser, error) {
	email = normalizeEmail(email)
	var updated models.AdminUser
	err := s.admins.Update(ctx, func(users []models.AdminUser) ([]models.AdminUser, error) {
		if emailTaken(users, email, id) {
			return nil, ErrDuplicateEmail
		}
		for i := range users {
			if users[i].ID == id {
				users[i].Name = strings.TrimSpace(name)
				users[i].Email = email
				updated = users[i]
				return users, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}
	return &updated, nil
}

// SetPassword replaces an account's password hash.
func (s *AdminStore) SetPassword(ctx context.Context, id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.modify(ctx, id, "set password", func(u *models.AdminUser) {
		u.PasswordHash = string(hash)
	})
}

// SetTOTPSecret saves the TOTP secret for an account (during 2FA setup).
func (s *AdminStore) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return s.modify(ctx, id, "set totp secret", func(u *models.AdminUser) {
		u.TOTPSecret = &secret
	})
}

// EnableTOTP marks 2FA as active after a successful code verification.
func (s *AdminStore) EnableTOTP(ctx context.Context, id string) error {
	return s.modify(ctx, id, "enable totp", func(u *models.AdminUser) {
		u.TOTPEnabled = true
	})
}

// ResetTOTP clears the TOTP secret and disables 2FA.
func (s *AdminStore) ResetTOTP(ctx context.Context, id string) error {
	return s.modify(ctx, id, "reset totp", func(u *models.AdminUser) {
		u.TOTPSecret = nil
		u.TOTPEnabled = false
	})
}

// CheckPassword verifies a plaintext password against the stored hash.
func (s *AdminStore) CheckPassword(u *models.AdminUser, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Count returns the number of admin accounts.
func (s *AdminStore) Count(ctx context.Context) (int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (s *AdminStore) modify(ctx context.Context, id, op string, fn func(*models.AdminUser)) error {
	err := s.admins.Update(ctx, func(users []models.AdminUser) ([]models.AdminUser, error) {
		for i := range users {
			if users[i].ID == id {
				fn(&users[i])
				return users, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	return nil
}

func emailTaken(users []models.AdminUser, email, exceptID string) bool {
	for _, u := range users {
		if u.ID != exceptID && normalizeEmail(u.Email) == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// migrateAdminV0 upgrades accounts from the unversioned layout, where ids
// were timestamps and the role could be missing.
func migrateAdminV0(rec map[string]any) error {
	rec["id"] = stringID(rec["id"])
	if role, _ := rec["role"].(string); !models.Role(role).Valid() {
		rec["role"] = string(models.RoleViewer)
	}
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = time.Time{}.Format(time.RFC3339)
	}
	return nil
}
