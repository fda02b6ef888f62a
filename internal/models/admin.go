// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Role represents an admin user's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// IsAdmin reports whether the role may manage other accounts.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// CanEdit reports whether the role may change posts, comments and tickets.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// AdminUser is an account allowed into the admin dashboard. Exactly one
// record carries IsMainAdmin and it can never be deleted.
type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IsMainAdmin  bool      `json:"isMainAdmin"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	TOTPSecret   *string   `json:"totpSecret,omitempty"`
	TOTPEnabled  bool      `json:"totpEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin returns true if the user may manage other accounts.
func (u *AdminUser) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// CanEdit returns true if the user may change posts, comments and tickets.
func (u *AdminUser) CanEdit() bool {
	return u.Role.CanEdit()
}
