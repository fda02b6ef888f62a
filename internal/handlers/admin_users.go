// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/render"
	"ecotrack/internal/store"
)

// UsersList renders the admin account list.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	users, err := a.admins.List(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
	}

	a.renderer.Page(w, r, "users", &render.PageData{
		Title:   "Admin users",
		Section: "users",
		Data: map[string]any{
			"Users":     users,
			"CurrentID": sess.AdminID,
		},
	})
}

// UserNew renders the new account form.
func (a *Admin) UserNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "user_form", &render.PageData{
		Title:   "New admin user",
		Section: "users",
		Data:    map[string]any{"Role": string(models.RoleEditor)},
	})
}

// UserCreate handles the new account form submission.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	role := models.Role(r.FormValue("role"))
	password := r.FormValue("password")

	renderErr := func(msg string, status int) {
		a.renderer.Page(w, r, "user_form", &render.PageData{
			Title:   "New admin user",
			Section: "users",
			Status:  status,
			Data: map[string]any{
				"Error": msg,
				"Name":  name,
				"Email": email,
				"Role":  string(role),
			},
		})
	}

	if errMsg := validateAccount(name, email, password, r.FormValue("password_confirm"), role); errMsg != "" {
		renderErr(errMsg, http.StatusUnprocessableEntity)
		return
	}

	created, err := a.admins.Create(r.Context(), email, password, name, role)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			renderErr("A user with this email already exists.", http.StatusConflict)
			return
		}
		slog.Error("create user failed", "error", err)
		renderErr("Failed to create user.", http.StatusInternalServerError)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("user created", "admin", sess.Email, "new_user", created.Email, "role", created.Role)
	render.SetFlash(w, r, "success", "Admin user "+created.Email+" created.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// UserDelete removes an admin account. The main admin and the acting
// account cannot be deleted.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id := chi.URLParam(r, "id")

	err := a.admins.Delete(r.Context(), id, sess.AdminID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, store.ErrMainAdmin):
		render.SetFlash(w, r, "error", "The main admin account cannot be deleted.")
	case errors.Is(err, store.ErrSelfDelete):
		render.SetFlash(w, r, "error", "You cannot delete your own account.")
	case err != nil:
		slog.Error("delete user failed", "error", err, "user", id)
		serverError(w)
		return
	default:
		slog.Info("user deleted", "admin", sess.Email, "user", id)
		render.SetFlash(w, r, "success", "Admin user deleted.")
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// --- Profile ---

// Profile renders the current account's details, password form and 2FA
// status.
func (a *Admin) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	a.renderProfile(w, r, user, "", "", http.StatusOK)
}

// ProfileUpdate changes the current account's name and email.
func (a *Admin) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	form := *user
	form.Name, form.Email = name, email

	var errMsg string
	switch {
	case name == "":
		errMsg = "Name is required."
	case utf8.RuneCountInString(name) > maxNameLen:
		errMsg = "Name is too long (max 100 characters)."
	case !validEmail(email):
		errMsg = "Please enter a valid email address."
	}
	if errMsg != "" {
		a.renderProfile(w, r, &form, errMsg, "", http.StatusUnprocessableEntity)
		return
	}

	updated, err := a.admins.UpdateProfile(r.Context(), user.ID, name, email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			a.renderProfile(w, r, &form, "A user with this email already exists.", "", http.StatusConflict)
			return
		}
		slog.Error("update profile failed", "error", err, "user", user.ID)
		serverError(w)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	sess.Name = updated.Name
	sess.Email = updated.Email
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Warn("session refresh after profile update failed", "error", err)
	}

	render.SetFlash(w, r, "success", "Profile updated.")
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

// PasswordUpdate changes the current account's password after checking the
// current one.
func (a *Admin) PasswordUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	if !a.admins.CheckPassword(user, r.FormValue("current_password")) {
		a.renderProfile(w, r, user, "", "Current password is incorrect.", http.StatusUnprocessableEntity)
		return
	}

	password := r.FormValue("new_password")
	if errMsg := validatePassword(password, r.FormValue("confirm_password")); errMsg != "" {
		a.renderProfile(w, r, user, "", errMsg, http.StatusUnprocessableEntity)
		return
	}

	if err := a.admins.SetPassword(r.Context(), user.ID, password); err != nil {
		slog.Error("set password failed", "error", err, "user", user.ID)
		serverError(w)
		return
	}

	slog.Info("password changed", "user", user.Email)
	render.SetFlash(w, r, "success", "Password updated.")
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

// currentUser loads the stored account behind the session.
func (a *Admin) currentUser(w http.ResponseWriter, r *http.Request) (*models.AdminUser, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.admins.FindByID(r.Context(), sess.AdminID)
	if err != nil {
		slog.Error("find current user failed", "error", err)
		serverError(w)
		return nil, false
	}
	if user == nil {
		http.Error(w, "This session has no stored admin account.", http.StatusNotFound)
		return nil, false
	}
	return user, true
}

func (a *Admin) renderProfile(w http.ResponseWriter, r *http.Request, user *models.AdminUser, profileErr, passwordErr string, status int) {
	a.renderer.Page(w, r, "profile", &render.PageData{
		Title:   "Profile",
		Section: "profile",
		Status:  status,
		Data: map[string]any{
			"User":          user,
			"ProfileError":  profileErr,
			"PasswordError": passwordErr,
		},
	})
}
