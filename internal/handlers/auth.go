package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"ecotrack/internal/auth"
	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/render"
	"ecotrack/internal/session"
	"ecotrack/internal/store"
)

// invalidLoginMessage is shown for every failed login, whatever the cause.
const invalidLoginMessage = "Invalid username or password."

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer      *render.Renderer
	sessions      *session.Store
	authenticator auth.Authenticator
	admins        *store.AdminStore
	issuer        string
}

// NewAuth creates a new Auth handler group. issuer names the site in
// authenticator apps.
func NewAuth(renderer *render.Renderer, sessions *session.Store, authenticator auth.Authenticator, admins *store.AdminStore, issuer string) *Auth {
	if issuer == "" {
		issuer = "EcoTrack"
	}
	return &Auth{
		renderer:      renderer,
		sessions:      sessions,
		authenticator: authenticator,
		admins:        admins,
		issuer:        issuer,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil {
		target := "/admin/dashboard"
		if sess.TOTPEnabled && !sess.TwoFADone {
			target = "/admin/2fa/verify"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
	})
}

// LoginSubmit checks the credentials and opens an admin session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	id, err := a.authenticator.Authenticate(r.Context(), username, password)
	if err != nil {
		msg := invalidLoginMessage
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
			msg = "An unexpected error occurred."
		} else {
			slog.Warn("login rejected", "username", username, "remote", r.RemoteAddr)
		}
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Sign In",
			Data: map[string]any{
				"Error":    msg,
				"Username": username,
			},
		})
		return
	}

	// Accounts without TOTP are fully signed in; the rest still owe a code.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		Authenticated: true,
		AdminID:       id.AdminID,
		Email:         id.Email,
		Name:          id.Name,
		Role:          string(id.Role),
		TOTPEnabled:   id.TOTPEnabled,
		TwoFADone:     !id.TOTPEnabled,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		serverError(w)
		return
	}

	slog.Info("admin signed in", "email", id.Email, "role", id.Role)
	if id.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// TwoFAVerifyPage renders the code entry form for accounts with TOTP enabled.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if !sess.TOTPEnabled || sess.TwoFADone {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes the sign in.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.admins.FindByID(r.Context(), sess.AdminID)
	if err != nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		serverError(w)
		return
	}
	if user == nil || user.TOTPSecret == nil || !user.TOTPEnabled {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	if !totp.Validate(strings.TrimSpace(r.FormValue("code")), *user.TOTPSecret) {
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": "Invalid code. Please try again."},
		})
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		serverError(w)
		return
	}

	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// TwoFASetupPage generates a new TOTP secret and displays its QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.AdminID == "" {
		render.SetFlash(w, r, "error", "Two-factor authentication needs a stored admin account.")
		http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
		return
	}
	if sess.TOTPEnabled {
		http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		serverError(w)
		return
	}

	if err := a.admins.SetTOTPSecret(r.Context(), sess.AdminID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		serverError(w)
		return
	}

	a.renderSetup(w, r, key.URL(), key.Secret(), "")
}

// TwoFASetupSubmit confirms enrolment with a first valid code.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.admins.FindByID(r.Context(), sess.AdminID)
	if err != nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		serverError(w)
		return
	}
	if user == nil || user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(strings.TrimSpace(r.FormValue("code")), *user.TOTPSecret) {
		a.renderSetup(w, r, a.keyURL(user), *user.TOTPSecret, "Invalid code. Please try again.")
		return
	}

	if err := a.admins.EnableTOTP(r.Context(), user.ID); err != nil {
		slog.Error("enable totp failed", "error", err)
		serverError(w)
		return
	}

	sess.TOTPEnabled = true
	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		serverError(w)
		return
	}

	slog.Info("2fa enabled", "email", user.Email)
	render.SetFlash(w, r, "success", "Two-factor authentication is now enabled.")
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

// TwoFADisable turns TOTP off for the current account.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	if err := a.admins.ResetTOTP(r.Context(), sess.AdminID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		slog.Error("reset totp failed", "error", err)
		serverError(w)
		return
	}

	sess.TOTPEnabled = false
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		serverError(w)
		return
	}

	slog.Info("2fa disabled", "email", sess.Email)
	render.SetFlash(w, r, "success", "Two-factor authentication has been turned off.")
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, keyURL, secret, errMsg string) {
	qrPNG, err := qrcode.Encode(keyURL, qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		serverError(w)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": secret,
			"Error":  errMsg,
		},
	})
}

// keyURL rebuilds the otpauth URL for a stored secret.
func (a *Auth) keyURL(u *models.AdminUser) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(a.issuer), url.PathEscape(u.Email), *u.TOTPSecret, url.QueryEscape(a.issuer))
}
