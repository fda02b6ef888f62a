// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookieName carries one-time messages across a redirect.
const FlashCookieName = "ecotrack_flash"

// maxFlashes caps how many queued messages survive in the cookie.
const maxFlashes = 5

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string `json:"t"` // "success", "error", "warning", "info"
	Message string `json:"m"`
}

// SetFlash queues a message for the next rendered page. Messages already
// queued in this request's cookie are kept.
func SetFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, Flash{Type: kind, Message: message})
	if len(flashes) > maxFlashes {
		flashes = flashes[len(flashes)-maxFlashes:]
	}

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HasFlash reports whether the request carries queued messages.
func HasFlash(r *http.Request) bool {
	c, err := r.Cookie(FlashCookieName)
	return err == nil && c.Value != ""
}

// PopFlashes returns the queued messages and clears the cookie.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	if !HasFlash(r) {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return readFlashes(r)
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(FlashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
