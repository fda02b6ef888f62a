// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a handler panic into a logged 500. Widget API callers get
// a JSON body, everyone else plain text. http.ErrAbortHandler is re-raised
// so net/http can abort the connection quietly.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.Error("handler panicked", "panic", rec, "method", r.Method,
				"path", r.URL.Path, "stack", string(debug.Stack()))
			writeServerError(w, r)
		}()

		next.ServeHTTP(w, r)
	})
}

func writeServerError(w http.ResponseWriter, r *http.Request) {
	const msg = "Internal Server Error"
	if !wantsJSON(r) {
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
