package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
)

const (
	// csrfTokenLength is the random byte count, hex encoded in the cookie.
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "ecotrack_csrf"

	// CSRFHeaderName carries the token on HTMX requests.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is the hidden input in plain HTML forms.
	CSRFFormField = "csrf_token"

	csrfKey contextKey = "csrf"

	// maxMemoryForm matches net/http's default for FormValue.
	maxMemoryForm = 32 << 20
)

// NewCSRF guards form posts with a double-submit cookie. Every request gets
// a token cookie (exposed to templates via CSRFTokenFromCtx); unsafe methods
// must echo it in the X-CSRF-Token header or the csrf_token form field.
// The JSON widget API is mounted outside this middleware.
func NewCSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ensureCSRFCookie(w, r, secure)
			if err != nil {
				slog.Error("csrf token generation failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfKey, token))

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if bodyTooLarge(r) {
					http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
					return
				}
				if !csrfTokenMatches(r, token) {
					slog.Warn("csrf token mismatch", "method", r.Method, "path", r.URL.Path)
					http.Error(w, "CSRF token mismatch", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ensureCSRFCookie returns the visitor's token, issuing a fresh cookie when
// none is present. The cookie stays readable by JavaScript so HTMX can copy
// it into request headers.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

func csrfTokenMatches(r *http.Request, token string) bool {
	submitted := r.Header.Get(CSRFHeaderName)
	if submitted == "" {
		submitted = r.FormValue(CSRFFormField)
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}

// bodyTooLarge parses the form and reports whether it hit a body cap set
// earlier in the chain (chi's RequestSize).
func bodyTooLarge(r *http.Request) bool {
	if r.Header.Get(CSRFHeaderName) != "" {
		return false
	}
	err := r.ParseMultipartForm(maxMemoryForm)
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// CSRFTokenFromCtx returns the request's CSRF token, or "" outside NewCSRF.
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}
