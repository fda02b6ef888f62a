// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin interface. Admin pages support full-page and HTMX partial
// rendering, automatically detecting the request type via the HX-Request
// header. Public pages can also be rendered to bytes for the page cache.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/pages"
	"ecotrack/internal/session"
)

//go:embed templates/admin/*.html templates/site/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active navigation section (e.g., "dashboard", "blog")
	Session   *session.Data  // Current admin session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
	Status    int            // HTTP status; zero means 200
}

// Renderer handles template parsing and execution.
type Renderer struct {
	admin    map[string]*template.Template
	public   map[string]*template.Template
	partials *template.Template
	funcMap  template.FuncMap
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Each page template is paired with its base layout. site
// feeds the public navigation, footer and contact details.
func New(devMode bool, site *pages.Site) (*Renderer, error) {
	if site == nil {
		site = &pages.Site{Name: "EcoTrack"}
	}
	r := &Renderer{
		admin:   make(map[string]*template.Template),
		public:  make(map[string]*template.Template),
		funcMap: funcs(devMode, site),
	}

	if err := r.parseSet("admin", r.admin, standaloneTemplates); err != nil {
		return nil, err
	}
	if err := r.parseSet("site", r.public, nil); err != nil {
		return nil, err
	}

	partials, err := template.New("partials.html").Funcs(r.funcMap).ParseFS(templateFS, "templates/site/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	r.partials = partials

	return r, nil
}

func funcs(devMode bool, site *pages.Site) template.FuncMap {
	return template.FuncMap{
		"activeClass": func(current, target string) string {
			if current == target {
				return "active"
			}
			return ""
		},
		// deref safely dereferences a string pointer for use in templates.
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		// isDev returns true when the app runs in development mode.
		"isDev": func() bool {
			return devMode
		},
		"site": func() *pages.Site {
			return site
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"timePtr": func(t *time.Time) time.Time {
			if t == nil {
				return time.Time{}
			}
			return *t
		},
		// statusLabel turns stored enum values like in_progress into words.
		"statusLabel": func(s any) string {
			v := strings.ReplaceAll(fmt.Sprint(s), "_", " ")
			if v == "" {
				return v
			}
			return strings.ToUpper(v[:1]) + v[1:]
		},
		"categories": func() []string {
			return models.Categories
		},
		"roles": func() []models.Role {
			return []models.Role{models.RoleAdmin, models.RoleEditor, models.RoleViewer}
		},
		"canEdit": func(sess *session.Data) bool {
			return sess != nil && models.Role(sess.Role).CanEdit()
		},
		"isAdmin": func(sess *session.Data) bool {
			return sess != nil && models.Role(sess.Role).IsAdmin()
		},
		"year": func() int {
			return time.Now().Year()
		},
	}
}

// parseSet parses templates/<dir>/*.html into dst keyed by file name
// without extension. Pages other than base.html and partials.html are
// paired with the layout unless listed in standalone.
func (rn *Renderer) parseSet(dir string, dst map[string]*template.Template, standalone map[string]bool) error {
	root := "templates/" + dir
	names, err := fs.Glob(templateFS, root+"/*.html")
	if err != nil {
		return fmt.Errorf("glob %s templates: %w", dir, err)
	}

	hasPartials := dir == "site"

	for _, file := range names {
		name := path.Base(file)
		if name == "base.html" || name == "partials.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		switch {
		case standalone[tmplName]:
			tmpl, parseErr = template.New(name).Funcs(rn.funcMap).ParseFS(templateFS, file)
		case hasPartials:
			tmpl, parseErr = template.New("base.html").Funcs(rn.funcMap).ParseFS(
				templateFS, root+"/base.html", root+"/partials.html", file,
			)
		default:
			tmpl, parseErr = template.New("base.html").Funcs(rn.funcMap).ParseFS(
				templateFS, root+"/base.html", file,
			)
		}
		if parseErr != nil {
			return fmt.Errorf("parse template %s/%s: %w", dir, name, parseErr)
		}
		dst[tmplName] = tmpl
	}
	return nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// For full page loads, the entire base layout is rendered.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	rn.prepare(w, r, data)

	execName := "base.html"
	switch {
	case isHTMX(r) && !standaloneTemplates[name]:
		execName = "content"
	case standaloneTemplates[name]:
		execName = name + ".html"
	}

	rn.write(w, tmpl, execName, data)
}

// Public renders a page of the public site.
func (rn *Renderer) Public(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.public[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	rn.prepare(w, r, data)
	rn.write(w, tmpl, "base.html", data)
}

// PublicHTML renders a public page to bytes for the page cache. Nothing
// request-scoped is injected (no CSRF token, flashes or session), so the
// result is the same for every visitor.
func (rn *Renderer) PublicHTML(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Fragment renders a named block from the shared partials, for embedding
// or caching a piece of a page.
func (rn *Renderer) Fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := rn.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render fragment %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// HasTemplate reports whether a page template with the given name exists
// in the admin or public set.
func (rn *Renderer) HasTemplate(name string) bool {
	_, admin := rn.admin[name]
	_, public := rn.public[name]
	return admin || public
}

// WriteHTML writes a pre-rendered page.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	w.Write(body)
}

// prepare injects request-scoped values: CSRF token, session and pending
// flash messages.
func (rn *Renderer) prepare(w http.ResponseWriter, r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	data.Flashes = append(data.Flashes, PopFlashes(w, r)...)
}

// write buffers the template output so a failing template produces a clean
// 500 instead of a half-written page.
func (rn *Renderer) write(w http.ResponseWriter, tmpl *template.Template, name string, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	WriteHTML(w, data.Status, buf.Bytes())
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
