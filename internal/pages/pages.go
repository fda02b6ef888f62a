// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pages holds the informational part of the site: Markdown pages
// with YAML front matter grouped by section (product, solutions, resources,
// company, legal) and a site.yaml with navigation, pricing plans and
// contact details. Everything is embedded in the binary and parsed once at
// startup.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ecotrack/internal/markdown"
	"ecotrack/internal/models"
)

//go:embed content site.yaml
var embedded embed.FS

// Sections lists the catalog sections in navigation order.
var Sections = []string{"product", "solutions", "resources", "company", "legal"}

// frontMatter is the YAML header of a content file.
type frontMatter struct {
	Title      string `yaml:"title"`
	Summary    string `yaml:"summary"`
	Order      int    `yaml:"order"`
	ComingSoon bool   `yaml:"coming_soon"`
}

type entry struct {
	page  models.CompanyPage
	order int
}

// Catalog is the parsed, read-only set of informational pages.
type Catalog struct {
	pages map[string]*entry
	site  *Site
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return LoadFS(embedded)
}

// LoadFS parses a catalog from fsys, which must contain site.yaml and a
// content directory. A file content/<section>/<name>.md is served at
// /<section>/<name>; files directly under content are top-level pages.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	site, err := loadSite(fsys)
	if err != nil {
		return nil, err
	}

	c := &Catalog{pages: make(map[string]*entry), site: site}
	titleCaser := cases.Title(language.English)

	err = fs.WalkDir(fsys, "content", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		var fm frontMatter
		body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
		if err != nil {
			return fmt.Errorf("parse front matter %s: %w", p, err)
		}

		rendered, err := markdown.ToHTML(string(body))
		if err != nil {
			return fmt.Errorf("render %s: %w", p, err)
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(p, "content/"), ".md")
		section := ""
		if dir := path.Dir(rel); dir != "." {
			section = dir
		}

		title := strings.TrimSpace(fm.Title)
		if title == "" {
			name := strings.NewReplacer("-", " ", "_", " ").Replace(path.Base(rel))
			title = titleCaser.String(name)
		}

		c.pages[rel] = &entry{
			order: fm.Order,
			page: models.CompanyPage{
				Path:       rel,
				Section:    section,
				Title:      title,
				Summary:    strings.TrimSpace(fm.Summary),
				Body:       template.HTML(rendered),
				ComingSoon: fm.ComingSoon,
			},
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return c, nil
}

// Site returns the navigation, pricing and contact data.
func (c *Catalog) Site() *Site {
	return c.site
}

// Get returns the page served at p (for example "legal/privacy"). A leading
// or trailing slash is ignored.
func (c *Catalog) Get(p string) (*models.CompanyPage, bool) {
	e, ok := c.pages[strings.Trim(p, "/")]
	if !ok {
		return nil, false
	}
	page := e.page
	return &page, true
}

// Section returns the pages of one section ordered by their front matter
// order, then title.
func (c *Catalog) Section(section string) []models.CompanyPage {
	var list []*entry
	for _, e := range c.pages {
		if e.page.Section == section {
			list = append(list, e)
		}
	}
	return sorted(list)
}

// Search returns pages whose title or summary contains q, ignoring case.
// Coming-soon pages are included since their titles are still useful
// navigation targets.
func (c *Catalog) Search(q string) []models.CompanyPage {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var list []*entry
	for _, e := range c.pages {
		if strings.Contains(strings.ToLower(e.page.Title), q) ||
			strings.Contains(strings.ToLower(e.page.Summary), q) {
			list = append(list, e)
		}
	}
	return sorted(list)
}

// Len returns the number of pages in the catalog.
func (c *Catalog) Len() int {
	return len(c.pages)
}

func sorted(list []*entry) []models.CompanyPage {
	sort.Slice(list, func(i, j int) bool {
		if list[i].page.Section != list[j].page.Section {
			return list[i].page.Section < list[j].page.Section
		}
		if list[i].order != list[j].order {
			return list[i].order < list[j].order
		}
		return list[i].page.Title < list[j].page.Title
	})
	out := make([]models.CompanyPage, len(list))
	for i, e := range list {
		out[i] = e.page
	}
	return out
}
