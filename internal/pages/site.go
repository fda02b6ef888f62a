// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pages

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// Site is the structured content of site.yaml.
type Site struct {
	Name    string     `yaml:"name"`
	Tagline string     `yaml:"tagline"`
	Contact Contact    `yaml:"contact"`
	Nav     []NavGroup `yaml:"nav"`
	Footer  []NavGroup `yaml:"footer"`
	Plans   []Plan     `yaml:"plans"`
}

// Contact holds the company's public contact channels.
type Contact struct {
	Email   string   `yaml:"email"`
	Phone   string   `yaml:"phone"`
	Address []string `yaml:"address"`
	Hours   []Hours  `yaml:"hours"`
}

// Hours is one line of the business hours table.
type Hours struct {
	Days string `yaml:"days"`
	Time string `yaml:"time"`
}

// NavGroup is a titled list of links in the header or footer.
type NavGroup struct {
	Title string `yaml:"title"`
	Links []Link `yaml:"links"`
}

// Link is a single navigation entry.
type Link struct {
	Title string `yaml:"title"`
	Href  string `yaml:"href"`
}

// Plan is a pricing tier shown on /pricing.
type Plan struct {
	Name        string   `yaml:"name"`
	Price       string   `yaml:"price"`
	Period      string   `yaml:"period"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	CTA         string   `yaml:"cta"`
	CTAHref     string   `yaml:"cta_href"`
	Popular     bool     `yaml:"popular"`
}

func loadSite(fsys fs.FS) (*Site, error) {
	raw, err := fs.ReadFile(fsys, "site.yaml")
	if err != nil {
		return nil, fmt.Errorf("read site.yaml: %w", err)
	}

	var s Site
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse site.yaml: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("site.yaml: name is required")
	}
	return &s, nil
}
