// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown turns authored text into HTML that is safe to embed in
// pages. Catalog pages are Markdown converted with goldmark; blog post
// bodies written in the admin editor are HTML cleaned with bluemonday.
package markdown

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// Catalog pages are compiled into the binary and may carry raw HTML
		// such as the "coming soon" banner.
		gmhtml.WithUnsafe(),
	),
)

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy

	strictPolicy = bluemonday.StrictPolicy()
)

// policy returns the policy applied to post bodies. It is the UGC policy
// plus the class attribute on code elements so highlighted blocks survive.
func policy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.AllowAttrs("class").OnElements("code", "pre", "span")
		ugcPolicy.RequireNoFollowOnLinks(true)
		ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return ugcPolicy
}

// ToHTML converts trusted Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Sanitize strips scripts, event handlers and other unsafe markup from
// editor-supplied HTML.
func Sanitize(rawHTML string) string {
	return strings.TrimSpace(policy().Sanitize(rawHTML))
}

// PlainText removes every tag and returns the readable text, with entities
// decoded and runs of whitespace collapsed.
func PlainText(rawHTML string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(rawHTML))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most n runes of the plain text of rawHTML, cut at a
// word boundary and followed by an ellipsis when shortened.
func Excerpt(rawHTML string, n int) string {
	text := PlainText(rawHTML)
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
