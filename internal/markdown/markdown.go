// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders the Markdown body of text blocks. Raw HTML
// passes through, the same as the html block allows.
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultCodeStyle colors fenced code when a block names no style.
const DefaultCodeStyle = "monokai"

var (
	mu        sync.Mutex
	byStyle   = map[string]goldmark.Markdown{}
	converter = forStyle(DefaultCodeStyle)
)

// forStyle returns the converter for a chroma style, building it once.
func forStyle(style string) goldmark.Markdown {
	mu.Lock()
	defer mu.Unlock()
	if md, ok := byStyle[style]; ok {
		return md
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(highlighting.WithStyle(style)),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	byStyle[style] = md
	return md
}

// CodeStyle normalizes a style name, falling back to DefaultCodeStyle
// for names chroma does not know.
func CodeStyle(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := styles.Registry[name]; ok {
		return name
	}
	return DefaultCodeStyle
}

// ToHTML renders source with the default code style.
func ToHTML(source string) (string, error) {
	return render(converter, source)
}

// ToHTMLStyled renders source, coloring fenced code with codeStyle.
func ToHTMLStyled(source, codeStyle string) (string, error) {
	return render(forStyle(CodeStyle(codeStyle)), source)
}

func render(md goldmark.Markdown, source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
