// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders a builder content tree into a standalone HTML
// preview page, styled by the block registry and the user's active theme.
package engine

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dndbuilder/internal/builder"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/markdown"
	"dndbuilder/internal/models"
	"dndbuilder/internal/registry"
)

// PageData holds the variables available to the preview layout.
type PageData struct {
	Title      string
	ThemeName  string
	ThemeVars  template.CSS
	BlockStyle template.CSS
	Body       template.HTML
}

var layout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
{{.ThemeVars}}
body { margin: 0; font-family: var(--font-body, sans-serif); color: var(--color-text, inherit); }
.drawer-block .drawer { display: none; }
{{.BlockStyle}}
</style>
</head>
<body{{if .ThemeName}} data-theme="{{.ThemeName}}"{{end}}>
{{.Body}}
</body>
</html>
`))

// Engine renders previews. It keeps an in-memory cache of theme variables.
type Engine struct {
	reg  *registry.Registry
	vars *varsCache
}

// New creates a preview engine backed by the given registry.
func New(reg *registry.Registry) *Engine {
	return &Engine{reg: reg, vars: newVarsCache()}
}

// InvalidateTheme drops every cached version of a theme's variables.
func (e *Engine) InvalidateTheme(id uuid.UUID) {
	e.vars.invalidate(id)
}

// RenderPage renders content as a complete HTML document. theme may be nil.
func (e *Engine) RenderPage(content *builder.Content, theme *models.Theme, title string) ([]byte, error) {
	css, err := e.reg.RenderCSS(content)
	if err != nil {
		return nil, err
	}

	var body strings.Builder
	e.renderBlock(&body, content, builder.RootID)

	data := PageData{
		Title:      title,
		ThemeVars:  template.CSS(e.themeVars(theme)),
		BlockStyle: template.CSS(css),
		Body:       template.HTML(body.String()),
	}
	if theme != nil {
		data.ThemeName = theme.Name
	}

	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute layout: %w", err)
	}
	return buf.Bytes(), nil
}

// StyleSheet returns the theme variables followed by the block styles.
func (e *Engine) StyleSheet(content *builder.Content, theme *models.Theme) (string, error) {
	css, err := e.reg.RenderCSS(content)
	if err != nil {
		return "", err
	}
	return e.themeVars(theme) + css, nil
}

func (e *Engine) themeVars(theme *models.Theme) string {
	if theme == nil {
		return ""
	}
	k := keyFor(theme.ID, theme.UpdatedAt)
	if css, ok := e.vars.get(k); ok {
		return css
	}
	css := ThemeVariables(theme.Settings)
	e.vars.put(k, css)
	return css
}

// ThemeVariables converts theme settings into CSS custom properties on
// :root. Colors become --color-<name>, typography families --font-<name>,
// and the desktop container width --container-width.
func ThemeVariables(settings map[string]any) string {
	var decls []string

	if colors, ok := settings["color"].(map[string]any); ok {
		for _, name := range slices.Sorted(maps.Keys(colors)) {
			if v, ok := cssValue(colors[name]); ok {
				decls = append(decls, fmt.Sprintf("--color-%s: %s;", name, v))
			}
		}
	}
	if typo, ok := settings["typography"].(map[string]any); ok {
		for _, name := range slices.Sorted(maps.Keys(typo)) {
			entry, _ := typo[name].(map[string]any)
			if v, ok := cssValue(entry["fontFamily"]); ok {
				decls = append(decls, fmt.Sprintf("--font-%s: %s;", name, v))
			}
		}
	}
	if lay, ok := settings["layout"].(map[string]any); ok {
		if width, ok := lay["containerWidth"].(map[string]any); ok {
			if n, ok := width["desktop"].(float64); ok {
				decls = append(decls, fmt.Sprintf("--container-width: %spx;", strconv.FormatFloat(n, 'f', -1, 64)))
			}
		}
	}

	if len(decls) == 0 {
		return ""
	}
	return ":root {\n  " + strings.Join(decls, "\n  ") + "\n}\n"
}

func cssValue(v any) (string, bool) {
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" || strings.ContainsAny(s, ";{}<>") {
		return "", false
	}
	return s, true
}

// renderBlock writes the HTML of a block and its children.
func (e *Engine) renderBlock(sb *strings.Builder, c *builder.Content, id string) {
	b, ok := c.Get(id)
	if !ok {
		return
	}
	if cfg, err := e.reg.Block(b.Type); err == nil {
		settings := make(map[string]any, len(cfg.Settings)+len(b.Settings))
		maps.Copy(settings, cfg.Settings)
		maps.Copy(settings, b.Settings)
		b.Settings = settings
	}
	children := func() {
		for _, child := range b.Children {
			e.renderBlock(sb, c, child)
		}
	}

	if b.ID == builder.RootID {
		sb.WriteString(`<main data-block-id="root">`)
		children()
		sb.WriteString(`</main>`)
		return
	}

	fmt.Fprintf(sb, `<div data-block-id="%s" data-block-type="%s">`, html.EscapeString(b.ID), html.EscapeString(b.Type))
	switch b.Type {
	case "heading":
		level := intSetting(b.Settings["level"], 2)
		if level < 1 || level > 6 {
			level = 2
		}
		fmt.Fprintf(sb, "<h%d>%s</h%d>", level, html.EscapeString(str(b.Settings["text"])), level)
	case "text":
		sb.WriteString(e.renderText(b))
	case "image":
		if src := safeURL(str(b.Settings["src"])); src != "" {
			fmt.Fprintf(sb, `<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(str(b.Settings["alt"])))
		}
	case "button":
		fmt.Fprintf(sb, `<a href="%s">%s</a>`, html.EscapeString(safeURL(str(b.Settings["href"]))), html.EscapeString(str(b.Settings["label"])))
	case "html":
		sb.WriteString(str(b.Settings["content"]))
	case "drawer":
		sb.WriteString(`<div class="drawer-block"><button type="button" class="drawer-trigger">`)
		sb.WriteString(html.EscapeString(drawerLabel(b.Settings)))
		sb.WriteString(`</button><div class="drawer"><div class="drawer-content">`)
		children()
		sb.WriteString(`</div></div></div>`)
	default:
		children()
	}
	sb.WriteString(`</div>`)
}

func (e *Engine) renderText(b builder.Block) string {
	content := str(b.Settings["content"])
	if str(b.Settings["format"]) != "markdown" {
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	out, err := markdown.ToHTMLStyled(content, str(b.Settings["codeStyle"]))
	if err != nil {
		logger.L().Warn("markdown conversion failed, using plain text",
			zap.String("block_id", b.ID), zap.Error(err))
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	return out
}

func drawerLabel(s map[string]any) string {
	text, _ := s["text"].(map[string]any)
	value, _ := text["value"].(map[string]any)
	if label := str(value["en"]); label != "" {
		return label
	}
	return "Menu"
}

// safeURL drops script URLs.
func safeURL(u string) string {
	u = strings.TrimSpace(u)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "vbscript:") || strings.HasPrefix(lower, "data:text") {
		return ""
	}
	return u
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func intSetting(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
