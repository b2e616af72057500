package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dndbuilder/internal/builder"
	"dndbuilder/internal/models"
	"dndbuilder/internal/registry"
)

func sampleContent(t *testing.T) *builder.Content {
	t.Helper()
	c := builder.NewContent()
	add := func(parent string, b builder.Block) string {
		id, err := c.Add(parent, b, -1)
		if err != nil {
			t.Fatalf("Add %s: %v", b.Type, err)
		}
		return id
	}
	box := add(builder.RootID, builder.Block{ID: "box", Type: "container"})
	add(box, builder.Block{ID: "title", Type: "heading", Settings: map[string]any{"text": "Hello <World>", "level": 1.0}})
	add(box, builder.Block{ID: "md", Type: "text", Settings: map[string]any{"content": "Some **bold** text", "format": "markdown"}})
	add(box, builder.Block{ID: "plain", Type: "text", Settings: map[string]any{"content": "<b>not bold</b>", "format": "plain"}})
	add(box, builder.Block{ID: "img", Type: "image", Settings: map[string]any{"src": "https://cdn.example.com/a.png", "alt": "A"}})
	add(box, builder.Block{ID: "cta", Type: "button", Settings: map[string]any{"label": "Buy", "href": "/buy"}})
	add(builder.RootID, builder.Block{ID: "raw", Type: "html", Settings: map[string]any{"content": "<marquee>hi</marquee>"}})
	drawer := add(builder.RootID, builder.Block{ID: "nav", Type: "drawer"})
	add(drawer, builder.Block{ID: "navtext", Type: "text", Settings: map[string]any{"content": "inside"}})
	return c
}

func sampleTheme() *models.Theme {
	return &models.Theme{
		ID:   uuid.New(),
		Name: "Ocean",
		Settings: map[string]any{
			"color":      map[string]any{"primary": "#2563eb", "text": "#0f172a", "evil": "red;}"},
			"typography": map[string]any{"body": map[string]any{"fontFamily": "Inter"}},
			"layout":     map[string]any{"containerWidth": map[string]any{"desktop": 1140.0}},
		},
		UpdatedAt: time.Now(),
	}
}

func TestRenderPage(t *testing.T) {
	e := New(registry.Default())

	out, err := e.RenderPage(sampleContent(t), sampleTheme(), "Preview")
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Preview</title>",
		`data-theme="Ocean"`,
		`<main data-block-id="root">`,
		"<h1>Hello &lt;World&gt;</h1>",
		"<strong>bold</strong>",
		"<p>&lt;b&gt;not bold&lt;/b&gt;</p>",
		`<img src="https://cdn.example.com/a.png" alt="A">`,
		`<a href="/buy">Buy</a>`,
		"<marquee>hi</marquee>",
		`<button type="button" class="drawer-trigger">Drawer</button>`,
		`<div class="drawer-content"><div data-block-id="navtext"`,
		"--color-primary: #2563eb;",
		"--font-body: Inter;",
		"--container-width: 1140px;",
		`[data-block-id="title"]`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "--color-evil") {
		t.Error("unsafe theme value should be dropped")
	}
}

func TestRenderPageWithoutTheme(t *testing.T) {
	e := New(registry.Default())
	out, err := e.RenderPage(builder.NewContent(), nil, "Empty")
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if strings.Contains(string(out), "data-theme") {
		t.Error("no theme attribute expected without a theme")
	}
	if !strings.Contains(string(out), `<main data-block-id="root"></main>`) {
		t.Errorf("unexpected body:\n%s", out)
	}
}

func TestRenderPageUnknownBlock(t *testing.T) {
	c := builder.NewContent()
	c.Add(builder.RootID, builder.Block{Type: "marquee"}, -1)

	if _, err := New(registry.Default()).RenderPage(c, nil, "x"); err == nil {
		t.Error("expected error for unregistered block type")
	}
}

func TestStyleSheet(t *testing.T) {
	e := New(registry.Default())
	css, err := e.StyleSheet(sampleContent(t), sampleTheme())
	if err != nil {
		t.Fatalf("StyleSheet: %v", err)
	}
	if !strings.HasPrefix(css, ":root {") {
		t.Errorf("theme variables should come first:\n%s", css)
	}
	if !strings.Contains(css, "@media (max-width: 767px) and (min-width: 0px)") {
		t.Error("expected responsive media query")
	}
}

func TestThemeVariablesCached(t *testing.T) {
	e := New(registry.Default())
	th := sampleTheme()

	first := e.themeVars(th)
	if _, ok := e.vars.get(keyFor(th.ID, th.UpdatedAt)); !ok {
		t.Fatal("expected variables to be cached")
	}

	th.Settings["color"] = map[string]any{"primary": "#000000"}
	if got := e.themeVars(th); got != first {
		t.Error("same theme version should be served from cache")
	}

	th.UpdatedAt = th.UpdatedAt.Add(time.Second)
	if got := e.themeVars(th); !strings.Contains(got, "#000000") {
		t.Errorf("a newer version should be re-rendered, got %q", got)
	}

	e.InvalidateTheme(th.ID)
	if _, ok := e.vars.get(keyFor(th.ID, th.UpdatedAt)); ok {
		t.Error("InvalidateTheme should drop cached entries")
	}
}

func TestThemeVariablesEmpty(t *testing.T) {
	if got := ThemeVariables(map[string]any{}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestVarsCacheBounded(t *testing.T) {
	c := newVarsCache()
	for i := 0; i < maxVarsEntries+5; i++ {
		c.put(keyFor(uuid.New(), time.Now()), "x")
	}
	if len(c.entries) > maxVarsEntries {
		t.Errorf("cache grew to %d entries", len(c.entries))
	}
}

func TestSafeURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com":  "https://example.com",
		"/relative":            "/relative",
		" JavaScript:alert(1)": "",
		"data:text/html,x":     "",
	}
	for in, want := range tests {
		if got := safeURL(in); got != want {
			t.Errorf("safeURL(%q): got %q, want %q", in, got, want)
		}
	}
}
