package registry

import (
	"fmt"
	"sync"
)

// Block groups shown in the editor's block picker.
const (
	GroupLayout   = "layout"
	GroupBasic    = "basic"
	GroupAdvanced = "advanced"
)

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the built-in blocks and
// breakpoints. It is built on first use and must not be modified.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := New()
		r.MustRegister(builtinBlocks()...)
		if err := r.RegisterBreakpoint(DefaultBreakpoints()...); err != nil {
			panic(err)
		}
		r.SetGroupsOrder(GroupLayout, GroupBasic, GroupAdvanced)
		defaultReg = r
	})
	return defaultReg
}

// DefaultBreakpoints returns the built-in viewport ranges.
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Key: "desktop", Label: "Desktop", MinWidth: 1025, MaxWidth: 99999},
		{Key: "tablet", Label: "Tablet", MinWidth: 768, MaxWidth: 1024},
		{Key: "mobile", Label: "Mobile", MinWidth: 0, MaxWidth: 767},
	}
}

func builtinBlocks() []BlockConfig {
	return []BlockConfig{
		{
			Type:     "root",
			Label:    "Page",
			Icon:     "file-outlined",
			Settings: map[string]any{"backgroundColor": "var(--color-background)"},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Props: map[string]any{"backgroundColor": s["backgroundColor"]}}}
			},
			Controls: []Control{{Label: "Style", Component: "root-style"}},
		},
		{
			Type:  "container",
			Label: "Container",
			Icon:  "border-outer-outlined",
			Group: GroupLayout,
			Settings: map[string]any{
				"direction": map[string]any{"desktop": "column"},
				"gap":       map[string]any{"desktop": 16},
				"padding":   map[string]any{"desktop": 16, "mobile": 8},
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Props: map[string]any{
					"display":         "flex",
					"flexDirection":   s["direction"],
					"gap":             s["gap"],
					"padding":         s["padding"],
					"backgroundColor": s["backgroundColor"],
				}}}
			},
			Controls: []Control{
				{Label: "Layout", Component: "container-layout"},
				{Label: "Style", Component: "container-style"},
			},
		},
		{
			Type:  "heading",
			Label: "Heading",
			Icon:  "font-size-outlined",
			Group: GroupBasic,
			Settings: map[string]any{
				"text":     "Heading",
				"level":    2,
				"fontSize": map[string]any{"desktop": 32, "tablet": 28, "mobile": 24},
				"align":    map[string]any{"desktop": "left"},
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Props: map[string]any{
					"fontSize":   s["fontSize"],
					"textAlign":  s["align"],
					"color":      s["color"],
					"fontFamily": "var(--font-heading)",
				}}}
			},
			Controls: []Control{
				{Label: "Content", Component: "heading-content"},
				{Label: "Style", Component: "typography-style"},
			},
		},
		{
			Type:  "text",
			Label: "Text",
			Icon:  "align-left-outlined",
			Group: GroupBasic,
			Settings: map[string]any{
				"content":  "Write something **bold**.",
				"format":   "markdown",
				"fontSize": map[string]any{"desktop": 16, "mobile": 14},
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Props: map[string]any{
					"fontSize":   s["fontSize"],
					"textAlign":  s["align"],
					"color":      s["color"],
					"lineHeight": s["lineHeight"],
				}}}
			},
			Controls: []Control{
				{Label: "Content", Component: "text-content"},
				{Label: "Style", Component: "typography-style"},
			},
		},
		{
			Type:  "image",
			Label: "Image",
			Icon:  "picture-outlined",
			Group: GroupBasic,
			Settings: map[string]any{
				"src":   "",
				"alt":   "",
				"width": map[string]any{"desktop": "100%"},
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Selector: "img", Props: map[string]any{
					"width":        s["width"],
					"borderRadius": s["borderRadius"],
					"objectFit":    s["objectFit"],
				}}}
			},
			Controls: []Control{
				{Label: "Content", Component: "image-content"},
				{Label: "Style", Component: "image-style"},
			},
		},
		{
			Type:  "button",
			Label: "Button",
			Icon:  "select-outlined",
			Group: GroupBasic,
			Settings: map[string]any{
				"label":           "Click me",
				"href":            "#",
				"backgroundColor": "var(--color-primary)",
				"textColor":       "#ffffff",
				"padding":         "8px 16px",
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Selector: "a", Props: map[string]any{
					"display":         "inline-block",
					"backgroundColor": s["backgroundColor"],
					"color":           s["textColor"],
					"padding":         s["padding"],
					"borderRadius":    s["borderRadius"],
				}}}
			},
			Controls: []Control{
				{Label: "Content", Component: "button-content"},
				{Label: "Style", Component: "button-style"},
			},
		},
		{
			Type:     "html",
			Label:    "HTML",
			Icon:     "code-outlined",
			Group:    GroupAdvanced,
			Settings: map[string]any{},
			Controls: []Control{{Label: "Content", Component: "html-content"}},
		},
		{
			Type:  "drawer",
			Label: "Drawer",
			Icon:  "sidebar-collapse",
			Group: GroupBasic,
			Settings: map[string]any{
				"direction": map[string]any{"desktop": "left"},
				"trigger":   map[string]any{"desktop": "icon"},
				"icon": map[string]any{
					"iconSet":  "ant-design",
					"iconName": "menu-outlined",
					"size":     map[string]any{"desktop": 25},
				},
				"text":         map[string]any{"value": map[string]any{"en": "Drawer"}},
				"overlayColor": "rgba(0, 0, 0, 0.4)",
				"boxShadow": map[string]any{
					"color":      "rgba(0, 0, 0, 0.1)",
					"horizontal": 0,
					"vertical":   0,
					"blur":       10,
					"spread":     5,
				},
			},
			Style: func(s map[string]any) []Rule {
				return []Rule{{Selector: "& .drawer-block .drawer .drawer-content", Props: map[string]any{
					"backgroundColor": s["backgroundColor"],
					"color":           s["textColor"],
					"boxShadow":       boxShadow(s["boxShadow"]),
				}}}
			},
			Controls: []Control{
				{Label: "Content", Component: "drawer-content"},
				{Label: "Style", Component: "drawer-style"},
			},
		},
	}
}

// boxShadow renders a {color, horizontal, vertical, blur, spread} setting.
func boxShadow(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	px := func(k string) string {
		switch n := m[k].(type) {
		case float64:
			return fmt.Sprintf("%gpx", n)
		case int:
			return fmt.Sprintf("%dpx", n)
		default:
			return "0px"
		}
	}
	color, _ := m["color"].(string)
	return fmt.Sprintf("%s %s %s %s %s", px("horizontal"), px("vertical"), px("blur"), px("spread"), color)
}
