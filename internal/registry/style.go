package registry

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"dndbuilder/internal/builder"
)

// Rule is a set of CSS declarations for a selector relative to a block.
// An empty Selector targets the block itself; "&" in a Selector stands for
// the block; any other Selector matches descendants of the block.
//
// A declaration value may be a plain value or a responsive map keyed by
// breakpoint, e.g. {"desktop": 32, "mobile": 24}.
type Rule struct {
	Selector string
	Props    map[string]any
}

// StyleFunc derives a block's CSS rules from its settings.
type StyleFunc func(settings map[string]any) []Rule

// unitless lists numeric properties that are emitted without "px".
var unitless = map[string]bool{
	"opacity":     true,
	"z-index":     true,
	"font-weight": true,
	"line-height": true,
	"flex-grow":   true,
	"flex-shrink": true,
	"order":       true,
}

type declBlock struct {
	selector string
	decls    []string
}

// RenderCSS builds the stylesheet for a content tree. Each block's rules
// are scoped by its data-block-id attribute; responsive values are wrapped
// in the media query of their breakpoint. Unknown block types are errors.
func (r *Registry) RenderCSS(c *builder.Content) (string, error) {
	bps := r.Breakpoints()
	var base []declBlock
	media := map[string][]declBlock{}

	err := c.Walk(func(b builder.Block, _ int) error {
		cfg, err := r.Block(b.Type)
		if err != nil {
			return err
		}
		if cfg.Style == nil {
			return nil
		}
		settings := maps.Clone(cfg.Settings)
		if settings == nil {
			settings = map[string]any{}
		}
		maps.Copy(settings, b.Settings)

		scope := fmt.Sprintf(`[data-block-id="%s"]`, escapeAttr(b.ID))
		for _, rule := range cfg.Style(settings) {
			sel := scopeSelector(scope, rule.Selector)
			var plain []string
			perBP := map[string][]string{}

			for _, name := range slices.Sorted(maps.Keys(rule.Props)) {
				prop := kebab(name)
				v := rule.Props[name]
				if rv, ok := responsive(v, bps); ok {
					for key, bv := range rv {
						if s, ok := formatValue(prop, bv); ok {
							perBP[key] = append(perBP[key], prop+": "+s+";")
						}
					}
					continue
				}
				if s, ok := formatValue(prop, v); ok {
					plain = append(plain, prop+": "+s+";")
				}
			}

			if len(plain) > 0 {
				base = append(base, declBlock{sel, plain})
			}
			for key, decls := range perBP {
				media[key] = append(media[key], declBlock{sel, decls})
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("render css: %w", err)
	}

	var sb strings.Builder
	for _, db := range base {
		writeBlock(&sb, "", db)
	}
	for _, bp := range bps {
		blocks := media[bp.Key]
		if len(blocks) == 0 {
			continue
		}
		mq, _ := r.MediaQuery(bp.Key)
		sb.WriteString(mq + " {\n")
		for _, db := range blocks {
			writeBlock(&sb, "  ", db)
		}
		sb.WriteString("}\n")
	}
	return sb.String(), nil
}

func writeBlock(sb *strings.Builder, indent string, db declBlock) {
	sb.WriteString(indent + db.selector + " {\n")
	for _, d := range db.decls {
		sb.WriteString(indent + "  " + d + "\n")
	}
	sb.WriteString(indent + "}\n")
}

func scopeSelector(scope, sel string) string {
	switch {
	case sel == "":
		return scope
	case strings.Contains(sel, "&"):
		return strings.ReplaceAll(sel, "&", scope)
	default:
		return scope + " " + sel
	}
}

// responsive reports whether v is a map keyed only by breakpoint keys.
func responsive(v any, bps []Breakpoint) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !slices.ContainsFunc(bps, func(bp Breakpoint) bool { return bp.Key == k }) {
			return nil, false
		}
	}
	return m, true
}

// formatValue renders a declaration value. Values that could break out of
// the declaration are dropped.
func formatValue(prop string, v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
		if !unitless[prop] && t != 0 {
			s += "px"
		}
	case int:
		s = strconv.Itoa(t)
		if !unitless[prop] && t != 0 {
			s += "px"
		}
	case bool:
		return "", false
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, ";{}<>") {
		return "", false
	}
	return s, true
}

// kebab converts camelCase property names to CSS form.
func kebab(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func escapeAttr(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
