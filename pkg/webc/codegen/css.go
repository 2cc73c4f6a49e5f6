package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/theme"
)

// ThemeCSS renders the theme as custom properties on :root. Keys are
// sorted within each group.
func ThemeCSS(t *theme.Theme) string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	if t != nil {
		writeVars(&sb, "color", t.Colors)
		writeVars(&sb, "font", t.Fonts)
		writeVars(&sb, "radius", t.Radius)
		writeVars(&sb, "breakpoint", t.Breakpoints)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func writeVars(sb *strings.Builder, prefix string, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, "  --%s-%s: %s;\n", prefix, k, values[k])
	}
}

// ComponentCSS renders every component's style rules, components in name
// order and rules in declaration order.
func ComponentCSS(components []*ast.Component) string {
	sorted := append([]*ast.Component(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	for _, c := range sorted {
		if len(c.Style) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "/* %s */\n", c.Name)
		for _, rule := range c.Style {
			fmt.Fprintf(&sb, "%s {\n", rule.Selector)
			for _, p := range rule.Properties {
				fmt.Fprintf(&sb, "  %s: %s;\n", p.Name, p.Value)
			}
			sb.WriteString("}\n")
		}
	}
	return sb.String()
}
