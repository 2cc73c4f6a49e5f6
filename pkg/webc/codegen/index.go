package codegen

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// PageLink is one entry of the generated page index.
type PageLink struct {
	Href  string
	Label string
}

// IndexPage returns a component listing links sorted by label.
func IndexPage(lang string, links []PageLink) templ.Component {
	sorted := append([]PageLink(nil), links...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString("<!DOCTYPE html>\n")
		fmt.Fprintf(&sb, "<html lang=\"%s\">\n<head>\n", templ.EscapeString(lang))
		sb.WriteString("  <meta charset=\"UTF-8\">\n")
		sb.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
		sb.WriteString("  <title>Index</title>\n")
		sb.WriteString("  <link rel=\"stylesheet\" href=\"theme.css\">\n")
		sb.WriteString("</head>\n<body>\n<h1>Pages</h1>\n<ul>\n")
		for _, l := range sorted {
			fmt.Fprintf(&sb, "  <li><a href=\"%s\">%s</a></li>\n", templ.EscapeString(l.Href), templ.EscapeString(l.Label))
		}
		sb.WriteString("</ul>\n<script src=\"webcore.js\"></script>\n</body>\n</html>\n")
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// RenderIndex renders IndexPage to a string.
func RenderIndex(ctx context.Context, lang string, links []PageLink) (string, error) {
	var sb strings.Builder
	if err := IndexPage(lang, links).Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
