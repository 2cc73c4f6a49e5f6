package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sambeau/webcore/pkg/webc/ast"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// ContentSlot is the slot name a layout fills with page content.
const ContentSlot = "content"

// Events with a dedicated global dispatcher in the runtime.
var nativeEvents = map[string]bool{
	"click":  true,
	"submit": true,
	"change": true,
	"input":  true,
}

// resolver walks one page's layout and content. Its counter and handler
// table belong to a single generation call.
type resolver struct {
	doc      *ast.Document
	counter  int
	handlers []HandlerMapping
	stack    []string // components being inlined, outermost first
	markdown goldmark.Markdown
}

func newResolver(doc *ast.Document, seed int) *resolver {
	return &resolver{doc: doc, counter: seed}
}

// slotFill is the page content a layout's content slot expands to. Inside
// page content itself there is nothing to fill with.
type slotFill struct {
	content []ast.Element
	active  bool
}

func (r *resolver) renderLayout(sb *strings.Builder, layout, page []ast.Element) error {
	return r.renderAll(sb, layout, slotFill{content: page, active: true})
}

func (r *resolver) renderAll(sb *strings.Builder, elements []ast.Element, fill slotFill) error {
	for _, el := range elements {
		if err := r.render(sb, el, fill); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) render(sb *strings.Builder, el ast.Element, fill slotFill) error {
	switch n := el.(type) {
	case *ast.Text:
		sb.WriteString(Escape(n.Value))
	case *ast.Interpolation:
		writeInterpolation(sb, n.Expr)
	case *ast.Slot:
		if n.Name == ContentSlot && fill.active {
			// Page content is its own scope: components wrapping the slot
			// are not its ancestors.
			outer := r.stack
			r.stack = nil
			err := r.renderAll(sb, fill.content, slotFill{})
			r.stack = outer
			return err
		}
		fmt.Fprintf(sb, "<!-- Slot: %s -->", n.Name)
	case *ast.Tag:
		return r.renderTag(sb, n, fill)
	case *ast.ComponentRef:
		return r.renderComponent(sb, n, fill)
	default:
		return fmt.Errorf("codegen: unknown element type %T", el)
	}
	return nil
}

func (r *resolver) renderTag(sb *strings.Builder, tag *ast.Tag, fill slotFill) error {
	switch tag.Name {
	case "text":
		return r.renderAll(sb, tag.Children, fill)
	case "markdown":
		return r.renderMarkdown(sb, tag)
	}

	name := tag.Name
	if name == "link" {
		name = "a"
	}
	isLink := name == "a"

	sb.WriteString("<")
	sb.WriteString(name)
	href, hasTo := "", false
	for _, attr := range tag.Attributes {
		if isLink && attr.Name == "to" && attr.Value.Kind == ast.StringValue {
			href, hasTo = attr.Value.Str, true
			continue
		}
		r.writeAttribute(sb, attr)
	}
	if isLink {
		if hasTo {
			fmt.Fprintf(sb, " href=\"%s\"", Escape(href))
		} else if _, ok := ast.Lookup(tag.Attributes, "href"); !ok {
			sb.WriteString(" href=\"#\"")
		}
	}
	sb.WriteString(">")

	if err := r.renderAll(sb, tag.Children, fill); err != nil {
		return err
	}
	fmt.Fprintf(sb, "</%s>", name)
	return nil
}

func (r *resolver) renderComponent(sb *strings.Builder, ref *ast.ComponentRef, fill slotFill) error {
	component, ok := r.doc.Components[ref.Name]
	if !ok {
		// Unknown components render as a literal element.
		sb.WriteString("<")
		sb.WriteString(ref.Name)
		for _, attr := range ref.Attributes {
			r.writeAttribute(sb, attr)
		}
		sb.WriteString(">")
		if err := r.renderAll(sb, ref.Children, fill); err != nil {
			return err
		}
		fmt.Fprintf(sb, "</%s>", ref.Name)
		return nil
	}

	for i, name := range r.stack {
		if name == ref.Name {
			chain := append(append([]string{}, r.stack[i:]...), ref.Name)
			return webcerrors.New(webcerrors.CodeComponentCycle, map[string]any{"Chain": strings.Join(chain, " -> ")})
		}
	}

	r.stack = append(r.stack, ref.Name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()
	return r.renderAll(sb, component.View, fill)
}

func (r *resolver) writeAttribute(sb *strings.Builder, attr ast.Attribute) {
	switch attr.Value.Kind {
	case ast.StringValue:
		fmt.Fprintf(sb, " %s=\"%s\"", attr.Name, Escape(attr.Value.Str))
	case ast.BooleanValue:
		if attr.Value.Bool {
			sb.WriteString(" ")
			sb.WriteString(attr.Name)
		}
	case ast.ExpressionValue:
		event, ok := strings.CutPrefix(attr.Name, "on:")
		if !ok {
			// Non-event expressions have no static value yet.
			fmt.Fprintf(sb, " %s=\"{}\"", attr.Name)
			return
		}
		id := r.allocateHandler(event, attr.Value.Str)
		if nativeEvents[event] {
			fmt.Fprintf(sb, " id=\"%s\" on%s=\"webcore_handle_%s('%s')\"", id, event, event, id)
		} else {
			fmt.Fprintf(sb, " id=\"%s\" on%s=\"webcore_handle_event('%s','%s')\"", id, event, event, id)
		}
	}
}

func (r *resolver) allocateHandler(event, expr string) string {
	r.counter++
	id := fmt.Sprintf("btn%d", r.counter)
	r.handlers = append(r.handlers, HandlerMapping{ID: id, EventType: event, Expression: expr})
	return id
}

// writeInterpolation emits the reactive placeholder span. The legacy
// "prefix{name}suffix" form keeps its surrounding text.
func writeInterpolation(sb *strings.Builder, expr string) {
	start := strings.IndexByte(expr, '{')
	end := strings.IndexByte(expr, '}')
	if start >= 0 && end > start {
		sb.WriteString(Escape(expr[:start]))
		fmt.Fprintf(sb, "<span data-webcore-interpolation=\"%s\">0</span>", Escape(expr[start+1:end]))
		sb.WriteString(Escape(expr[end+1:]))
		return
	}
	fmt.Fprintf(sb, "<span data-webcore-interpolation=\"%s\">0</span>", Escape(expr))
}

// renderMarkdown renders the literal text of a markdown tag. Interpolations
// are kept as {name} text; the markdown is not reactive.
func (r *resolver) renderMarkdown(sb *strings.Builder, tag *ast.Tag) error {
	if r.markdown == nil {
		r.markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	}

	var src strings.Builder
	for _, child := range tag.Children {
		switch n := child.(type) {
		case *ast.Text:
			src.WriteString(n.Value)
		case *ast.Interpolation:
			src.WriteString("{" + n.Expr + "}")
		}
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src.String()), &buf); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	sb.WriteString(strings.TrimRight(buf.String(), "\n"))
	return nil
}
