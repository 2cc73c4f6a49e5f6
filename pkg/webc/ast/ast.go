// Package ast defines the syntax tree produced by the .webc parser.
package ast

import (
	"sort"
	"strings"
)

// Document is the merged result of parsing one or more .webc files.
// It is built once per build and treated as read-only afterwards.
type Document struct {
	App        *App
	Layouts    map[string]*Layout
	Pages      map[string]*Page
	Components map[string]*Component
}

// NewDocument returns an empty document with initialized maps.
func NewDocument() *Document {
	return &Document{
		Layouts:    map[string]*Layout{},
		Pages:      map[string]*Page{},
		Components: map[string]*Component{},
	}
}

// Merge copies every definition from other into d. Later definitions win:
// a name already present in d is replaced, and other's App (when set)
// replaces d's. The replaced definitions are returned as "kind name"
// strings, sorted, so callers can report them.
func (d *Document) Merge(other *Document) []string {
	if other == nil {
		return nil
	}
	var replaced []string
	if other.App != nil {
		if d.App != nil {
			replaced = append(replaced, "app "+d.App.Name)
		}
		d.App = other.App
	}
	for name, l := range other.Layouts {
		if _, ok := d.Layouts[name]; ok {
			replaced = append(replaced, "layout "+name)
		}
		d.Layouts[name] = l
	}
	for name, p := range other.Pages {
		if _, ok := d.Pages[name]; ok {
			replaced = append(replaced, "page "+name)
		}
		d.Pages[name] = p
	}
	for name, c := range other.Components {
		if _, ok := d.Components[name]; ok {
			replaced = append(replaced, "component "+name)
		}
		d.Components[name] = c
	}
	sort.Strings(replaced)
	return replaced
}

// PageNames returns the declared page names in sorted order.
func (d *Document) PageNames() []string {
	return sortedKeys(d.Pages)
}

// ComponentNames returns the declared component names in sorted order.
func (d *Document) ComponentNames() []string {
	return sortedKeys(d.Components)
}

// LayoutNames returns the declared layout names in sorted order.
func (d *Document) LayoutNames() []string {
	return sortedKeys(d.Layouts)
}

// StateNames returns the names of every state variable declared by any
// component, sorted and without duplicates.
func (d *Document) StateNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, c := range d.Components {
		for _, s := range c.State {
			if !seen[s.Name] {
				seen[s.Name] = true
				names = append(names, s.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// App holds application metadata. None of it is required for generation.
type App struct {
	Name   string
	Theme  string            // optional theme name
	Layout string            // optional default layout name
	Routes map[string]string // path -> component name
}

// Layout is a named page shell containing a content slot.
type Layout struct {
	Name    string
	Content []Element
}

// Page is a named page body.
type Page struct {
	Name    string
	Content []Element
}

// Component is a reusable unit with props, state, a view and styles.
type Component struct {
	Name  string
	Props []Prop
	State []StateVar
	View  []Element
	Style []StyleRule
}

// IsPage reports whether the component should be emitted as its own page.
func (c *Component) IsPage() bool {
	return strings.HasSuffix(c.Name, "Page")
}

// Prop declares a component input. Type is empty when not given.
type Prop struct {
	Name string
	Type string
}

// StateVar declares a reactive variable. Default is nil when not given;
// it holds the literal source text of a number or string.
type StateVar struct {
	Name    string
	Type    string
	Default *string
}

// StyleRule is one `selector { name: value ... }` block.
type StyleRule struct {
	Selector   string
	Properties []StyleProperty
}

// StyleProperty is one declaration inside a StyleRule.
type StyleProperty struct {
	Name  string
	Value string
}

// Element is a node in a view, layout or page tree.
type Element interface {
	element()
}

// Text is literal text content.
type Text struct {
	Value string
}

// Tag is a lowercase-named HTML element.
type Tag struct {
	Name       string
	Attributes []Attribute
	Children   []Element
}

// Slot is an insertion point inside a layout.
type Slot struct {
	Name string
}

// ComponentRef references a component by name; it is resolved at
// generation time and rendered as a literal tag when no such component exists.
type ComponentRef struct {
	Name       string
	Attributes []Attribute
	Children   []Element
}

// Interpolation is a reactive `{name}` placeholder.
type Interpolation struct {
	Expr string
}

func (*Text) element()          {}
func (*Tag) element()           {}
func (*Slot) element()          {}
func (*ComponentRef) element()  {}
func (*Interpolation) element() {}

// ValueKind distinguishes the forms of an attribute value.
type ValueKind int

const (
	StringValue ValueKind = iota
	BooleanValue
	ExpressionValue
)

// String returns a lowercase name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case BooleanValue:
		return "boolean"
	case ExpressionValue:
		return "expression"
	default:
		return "unknown"
	}
}

// AttributeValue is a string, a boolean or a raw expression source text.
// Str holds the string or the expression text.
type AttributeValue struct {
	Kind ValueKind
	Str  string
	Bool bool
}

// String builds a string attribute value.
func String(s string) AttributeValue { return AttributeValue{Kind: StringValue, Str: s} }

// Bool builds a boolean attribute value.
func Bool(b bool) AttributeValue { return AttributeValue{Kind: BooleanValue, Bool: b} }

// Expression builds an expression attribute value.
func Expression(src string) AttributeValue { return AttributeValue{Kind: ExpressionValue, Str: src} }

// Attribute is a name/value pair on a Tag or ComponentRef.
type Attribute struct {
	Name  string
	Value AttributeValue
}

// Lookup returns the first attribute named name.
func Lookup(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
