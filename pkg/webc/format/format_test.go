package format

import (
	"reflect"
	"testing"

	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/parser"
)

func TestSource(t *testing.T) {
	src := `page "home" { Counter }
component Counter { state { count: number = 0 label: string = "Clicks" }
view { p "Count: {count}" button on:click={count += 1} "+" }
style { div { padding: "1rem" } } }
app Demo { routes { "/b": B "/a": A } theme: "light" }
layout MainLayout { header { h1 "Demo" } main { slot } }`

	want := `app Demo {
  theme: "light"
  routes {
    "/a": A
    "/b": B
  }
}

layout MainLayout {
  header {
    h1 "Demo"
  }
  main {
    slot content
  }
}

component Counter {
  state {
    count: number = 0
    label: string = "Clicks"
  }
  view {
    p "Count: {count}"
    button on:click={count+=1} "+"
  }
  style {
    div {
      padding: "1rem"
    }
  }
}

page "home" {
  Counter
}
`
	got, err := Source(src)
	if err != nil {
		t.Fatalf("Source() error: %v", err)
	}
	if got != want {
		t.Errorf("Source() =\n%s\nwant:\n%s", got, want)
	}
}

func TestSourceError(t *testing.T) {
	if _, err := Source(`page "x" {`); err == nil {
		t.Error("expected parse error")
	}
}

// Formatting must not change what the source means.
func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"siblings without content", `page "p" { br hr p "x" }`},
		{"empty components", `page "p" { ul { Item "" Item "" } }`},
		{"boolean attributes", `page "p" { input type="checkbox" checked input disabled "" p "after" }`},
		{"attribute then block", `page "p" { form action="/go" novalidate { button "Go" } }`},
		{"named slots", `layout L { slot header main { slot } slot footer }`},
		{"mixed children", `page "p" { div { "lead" strong "bold" "{name}" } }`},
		{"braces in text", `page "p" { p { "a } b" } p "{oops" }`},
		{"props", `component Card { props { title: string footer } view { h2 "{title}" } }`},
		{"markdown", `page "p" { markdown "# Title" }`},
		{"stray element", `div "loose"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := parser.Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(src) error: %v", err)
			}
			out := Document(before)
			after, err := parser.Parse(out)
			if err != nil {
				t.Fatalf("Parse(formatted) error: %v\n%s", err, out)
			}
			if !reflect.DeepEqual(before, after) {
				t.Errorf("document changed by formatting:\n%s", out)
			}
			if again := Document(after); again != out {
				t.Errorf("formatting is not stable:\n%s\nthen:\n%s", out, again)
			}
		})
	}
}

func TestTrailingBooleanAttribute(t *testing.T) {
	doc := ast.NewDocument()
	doc.Pages["p"] = &ast.Page{Name: "p", Content: []ast.Element{
		&ast.Tag{
			Name: "form",
			Attributes: []ast.Attribute{
				{Name: "action", Value: ast.String("/go")},
				{Name: "novalidate", Value: ast.Bool(true)},
			},
			Children: []ast.Element{&ast.Tag{Name: "button", Children: []ast.Element{&ast.Text{Value: "Go"}}}},
		},
	}}

	want := `page "p" {
  form novalidate action="/go" {
    button "Go"
  }
}
`
	if got := Document(doc); got != want {
		t.Errorf("Document() =\n%s\nwant:\n%s", got, want)
	}
}
