package codegen

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/sambeau/webcore/pkg/webc/ast"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
	"github.com/sambeau/webcore/pkg/webc/parser"
)

func parseDoc(t *testing.T, src string) *ast.Document {
	t.Helper()
	doc, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return doc
}

func generate(t *testing.T, src, page string) *Result {
	t.Helper()
	res, err := Generate(parseDoc(t, src), page, Options{Lang: "en", Title: "Test"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return res
}

// body returns the markup between <body> and the runtime script tag.
func body(t *testing.T, page string) string {
	t.Helper()
	start := strings.Index(page, "<body>\n")
	end := strings.Index(page, "  <script src=\"webcore.js\"></script>")
	if start < 0 || end < 0 {
		t.Fatalf("unexpected shell:\n%s", page)
	}
	return page[start+len("<body>\n") : end]
}

const layoutSrc = `layout MainLayout { slot }`

func TestShell(t *testing.T) {
	res := generate(t, layoutSrc+` page "home" { p "hi" }`, "home")
	want := "<!DOCTYPE html>\n" +
		"<html lang=\"en\">\n<head>\n" +
		"  <meta charset=\"UTF-8\">\n" +
		"  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n" +
		"  <title>Test</title>\n" +
		"  <link rel=\"stylesheet\" href=\"theme.css\">\n" +
		"</head>\n<body>\n" +
		"<p>hi</p>" +
		"  <script src=\"webcore.js\"></script>\n" +
		"</body>\n</html>"
	if res.HTML != want {
		t.Errorf("HTML mismatch:\n got: %q\nwant: %q", res.HTML, want)
	}
}

func TestShellOptions(t *testing.T) {
	doc := parseDoc(t, layoutSrc+` page "home" { }`)
	res, err := Generate(doc, "home", Options{
		Lang:           "fr",
		Title:          `Tom & "Jerry"`,
		StylesheetHref: "/assets/app.css",
		ScriptHref:     "/assets/webcore.js",
		HeadScripts:    []string{"https://cdn.example.com/a.js"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<html lang="fr">`,
		`<title>Tom &amp; &quot;Jerry&quot;</title>`,
		`<link rel="stylesheet" href="/assets/app.css">`,
		`<script src="https://cdn.example.com/a.js" defer></script>`,
		`<script src="/assets/webcore.js"></script>`,
	} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("missing %q in:\n%s", want, res.HTML)
		}
	}
}

func TestSlotSubstitution(t *testing.T) {
	res := generate(t, `
layout MainLayout {
  header { h1 "Site" }
  main { slot }
  slot sidebar
}
page "home" { p "hi" }`, "home")

	got := body(t, res.HTML)
	want := `<header><h1>Site</h1></header><main><p>hi</p></main><!-- Slot: sidebar -->`
	if got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if strings.Contains(got, "Slot: content") {
		t.Error("content slot should not remain as a comment")
	}
}

func TestSlotInsidePageContentIsComment(t *testing.T) {
	res := generate(t, layoutSrc+` page "home" { div { slot } }`, "home")
	if got := body(t, res.HTML); got != `<div><!-- Slot: content --></div>` {
		t.Errorf("body = %q", got)
	}
}

func TestLayoutSelection(t *testing.T) {
	src := `layout default { div { slot } } layout MainLayout { main { slot } } page "p" { "x" }`
	if got := body(t, generate(t, src, "p").HTML); got != "<main>x</main>" {
		t.Errorf("MainLayout should win, body = %q", got)
	}

	src = `layout default { div { slot } } layout Other { main { slot } } page "p" { "x" }`
	if got := body(t, generate(t, src, "p").HTML); got != "<div>x</div>" {
		t.Errorf("default should be used, body = %q", got)
	}
}

func TestGenerateErrors(t *testing.T) {
	doc := parseDoc(t, `layout Other { slot } page "home" { }`)

	_, err := Generate(doc, "about", Options{})
	if !webcerrors.HasCode(err, webcerrors.CodePageNotFound) || !strings.Contains(err.Error(), "Page 'about' not found") {
		t.Errorf("missing page: got %v", err)
	}

	_, err = Generate(doc, "home", Options{})
	if !webcerrors.HasCode(err, webcerrors.CodeNoLayout) || !strings.Contains(err.Error(), "No layout found (tried MainLayout and default)") {
		t.Errorf("missing layout: got %v", err)
	}
}

func TestTagMapping(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"link with to", `link to="/a" "A"`, `<a href="/a">A</a>`},
		{"link without href", `link "A"`, `<a href="#">A</a>`},
		{"link with href", `link href="/b" "B"`, `<a href="/b">B</a>`},
		{"link keeps other attributes", `link class="nav" to="/a" "A"`, `<a class="nav" href="/a">A</a>`},
		{"anchor with to", `a to="/c" "C"`, `<a href="/c">C</a>`},
		{"anchor without href", `a "C"`, `<a href="#">C</a>`},
		{"anchor with href", `a href="/d" "D"`, `<a href="/d">D</a>`},
		{"text is transparent", `text "plain <b>"`, `plain &lt;b&gt;`},
		{"boolean attribute", `input disabled`, `<input disabled></input>`},
		{"non-event expression", `input value={count}`, `<input value="{}"></input>`},
		{"string escaping", `div title="a'b" "<script>"`, `<div title="a&#x27;b">&lt;script&gt;</div>`},
		{"unresolved component", `Missing`, `<Missing></Missing>`},
		{"unresolved component with children", `Card title="x" { p "y" }`, `<Card title="x"><p>y</p></Card>`},
		{"interpolation", `p "Count: {n} now"`, `<p>Count: <span data-webcore-interpolation="n">0</span> now</p>`},
		{"bare interpolation", `"{total}"`, `<span data-webcore-interpolation="total">0</span>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := generate(t, layoutSrc+` page "p" { `+tt.src+` }`, "p")
			if got := body(t, res.HTML); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpolationLegacyForm(t *testing.T) {
	var sb strings.Builder
	writeInterpolation(&sb, "a<{x}>b")
	if got := sb.String(); got != `a&lt;<span data-webcore-interpolation="x">0</span>&gt;b` {
		t.Errorf("got %q", got)
	}

	sb.Reset()
	writeInterpolation(&sb, "x}y{z")
	if got := sb.String(); got != `<span data-webcore-interpolation="x}y{z">0</span>` {
		t.Errorf("got %q", got)
	}
}

func TestEventHandlers(t *testing.T) {
	res := generate(t, layoutSrc+`
page "p" {
  button on:click={count += 1} "+"
  button on:click={count -= 1} "-"
  form on:submit={sent = 1} { }
  select on:change={a = 1} { }
  input on:input={b = 2} ""
  div on:foo={count += 1} { }
}`, "p")

	if len(res.Handlers) != 6 {
		t.Fatalf("handlers = %+v", res.Handlers)
	}
	seen := map[string]bool{}
	for i, h := range res.Handlers {
		if seen[h.ID] {
			t.Errorf("duplicate handler id %s", h.ID)
		}
		seen[h.ID] = true
		if want := "btn" + string(rune('1'+i)); h.ID != want {
			t.Errorf("handler[%d].ID = %s, want %s", i, h.ID, want)
		}
	}
	if res.LastHandlerID != 6 {
		t.Errorf("LastHandlerID = %d, want 6", res.LastHandlerID)
	}

	for _, want := range []string{
		`<button id="btn1" onclick="webcore_handle_click('btn1')">+</button>`,
		`<button id="btn2" onclick="webcore_handle_click('btn2')">-</button>`,
		`<form id="btn3" onsubmit="webcore_handle_submit('btn3')"></form>`,
		`<select id="btn4" onchange="webcore_handle_change('btn4')"></select>`,
		`<input id="btn5" oninput="webcore_handle_input('btn5')"></input>`,
		`<div id="btn6" onfoo="webcore_handle_event('foo','btn6')"></div>`,
	} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("missing %q", want)
		}
	}

	last := res.Handlers[5]
	if last.EventType != "foo" || last.Expression != "count+=1" {
		t.Errorf("generic handler = %+v", last)
	}
}

func TestHandlerIDsUniqueAcrossLayoutAndPage(t *testing.T) {
	src := `
layout MainLayout {
  nav { button on:click={menu = 1} "menu" }
  slot content
  Footer
}
component Footer { view { button on:click={count += 1} "f" } }
page "p" { button on:click={count += 1} "page" }`
	res := generate(t, src, "p")

	ids := collectIDs(t, res.HTML)
	if len(ids) != 3 {
		t.Fatalf("ids = %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s in %v", id, ids)
		}
		seen[id] = true
	}
	if len(res.Handlers) != 3 {
		t.Errorf("handlers = %+v", res.Handlers)
	}
}

func collectIDs(t *testing.T, page string) []string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	var ids []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" {
					ids = append(ids, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return ids
}

func TestHandlerSeed(t *testing.T) {
	doc := parseDoc(t, layoutSrc+` page "p" { button on:click={count += 1} "x" }`)
	res, err := Generate(doc, "p", Options{HandlerSeed: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Handlers[0].ID != "btn5" || res.LastHandlerID != 5 {
		t.Errorf("handlers = %+v, last = %d", res.Handlers, res.LastHandlerID)
	}
}

func TestComponentInlining(t *testing.T) {
	src := layoutSrc + `
component Greeting { view { h2 "Hello" Inner } }
component Inner { view { span "inner" } }
page "p" { Greeting name="x" }`
	if got := body(t, generate(t, src, "p").HTML); got != "<h2>Hello</h2><span>inner</span>" {
		t.Errorf("body = %q", got)
	}
}

func TestComponentInLayoutFillsContentSlot(t *testing.T) {
	src := `
layout MainLayout { Shell }
component Shell { view { main { slot } } }
page "p" { p "x" }`
	if got := body(t, generate(t, src, "p").HTML); got != "<main><p>x</p></main>" {
		t.Errorf("body = %q", got)
	}
}

func TestComponentCycle(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		entry string
		chain string
	}{
		{"self", `component Loop { view { Loop } }`, "Loop", "Loop -> Loop"},
		{"mutual", `component A { view { B } } component B { view { div { A } } }`, "A", "A -> B -> A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, layoutSrc+" "+tt.src+` page "p" { `+tt.entry+` }`)
			_, err := Generate(doc, "p", Options{})
			if !webcerrors.HasCode(err, webcerrors.CodeComponentCycle) {
				t.Fatalf("expected cycle error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.chain) {
				t.Errorf("error %q should mention %q", err.Error(), tt.chain)
			}
		})
	}
}

func TestSiblingComponentReuseIsNotACycle(t *testing.T) {
	src := layoutSrc + `
component Item { view { li "x" } }
page "p" { ul { Item "" Item "" } }`
	if got := body(t, generate(t, src, "p").HTML); got != "<ul><li>x</li><li>x</li></ul>" {
		t.Errorf("body = %q", got)
	}
}

func TestLayoutComponentReusedInPage(t *testing.T) {
	src := `
component Container { view { div class="container" { slot content } } }
layout MainLayout { Container }
page "home" { Container }`
	res, err := Generate(parseDoc(t, src), "home", Options{Lang: "en"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := `<div class="container"><div class="container"><!-- Slot: content --></div></div>`
	if got := body(t, res.HTML); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestCycleInsidePageContent(t *testing.T) {
	src := `
component Wrap { view { section { slot content } } }
component Loop { view { Loop } }
layout MainLayout { Wrap }
page "p" { Loop }`
	_, err := Generate(parseDoc(t, src), "p", Options{Lang: "en"})
	if !webcerrors.HasCode(err, webcerrors.CodeComponentCycle) {
		t.Errorf("expected %s, got %v", webcerrors.CodeComponentCycle, err)
	}
}

func TestMarkdownTag(t *testing.T) {
	res := generate(t, layoutSrc+` page "p" { markdown "# Title

Some *text*." }`, "p")
	got := body(t, res.HTML)
	if !strings.Contains(got, "<h1>Title</h1>") || !strings.Contains(got, "<em>text</em>") {
		t.Errorf("markdown body = %q", got)
	}
}

func TestDeterminism(t *testing.T) {
	src := layoutSrc + `
component C { view { button on:click={count += 1} "c" } }
page "p" { C "" C "" p "x" }`
	doc := parseDoc(t, src)
	a, err := Generate(doc, "p", Options{Lang: "en"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(doc, "p", Options{Lang: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if a.HTML != b.HTML || len(a.Handlers) != len(b.Handlers) {
		t.Error("generation is not deterministic")
	}
}

func TestGeneratePageWithDefaults(t *testing.T) {
	doc := ast.NewDocument()
	doc.Layouts["default"] = DefaultLayout()
	res, err := GeneratePage(doc, DefaultPage(), Options{Lang: "fr", Title: "WebCore App"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.HTML, "<h1>Welcome to WebCore</h1>") || !strings.Contains(res.HTML, "<p>This is a default page.</p>") {
		t.Errorf("default page HTML:\n%s", res.HTML)
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(`<a href="x">'&'</a>`); got != "&lt;a href=&quot;x&quot;&gt;&#x27;&amp;&#x27;&lt;/a&gt;" {
		t.Errorf("Escape() = %q", got)
	}
}

func TestFragment(t *testing.T) {
	doc, err := parser.Parse(`component Greet { view { p "Hi" } }`)
	if err != nil {
		t.Fatal(err)
	}
	content := []ast.Element{
		&ast.ComponentRef{Name: "Greet"},
		&ast.Tag{Name: "button", Attributes: []ast.Attribute{{Name: "on:click", Value: ast.Expression("count+=1")}}, Children: []ast.Element{&ast.Text{Value: "+"}}},
	}

	res, err := Fragment(doc, content, Options{HandlerSeed: 4})
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	want := `<p>Hi</p><button id="btn5" onclick="webcore_handle_click('btn5')">+</button>`
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if res.LastHandlerID != 5 || len(res.Handlers) != 1 || res.Handlers[0].Expression != "count+=1" {
		t.Errorf("handlers = %+v, last = %d", res.Handlers, res.LastHandlerID)
	}
}
