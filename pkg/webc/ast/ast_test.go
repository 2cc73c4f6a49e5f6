package ast

import (
	"reflect"
	"testing"
)

func TestMergeLastWriteWins(t *testing.T) {
	first := NewDocument()
	first.App = &App{Name: "One"}
	first.Pages["home"] = &Page{Name: "home", Content: []Element{&Text{Value: "old"}}}
	first.Components["Button"] = &Component{Name: "Button"}

	second := NewDocument()
	second.Pages["home"] = &Page{Name: "home", Content: []Element{&Text{Value: "new"}}}
	second.Layouts["MainLayout"] = &Layout{Name: "MainLayout"}

	doc := NewDocument()
	if replaced := doc.Merge(first); len(replaced) != 0 {
		t.Errorf("first merge replaced %v", replaced)
	}
	if replaced := doc.Merge(second); !reflect.DeepEqual(replaced, []string{"page home"}) {
		t.Errorf("second merge replaced %v, want [page home]", replaced)
	}

	if doc.App == nil || doc.App.Name != "One" {
		t.Errorf("App should survive a merge without an app, got %+v", doc.App)
	}
	if got := doc.Pages["home"].Content[0].(*Text).Value; got != "new" {
		t.Errorf("home content = %q, want new", got)
	}
	if _, ok := doc.Components["Button"]; !ok {
		t.Error("Button component lost during merge")
	}
	if _, ok := doc.Layouts["MainLayout"]; !ok {
		t.Error("MainLayout lost during merge")
	}

	third := NewDocument()
	third.App = &App{Name: "Two"}
	if replaced := doc.Merge(third); !reflect.DeepEqual(replaced, []string{"app One"}) {
		t.Errorf("third merge replaced %v", replaced)
	}
	if doc.App.Name != "Two" {
		t.Errorf("App = %q, want Two", doc.App.Name)
	}

	if replaced := doc.Merge(nil); replaced != nil {
		t.Errorf("nil merge replaced %v", replaced)
	}
}

func TestNames(t *testing.T) {
	zero := "0"
	doc := NewDocument()
	doc.Pages["b"] = &Page{Name: "b"}
	doc.Pages["a"] = &Page{Name: "a"}
	doc.Components["Counter"] = &Component{Name: "Counter", State: []StateVar{{Name: "count", Type: "number", Default: &zero}}}
	doc.Components["Other"] = &Component{Name: "Other", State: []StateVar{{Name: "total"}, {Name: "count"}}}

	if got := doc.PageNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("PageNames() = %v", got)
	}
	if got := doc.ComponentNames(); !reflect.DeepEqual(got, []string{"Counter", "Other"}) {
		t.Errorf("ComponentNames() = %v", got)
	}
	if got := doc.StateNames(); !reflect.DeepEqual(got, []string{"count", "total"}) {
		t.Errorf("StateNames() = %v", got)
	}
}

func TestIsPage(t *testing.T) {
	tests := map[string]bool{"HomePage": true, "Page": true, "Pager": false, "Button": false}
	for name, want := range tests {
		if got := (&Component{Name: name}).IsPage(); got != want {
			t.Errorf("IsPage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	attrs := []Attribute{{Name: "to", Value: String("/a")}, {Name: "to", Value: String("/b")}, {Name: "disabled", Value: Bool(true)}}
	a, ok := Lookup(attrs, "to")
	if !ok || a.Value.Str != "/a" {
		t.Errorf("Lookup(to) = %+v, %v", a, ok)
	}
	if _, ok := Lookup(attrs, "href"); ok {
		t.Error("Lookup(href) should miss")
	}
}
