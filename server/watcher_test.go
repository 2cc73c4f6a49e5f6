package server

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherClassify(t *testing.T) {
	s, dir := newTestServer(t)
	configPath := filepath.Join(dir, "webc.yaml")
	w := &Watcher{server: s, configPath: configPath}

	tests := []struct {
		rel  string
		want changeKind
	}{
		{"src/pages/home.webc", changeSource},
		{"src/components/nested/card.webc", changeSource},
		{"src/notes.md", changeIgnored},
		{"public/robots.txt", changePublic},
		{"public/img/logo.png", changePublic},
		{"theme.yaml", changeTheme},
		{"themes/dark.toml", changeTheme},
		{"themes/readme.md", changeIgnored},
		{"dist/home.html", changeIgnored},
		{"webc.yaml", changeConfig},
		{"README.md", changeIgnored},
		{"srcfile.webc", changeIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := w.classify(filepath.Join(dir, filepath.FromSlash(tt.rel))); got != tt.want {
				t.Errorf("classify(%s) = %d, want %d", tt.rel, got, tt.want)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/p/src/a.webc", "/p/src", true},
		{"/p/src", "/p/src", true},
		{"/p/srcx/a.webc", "/p/src", false},
		{"/p/a.webc", "/p/src", false},
		{"/p/src/a.webc", "", false},
		{"/p/src/..x/a", "/p/src", true},
	}
	for _, tt := range tests {
		if got := within(tt.path, tt.dir); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	s, dir := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Rebuild(ctx, "startup", false); err != nil {
		t.Fatal(err)
	}
	start := s.ReloadSeq()

	var stdout bytes.Buffer
	w, err := NewWatcher(s, "", &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	page := filepath.Join(dir, "src", "pages", "home.webc")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(page, []byte(`page "home" { p "Edited" }`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.ReloadSeq() == start && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if s.ReloadSeq() == start {
		t.Fatal("no rebuild after editing a page")
	}

	data, err := os.ReadFile(filepath.Join(s.config.Paths.Dist, "home.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<p>Edited</p>")) {
		t.Errorf("home.html was not rebuilt:\n%s", data)
	}
}

func TestWatcherDescribe(t *testing.T) {
	s, dir := newTestServer(t)
	w := &Watcher{server: s}
	p := func(rel string) string { return filepath.Join(dir, rel) }

	got := w.describe([]string{p("a.webc"), p("a.webc"), p("b.webc")})
	if got != "a.webc, b.webc" {
		t.Errorf("describe() = %q", got)
	}
	got = w.describe([]string{p("a"), p("b"), p("c"), p("d"), p("e")})
	if got != "a, b, c and 2 more" {
		t.Errorf("describe() = %q", got)
	}
}
