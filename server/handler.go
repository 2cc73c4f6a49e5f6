package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// siteHandler serves the build output: app routes first, then files from
// dist, with /name falling back to name.html.
type siteHandler struct {
	server *Server
	files  http.Handler
}

func newSiteHandler(s *Server) *siteHandler {
	return &siteHandler{
		server: s,
		files:  http.FileServer(http.Dir(s.config.Paths.Dist)),
	}
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, buildErr := h.server.LastResult()
	if buildErr != nil {
		if ext := path.Ext(r.URL.Path); ext == "" || ext == ".html" {
			renderDevErrorPage(w, newDevError(buildErr, h.server.config.BaseDir), h.server.config.Dev.LiveReload)
			return
		}
	}

	if res != nil {
		if file, ok := res.Routes[r.URL.Path]; ok {
			h.serveFile(w, r, file)
			return
		}
	}

	// clean URLs: /about serves about.html
	if p := r.URL.Path; p != "/" && path.Ext(p) == "" && !strings.HasSuffix(p, "/") {
		candidate := strings.TrimPrefix(p, "/") + ".html"
		if h.exists(candidate) {
			h.serveFile(w, r, candidate)
			return
		}
	}

	h.files.ServeHTTP(w, r)
}

func (h *siteHandler) exists(rel string) bool {
	info, err := os.Stat(h.abs(rel))
	return err == nil && !info.IsDir()
}

func (h *siteHandler) abs(rel string) string {
	return filepath.Join(h.server.config.Paths.Dist, filepath.FromSlash(path.Clean("/"+rel)))
}

// serveFile uses ServeContent so that index.html is not redirected.
func (h *siteHandler) serveFile(w http.ResponseWriter, r *http.Request, rel string) {
	f, err := os.Open(h.abs(rel))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// buildsHandler serves the recorded build history as JSON.
type buildsHandler struct {
	server *Server
}

func newBuildsHandler(s *Server) *buildsHandler {
	return &buildsHandler{server: s}
}

func (h *buildsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, ok, err := h.server.recentBuilds(limit)
	if !ok {
		w.Write([]byte("[]"))
		return
	}
	if err != nil {
		http.Error(w, `{"error":"reading build log"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []BuildRecord{}
	}
	json.NewEncoder(w).Encode(records)
}
