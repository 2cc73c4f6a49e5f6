package server

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strconv"
)

// closingTags are tried in order; the script goes before the last match.
var closingTags = []*regexp.Regexp{
	regexp.MustCompile(`(?i)</body\s*>`),
	regexp.MustCompile(`(?i)</html\s*>`),
}

// liveReloadScript polls /__livereload and reloads the page when the
// sequence moves. Polling starts after load so in-flight assets finish.
const liveReloadScript = `<script>
(function() {
  var seq = null;
  function poll() {
    fetch('/__livereload', {cache: 'no-store'})
      .then(function(r) { return r.json(); })
      .then(function(data) {
        if (seq === null) {
          seq = data.seq;
          console.log('[webc] live reload connected');
        } else if (data.seq !== seq) {
          location.reload();
          return;
        }
        setTimeout(poll, 1000);
      })
      .catch(function() { setTimeout(poll, 1000); });
  }
  if (document.readyState === 'complete') {
    poll();
  } else {
    window.addEventListener('load', poll);
  }
})();
</script>`

// withLiveReload returns page with the live reload script inserted before
// </body>, else before </html>, else at the end.
func withLiveReload(page []byte) []byte {
	at := len(page)
	for _, re := range closingTags {
		if all := re.FindAllIndex(page, -1); len(all) > 0 {
			at = all[len(all)-1][0]
			break
		}
	}
	out := make([]byte, 0, len(page)+len(liveReloadScript))
	out = append(out, page[:at]...)
	out = append(out, liveReloadScript...)
	return append(out, page[at:]...)
}

// liveReloadHandler serves the live reload polling endpoint. The sequence
// advances after every build that changed the output or failed.
type liveReloadHandler struct {
	server *Server
}

func newLiveReloadHandler(s *Server) *liveReloadHandler {
	return &liveReloadHandler{server: s}
}

func (h *liveReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	fmt.Fprintf(w, `{"seq":%d}`, h.server.ReloadSeq())
}

// injectLiveReload adds the live reload script to full 200 HTML responses.
// Range requests pass through untouched.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			next.ServeHTTP(w, r)
			return
		}
		rw := &reloadWriter{ResponseWriter: w, head: r.Method == http.MethodHead}
		next.ServeHTTP(rw, r)
		rw.finish()
	})
}

// reloadWriter holds back 200 text/html responses until the handler is
// done. Everything else is written straight through.
type reloadWriter struct {
	http.ResponseWriter
	head    bool
	status  int
	decided bool
	buffer  bool
	body    bytes.Buffer
}

func (w *reloadWriter) WriteHeader(code int) {
	if w.decided {
		return
	}
	w.decided = true
	w.status = code
	w.buffer = code == http.StatusOK && isHTML(w.Header().Get("Content-Type"))
	if !w.buffer {
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *reloadWriter) Write(b []byte) (int, error) {
	if !w.decided {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.buffer {
		return w.ResponseWriter.Write(b)
	}
	return w.body.Write(b)
}

// finish writes a held back response. HEAD responses get the headers the
// matching GET would have.
func (w *reloadWriter) finish() {
	if !w.buffer {
		return
	}
	h := w.Header()
	if w.head {
		if n, err := strconv.Atoi(h.Get("Content-Length")); err == nil {
			h.Set("Content-Length", strconv.Itoa(n+len(liveReloadScript)))
		}
		w.ResponseWriter.WriteHeader(w.status)
		return
	}
	page := withLiveReload(w.body.Bytes())
	h.Set("Content-Length", strconv.Itoa(len(page)))
	w.ResponseWriter.WriteHeader(w.status)
	w.ResponseWriter.Write(page)
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}
