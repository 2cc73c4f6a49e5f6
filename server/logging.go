package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestLogger is middleware that logs HTTP requests. Internal endpoints
// such as the live reload poll are not logged.
type requestLogger struct {
	handler http.Handler
	output  io.Writer
	format  string // "json" or "text"
}

// RequestLogEntry represents a single request log entry
type RequestLogEntry struct {
	Timestamp  string `json:"timestamp"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Bytes      int64  `json:"bytes"`
	Duration   string `json:"duration"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// responseCapture wraps http.ResponseWriter to capture status and size
type responseCapture struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.status = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.status == 0 {
		rc.status = http.StatusOK
	}
	n, err := rc.ResponseWriter.Write(b)
	rc.bytes += int64(n)
	return n, err
}

func newRequestLogger(handler http.Handler, output io.Writer, format string) *requestLogger {
	if format == "" {
		format = "text"
	}
	return &requestLogger{
		handler: handler,
		output:  output,
		format:  format,
	}
}

func (rl *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/__") {
		rl.handler.ServeHTTP(w, r)
		return
	}

	start := time.Now()
	rc := &responseCapture{ResponseWriter: w}
	rl.handler.ServeHTTP(rc, r)
	duration := time.Since(start)

	if rc.status == 0 {
		rc.status = http.StatusOK
	}

	entry := RequestLogEntry{
		Timestamp:  start.Format(time.RFC3339),
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     rc.status,
		Bytes:      rc.bytes,
		Duration:   duration.String(),
		DurationMs: duration.Milliseconds(),
		ClientIP:   r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}

	if rl.format == "json" {
		rl.writeJSON(entry)
	} else {
		rl.writeText(entry)
	}
}

func (rl *requestLogger) writeJSON(entry RequestLogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintf(rl.output, "%s\n", data)
}

func (rl *requestLogger) writeText(entry RequestLogEntry) {
	fmt.Fprintf(rl.output, "%s %s %s %d %dB %s\n",
		entry.Timestamp,
		entry.Method,
		entry.Path,
		entry.Status,
		entry.Bytes,
		entry.Duration,
	)
}
