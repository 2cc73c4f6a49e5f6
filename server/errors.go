package server

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// DevError holds information about a build error to display in the browser.
type DevError struct {
	Class    string   // "parse", "generate", "theme", ...
	Code     string   // e.g. PARSE-0001
	File     string   // Full path to the file
	Line     int      // Line number (0 if unknown)
	Column   int      // Column number (0 if unknown)
	Message  string   // Error message
	Hints    []string // Suggestions for fixing the error
	BasePath string   // Base path for making paths relative (project root)
}

// newDevError creates a DevError from any build error, keeping the
// structure of a *WebcError when there is one.
func newDevError(err error, basePath string) *DevError {
	var we *webcerrors.WebcError
	if errors.As(err, &we) {
		return &DevError{
			Class:    string(we.Class),
			Code:     we.Code,
			File:     we.File,
			Line:     we.Line,
			Column:   we.Column,
			Message:  we.Message,
			Hints:    we.Hints,
			BasePath: basePath,
		}
	}
	return &DevError{Class: "build", Message: err.Error(), BasePath: basePath}
}

// describe renders build errors with position and hints when available.
func describe(err error) string {
	var we *webcerrors.WebcError
	if errors.As(err, &we) {
		return we.PrettyString()
	}
	return err.Error()
}

// SourceLine represents a line of source code for display.
type SourceLine struct {
	Number  int
	Content string
	IsError bool
}

// errorPageStyles contains the inline CSS for the error page.
const errorPageStyles = `
<style>
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: #1a1a2e;
    color: #eee;
    min-height: 100vh;
    padding: 2rem;
  }
  .error-container { max-width: 900px; margin: 0 auto; }
  h1 { font-size: 1.5rem; margin-bottom: 1.5rem; color: #ff6b6b; }
  .error-type {
    display: inline-block;
    background: #ff6b6b;
    color: #1a1a2e;
    padding: 0.2rem 0.5rem;
    border-radius: 4px;
    font-size: 0.75rem;
    font-weight: 600;
    text-transform: uppercase;
    margin-right: 0.5rem;
  }
  .error-location, .error-message, .error-hint {
    background: #16213e;
    border-radius: 8px;
    padding: 1rem 1.25rem;
    margin-bottom: 1rem;
    border-left: 4px solid #ff6b6b;
  }
  .file-path { color: #7f8c8d; font-family: 'SF Mono', Monaco, monospace; font-size: 0.875rem; }
  .line-info { color: #f39c12; font-weight: 600; }
  .error-message {
    font-family: 'SF Mono', Monaco, monospace;
    color: #ff6b6b;
    white-space: pre-wrap;
  }
  .error-hint { background: #1a3a1a; color: #98c379; border-left-color: #98c379; }
  .source-code { background: #0f0f23; border-radius: 8px; padding: 1rem 0; overflow-x: auto; }
  .source-line { display: flex; font-family: 'SF Mono', Monaco, monospace; font-size: 0.875rem; line-height: 1.6; }
  .source-line.error-line { background: rgba(255, 107, 107, 0.15); }
  .line-number { width: 4rem; text-align: right; padding-right: 1rem; color: #4a4a6a; flex-shrink: 0; }
  .line-content { white-space: pre; }
  .footer { margin-top: 2rem; font-size: 0.8rem; color: #5c6370; }
</style>
`

// renderDevErrorPage writes the error page shown instead of the site while
// the last build is failing. It carries its own live reload script since
// only 200 responses get one injected.
func renderDevErrorPage(w http.ResponseWriter, devErr *DevError, liveReload bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)

	var sourceLines []SourceLine
	if devErr.File != "" && devErr.Line > 0 {
		sourceLines = getSourceContext(devErr.File, devErr.Line, 3)
	}
	displayFile := makeRelativePath(devErr.File, devErr.BasePath)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString("<title>Build failed - webc</title>\n")
	sb.WriteString(errorPageStyles)
	sb.WriteString("</head>\n<body>\n<div class=\"error-container\">\n")
	sb.WriteString("<h1>Build failed</h1>\n")

	sb.WriteString("<div class=\"error-location\">\n")
	fmt.Fprintf(&sb, "<span class=\"error-type\">%s error</span>", html.EscapeString(devErr.Class))
	if devErr.Code != "" {
		fmt.Fprintf(&sb, "<span class=\"file-path\">[%s]</span> ", html.EscapeString(devErr.Code))
	}
	if displayFile != "" {
		sb.WriteString("<span class=\"file-path\">")
		sb.WriteString(html.EscapeString(displayFile))
		if devErr.Line > 0 {
			fmt.Fprintf(&sb, " : <span class=\"line-info\">%d</span>", devErr.Line)
			if devErr.Column > 0 {
				fmt.Fprintf(&sb, " : <span class=\"line-info\">%d</span>", devErr.Column)
			}
		}
		sb.WriteString("</span>")
	}
	sb.WriteString("\n</div>\n")

	sb.WriteString("<div class=\"error-message\">")
	sb.WriteString(html.EscapeString(devErr.Message))
	sb.WriteString("</div>\n")

	for _, h := range devErr.Hints {
		sb.WriteString("<div class=\"error-hint\">")
		sb.WriteString(html.EscapeString(h))
		sb.WriteString("</div>\n")
	}

	if len(sourceLines) > 0 {
		sb.WriteString("<div class=\"source-code\">\n")
		for _, line := range sourceLines {
			class := "source-line"
			if line.IsError {
				class += " error-line"
			}
			fmt.Fprintf(&sb, "<div class=\"%s\"><span class=\"line-number\">%d</span><span class=\"line-content\">%s</span></div>\n",
				class, line.Number, html.EscapeString(line.Content))
		}
		sb.WriteString("</div>\n")
	}

	if liveReload {
		sb.WriteString("<div class=\"footer\">Fix the error and save; this page reloads automatically.</div>\n")
		sb.WriteString("</div>\n")
		sb.WriteString(liveReloadScript)
	} else {
		sb.WriteString("<div class=\"footer\">Fix the error, save and refresh.</div>\n")
		sb.WriteString("</div>\n")
	}
	sb.WriteString("\n</body>\n</html>")

	w.Write([]byte(sb.String()))
}

// getSourceContext reads a file and returns lines around the error line.
func getSourceContext(filePath string, errorLine, contextLines int) []SourceLine {
	file, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []SourceLine
	scanner := bufio.NewScanner(file)
	lineNum := 0

	startLine := errorLine - contextLines
	if startLine < 1 {
		startLine = 1
	}
	endLine := errorLine + contextLines

	for scanner.Scan() {
		lineNum++
		if lineNum < startLine {
			continue
		}
		if lineNum > endLine {
			break
		}
		lines = append(lines, SourceLine{
			Number:  lineNum,
			Content: scanner.Text(),
			IsError: lineNum == errorLine,
		})
	}

	return lines
}

// makeRelativePath converts an absolute path to a path relative to basePath.
func makeRelativePath(path, basePath string) string {
	if path == "" || basePath == "" {
		return path
	}
	rel, err := filepath.Rel(basePath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
