package codegen

import (
	"fmt"
	"strings"
)

const (
	stateGlobal = "window.__webcore_state__"
	utilsGlobal = "window.__webcore_utils__"
)

// legacyStateNames is used when a document declares no state at all.
var legacyStateNames = []string{"count"}

// utilCalls are call names redirected to the runtime's utility table.
var utilCalls = map[string]bool{"max": true, "min": true}

// ExprCompiler rewrites handler expressions into calls on the runtime's
// reactive store.
type ExprCompiler struct {
	state map[string]bool
}

// NewExprCompiler returns a compiler that treats every name in stateNames
// as a store key. With no names it falls back to the single key "count".
func NewExprCompiler(stateNames []string) *ExprCompiler {
	if len(stateNames) == 0 {
		stateNames = legacyStateNames
	}
	c := &ExprCompiler{state: make(map[string]bool, len(stateNames))}
	for _, n := range stateNames {
		c.state[n] = true
	}
	return c
}

// Compile turns one expression into a single JavaScript statement.
//
//	count += 1        -> set('count', (get('count') || 0) + 1)
//	count -= 1        -> set('count', (get('count') || 0) - 1)
//	count = max(0, n) -> set('count', utils.max(0, get('n')))
//	anything else     -> the expression with the same rewrites applied
//
// The right-hand side of += and -= is used verbatim.
func (c *ExprCompiler) Compile(expr string) string {
	if lhs, rhs, ok := strings.Cut(expr, "+="); ok {
		return compound(strings.TrimSpace(lhs), "+", strings.TrimSpace(rhs))
	}
	if lhs, rhs, ok := strings.Cut(expr, "-="); ok {
		return compound(strings.TrimSpace(lhs), "-", strings.TrimSpace(rhs))
	}
	if i := bareAssign(expr); i >= 0 {
		target := strings.TrimSpace(expr[:i])
		value := c.rewrite(strings.TrimSpace(expr[i+1:]))
		return fmt.Sprintf("%s.set('%s', %s)", stateGlobal, target, value)
	}
	return c.rewrite(expr)
}

func compound(name, op, rhs string) string {
	return fmt.Sprintf("%s.set('%s', (%s.get('%s') || 0) %s %s)", stateGlobal, name, stateGlobal, name, op, rhs)
}

// bareAssign returns the index of the first '=' that is not part of
// ==, !=, <=, >= or =>, or -1.
func bareAssign(expr string) int {
	for i := 0; i < len(expr); i++ {
		if expr[i] != '=' {
			continue
		}
		if i+1 < len(expr) && (expr[i+1] == '=' || expr[i+1] == '>') {
			i++ // skip the pair
			continue
		}
		if i > 0 && strings.IndexByte("=!<>", expr[i-1]) >= 0 {
			continue
		}
		return i
	}
	return -1
}

// rewrite replaces whole-word state identifiers with store reads and
// max/min calls with utility calls. Property names after '.' and other
// call names are left alone.
func (c *ExprCompiler) rewrite(expr string) string {
	var sb strings.Builder
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case isIdentStart(ch):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			word := expr[i:j]
			afterDot := i > 0 && expr[i-1] == '.'
			isCall := j < len(expr) && expr[j] == '('
			switch {
			case afterDot:
				sb.WriteString(word)
			case isCall && utilCalls[word]:
				sb.WriteString(utilsGlobal + "." + word)
			case !isCall && c.state[word]:
				fmt.Fprintf(&sb, "%s.get('%s')", stateGlobal, word)
			default:
				sb.WriteString(word)
			}
			i = j
		case ch >= '0' && ch <= '9':
			// numbers, including forms like 1e5 or 0x1f, pass through
			j := i + 1
			for j < len(expr) && (isIdentPart(expr[j]) || expr[j] == '.') {
				j++
			}
			sb.WriteString(expr[i:j])
			i = j
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	return sb.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
