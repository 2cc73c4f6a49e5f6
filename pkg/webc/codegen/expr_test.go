package codegen

import "testing"

func TestCompile(t *testing.T) {
	const (
		get = "window.__webcore_state__.get"
		set = "window.__webcore_state__.set"
	)

	tests := []struct {
		name  string
		state []string
		expr  string
		want  string
	}{
		{"increment", nil, "count += 1", set + "('count', (" + get + "('count') || 0) + 1)"},
		{"decrement compact", nil, "count-=2", set + "('count', (" + get + "('count') || 0) - 2)"},
		{"compound rhs verbatim", []string{"total", "step"}, "total += step", set + "('total', (" + get + "('total') || 0) + step)"},
		{"assign with max", nil, "count=max(count,0)", set + "('count', window.__webcore_utils__.max(" + get + "('count'),0))"},
		{"assign with min", []string{"n"}, "n = min(n, 10)", set + "('n', window.__webcore_utils__.min(" + get + "('n'), 10))"},
		{"plain assignment", []string{"open"}, "open = true", set + "('open', true)"},
		{"equality is not assignment", []string{"a", "b"}, "a==b", get + "('a')==" + get + "('b')"},
		{"comparison is not assignment", []string{"a"}, "a >= 1", get + "('a') >= 1"},
		{"whole words only", nil, "counter + count", "counter + " + get + "('count')"},
		{"property access untouched", []string{"count"}, "console.count", "console.count"},
		{"other calls untouched", nil, "alert(count)", "alert(" + get + "('count'))"},
		{"numbers pass through", []string{"e"}, "1e5 + e", "1e5 + " + get + "('e')"},
		{"legacy fallback", nil, "count", get + "('count')"},
		{"declared state replaces fallback", []string{"clicks"}, "count", "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewExprCompiler(tt.state).Compile(tt.expr)
			if got != tt.want {
				t.Errorf("Compile(%q)\n got: %s\nwant: %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBareAssign(t *testing.T) {
	tests := []struct {
		expr string
		want int
	}{
		{"a = 1", 2},
		{"a == 1", -1},
		{"a != 1", -1},
		{"a <= 1", -1},
		{"f => 1", -1},
		{"a == b = c", 7},
		{"a", -1},
	}
	for _, tt := range tests {
		if got := bareAssign(tt.expr); got != tt.want {
			t.Errorf("bareAssign(%q) = %d, want %d", tt.expr, got, tt.want)
		}
	}
}
