package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/webcore/pkg/webc/ast"
)

// runtimeCore is the fixed part of webcore.js: the reactive store, the
// utility table and the DOM wiring. The handler table is written before it.
const runtimeCore = `  // State Management
  class WebCoreState {
    constructor() {
      this.data = new Map();
      this.listeners = new Map();
    }

    set(key, value) {
      this.data.set(key, value);
      this.notify(key, value);
    }

    get(key) {
      return this.data.get(key);
    }

    subscribe(key, callback) {
      if (!this.listeners.has(key)) {
        this.listeners.set(key, []);
      }
      this.listeners.get(key).push(callback);
    }

    notify(key, value) {
      const callbacks = this.listeners.get(key) || [];
      callbacks.forEach(callback => callback(value));
    }
  }

  window.__webcore_state__ = new WebCoreState();

  // Event Handlers
  function handleEvent(event, handler) {
    event.preventDefault();
    try {
      handler();
    } catch (error) {
      console.error('WebCore event handler error:', error);
    }
  }

  // Utility Functions
  window.__webcore_utils__ = {
    max: Math.max,
    min: Math.min,
    abs: Math.abs,
    round: Math.round,
    floor: Math.floor,
    ceil: Math.ceil
  };

  function dispatch(handlerId) {
    if (window.__webcore_handlers__[handlerId]) {
      window.__webcore_handlers__[handlerId]();
    }
  }

  // Initialize WebCore
  document.addEventListener('DOMContentLoaded', function() {
    const interpolations = document.querySelectorAll('[data-webcore-interpolation]');
    interpolations.forEach(function(element) {
      const varName = element.getAttribute('data-webcore-interpolation');
      const updateText = function() {
        const value = window.__webcore_state__.get(varName);
        element.textContent = value !== undefined && value !== null ? value : '';
      };
      updateText();
      window.__webcore_state__.subscribe(varName, updateText);
    });
  });

  // Global HTML5 event handlers
  window.webcore_handle_click = dispatch;
  window.webcore_handle_submit = dispatch;
  window.webcore_handle_change = dispatch;
  window.webcore_handle_input = dispatch;
  window.webcore_handle_event = function(eventType, handlerId) {
    dispatch(handlerId);
  };
`

// RuntimeJS renders webcore.js: the compiled handler table, the fixed
// runtime and one state initialization per declared state variable.
// Components are initialized in name order.
func RuntimeJS(handlers []HandlerMapping, compiler *ExprCompiler, components []*ast.Component) string {
	var sb strings.Builder

	sb.WriteString("// WebCore Runtime\n")
	sb.WriteString("(function() {\n")
	sb.WriteString("  'use strict';\n\n")

	sb.WriteString("  // Compiled Event Handlers\n")
	sb.WriteString("  window.__webcore_handlers__ = {\n")
	for _, h := range handlers {
		fmt.Fprintf(&sb, "    '%s': function() {\n", h.ID)
		sb.WriteString("      try {\n")
		fmt.Fprintf(&sb, "        %s\n", compiler.Compile(h.Expression))
		sb.WriteString("      } catch (error) {\n")
		sb.WriteString("        console.error('Error executing handler:', error);\n")
		sb.WriteString("      }\n")
		sb.WriteString("    },\n")
	}
	sb.WriteString("  };\n\n")

	sb.WriteString(runtimeCore)
	sb.WriteString("})();\n")

	sorted := append([]*ast.Component(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	declared := false
	for _, c := range sorted {
		if len(c.State) == 0 {
			continue
		}
		declared = true
		fmt.Fprintf(&sb, "\n// Component: %s\n", c.Name)
		for _, sv := range c.State {
			fmt.Fprintf(&sb, "%s.set('%s', %s);\n", stateGlobal, sv.Name, stateLiteral(sv))
		}
	}
	if !declared {
		sb.WriteString("\n// Default state\n")
		for _, name := range legacyStateNames {
			fmt.Fprintf(&sb, "%s.set('%s', 0);\n", stateGlobal, name)
		}
	}

	return sb.String()
}

// stateLiteral renders a state default as a JavaScript literal. Numbers
// and true/false are emitted as written unless the variable is declared
// as a string.
func stateLiteral(sv ast.StateVar) string {
	if sv.Default == nil {
		return "null"
	}
	v := *sv.Default
	if sv.Type != "string" && (isNumberLiteral(v) || v == "true" || v == "false") {
		return v
	}
	return jsString(v)
}

func isNumberLiteral(s string) bool {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	dots := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '.':
			dots++
		case s[i] < '0' || s[i] > '9':
			return false
		}
	}
	return dots <= 1 && s[len(s)-1] != '.'
}

var jsStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"</", `<\/`,
)

func jsString(s string) string {
	return "'" + jsStringEscaper.Replace(s) + "'"
}
