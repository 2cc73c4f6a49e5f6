// Package parser turns .webc source text into an ast.Document.
//
// The grammar is parsed in a single recursive-descent pass over the token
// slice produced by the lexer. The first error aborts the parse; there is
// no partial result.
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sambeau/webcore/pkg/webc/ast"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
	"github.com/sambeau/webcore/pkg/webc/lexer"
)

// MaxNestingDepth is the maximum allowed element nesting depth
const MaxNestingDepth = 256

// DefaultPageName is the page that receives stray top-level elements.
const DefaultPageName = "default"

// Parser parses a token stream into a Document
type Parser struct {
	tokens   []lexer.Token
	pos      int
	curToken lexer.Token
	depth    int
}

// New creates a parser over the full token stream of input
func New(input string) *Parser {
	p := &Parser{tokens: lexer.Tokenize(input)}
	p.curToken = p.tokens[0]
	return p
}

// Parse parses a single source text.
func Parse(input string) (*ast.Document, error) {
	return New(input).ParseDocument()
}

// nextToken advances to the next token. The cursor never moves past EOF.
func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
}

// peekToken returns the token after the current one
func (p *Parser) peekToken() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) curIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) curIsKeyword(word string) bool {
	return p.curToken.Type == lexer.IDENT && p.curToken.Literal == word
}

// expect consumes the current token if it has the given kind. Only the kind
// is compared, never the literal.
func (p *Parser) expect(t lexer.TokenType) error {
	if !p.curIs(t) {
		return p.expectedError(t.String())
	}
	p.nextToken()
	return nil
}

// expectLiteral consumes a token of kind t and returns its literal.
// what names the expected item in the error message.
func (p *Parser) expectLiteral(t lexer.TokenType, what string) (string, error) {
	if !p.curIs(t) {
		return "", p.expectedError(what)
	}
	lit := p.curToken.Literal
	p.nextToken()
	return lit, nil
}

func (p *Parser) expectedError(what string) error {
	return webcerrors.NewWithPosition(webcerrors.CodeExpectedToken, p.curToken.Line, p.curToken.Column,
		map[string]any{"Expected": what, "Got": p.curToken.String()})
}

func (p *Parser) unexpectedError() error {
	return webcerrors.NewWithPosition(webcerrors.CodeUnexpectedToken, p.curToken.Line, p.curToken.Column,
		map[string]any{"Got": p.curToken.String()})
}

// ParseDocument parses top-level sections until EOF.
func (p *Parser) ParseDocument() (*ast.Document, error) {
	doc := ast.NewDocument()

	for !p.curIs(lexer.EOF) {
		switch {
		case p.curIsKeyword("app"):
			app, err := p.parseApp()
			if err != nil {
				return nil, err
			}
			doc.App = app
		case p.curIsKeyword("layout"):
			layout, err := p.parseLayout()
			if err != nil {
				return nil, err
			}
			doc.Layouts[layout.Name] = layout
		case p.curIsKeyword("page"):
			page, err := p.parsePage()
			if err != nil {
				return nil, err
			}
			doc.Pages[page.Name] = page
		case p.curIsKeyword("component"):
			component, err := p.parseComponent()
			if err != nil {
				return nil, err
			}
			doc.Components[component.Name] = component
		default:
			// A stray element becomes the whole default page, replacing any
			// earlier one.
			el, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			doc.Pages[DefaultPageName] = &ast.Page{Name: DefaultPageName, Content: []ast.Element{el}}
		}
	}

	return doc, nil
}

// parseApp parses `app NAME { theme: "x" layout: Name routes { "/": Comp } }`
func (p *Parser) parseApp() (*ast.App, error) {
	p.nextToken() // consume 'app'

	name, err := p.expectLiteral(lexer.IDENT, "app name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}

	app := &ast.App{Name: name, Routes: map[string]string{}}
	for !p.curIs(lexer.RBRACE) {
		if !p.curIs(lexer.IDENT) {
			return nil, p.unexpectedError()
		}
		key := p.curToken.Literal
		p.nextToken()

		switch key {
		case "theme":
			if err := p.expect(lexer.COLON); err != nil {
				return nil, err
			}
			if app.Theme, err = p.expectLiteral(lexer.STRING, "theme name"); err != nil {
				return nil, err
			}
		case "layout":
			if err := p.expect(lexer.COLON); err != nil {
				return nil, err
			}
			if app.Layout, err = p.expectLiteral(lexer.IDENT, "layout name"); err != nil {
				return nil, err
			}
		case "routes":
			if err := p.parseRoutes(app.Routes); err != nil {
				return nil, err
			}
		default:
			// unknown keys are skipped
		}
	}

	if err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return app, nil
}

func (p *Parser) parseRoutes(routes map[string]string) error {
	if err := p.expect(lexer.LBRACE); err != nil {
		return err
	}
	for !p.curIs(lexer.RBRACE) {
		path, err := p.expectLiteral(lexer.STRING, "route path")
		if err != nil {
			return err
		}
		if err := p.expect(lexer.COLON); err != nil {
			return err
		}
		component, err := p.expectLiteral(lexer.IDENT, "component name")
		if err != nil {
			return err
		}
		routes[path] = component
	}
	return p.expect(lexer.RBRACE)
}

func (p *Parser) parseLayout() (*ast.Layout, error) {
	p.nextToken() // consume 'layout'

	name, err := p.expectLiteral(lexer.IDENT, "layout name")
	if err != nil {
		return nil, err
	}
	content, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Layout{Name: name, Content: content}, nil
}

func (p *Parser) parsePage() (*ast.Page, error) {
	p.nextToken() // consume 'page'

	name, err := p.expectLiteral(lexer.STRING, "page name")
	if err != nil {
		return nil, err
	}
	content, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Page{Name: name, Content: content}, nil
}

// parseBlock parses `{ Element* }`
func (p *Parser) parseBlock() ([]ast.Element, error) {
	if err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	content := []ast.Element{}
	for !p.curIs(lexer.RBRACE) {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		content = append(content, el)
	}
	if err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return content, nil
}

func (p *Parser) parseComponent() (*ast.Component, error) {
	p.nextToken() // consume 'component'

	name, err := p.expectLiteral(lexer.IDENT, "component name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}

	c := &ast.Component{Name: name}
	for !p.curIs(lexer.RBRACE) {
		if !p.curIs(lexer.IDENT) {
			// Bare elements directly inside a component belong to its view.
			el, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			c.View = append(c.View, el)
			continue
		}

		section := p.curToken.Literal
		p.nextToken()

		switch section {
		case "props":
			if err := p.parseProps(c); err != nil {
				return nil, err
			}
		case "state":
			if err := p.parseState(c); err != nil {
				return nil, err
			}
		case "view":
			view, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			c.View = append(c.View, view...)
		case "style":
			if err := p.parseStyle(c); err != nil {
				return nil, err
			}
		default:
			// unknown sections are ignored
		}
	}

	if err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return c, nil
}

// parseProps parses `props { name [: type] ... }`
func (p *Parser) parseProps(c *ast.Component) error {
	if err := p.expect(lexer.LBRACE); err != nil {
		return err
	}
	for !p.curIs(lexer.RBRACE) {
		name, err := p.expectLiteral(lexer.IDENT, "prop name")
		if err != nil {
			return err
		}
		prop := ast.Prop{Name: name}
		if p.curIs(lexer.COLON) {
			p.nextToken()
			if prop.Type, err = p.expectLiteral(lexer.IDENT, "prop type"); err != nil {
				return err
			}
		}
		c.Props = append(c.Props, prop)
	}
	return p.expect(lexer.RBRACE)
}

// parseState parses `state { name: type [= default] ... }`
func (p *Parser) parseState(c *ast.Component) error {
	if err := p.expect(lexer.LBRACE); err != nil {
		return err
	}
	for !p.curIs(lexer.RBRACE) {
		name, err := p.expectLiteral(lexer.IDENT, "state name")
		if err != nil {
			return err
		}
		if err := p.expect(lexer.COLON); err != nil {
			return err
		}
		typ, err := p.expectLiteral(lexer.IDENT, "state type")
		if err != nil {
			return err
		}
		sv := ast.StateVar{Name: name, Type: typ}
		if p.curIs(lexer.ASSIGN) {
			p.nextToken()
			if !p.curIs(lexer.NUMBER) && !p.curIs(lexer.STRING) {
				return p.expectedError("default value")
			}
			value := p.curToken.Literal
			sv.Default = &value
			p.nextToken()
		}
		c.State = append(c.State, sv)
	}
	return p.expect(lexer.RBRACE)
}

// parseStyle parses `style { selector { name: value ... } ... }`
func (p *Parser) parseStyle(c *ast.Component) error {
	if err := p.expect(lexer.LBRACE); err != nil {
		return err
	}
	for !p.curIs(lexer.RBRACE) {
		selector, err := p.expectLiteral(lexer.IDENT, "style selector")
		if err != nil {
			return err
		}
		if err := p.expect(lexer.LBRACE); err != nil {
			return err
		}
		rule := ast.StyleRule{Selector: selector}
		for !p.curIs(lexer.RBRACE) {
			name, err := p.expectLiteral(lexer.IDENT, "property name")
			if err != nil {
				return err
			}
			if err := p.expect(lexer.COLON); err != nil {
				return err
			}
			if !p.curIs(lexer.STRING) && !p.curIs(lexer.IDENT) {
				return p.expectedError("property value")
			}
			rule.Properties = append(rule.Properties, ast.StyleProperty{Name: name, Value: p.curToken.Literal})
			p.nextToken()
		}
		if err := p.expect(lexer.RBRACE); err != nil {
			return err
		}
		c.Style = append(c.Style, rule)
	}
	return p.expect(lexer.RBRACE)
}

// parseElement parses one element: a tag, a component reference, a slot or
// a bare string.
func (p *Parser) parseElement() (ast.Element, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxNestingDepth {
		return nil, webcerrors.NewWithPosition(webcerrors.CodeInvalidSyntax, p.curToken.Line, p.curToken.Column,
			map[string]any{"Reason": "maximum nesting depth (256) exceeded"})
	}

	switch p.curToken.Type {
	case lexer.IDENT:
		return p.parseNamedElement()
	case lexer.STRING:
		text := p.curToken.Literal
		p.nextToken()
		if len(text) >= 2 && strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
			return &ast.Interpolation{Expr: text[1 : len(text)-1]}, nil
		}
		return &ast.Text{Value: text}, nil
	default:
		return nil, p.unexpectedError()
	}
}

func (p *Parser) parseNamedElement() (ast.Element, error) {
	name := p.curToken.Literal
	p.nextToken()

	if name == "slot" {
		slotName := "content"
		if p.curIs(lexer.IDENT) {
			slotName = p.curToken.Literal
			p.nextToken()
		}
		return &ast.Slot{Name: slotName}, nil
	}

	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}

	children := []ast.Element{}
	switch {
	case p.curIs(lexer.STRING):
		children = SplitInterpolatedText(p.curToken.Literal)
		p.nextToken()
	case p.curIs(lexer.LBRACE):
		if children, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}

	if r, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(r) {
		return &ast.ComponentRef{Name: name, Attributes: attrs, Children: children}, nil
	}
	return &ast.Tag{Name: name, Attributes: attrs, Children: children}, nil
}

// parseAttributes reads `name`, `name = "str"` and `name = { expr }` pairs.
// It stops at content (a string or a block), at EOF, at any non-identifier,
// and at an identifier followed by `{`, which starts a sibling element.
func (p *Parser) parseAttributes() ([]ast.Attribute, error) {
	attrs := []ast.Attribute{}
	for !p.curIs(lexer.LBRACE) && !p.curIs(lexer.STRING) && !p.curIs(lexer.EOF) {
		if !p.curIs(lexer.IDENT) || p.peekToken().Type == lexer.LBRACE {
			break
		}
		name := p.curToken.Literal
		p.nextToken()

		if !p.curIs(lexer.ASSIGN) {
			attrs = append(attrs, ast.Attribute{Name: name, Value: ast.Bool(true)})
			continue
		}
		p.nextToken() // consume '='

		switch p.curToken.Type {
		case lexer.STRING:
			attrs = append(attrs, ast.Attribute{Name: name, Value: ast.String(p.curToken.Literal)})
			p.nextToken()
		case lexer.LBRACE:
			expr, err := p.parseExpressionText()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, ast.Attribute{Name: name, Value: ast.Expression(expr)})
		default:
			attrs = append(attrs, ast.Attribute{Name: name, Value: ast.Bool(true)})
		}
	}
	return attrs, nil
}

// parseExpressionText re-stringifies the tokens between `{` and the first
// `}`. Whitespace is not preserved and strings become a single space.
func (p *Parser) parseExpressionText() (string, error) {
	p.nextToken() // consume '{'

	var sb strings.Builder
	for !p.curIs(lexer.RBRACE) {
		switch p.curToken.Type {
		case lexer.EOF:
			return "", p.expectedError(lexer.RBRACE.String())
		case lexer.IDENT, lexer.NUMBER:
			sb.WriteString(p.curToken.Literal)
		case lexer.PLUS, lexer.MINUS, lexer.ASSIGN, lexer.LPAREN, lexer.RPAREN,
			lexer.COMMA, lexer.DOT, lexer.ARROW:
			sb.WriteString(p.curToken.Literal)
		default:
			sb.WriteByte(' ')
		}
		p.nextToken()
	}
	p.nextToken() // consume '}'
	return sb.String(), nil
}

// SplitInterpolatedText splits text into alternating Text and Interpolation
// elements. Each `{` pairs with the next `}`; the name between them is
// trimmed. An unmatched `{` makes the rest of the text literal.
func SplitInterpolatedText(text string) []ast.Element {
	var elements []ast.Element
	rest := text
	for rest != "" {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			elements = append(elements, &ast.Text{Value: rest})
			break
		}
		if start > 0 {
			elements = append(elements, &ast.Text{Value: rest[:start]})
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			elements = append(elements, &ast.Text{Value: rest[start:]})
			break
		}
		end += start
		elements = append(elements, &ast.Interpolation{Expr: strings.TrimSpace(rest[start+1 : end])})
		rest = rest[end+1:]
	}
	if len(elements) == 0 {
		elements = append(elements, &ast.Text{Value: text})
	}
	return elements
}
