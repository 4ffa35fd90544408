// internal/browser/parser/css.go
package parser

import (
	"strings"
)

// Property represents a CSS property (e.g., "height").
type Property string

// Value represents a CSS value (e.g., "40px").
type Value string

// Declaration is a key-value pair (e.g., height: 40px).
type Declaration struct {
	Property  Property
	Value     Value
	Important bool
}

// RuleSet is a list of selectors sharing one declaration block.
type RuleSet struct {
	Selectors    []ComplexSelector
	Declarations []Declaration
}

// StyleSheet is the parsed form of one CSS source.
type StyleSheet struct {
	Rules []RuleSet
}

// Combinator defines the relationship between two compound selectors.
type Combinator int

const (
	CombinatorNone       Combinator = iota // first compound in a selector
	CombinatorDescendant                   // whitespace
	CombinatorChild                        // >
)

// SimpleSelector is a compound selector such as div#main.card.
type SimpleSelector struct {
	TagName string
	ID      string
	Classes []string
}

// Step pairs a compound selector with the combinator that precedes it.
type Step struct {
	Combinator Combinator
	Selector   SimpleSelector
}

// ComplexSelector is a chain of compound selectors, left to right.
type ComplexSelector struct {
	Steps []Step
}

// Specificity returns the (id, class, type) specificity triple.
func (cs ComplexSelector) Specificity() (a, b, c int) {
	for _, step := range cs.Steps {
		s := step.Selector
		if s.ID != "" {
			a++
		}
		b += len(s.Classes)
		if s.TagName != "" && s.TagName != "*" {
			c++
		}
	}
	return a, b, c
}

func (s SimpleSelector) empty() bool {
	return s.TagName == "" && s.ID == "" && len(s.Classes) == 0
}

// Parser is a small recursive-descent CSS parser. It understands rule sets,
// comments, compound selectors with descendant and child combinators, and
// skips at-rules and anything it cannot read.
type Parser struct {
	input string
	pos   int
}

func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Parse reads the whole input into a StyleSheet.
func (p *Parser) Parse() StyleSheet {
	var sheet StyleSheet
	for {
		p.skipSpaceAndComments()
		if p.eof() {
			return sheet
		}
		if p.peek() == '@' {
			p.skipAtRule()
			continue
		}

		selectors, ok := p.parseSelectorList()
		if !ok {
			p.skipUntil('{')
			p.skipBlock()
			continue
		}
		decls := p.parseBlock()
		if len(selectors) > 0 && len(decls) > 0 {
			sheet.Rules = append(sheet.Rules, RuleSet{Selectors: selectors, Declarations: decls})
		}
	}
}

// ParseInline reads the declarations of a style="" attribute.
func ParseInline(src string) []Declaration {
	p := NewParser(src)
	return p.parseDeclarations('}')
}

func (p *Parser) parseSelectorList() ([]ComplexSelector, bool) {
	var list []ComplexSelector
	valid := true
	for {
		sel, ok := p.parseComplexSelector()
		if !ok {
			valid = false
		} else {
			list = append(list, sel)
		}
		p.skipSpaceAndComments()
		if p.eof() {
			return nil, false
		}
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case '{':
			// One unreadable selector invalidates the whole list, as in CSS.
			return list, valid
		default:
			return nil, false
		}
	}
}

func (p *Parser) parseComplexSelector() (ComplexSelector, bool) {
	var cs ComplexSelector
	combinator := CombinatorNone
	for {
		sawSpace := p.skipSpaceAndComments()
		if p.eof() {
			return cs, false
		}
		ch := p.peek()
		if ch == ',' || ch == '{' {
			return cs, len(cs.Steps) > 0 && combinator != CombinatorChild
		}
		if ch == '>' {
			if len(cs.Steps) == 0 {
				return cs, false
			}
			p.pos++
			combinator = CombinatorChild
			continue
		}
		if len(cs.Steps) > 0 && combinator == CombinatorNone && sawSpace {
			combinator = CombinatorDescendant
		}

		simple, ok := p.parseSimpleSelector()
		if !ok {
			return cs, false
		}
		if len(cs.Steps) == 0 {
			combinator = CombinatorNone
		}
		cs.Steps = append(cs.Steps, Step{Combinator: combinator, Selector: simple})
		combinator = CombinatorNone
	}
}

func (p *Parser) parseSimpleSelector() (SimpleSelector, bool) {
	var s SimpleSelector
	if p.peek() == '*' {
		p.pos++
		s.TagName = "*"
	} else if isIdentStart(p.peek()) {
		s.TagName = strings.ToLower(p.parseIdent())
	}
	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			s.ID = p.parseIdent()
			if s.ID == "" {
				return s, false
			}
		case '.':
			p.pos++
			class := p.parseIdent()
			if class == "" {
				return s, false
			}
			s.Classes = append(s.Classes, class)
		default:
			return s, !s.empty()
		}
	}
	return s, !s.empty()
}

// parseBlock consumes "{ decls }".
func (p *Parser) parseBlock() []Declaration {
	if p.peek() != '{' {
		return nil
	}
	p.pos++
	decls := p.parseDeclarations('}')
	if p.peek() == '}' {
		p.pos++
	}
	return decls
}

func (p *Parser) parseDeclarations(end byte) []Declaration {
	var decls []Declaration
	for {
		p.skipSpaceAndComments()
		if p.eof() || p.peek() == end {
			return decls
		}
		if p.peek() == ';' {
			p.pos++
			continue
		}
		if !isIdentStart(p.peek()) {
			p.skipUntil(';', end)
			continue
		}
		prop := strings.ToLower(p.parseIdent())
		p.skipSpaceAndComments()
		if p.peek() != ':' {
			p.skipUntil(';', end)
			continue
		}
		p.pos++
		value := p.parseValue(end)
		important := false
		if lower := strings.ToLower(value); strings.HasSuffix(lower, "!important") {
			important = true
			value = strings.TrimSpace(value[:len(value)-len("!important")])
		}
		if value != "" {
			decls = append(decls, Declaration{Property: Property(prop), Value: Value(value), Important: important})
		}
	}
}

func (p *Parser) parseValue(end byte) string {
	start := p.pos
	depth := 0
	for !p.eof() {
		ch := p.peek()
		switch {
		case ch == '(':
			depth++
		case ch == ')' && depth > 0:
			depth--
		case (ch == ';' || ch == end) && depth == 0:
			return strings.TrimSpace(p.input[start:p.pos])
		}
		p.pos++
	}
	return strings.TrimSpace(p.input[start:p.pos])
}

// -- Lexer helpers --

func (p *Parser) eof() bool { return p.pos >= len(p.input) }

func (p *Parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

// skipSpaceAndComments reports whether any whitespace was consumed.
func (p *Parser) skipSpaceAndComments() bool {
	consumed := false
	for !p.eof() {
		if isSpace(p.peek()) {
			p.pos++
			consumed = true
			continue
		}
		if strings.HasPrefix(p.input[p.pos:], "/*") {
			end := strings.Index(p.input[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.input)
			} else {
				p.pos += end + 4
			}
			consumed = true
			continue
		}
		return consumed
	}
	return consumed
}

func (p *Parser) skipUntil(targets ...byte) {
	for !p.eof() {
		for _, t := range targets {
			if p.peek() == t {
				if t == ';' {
					p.pos++
				}
				return
			}
		}
		p.pos++
	}
}

// skipBlock skips a balanced {...} block starting at the current '{'.
func (p *Parser) skipBlock() {
	if p.peek() != '{' {
		return
	}
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return
			}
		}
		p.pos++
	}
}

func (p *Parser) skipAtRule() {
	for !p.eof() {
		switch p.peek() {
		case ';':
			p.pos++
			return
		case '{':
			p.skipBlock()
			return
		}
		p.pos++
	}
}

func (p *Parser) parseIdent() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '-'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
