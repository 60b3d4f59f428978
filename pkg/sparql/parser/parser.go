package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// SyntaxError reports malformed query text with the position of the fault
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Keywords that are recognised so they can be reported by name
var (
	unsupportedForms     = []string{"CONSTRUCT", "ASK", "DESCRIBE"}
	unsupportedGroup     = []string{"FILTER", "UNION", "GRAPH", "MINUS", "BIND", "VALUES", "SERVICE"}
	unsupportedModifiers = []string{"ORDER", "GROUP", "HAVING", "VALUES"}
)

// Parser parses SPARQL SELECT queries
type Parser struct {
	input  string
	pos    int
	length int
	hidden int // Counter for generated hidden variables
}

// NewParser creates a new SPARQL parser
func NewParser(input string) *Parser {
	return &Parser{
		input:  input,
		pos:    0,
		length: len(input),
	}
}

// Parse parses a SPARQL query
func (p *Parser) Parse() (*Query, error) {
	query := &Query{}

	if err := p.parsePrologue(query); err != nil {
		return nil, err
	}

	p.skipWhitespace()
	for _, form := range unsupportedForms {
		if p.peekKeyword(form) {
			return nil, p.errorf("%s queries are not supported", form)
		}
	}
	if !p.matchKeyword("SELECT") {
		return nil, p.errorf("expected SELECT")
	}

	selectQuery, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	query.Select = selectQuery

	p.skipWhitespace()
	if p.pos < p.length {
		if p.peek() == '}' {
			return nil, p.errorf("unbalanced braces: unexpected '}'")
		}
		return nil, p.errorf("unexpected trailing input %q", p.excerpt())
	}

	return query, nil
}

// parsePrologue parses PREFIX and BASE declarations
func (p *Parser) parsePrologue(query *Query) error {
	for {
		p.skipWhitespace()
		switch {
		case p.matchKeyword("PREFIX"):
			decl, err := p.parsePrefixDecl()
			if err != nil {
				return err
			}
			query.Prefixes = append(query.Prefixes, decl)
		case p.matchKeyword("BASE"):
			p.skipWhitespace()
			iri, err := p.parseIRI()
			if err != nil {
				return err
			}
			query.Base = iri
		default:
			return nil
		}
	}
}

// parsePrefixDecl parses the "prefix: <iri>" part of a PREFIX declaration
func (p *Parser) parsePrefixDecl() (*PrefixDecl, error) {
	p.skipWhitespace()

	start := p.pos
	prefix := p.readWhile(isPrefixChar)
	if prefix != "" && !isLetter(prefix[0]) {
		return nil, p.errorfAt(start, "invalid prefix name %q", prefix)
	}
	if p.peek() != ':' {
		return nil, p.errorf("expected ':' in PREFIX declaration")
	}
	p.advance()

	p.skipWhitespace()
	iri, err := p.parseIRI()
	if err != nil {
		return nil, err
	}

	return &PrefixDecl{Prefix: prefix, IRI: iri}, nil
}

// parseSelect parses a SELECT query after the SELECT keyword
func (p *Parser) parseSelect() (*SelectQuery, error) {
	query := &SelectQuery{}

	// Parse DISTINCT or REDUCED (optional, mutually exclusive)
	if p.matchKeyword("DISTINCT") {
		query.Distinct = true
	} else if p.matchKeyword("REDUCED") {
		query.Reduced = true
	}

	variables, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	query.Variables = variables

	if p.peekKeyword("FROM") {
		return nil, p.errorf("FROM is not supported")
	}

	// WHERE keyword is optional
	p.matchKeyword("WHERE")

	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	query.Where = where

	if err := p.parseSolutionModifiers(query); err != nil {
		return nil, err
	}

	return query, nil
}

// parseProjection parses the projected variables or *
func (p *Parser) parseProjection() ([]*Variable, error) {
	p.skipWhitespace()

	if p.peek() == '*' {
		p.advance()
		return nil, nil // nil means SELECT *
	}

	var variables []*Variable
	seen := make(map[string]bool)
	for {
		p.skipWhitespace()
		ch := p.peek()

		if ch == '(' {
			return nil, p.errorf("SELECT expressions are not supported")
		}
		if ch != '?' && ch != '$' {
			break
		}

		variable, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		if !seen[variable.Name] {
			seen[variable.Name] = true
			variables = append(variables, variable)
		}
	}

	if len(variables) == 0 {
		return nil, p.errorf("expected at least one variable or *")
	}

	return variables, nil
}

// parseSolutionModifiers parses LIMIT and OFFSET in either order
func (p *Parser) parseSolutionModifiers(query *SelectQuery) error {
	for {
		p.skipWhitespace()
		switch {
		case p.matchKeyword("LIMIT"):
			if query.Limit != nil {
				return p.errorf("duplicate LIMIT")
			}
			limit, err := p.parseInteger()
			if err != nil {
				return err
			}
			query.Limit = &limit
		case p.matchKeyword("OFFSET"):
			if query.Offset != nil {
				return p.errorf("duplicate OFFSET")
			}
			offset, err := p.parseInteger()
			if err != nil {
				return err
			}
			query.Offset = &offset
		default:
			if kw := p.peekAnyKeyword(unsupportedModifiers); kw != "" {
				return p.errorf("%s is not supported", kw)
			}
			return nil
		}
	}
}

// parseGroupGraphPattern parses { ... } with triples and OPTIONAL groups
func (p *Parser) parseGroupGraphPattern() (*GraphPattern, error) {
	p.skipWhitespace()

	if p.peek() != '{' {
		return nil, p.errorf("expected '{' to start graph pattern")
	}
	open := p.pos
	p.advance() // consume '{'

	pattern := &GraphPattern{Type: GraphPatternTypeBasic}

	for {
		p.skipWhitespace()

		if p.pos >= p.length {
			return nil, p.errorfAt(open, "unbalanced braces: '{' is never closed")
		}

		// Check for end of pattern
		if p.peek() == '}' {
			p.advance()
			return pattern, nil
		}

		// Check for OPTIONAL
		if p.matchKeyword("OPTIONAL") {
			optional, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			optional.Type = GraphPatternTypeOptional
			pattern.Elements = append(pattern.Elements, PatternElement{Optional: optional})

			p.skipWhitespace()
			if p.peek() == '.' {
				p.advance()
			}
			continue
		}

		if kw := p.peekAnyKeyword(unsupportedGroup); kw != "" {
			return nil, p.errorf("%s is not supported", kw)
		}
		if p.peek() == '{' {
			return nil, p.errorf("nested group patterns are not supported")
		}

		triples, err := p.parseTriplesBlock()
		if err != nil {
			return nil, err
		}
		for _, triple := range triples {
			pattern.Elements = append(pattern.Elements, PatternElement{Triple: triple})
		}

		// Triples end with '.', or directly before '}' or a keyword
		p.skipWhitespace()
		switch {
		case p.peek() == '.':
			p.advance()
		case p.peek() == '}', p.pos >= p.length, p.peekKeyword("OPTIONAL"), p.peekAnyKeyword(unsupportedGroup) != "":
		default:
			return nil, p.errorf("expected '.' or '}' after triple pattern")
		}
	}
}

// parseTriplesBlock parses one subject with its property list
//
//	?s ?p1 ?o1 ; ?p2 ?o2 .  (semicolon repeats subject)
//	?s ?p ?o1 , ?o2 .       (comma repeats subject and predicate)
func (p *Parser) parseTriplesBlock() ([]*TriplePattern, error) {
	p.skipWhitespace()

	var triples []*TriplePattern
	var subject TermOrVariable

	if p.peek() == '[' {
		node, inner, anonymous, err := p.parseBlankNodePropertyList()
		if err != nil {
			return nil, err
		}
		subject = node
		triples = append(triples, inner...)

		// "[ :p :o ] ." is a complete block on its own
		p.skipWhitespace()
		if !anonymous && (p.peek() == '.' || p.peek() == '}') {
			return triples, nil
		}
	} else {
		term, err := p.parseVarOrTerm("subject")
		if err != nil {
			return nil, err
		}
		subject = term
	}

	more, err := p.parsePropertyList(subject)
	if err != nil {
		return nil, err
	}
	return append(triples, more...), nil
}

// parsePropertyList parses verb/object-list pairs separated by ';'
func (p *Parser) parsePropertyList(subject TermOrVariable) ([]*TriplePattern, error) {
	var triples []*TriplePattern

	for {
		p.skipWhitespace()
		path, err := p.parseVerb()
		if err != nil {
			return nil, err
		}

		for {
			p.skipWhitespace()
			object, inner, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			triples = append(triples, p.expandPath(subject, path, object)...)
			triples = append(triples, inner...)

			p.skipWhitespace()
			if p.peek() != ',' {
				break
			}
			p.advance() // skip ','
		}

		p.skipWhitespace()
		if p.peek() != ';' {
			return triples, nil
		}
		for p.peek() == ';' {
			p.advance()
			p.skipWhitespace()
		}

		// Semicolon can be trailing
		if ch := p.peek(); ch == '.' || ch == '}' || ch == ']' || p.pos >= p.length {
			return triples, nil
		}
	}
}

// parseVerb parses a predicate: a variable, or one IRI or a p1/p2 sequence
func (p *Parser) parseVerb() ([]TermOrVariable, error) {
	ch := p.peek()

	if ch == '?' || ch == '$' {
		variable, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		return []TermOrVariable{{Variable: variable}}, nil
	}

	var steps []TermOrVariable
	for {
		step, err := p.parsePathStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)

		if ch := p.peek(); ch == '*' || ch == '+' {
			return nil, p.errorf("property path operator '%c' is not supported", ch)
		}

		p.skipWhitespace()
		switch p.peek() {
		case '/':
			p.advance()
			p.skipWhitespace()
		case '|':
			return nil, p.errorf("property path operator '|' is not supported")
		default:
			return steps, nil
		}
	}
}

// parsePathStep parses one IRI of a predicate path
func (p *Parser) parsePathStep() (TermOrVariable, error) {
	ch := p.peek()

	switch {
	case ch == '^' || ch == '!':
		return TermOrVariable{}, p.errorf("property path operator '%c' is not supported", ch)
	case ch == '(':
		return TermOrVariable{}, p.errorf("grouped property paths are not supported")
	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: rdf.NewNamedNode(iri)}, nil
	case ch == 'a' && !isKeywordChar(p.peekAt(1)):
		p.advance() // consume 'a'
		return TermOrVariable{Term: rdf.RDFType}, nil
	case ch == '"' || ch == '\'' || ch == '_' || ch == '[' || isDigit(ch):
		return TermOrVariable{}, p.errorf("predicate must be an IRI or variable")
	case ch == ':' || isLetter(ch) || ch >= utf8.RuneSelf:
		name, err := p.parsePrefixedName()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Prefixed: name}, nil
	case p.pos >= p.length:
		return TermOrVariable{}, p.errorf("unexpected end of query, expected predicate")
	}

	return TermOrVariable{}, p.errorf("unexpected character %q, expected predicate", ch)
}

// expandPath turns s p1/p2/.../pn o into a chain of triple patterns joined
// through fresh hidden variables
func (p *Parser) expandPath(subject TermOrVariable, path []TermOrVariable, object TermOrVariable) []*TriplePattern {
	triples := make([]*TriplePattern, 0, len(path))
	current := subject
	for i, step := range path {
		next := object
		if i < len(path)-1 {
			next = TermOrVariable{Variable: p.newHiddenVariable()}
		}
		triples = append(triples, &TriplePattern{Subject: current, Predicate: step, Object: next})
		current = next
	}
	return triples
}

// parseObject parses an object, which may be a blank node property list
func (p *Parser) parseObject() (TermOrVariable, []*TriplePattern, error) {
	switch p.peek() {
	case '[':
		node, inner, _, err := p.parseBlankNodePropertyList()
		return node, inner, err
	case '(':
		return TermOrVariable{}, nil, p.errorf("collections are not supported")
	}

	term, err := p.parseVarOrTerm("object")
	return term, nil, err
}

// parseBlankNodePropertyList parses [] or [ p o ; ... ]. The node becomes a
// hidden variable.
func (p *Parser) parseBlankNodePropertyList() (TermOrVariable, []*TriplePattern, bool, error) {
	open := p.pos
	p.advance() // consume '['
	node := TermOrVariable{Variable: p.newHiddenVariable()}

	p.skipWhitespace()
	if p.peek() == ']' {
		p.advance()
		return node, nil, true, nil
	}

	triples, err := p.parsePropertyList(node)
	if err != nil {
		return TermOrVariable{}, nil, false, err
	}

	p.skipWhitespace()
	if p.peek() != ']' {
		return TermOrVariable{}, nil, false, p.errorfAt(open, "expected ']' to close blank node property list")
	}
	p.advance()

	return node, triples, false, nil
}

// parseVarOrTerm parses a variable, IRI, prefixed name, literal or blank node
func (p *Parser) parseVarOrTerm(role string) (TermOrVariable, error) {
	p.skipWhitespace()

	ch := p.peek()

	switch {
	case p.pos >= p.length:
		return TermOrVariable{}, p.errorf("unexpected end of query, expected %s", role)

	// Variable
	case ch == '?' || ch == '$':
		variable, err := p.parseVariable()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Variable: variable}, nil

	// IRI (named node)
	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: rdf.NewNamedNode(iri)}, nil

	// Literal (string)
	case ch == '"' || ch == '\'':
		return p.parseLiteral()

	// Blank node label, matched like a variable
	case ch == '_' && p.peekAt(1) == ':':
		return p.parseBlankNodeLabel()

	// Numeric literal
	case isDigit(ch) || ch == '-' || ch == '+' || (ch == '.' && isDigit(p.peekAt(1))):
		literal, err := p.parseNumericLiteral()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: literal}, nil

	case p.matchKeyword("true"):
		return TermOrVariable{Term: rdf.NewBooleanLiteral(true)}, nil
	case p.matchKeyword("false"):
		return TermOrVariable{Term: rdf.NewBooleanLiteral(false)}, nil

	// Prefixed name (like :foo or prefix:foo)
	case ch == ':' || isLetter(ch) || ch >= utf8.RuneSelf:
		name, err := p.parsePrefixedName()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Prefixed: name}, nil
	}

	return TermOrVariable{}, p.errorf("unexpected character %q, expected %s", ch, role)
}

// parseVariable parses a SPARQL variable
func (p *Parser) parseVariable() (*Variable, error) {
	if p.peek() != '?' && p.peek() != '$' {
		return nil, p.errorf("expected variable starting with ? or $")
	}
	p.advance() // consume ? or $

	name := p.readWhile(isVarChar)
	if name == "" {
		return nil, p.errorf("invalid variable name")
	}

	return &Variable{Name: name}, nil
}

// parseBlankNodeLabel parses _:label into a hidden variable. The same label
// anywhere in the query is the same variable.
func (p *Parser) parseBlankNodeLabel() (TermOrVariable, error) {
	p.pos += 2 // consume "_:"

	start := p.pos
	label := p.readWhile(func(ch byte) bool {
		return isVarChar(ch) || ch == '-' || ch == '.'
	})
	for strings.HasSuffix(label, ".") {
		label = label[:len(label)-1]
		p.pos--
	}
	if label == "" {
		return TermOrVariable{}, p.errorfAt(start, "invalid blank node label")
	}

	return TermOrVariable{Variable: &Variable{Name: "_:" + label, Hidden: true}}, nil
}

func (p *Parser) newHiddenVariable() *Variable {
	p.hidden++
	return &Variable{Name: fmt.Sprintf("_:#%d", p.hidden), Hidden: true}
}

// parseIRI parses an IRI enclosed in < >
func (p *Parser) parseIRI() (string, error) {
	if p.peek() != '<' {
		return "", p.errorf("expected '<' to start IRI")
	}
	start := p.pos
	p.advance()

	iri := p.readWhile(func(ch byte) bool {
		return ch != '>' && ch != '\n' && ch != '\r'
	})

	if p.peek() != '>' {
		return "", p.errorfAt(start, "unterminated IRI")
	}
	p.advance()

	if i := strings.IndexAny(iri, " \t<\"{}|^`\\"); i >= 0 {
		return "", p.errorfAt(start+1+i, "invalid character %q in IRI", iri[i])
	}

	return iri, nil
}

// parseLiteral parses a quoted string with an optional language tag or datatype
func (p *Parser) parseLiteral() (TermOrVariable, error) {
	value, err := p.parseString()
	if err != nil {
		return TermOrVariable{}, err
	}

	// Language tag
	if p.peek() == '@' {
		p.advance()
		lang := p.readWhile(func(ch byte) bool {
			return isLetter(ch) || isDigit(ch) || ch == '-'
		})
		if lang == "" || !isLetter(lang[0]) {
			return TermOrVariable{}, p.errorf("invalid language tag")
		}
		return TermOrVariable{Term: rdf.NewLiteralWithLanguage(value, lang)}, nil
	}

	// Datatype
	if p.match("^^") {
		if p.peek() == '<' {
			iri, err := p.parseIRI()
			if err != nil {
				return TermOrVariable{}, err
			}
			return TermOrVariable{Term: rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(iri))}, nil
		}
		name, err := p.parsePrefixedName()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: rdf.NewLiteral(value), DatatypePrefixed: name}, nil
	}

	return TermOrVariable{Term: rdf.NewLiteral(value)}, nil
}

// parseString parses the four quoted string forms and their escapes
func (p *Parser) parseString() (string, error) {
	start := p.pos
	quote := p.peek()
	long := strings.HasPrefix(p.input[p.pos:], strings.Repeat(string(quote), 3))
	if long {
		p.pos += 3
	} else {
		p.advance()
	}

	var sb strings.Builder
	for {
		if p.pos >= p.length {
			return "", p.errorfAt(start, "unterminated string literal")
		}
		ch := p.input[p.pos]

		switch {
		case long && strings.HasPrefix(p.input[p.pos:], strings.Repeat(string(quote), 3)):
			p.pos += 3
			return sb.String(), nil
		case !long && ch == quote:
			p.advance()
			return sb.String(), nil
		case !long && (ch == '\n' || ch == '\r'):
			return "", p.errorfAt(start, "unterminated string literal")
		case ch == '\\':
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(ch)
			p.advance()
		}
	}
}

// parseEscape decodes one backslash escape into sb
func (p *Parser) parseEscape(sb *strings.Builder) error {
	p.advance() // consume '\'

	ch := p.peek()
	switch ch {
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 'f':
		sb.WriteByte('\f')
	case '"', '\'', '\\':
		sb.WriteByte(ch)
	case 'u', 'U':
		size := 4
		if ch == 'U' {
			size = 8
		}
		if p.pos+1+size > p.length {
			return p.errorf("truncated unicode escape")
		}
		code, err := strconv.ParseUint(p.input[p.pos+1:p.pos+1+size], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return p.errorf("invalid unicode escape")
		}
		sb.WriteRune(rune(code))
		p.pos += size
	default:
		return p.errorf("invalid escape sequence '\\%c'", ch)
	}

	p.advance()
	return nil
}

// parseNumericLiteral parses integer, decimal and double shorthands
func (p *Parser) parseNumericLiteral() (*rdf.Literal, error) {
	start := p.pos
	if p.peek() == '+' || p.peek() == '-' {
		p.advance()
	}

	digits := p.readWhile(isDigit)
	datatype := rdf.XSDInteger

	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.advance()
		digits += p.readWhile(isDigit)
		datatype = rdf.XSDDecimal
	}

	if digits == "" {
		return nil, p.errorfAt(start, "invalid number")
	}

	if p.peek() == 'e' || p.peek() == 'E' {
		p.advance()
		if p.peek() == '+' || p.peek() == '-' {
			p.advance()
		}
		if p.readWhile(isDigit) == "" {
			return nil, p.errorf("missing exponent")
		}
		datatype = rdf.XSDDouble
	}

	return rdf.NewLiteralWithDatatype(p.input[start:p.pos], datatype), nil
}

// parsePrefixedName parses prefix:local without expanding it
func (p *Parser) parsePrefixedName() (*PrefixedName, error) {
	start := p.pos
	prefix := p.readWhile(isPrefixChar)
	if prefix != "" && !isLetter(prefix[0]) && prefix[0] < utf8.RuneSelf {
		return nil, p.errorfAt(start, "invalid prefix name %q", prefix)
	}

	if p.peek() != ':' {
		if prefix == "" {
			return nil, p.errorf("unexpected character %q", p.peek())
		}
		return nil, p.errorfAt(start, "unexpected word %q", prefix)
	}
	p.advance() // skip ':'

	// Local names may contain dots and escapes but never end with a dot
	var local strings.Builder
	end, endLen := p.pos, 0
scan:
	for p.pos < p.length {
		ch := p.input[p.pos]
		switch {
		case ch == '\\' && p.pos+1 < p.length && strings.IndexByte(localEscapes, p.input[p.pos+1]) >= 0:
			local.WriteByte(p.input[p.pos+1])
			p.pos += 2
		case ch == '.':
			local.WriteByte(ch)
			p.pos++
			continue
		case isPrefixChar(ch) || ch == ':':
			local.WriteByte(ch)
			p.pos++
		default:
			break scan
		}
		end, endLen = p.pos, local.Len()
	}
	p.pos = end

	return &PrefixedName{Prefix: prefix, Local: local.String()[:endLen]}, nil
}

const localEscapes = "_~.-!$&'()*+,;=/?#@%"

// parseInteger parses a non-negative integer
func (p *Parser) parseInteger() (int, error) {
	p.skipWhitespace()

	start := p.pos
	numStr := p.readWhile(isDigit)
	if numStr == "" {
		return 0, p.errorf("expected integer")
	}

	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, p.errorfAt(start, "invalid integer %q", numStr)
	}
	return n, nil
}

// Helper methods

func (p *Parser) peek() byte {
	if p.pos >= p.length {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) peekAt(offset int) byte {
	if p.pos+offset >= p.length {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *Parser) advance() {
	if p.pos < p.length {
		p.pos++
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		ch := p.input[p.pos]

		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			p.pos++
			continue
		}

		// Skip comments (from # to end of line)
		if ch == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' && p.input[p.pos] != '\r' {
				p.pos++
			}
			continue
		}

		break
	}
}

func (p *Parser) readWhile(predicate func(byte) bool) string {
	start := p.pos
	for p.pos < p.length && predicate(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// peekKeyword reports whether the case-insensitive keyword is next
func (p *Parser) peekKeyword(keyword string) bool {
	end := p.pos + len(keyword)
	if end > p.length || !strings.EqualFold(p.input[p.pos:end], keyword) {
		return false
	}
	return end == p.length || !isKeywordChar(p.input[end])
}

func (p *Parser) peekAnyKeyword(keywords []string) string {
	for _, kw := range keywords {
		if p.peekKeyword(kw) {
			return kw
		}
	}
	return ""
}

func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()
	if p.peekKeyword(keyword) {
		p.pos += len(keyword)
		return true
	}
	return false
}

func (p *Parser) match(s string) bool {
	if !strings.HasPrefix(p.input[p.pos:], s) {
		return false
	}
	p.pos += len(s)
	return true
}

func (p *Parser) excerpt() string {
	rest := p.input[p.pos:]
	if len(rest) > 20 {
		rest = rest[:20]
	}
	return rest
}

func (p *Parser) position(offset int) (int, int) {
	if offset > p.length {
		offset = p.length
	}
	line, col := 1, 1
	for _, ch := range p.input[:offset] {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (p *Parser) errorf(format string, args ...any) error {
	return p.errorfAt(p.pos, format, args...)
}

func (p *Parser) errorfAt(offset int, format string, args ...any) error {
	line, col := p.position(offset)
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isVarChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch >= utf8.RuneSelf
}

func isPrefixChar(ch byte) bool {
	return isVarChar(ch) || ch == '-'
}

// isKeywordChar reports whether ch would continue a keyword or name
func isKeywordChar(ch byte) bool {
	return isVarChar(ch) || ch == ':' || ch == '-'
}
