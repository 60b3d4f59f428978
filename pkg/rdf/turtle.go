package rdf

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports malformed RDF input with the position where parsing stopped
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// TurtleReader is a streaming Turtle/N-Triples reader. It parses one
// statement at a time, so triples become available before the rest of
// the document has been read.
//
//	r := NewTurtleReader(doc)
//	for r.Next() {
//		use(r.Triple())
//	}
//	if err := r.Err(); err != nil { ... }
type TurtleReader struct {
	input  string
	pos    int
	length int

	prefixes       map[string]string
	base           *url.URL
	strictNTriples bool

	// Blank node scope: user labels map to node ids, generated ids are
	// tracked so that neither kind collides with the other.
	labels      map[string]string
	usedIDs     map[string]bool
	genIDNext   int
	bnodePrefix string

	pending []*Triple
	current *Triple
	err     error
	done    bool
}

// TurtleOption configures a TurtleReader
type TurtleOption func(*TurtleReader)

// WithBaseIRI sets the base IRI used to resolve relative IRIs
func WithBaseIRI(base string) TurtleOption {
	return func(r *TurtleReader) {
		if u, err := url.Parse(base); err == nil {
			r.base = u
		}
	}
}

// WithStrictNTriples restricts the reader to N-Triples syntax
func WithStrictNTriples() TurtleOption {
	return func(r *TurtleReader) {
		r.strictNTriples = true
	}
}

// WithBlankNodePrefix prepends prefix to every blank node id the reader
// produces, labeled or generated. Readers with distinct prefixes never
// share a blank node.
func WithBlankNodePrefix(prefix string) TurtleOption {
	return func(r *TurtleReader) {
		r.bnodePrefix = prefix
	}
}

// NewTurtleReader creates a reader over a Turtle document
func NewTurtleReader(input string, opts ...TurtleOption) *TurtleReader {
	r := &TurtleReader{
		input:    input,
		length:   len(input),
		prefixes: make(map[string]string),
		labels:   make(map[string]string),
		usedIDs:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if strings.HasPrefix(input, byteOrderMark) {
		r.pos = len(byteOrderMark)
	}
	return r
}

const byteOrderMark = "\uFEFF"

// NewNTriplesReader creates a reader that accepts only N-Triples syntax
func NewNTriplesReader(input string, opts ...TurtleOption) *TurtleReader {
	return NewTurtleReader(input, append([]TurtleOption{WithStrictNTriples()}, opts...)...)
}

// ParseAll drains a reader over input. Triples read before a syntax
// error are returned together with the error.
func ParseAll(input string, opts ...TurtleOption) ([]*Triple, error) {
	r := NewTurtleReader(input, opts...)
	var triples []*Triple
	for r.Next() {
		triples = append(triples, r.Triple())
	}
	return triples, r.Err()
}

// Next advances to the next triple. It returns false at the end of the
// input or after the first error; Err distinguishes the two.
func (r *TurtleReader) Next() bool {
	for len(r.pending) == 0 {
		if r.done {
			r.current = nil
			return false
		}
		if err := r.parseStatement(); err != nil {
			r.err = err
			r.done = true
			r.pending = nil
			r.current = nil
			return false
		}
	}
	r.current = r.pending[0]
	r.pending = r.pending[1:]
	return true
}

// Triple returns the current triple
func (r *TurtleReader) Triple() *Triple {
	return r.current
}

// Err returns the error that terminated the sequence, if any
func (r *TurtleReader) Err() error {
	return r.err
}

// Line returns the line the reader has reached
func (r *TurtleReader) Line() int {
	line, _ := r.position(r.pos)
	return line
}

// Prefixes returns a copy of the prefixes declared so far
func (r *TurtleReader) Prefixes() map[string]string {
	out := make(map[string]string, len(r.prefixes))
	for k, v := range r.prefixes {
		out[k] = v
	}
	return out
}

func (r *TurtleReader) position(offset int) (int, int) {
	if offset > r.length {
		offset = r.length
	}
	line, col := 1, 1
	for _, ch := range r.input[:offset] {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (r *TurtleReader) errorf(format string, args ...any) error {
	line, col := r.position(r.pos)
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

// parseStatement consumes one directive or one triple block. Directives
// produce no triples, so Next keeps calling until something is pending.
func (r *TurtleReader) parseStatement() error {
	r.skipWhitespaceAndComments()
	if r.pos >= r.length {
		r.done = true
		return nil
	}

	// @prefix and @base are case-sensitive and end with '.', the SPARQL
	// forms are case-insensitive and do not
	sparqlStyle := r.input[r.pos] != '@'
	if r.matchExactKeyword("@prefix") || r.matchKeyword("PREFIX") {
		if r.strictNTriples {
			return r.errorf("PREFIX directive not allowed in N-Triples")
		}
		return r.parsePrefix(sparqlStyle)
	}

	if r.matchExactKeyword("@base") || r.matchKeyword("BASE") {
		if r.strictNTriples {
			return r.errorf("BASE directive not allowed in N-Triples")
		}
		return r.parseBase(sparqlStyle)
	}

	return r.parseTriples()
}

// skipWhitespaceAndComments skips whitespace and comments
func (r *TurtleReader) skipWhitespaceAndComments() {
	for r.pos < r.length {
		ch := r.input[r.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			r.pos++
			continue
		}
		if ch == '#' {
			for r.pos < r.length && r.input[r.pos] != '\n' {
				r.pos++
			}
			continue
		}
		break
	}
}

// matchKeyword checks if the current position matches a keyword (case-insensitive)
func (r *TurtleReader) matchKeyword(keyword string) bool {
	end := r.pos + len(keyword)
	if end > r.length || !strings.EqualFold(r.input[r.pos:end], keyword) {
		return false
	}
	if end < r.length && isKeywordChar(r.input[end]) {
		return false
	}
	r.pos = end
	return true
}

// matchExactKeyword checks if the current position matches a keyword (case-sensitive)
func (r *TurtleReader) matchExactKeyword(keyword string) bool {
	end := r.pos + len(keyword)
	if end > r.length || r.input[r.pos:end] != keyword {
		return false
	}
	if end < r.length && isKeywordChar(r.input[end]) {
		return false
	}
	r.pos = end
	return true
}

func isKeywordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == ':'
}

func (r *TurtleReader) parsePrefix(sparqlStyle bool) error {
	r.skipWhitespaceAndComments()

	start := r.pos
	for r.pos < r.length && r.input[r.pos] != ':' {
		ch := r.input[r.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '<' {
			return r.errorf("expected ':' after prefix name")
		}
		r.pos++
	}
	if r.pos >= r.length {
		return r.errorf("expected ':' after prefix name")
	}
	prefix := r.input[start:r.pos]
	r.pos++ // skip ':'

	r.skipWhitespaceAndComments()
	iri, err := r.parseIRI()
	if err != nil {
		return err
	}
	r.prefixes[prefix] = iri

	if sparqlStyle {
		return nil
	}
	return r.expectDot("@prefix directive")
}

func (r *TurtleReader) parseBase(sparqlStyle bool) error {
	r.skipWhitespaceAndComments()

	iri, err := r.parseIRI()
	if err != nil {
		return err
	}
	u, err := url.Parse(iri)
	if err != nil {
		return r.errorf("invalid base IRI %q", iri)
	}
	r.base = u

	if sparqlStyle {
		return nil
	}
	return r.expectDot("@base directive")
}

func (r *TurtleReader) expectDot(what string) error {
	r.skipWhitespaceAndComments()
	if r.pos >= r.length || r.input[r.pos] != '.' {
		return r.errorf("expected '.' after %s", what)
	}
	r.pos++
	return nil
}

// parseTriples parses subject predicateObjectList '.'
func (r *TurtleReader) parseTriples() error {
	var subject Term
	var err error
	propertyListSubject := false

	switch {
	case r.input[r.pos] == '[' && !r.strictNTriples:
		subject, err = r.parseBlankNodePropertyList()
		propertyListSubject = true
	case r.input[r.pos] == '(' && !r.strictNTriples:
		subject, err = r.parseCollection()
	default:
		subject, err = r.parseTerm()
	}
	if err != nil {
		return err
	}

	switch subject.(type) {
	case *NamedNode, *BlankNode:
	default:
		return r.errorf("subject must be an IRI or blank node, got %s", subject)
	}

	r.skipWhitespaceAndComments()
	// "[ :p :o ] ." is a complete statement on its own
	if propertyListSubject && r.pos < r.length && r.input[r.pos] == '.' {
		r.pos++
		return nil
	}

	if err := r.parsePredicateObjectList(subject, '.'); err != nil {
		return err
	}
	return r.expectDot("triple")
}

// parsePredicateObjectList parses verb objectList (';' (verb objectList)?)*
// up to, but not including, the terminator.
func (r *TurtleReader) parsePredicateObjectList(subject Term, terminator byte) error {
	for {
		predicate, err := r.parsePredicate()
		if err != nil {
			return err
		}
		if err := r.parseObjectList(subject, predicate); err != nil {
			return err
		}

		r.skipWhitespaceAndComments()
		if r.pos >= r.length || r.input[r.pos] != ';' {
			return nil
		}
		if r.strictNTriples {
			return r.errorf("predicate lists not allowed in N-Triples")
		}
		// Repeated and trailing semicolons are allowed
		for r.pos < r.length && r.input[r.pos] == ';' {
			r.pos++
			r.skipWhitespaceAndComments()
		}
		if r.pos >= r.length || r.input[r.pos] == terminator {
			return nil
		}
	}
}

func (r *TurtleReader) parseObjectList(subject, predicate Term) error {
	for {
		r.skipWhitespaceAndComments()
		object, err := r.parseObject()
		if err != nil {
			return err
		}
		r.emit(subject, predicate, object)

		r.skipWhitespaceAndComments()
		if r.pos >= r.length || r.input[r.pos] != ',' {
			return nil
		}
		if r.strictNTriples {
			return r.errorf("object lists not allowed in N-Triples")
		}
		r.pos++ // skip ','
	}
}

func (r *TurtleReader) emit(subject, predicate, object Term) {
	r.pending = append(r.pending, NewTriple(subject, predicate, object))
}

func (r *TurtleReader) parsePredicate() (Term, error) {
	r.skipWhitespaceAndComments()
	if r.pos >= r.length {
		return nil, r.errorf("unexpected end of input, expected predicate")
	}
	if r.isStandaloneA() {
		if r.strictNTriples {
			return nil, r.errorf("'a' abbreviation not allowed in N-Triples")
		}
		r.pos++
		return RDFType, nil
	}

	start := r.pos
	predicate, err := r.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, ok := predicate.(*NamedNode); !ok {
		r.pos = start
		return nil, r.errorf("predicate must be an IRI, got %s", predicate)
	}
	return predicate, nil
}

func (r *TurtleReader) parseObject() (Term, error) {
	if r.pos >= r.length {
		return nil, r.errorf("unexpected end of input, expected object")
	}
	switch r.input[r.pos] {
	case '[':
		if r.strictNTriples {
			return nil, r.errorf("anonymous blank nodes not allowed in N-Triples")
		}
		return r.parseBlankNodePropertyList()
	case '(':
		if r.strictNTriples {
			return nil, r.errorf("collections not allowed in N-Triples")
		}
		return r.parseCollection()
	}
	return r.parseTerm()
}

// isStandaloneA reports whether the input holds the 'a' keyword rather
// than a prefixed name starting with 'a'
func (r *TurtleReader) isStandaloneA() bool {
	if r.input[r.pos] != 'a' {
		return false
	}
	if r.pos+1 >= r.length {
		return true
	}
	next, _ := utf8.DecodeRuneInString(r.input[r.pos+1:])
	return !(isPNChars(next) || next == ':' || next == '.')
}

// parseTerm parses an IRI, prefixed name, blank node label or literal
func (r *TurtleReader) parseTerm() (Term, error) {
	r.skipWhitespaceAndComments()
	if r.pos >= r.length {
		return nil, r.errorf("unexpected end of input")
	}

	ch := r.input[r.pos]

	switch {
	case ch == '<':
		iri, err := r.parseIRI()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil

	case ch == '_' && r.pos+1 < r.length && r.input[r.pos+1] == ':':
		return r.parseBlankNodeLabel()

	case ch == '"' || ch == '\'':
		return r.parseLiteral()

	case r.startsNumber():
		if r.strictNTriples {
			return nil, r.errorf("bare numeric literals not allowed in N-Triples")
		}
		return r.parseNumber()
	}

	start := r.pos
	if r.matchExactKeyword("true") || r.matchExactKeyword("false") {
		if r.strictNTriples {
			return nil, r.errorf("bare boolean literals not allowed in N-Triples")
		}
		return NewLiteralWithDatatype(r.input[start:r.pos], XSDBoolean), nil
	}

	rn, _ := utf8.DecodeRuneInString(r.input[r.pos:])
	if isPNCharsBase(rn) || ch == ':' {
		if r.strictNTriples {
			return nil, r.errorf("prefixed names not allowed in N-Triples")
		}
		return r.parsePrefixedName()
	}

	return nil, r.errorf("unexpected character %q", rn)
}

func (r *TurtleReader) startsNumber() bool {
	ch := r.input[r.pos]
	if ch >= '0' && ch <= '9' {
		return true
	}
	next := func(i int) byte {
		if r.pos+i < r.length {
			return r.input[r.pos+i]
		}
		return 0
	}
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	switch ch {
	case '+', '-':
		return isDigit(next(1)) || (next(1) == '.' && isDigit(next(2)))
	case '.':
		return isDigit(next(1))
	}
	return false
}

// parseIRI parses an IRI in angle brackets and resolves it against the base
func (r *TurtleReader) parseIRI() (string, error) {
	if r.pos >= r.length || r.input[r.pos] != '<' {
		return "", r.errorf("expected '<' at start of IRI")
	}
	start := r.pos
	r.pos++ // skip '<'

	var result strings.Builder
	for {
		if r.pos >= r.length {
			r.pos = start
			return "", r.errorf("unterminated IRI")
		}
		ch := r.input[r.pos]
		if ch == '>' {
			break
		}
		if ch == '\\' {
			escaped, err := r.parseUnicodeEscape()
			if err != nil {
				return "", err
			}
			result.WriteString(escaped)
			continue
		}
		if ch == ' ' || ch == '<' || ch == '"' || ch == '{' || ch == '}' || ch == '|' || ch == '^' || ch == '`' || ch <= 0x20 {
			return "", r.errorf("invalid character %q in IRI", ch)
		}
		result.WriteByte(ch)
		r.pos++
	}
	r.pos++ // skip '>'

	iri := result.String()
	if isAbsoluteIRI(iri) {
		return iri, nil
	}
	if r.strictNTriples {
		return "", r.errorf("relative IRI not allowed in N-Triples: %s", iri)
	}
	return r.resolve(iri), nil
}

func isAbsoluteIRI(iri string) bool {
	colon := strings.IndexByte(iri, ':')
	if colon <= 0 {
		return false
	}
	for i := 0; i < colon; i++ {
		ch := iri[i]
		isAlpha := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(ch >= '0' && ch <= '9') && ch != '+' && ch != '-' && ch != '.' {
			return false
		}
	}
	return true
}

// resolve resolves a relative IRI against the base. Without a base the
// reference is kept as written.
func (r *TurtleReader) resolve(ref string) string {
	if r.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return r.base.String() + ref
	}
	return r.base.ResolveReference(u).String()
}

// parseUnicodeEscape parses \uXXXX or \UXXXXXXXX
func (r *TurtleReader) parseUnicodeEscape() (string, error) {
	if r.pos+1 >= r.length {
		return "", r.errorf("incomplete escape sequence")
	}
	var digits int
	switch r.input[r.pos+1] {
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return "", r.errorf("invalid escape sequence \\%c", r.input[r.pos+1])
	}
	r.pos += 2
	if r.pos+digits > r.length {
		return "", r.errorf("incomplete unicode escape")
	}
	hex := r.input[r.pos : r.pos+digits]
	code, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", r.errorf("invalid hex digits %q in unicode escape", hex)
	}
	if (code >= 0xD800 && code <= 0xDFFF) || code > 0x10FFFF {
		return "", r.errorf("invalid code point U+%X in unicode escape", code)
	}
	r.pos += digits
	return string(rune(code)), nil
}

// parseBlankNodeLabel parses _:label
func (r *TurtleReader) parseBlankNodeLabel() (Term, error) {
	r.pos += 2 // skip '_:'
	start := r.pos

	rn, size := utf8.DecodeRuneInString(r.input[r.pos:])
	if r.pos >= r.length || (!isPNCharsU(rn) && !(rn >= '0' && rn <= '9')) {
		return nil, r.errorf("invalid blank node label")
	}
	r.pos += size

	for r.pos < r.length {
		rn, size := utf8.DecodeRuneInString(r.input[r.pos:])
		if !isPNChars(rn) && rn != '.' {
			break
		}
		r.pos += size
	}
	// Labels cannot end with '.'
	for r.input[r.pos-1] == '.' {
		r.pos--
	}

	return r.labeledBlankNode(r.input[start:r.pos]), nil
}

// labeledBlankNode returns the node for a user label. The label is kept
// unless an earlier generated id already took it.
func (r *TurtleReader) labeledBlankNode(label string) *BlankNode {
	if id, ok := r.labels[label]; ok {
		return NewBlankNode(id)
	}
	id := r.bnodePrefix + label
	if r.usedIDs[id] {
		id = r.nextGeneratedID()
	}
	r.labels[label] = id
	r.usedIDs[id] = true
	return NewBlankNode(id)
}

// newBlankNode generates a fresh blank node for [] and collections
func (r *TurtleReader) newBlankNode() *BlankNode {
	id := r.nextGeneratedID()
	r.usedIDs[id] = true
	return NewBlankNode(id)
}

func (r *TurtleReader) nextGeneratedID() string {
	for {
		r.genIDNext++
		id := r.bnodePrefix + "genid" + strconv.Itoa(r.genIDNext)
		if !r.usedIDs[id] {
			return id
		}
	}
}

// parseBlankNodePropertyList parses [] or [ predicateObjectList ]
func (r *TurtleReader) parseBlankNodePropertyList() (Term, error) {
	r.pos++ // skip '['
	node := r.newBlankNode()

	r.skipWhitespaceAndComments()
	if r.pos < r.length && r.input[r.pos] == ']' {
		r.pos++
		return node, nil
	}

	if err := r.parsePredicateObjectList(node, ']'); err != nil {
		return nil, err
	}
	r.skipWhitespaceAndComments()
	if r.pos >= r.length || r.input[r.pos] != ']' {
		return nil, r.errorf("expected ']' at end of blank node property list")
	}
	r.pos++
	return node, nil
}

// parseCollection parses ( item* ) into an rdf:first/rdf:rest list
func (r *TurtleReader) parseCollection() (Term, error) {
	r.pos++ // skip '('

	var head, tail Term
	for {
		r.skipWhitespaceAndComments()
		if r.pos >= r.length {
			return nil, r.errorf("unterminated collection")
		}
		if r.input[r.pos] == ')' {
			r.pos++
			break
		}

		cell := r.newBlankNode()
		if head == nil {
			head = cell
		} else {
			r.emit(tail, RDFRest, cell)
		}
		tail = cell

		item, err := r.parseObject()
		if err != nil {
			return nil, err
		}
		r.emit(cell, RDFFirst, item)
	}

	if head == nil {
		return RDFNil, nil
	}
	r.emit(tail, RDFRest, RDFNil)
	return head, nil
}

// parseLiteral parses a quoted string with an optional language tag or datatype
func (r *TurtleReader) parseLiteral() (Term, error) {
	start := r.pos
	quote := r.input[r.pos]
	long := strings.HasPrefix(r.input[r.pos:], strings.Repeat(string(quote), 3))

	if r.strictNTriples && (quote == '\'' || long) {
		return nil, r.errorf("only double-quoted literals are allowed in N-Triples")
	}

	delimiter := string(quote)
	if long {
		delimiter = strings.Repeat(delimiter, 3)
	}
	r.pos += len(delimiter)

	var value strings.Builder
	for {
		if r.pos >= r.length {
			r.pos = start
			return nil, r.errorf("unterminated string literal")
		}
		ch := r.input[r.pos]
		if strings.HasPrefix(r.input[r.pos:], delimiter) {
			// """a"""" ends with a quote inside the value
			if long {
				for r.pos+len(delimiter) < r.length && r.input[r.pos+len(delimiter)] == quote {
					value.WriteByte(quote)
					r.pos++
				}
			}
			r.pos += len(delimiter)
			break
		}
		if !long && (ch == '\n' || ch == '\r') {
			r.pos = start
			return nil, r.errorf("unterminated string literal")
		}
		if ch == '\\' {
			if err := r.parseStringEscape(&value); err != nil {
				return nil, err
			}
			continue
		}
		if ch >= utf8.RuneSelf {
			rn, size := utf8.DecodeRuneInString(r.input[r.pos:])
			if rn == utf8.RuneError && size == 1 {
				return nil, r.errorf("invalid UTF-8 in string literal")
			}
			value.WriteString(r.input[r.pos : r.pos+size])
			r.pos += size
			continue
		}
		value.WriteByte(ch)
		r.pos++
	}

	if r.pos < r.length && r.input[r.pos] == '@' {
		r.pos++ // skip '@'
		lang, err := r.parseLanguageTag()
		if err != nil {
			return nil, err
		}
		return NewLiteralWithLanguage(value.String(), lang), nil
	}

	if strings.HasPrefix(r.input[r.pos:], "^^") {
		r.pos += 2 // skip '^^'
		if r.pos >= r.length {
			return nil, r.errorf("expected datatype after '^^'")
		}
		var datatype Term
		var err error
		if r.input[r.pos] == '<' {
			var iri string
			iri, err = r.parseIRI()
			datatype = NewNamedNode(iri)
		} else if r.strictNTriples {
			return nil, r.errorf("prefixed datatypes not allowed in N-Triples")
		} else {
			datatype, err = r.parsePrefixedName()
		}
		if err != nil {
			return nil, err
		}
		return NewLiteralWithDatatype(value.String(), datatype.(*NamedNode)), nil
	}

	return NewLiteral(value.String()), nil
}

func (r *TurtleReader) parseStringEscape(value *strings.Builder) error {
	if r.pos+1 >= r.length {
		return r.errorf("incomplete escape sequence")
	}
	next := r.input[r.pos+1]
	if next == 'u' || next == 'U' {
		escaped, err := r.parseUnicodeEscape()
		if err != nil {
			return err
		}
		value.WriteString(escaped)
		return nil
	}

	switch next {
	case 'n':
		value.WriteByte('\n')
	case 't':
		value.WriteByte('\t')
	case 'r':
		value.WriteByte('\r')
	case 'b':
		value.WriteByte('\b')
	case 'f':
		value.WriteByte('\f')
	case '"', '\'', '\\':
		value.WriteByte(next)
	default:
		return r.errorf("invalid escape sequence \\%c", next)
	}
	r.pos += 2
	return nil
}

// parseLanguageTag parses [a-zA-Z]+ ('-' [a-zA-Z0-9]+)*
func (r *TurtleReader) parseLanguageTag() (string, error) {
	start := r.pos
	for r.pos < r.length && isASCIILetter(r.input[r.pos]) {
		r.pos++
	}
	if r.pos == start {
		return "", r.errorf("invalid language tag")
	}
	for r.pos+1 < r.length && r.input[r.pos] == '-' && isASCIIAlnum(r.input[r.pos+1]) {
		r.pos++
		for r.pos < r.length && isASCIIAlnum(r.input[r.pos]) {
			r.pos++
		}
	}
	return r.input[start:r.pos], nil
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isASCIIAlnum(ch byte) bool {
	return isASCIILetter(ch) || (ch >= '0' && ch <= '9')
}

// parseNumber parses integer, decimal and double shorthands, keeping the lexical form
func (r *TurtleReader) parseNumber() (Term, error) {
	start := r.pos
	isDigit := func() bool { return r.pos < r.length && r.input[r.pos] >= '0' && r.input[r.pos] <= '9' }

	if r.input[r.pos] == '+' || r.input[r.pos] == '-' {
		r.pos++
	}
	intDigits := 0
	for isDigit() {
		r.pos++
		intDigits++
	}

	datatype := XSDInteger
	// A '.' only belongs to the number when digits or an exponent follow
	if r.pos+1 < r.length && r.input[r.pos] == '.' {
		next := r.input[r.pos+1]
		if next >= '0' && next <= '9' {
			datatype = XSDDecimal
			r.pos++
			for isDigit() {
				r.pos++
			}
		} else if (next == 'e' || next == 'E') && intDigits > 0 {
			datatype = XSDDecimal
			r.pos++
		}
	}

	if r.pos < r.length && (r.input[r.pos] == 'e' || r.input[r.pos] == 'E') {
		datatype = XSDDouble
		r.pos++
		if r.pos < r.length && (r.input[r.pos] == '+' || r.input[r.pos] == '-') {
			r.pos++
		}
		if !isDigit() {
			return nil, r.errorf("expected digits in exponent")
		}
		for isDigit() {
			r.pos++
		}
	}

	return NewLiteralWithDatatype(r.input[start:r.pos], datatype), nil
}

// parsePrefixedName parses prefix:local and expands it with the declared prefixes
func (r *TurtleReader) parsePrefixedName() (Term, error) {
	start := r.pos

	// PN_PREFIX ::= PN_CHARS_BASE ((PN_CHARS|'.')* PN_CHARS)?
	for r.pos < r.length && r.input[r.pos] != ':' {
		rn, size := utf8.DecodeRuneInString(r.input[r.pos:])
		if r.pos == start && !isPNCharsBase(rn) {
			return nil, r.errorf("invalid prefix start character %q", rn)
		}
		if !isPNChars(rn) && rn != '.' {
			break
		}
		r.pos += size
	}
	if r.pos >= r.length || r.input[r.pos] != ':' {
		return nil, r.errorf("expected ':' in prefixed name")
	}
	prefix := r.input[start:r.pos]
	if strings.HasSuffix(prefix, ".") {
		return nil, r.errorf("prefix cannot end with '.'")
	}
	r.pos++ // skip ':'

	local, err := r.parseLocalName()
	if err != nil {
		return nil, err
	}

	ns, ok := r.prefixes[prefix]
	if !ok {
		r.pos = start
		return nil, r.errorf("undefined prefix %q", prefix)
	}
	return NewNamedNode(ns + local), nil
}

// parseLocalName parses PN_LOCAL including percent encodings and backslash escapes
func (r *TurtleReader) parseLocalName() (string, error) {
	var local strings.Builder
	first := true
	for r.pos < r.length {
		rn, size := utf8.DecodeRuneInString(r.input[r.pos:])

		switch {
		case rn == '%':
			if r.pos+2 >= r.length || !isHexDigit(r.input[r.pos+1]) || !isHexDigit(r.input[r.pos+2]) {
				return "", r.errorf("invalid percent encoding in local name")
			}
			local.WriteString(r.input[r.pos : r.pos+3])
			r.pos += 3
		case rn == '\\':
			if r.pos+1 >= r.length || !strings.ContainsRune(localEscapes, rune(r.input[r.pos+1])) {
				return "", r.errorf("invalid escape sequence in local name")
			}
			local.WriteByte(r.input[r.pos+1])
			r.pos += 2
		case first && (isPNCharsU(rn) || rn == ':' || (rn >= '0' && rn <= '9')):
			local.WriteRune(rn)
			r.pos += size
		case !first && (isPNChars(rn) || rn == ':' || rn == '.'):
			local.WriteRune(rn)
			r.pos += size
		default:
			return r.trimLocalDots(local.String()), nil
		}
		first = false
	}
	return r.trimLocalDots(local.String()), nil
}

// trimLocalDots gives trailing dots back to the input: PN_LOCAL cannot end with '.'
func (r *TurtleReader) trimLocalDots(local string) string {
	trimmed := strings.TrimRight(local, ".")
	r.pos -= len(local) - len(trimmed)
	return trimmed
}

const localEscapes = "_~.-!$&'()*+,;=/?#@%"

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// isPNCharsBase checks PN_CHARS_BASE from the Turtle grammar
func isPNCharsBase(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

// isPNCharsU checks PN_CHARS_U ::= PN_CHARS_BASE | '_'
func isPNCharsU(r rune) bool {
	return isPNCharsBase(r) || r == '_'
}

// isPNChars checks PN_CHARS ::= PN_CHARS_U | '-' | [0-9] | #x00B7 | [#x0300-#x036F] | [#x203F-#x2040]
func isPNChars(r rune) bool {
	return isPNCharsU(r) ||
		r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}
