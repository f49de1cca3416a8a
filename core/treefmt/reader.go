package treefmt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

// DefaultMaxDepth bounds node nesting when reading. Reading does not recurse,
// so the limit only guards memory against hostile input.
const DefaultMaxDepth = 1 << 20

// EndOfInput is MalformedTreeError.Found when the input ran out.
const EndOfInput = "end of input"

// MalformedTreeError reports the first place the input leaves the grammar.
// The read that produced it returns no tree.
type MalformedTreeError struct {
	Offset     int
	Position   diag.Position
	Reason     string
	Found      string // offending token text, or EndOfInput
	Suggestion string // "did you mean 'while'?"
}

func (e *MalformedTreeError) Error() string {
	msg := fmt.Sprintf("malformed tree at %s (offset %d): %s", e.Position, e.Offset, e.Summary())
	if e.Suggestion != "" {
		msg += "; " + e.Suggestion
	}
	return msg
}

// Summary is the reason and the offending text, without position or
// suggestion.
func (e *MalformedTreeError) Summary() string {
	switch e.Found {
	case "":
		return e.Reason
	case EndOfInput:
		return e.Reason + ", found end of input"
	default:
		return fmt.Sprintf("%s, found '%s'", e.Reason, e.Found)
	}
}

// ReadOption configures Read and Unmarshal.
type ReadOption func(*readConfig)

type readConfig struct {
	maxDepth int
}

// WithMaxDepth sets the nesting limit. Values below 1 are ignored.
func WithMaxDepth(n int) ReadOption {
	return func(c *readConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// Read reads one tree from r.
func Read(r io.Reader, opts ...ReadOption) (*tree.Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return Unmarshal(data, opts...)
}

// Unmarshal parses exactly one tree from data. Surrounding whitespace is
// allowed; anything else after the tree is an error.
func Unmarshal(data []byte, opts ...ReadOption) (*tree.Tree, error) {
	cfg := readConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	rd := &reader{src: data, maxDepth: cfg.maxDepth}
	return rd.read()
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpen
	tokClose
	tokString
	tokAtom
)

type token struct {
	kind   tokenKind
	text   string // name for tokString, raw text otherwise
	offset int
}

func (t token) found() string {
	switch t.kind {
	case tokEOF:
		return EndOfInput
	case tokOpen:
		return "("
	case tokClose:
		return ")"
	case tokString:
		return `"` + t.text + `"`
	default:
		return t.text
	}
}

func (t token) isNil() bool {
	return t.kind == tokAtom && t.text == "nil"
}

// frame is a node whose value has been read and whose children are being
// filled in. The node itself is only built once its ')' is seen, so an error
// leaves nothing but complete child subtrees to free.
type frame struct {
	value  tree.Value
	left   *tree.Node
	right  *tree.Node
	filled int
}

func (f *frame) set(n *tree.Node) {
	if f.filled == 0 {
		f.left = n
	} else {
		f.right = n
	}
	f.filled++
}

type reader struct {
	src      []byte
	pos      int
	maxDepth int
	stack    []frame
}

func (r *reader) read() (*tree.Tree, error) {
	root, err := r.root()
	if err != nil {
		r.abandon()
		return nil, err
	}

	tok, err := r.next()
	if err == nil && tok.kind != tokEOF {
		err = r.errorAt(tok, "trailing data after the tree")
	}
	if err != nil {
		tree.Delete(root, nil)
		return nil, err
	}
	return &tree.Tree{Root: root}, nil
}

func (r *reader) root() (*tree.Node, error) {
	tok, err := r.next()
	if err != nil {
		return nil, err
	}
	if tok.isNil() {
		return nil, nil
	}
	if tok.kind != tokOpen {
		return nil, r.errorAt(tok, "expected '('")
	}
	if err := r.open(tok); err != nil {
		return nil, err
	}

	for {
		top := &r.stack[len(r.stack)-1]
		tok, err := r.next()
		if err != nil {
			return nil, err
		}

		if top.filled == 2 {
			if tok.kind != tokClose {
				return nil, r.errorAt(tok, "missing ')'")
			}
			n := tree.NewOp(top.value, top.left, top.right)
			r.stack = r.stack[:len(r.stack)-1]
			if len(r.stack) == 0 {
				return n, nil
			}
			r.stack[len(r.stack)-1].set(n)
			continue
		}

		switch {
		case tok.isNil():
			top.set(nil)
		case tok.kind == tokOpen:
			if err := r.open(tok); err != nil {
				return nil, err
			}
		default:
			return nil, r.errorAt(tok, "expected '(' or nil")
		}
	}
}

// open pushes a frame for the node whose '(' is at tok.
func (r *reader) open(tok token) error {
	if len(r.stack) >= r.maxDepth {
		return r.errorAt(tok, fmt.Sprintf("nesting deeper than %d", r.maxDepth))
	}
	v, err := r.value()
	if err != nil {
		return err
	}
	r.stack = append(r.stack, frame{value: v})
	return nil
}

func (r *reader) value() (tree.Value, error) {
	tok, err := r.next()
	if err != nil {
		return tree.Value{}, err
	}

	switch tok.kind {
	case tokString:
		if tok.text == "" || strings.ContainsAny(tok.text, " \t\r\n\f\v") {
			return tree.Value{}, r.errorAt(tok, "invalid variable name")
		}
		return tree.Var(tok.text), nil
	case tokAtom:
		if tok.isNil() {
			return tree.Value{}, r.errorAt(tok, "expected node value")
		}
		if op, ok := lang.ByDisplay(tok.text); ok {
			return tree.Oper(op), nil
		}
		if isNumber(tok.text) {
			n, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				reason := "invalid number"
				if errors.Is(err, strconv.ErrRange) {
					reason = "number out of range"
				}
				return tree.Value{}, r.errorAt(tok, reason)
			}
			return tree.Num(n), nil
		}
		if startsNumber(tok.text) {
			return tree.Value{}, r.errorAt(tok, "invalid number")
		}
		err := r.errorAt(tok, "unknown operator")
		err.Suggestion = diag.DidYouMean(diag.Suggest(tok.text, lang.Displays()))
		return tree.Value{}, err
	default:
		return tree.Value{}, r.errorAt(tok, "expected node value")
	}
}

// abandon frees every finished child still waiting for its parent's ')'.
func (r *reader) abandon() {
	for _, f := range r.stack {
		tree.Delete(f.left, nil)
		tree.Delete(f.right, nil)
	}
	r.stack = nil
}

func (r *reader) next() (token, error) {
	for r.pos < len(r.src) && isSpace(r.src[r.pos]) {
		r.pos++
	}
	start := r.pos
	if start >= len(r.src) {
		return token{kind: tokEOF, offset: start}, nil
	}

	switch r.src[start] {
	case '(':
		r.pos++
		return token{kind: tokOpen, offset: start}, nil
	case ')':
		r.pos++
		return token{kind: tokClose, offset: start}, nil
	case '"':
		end := start + 1
		for end < len(r.src) && r.src[end] != '"' {
			end++
		}
		if end >= len(r.src) {
			return token{}, &MalformedTreeError{
				Offset:   start,
				Position: diag.PositionAt(r.src, start),
				Reason:   "unterminated string",
				Found:    diag.Excerpt(r.src, start, 20),
			}
		}
		r.pos = end + 1
		return token{kind: tokString, text: string(r.src[start+1 : end]), offset: start}, nil
	}

	end := start
	for end < len(r.src) && !isSpace(r.src[end]) && !isDelimiter(r.src[end]) {
		end++
	}
	r.pos = end
	return token{kind: tokAtom, text: string(r.src[start:end]), offset: start}, nil
}

func (r *reader) errorAt(tok token, reason string) *MalformedTreeError {
	return &MalformedTreeError{
		Offset:   tok.offset,
		Position: diag.PositionAt(r.src, tok.offset),
		Reason:   reason,
		Found:    tok.found(),
	}
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDelimiter(ch byte) bool {
	return ch == '(' || ch == ')' || ch == '"'
}

// isNumber accepts exactly what the writer prints: -?[0-9]*(\.[0-9]+)? with
// at least one digit. Exponents, a leading '+' and a bare trailing '.' are
// not part of the format.
func isNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	intDigits := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
		intDigits++
	}
	if i == len(s) {
		return intDigits > 0
	}
	if s[i] != '.' {
		return false
	}
	i++
	fracDigits := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
		fracDigits++
	}
	return i == len(s) && fracDigits > 0
}

// startsNumber reports whether s was meant as a number, so the error says
// "invalid number" rather than "unknown operator".
func startsNumber(s string) bool {
	if s == "" {
		return false
	}
	switch ch := s[0]; {
	case '0' <= ch && ch <= '9', ch == '.', ch == '-', ch == '+':
		return true
	}
	return false
}
