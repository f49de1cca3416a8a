// Package parser builds the AST from a lexer.Sequence by recursive descent.
//
// Token nodes are linked into the tree rather than copied: a binary operator's
// own token becomes the operator node, a statement's ';' becomes its spine
// node. The parser moves each such token out of its sequence slot with
// Sequence.Take and frees consumed punctuation with Sequence.Release, so after
// a successful parse the sequence holds nothing.
//
// Tree shapes:
//
//	statements   (; s1 (; s2 nil))          right-leaning spine
//	main         (main <params> <body>)
//	func         (func ("name" <params> nil) <body>)
//	params/args  (, e1 (, e2 nil))
//	call         (call ("name" <args> nil) nil)
//	if           (if c <then>) or (if c (else <then> <else>))
//	while        (while c <body>)
//	return       (return e nil)
//	builtins     (sqrt e nil) (input nil nil) (print e nil)
//	assignment   (:= "x" e) or (= "x" e)
//
// The first error aborts the parse. Nodes already taken are deleted; tokens
// still in the sequence stay there for the caller to Discard.
package parser

import (
	"time"

	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/invariant"
	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
	"github.com/aledsdavies/treelang/runtime/lexer"
)

// Parser holds configuration and the telemetry of its last parse.
type Parser struct {
	cfg       config
	telemetry *Telemetry
}

// New creates a parser.
func New(opts ...Option) *Parser {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Parser{cfg: cfg}
}

// Telemetry returns the figures of the last successful parse, or nil when
// WithTelemetry was not given.
func (p *Parser) Telemetry() *Telemetry {
	if p.telemetry == nil {
		return nil
	}
	t := *p.telemetry
	return &t
}

type mode int

const (
	modeProgram mode = iota
	modeStatements
	modeExpression
)

func (m mode) String() string {
	switch m {
	case modeProgram:
		return "program"
	case modeStatements:
		return "statements"
	default:
		return "expression"
	}
}

// Program parses `program := function+`.
func (p *Parser) Program(seq *lexer.Sequence) (*tree.Tree, error) {
	return p.run(seq, modeProgram)
}

// Statements parses a statement list up to the end of input.
func (p *Parser) Statements(seq *lexer.Sequence) (*tree.Tree, error) {
	return p.run(seq, modeStatements)
}

// Expression parses one expression that must span the whole input.
func (p *Parser) Expression(seq *lexer.Sequence) (*tree.Tree, error) {
	return p.run(seq, modeExpression)
}

func (p *Parser) run(seq *lexer.Sequence, m mode) (*tree.Tree, error) {
	invariant.NotNil(seq, "token sequence")

	var start time.Time
	if p.cfg.telemetry {
		start = time.Now()
	}

	st := &state{seq: seq, cfg: &p.cfg}
	p.cfg.logger.Debug("parse start", "mode", m.String(), "tokens", seq.Len())

	var root *tree.Node
	var err error
	switch m {
	case modeProgram:
		root, err = st.program()
	case modeStatements:
		root, err = st.sequence(lang.OpNone, "statement list")
	case modeExpression:
		root, err = st.expression()
		if err == nil && !st.atEnd() {
			err = st.errorExpected("end of input", "expression")
		}
	}
	if err != nil {
		freed := st.abandon()
		if se, ok := err.(*SyntaxError); ok {
			p.cfg.logger.Debug("parse failed", "token", se.TokenIndex, "error", se.Summary(), "freed", freed)
		}
		return nil, err
	}

	invariant.Postcondition(seq.Held() == 0, "%d tokens left in the sequence after parsing", seq.Held())
	invariant.Postcondition(tree.Count(root) == len(st.owned), "%d nodes taken but %d reachable", len(st.owned), tree.Count(root))
	invariant.ExpectNoError(tree.Validate(root), "validating parsed tree")

	if p.cfg.telemetry {
		p.telemetry = &Telemetry{
			Tokens:      seq.Len(),
			Nodes:       len(st.owned),
			Synthesized: st.synthesized,
			Released:    st.released,
			ParseTime:   time.Since(start),
		}
	}
	p.cfg.logger.Debug("parse done", "mode", m.String(), "nodes", len(st.owned))
	return tree.New(root), nil
}

// Parse parses a whole program.
func Parse(seq *lexer.Sequence, opts ...Option) (*tree.Tree, error) {
	return New(opts...).Program(seq)
}

// ParseStatements parses a bare statement list (script mode).
func ParseStatements(seq *lexer.Sequence, opts ...Option) (*tree.Tree, error) {
	return New(opts...).Statements(seq)
}

// ParseExpression parses a single expression.
func ParseExpression(seq *lexer.Sequence, opts ...Option) (*tree.Tree, error) {
	return New(opts...).Expression(seq)
}

// ParseString lexes and parses a program. The token sequence is always
// discarded; lexical errors are returned as *lexer.LexError.
func ParseString(src string, opts ...Option) (*tree.Tree, error) {
	return parseSource(src, modeProgram, opts)
}

// ParseStatementsString is ParseString for a statement list.
func ParseStatementsString(src string, opts ...Option) (*tree.Tree, error) {
	return parseSource(src, modeStatements, opts)
}

// ParseExpressionString is ParseString for a single expression.
func ParseExpressionString(src string, opts ...Option) (*tree.Tree, error) {
	return parseSource(src, modeExpression, opts)
}

func parseSource(src string, m mode, opts []Option) (*tree.Tree, error) {
	p := New(opts...)
	seq, err := lexer.Lex([]byte(src), lexer.WithLogger(p.cfg.logger))
	if err != nil {
		return nil, err
	}
	defer seq.Discard(nil)
	return p.run(seq, m)
}

// state is one parse in progress.
type state struct {
	seq   *lexer.Sequence
	cfg   *config
	pos   int
	depth int

	// owned lists every node taken from the sequence or synthesized, in
	// order. On failure the parentless ones are the roots of the partial
	// trees.
	owned       []*tree.Node
	synthesized int
	released    int
}

// abandon deletes every partial tree and returns the number of nodes freed.
func (s *state) abandon() int {
	var roots []*tree.Node
	for _, n := range s.owned {
		if n.Parent == nil {
			roots = append(roots, n)
		}
	}
	freed := 0
	for _, n := range roots {
		freed += tree.Delete(n, nil)
	}
	s.owned = nil
	return freed
}

// Token access

func (s *state) atEnd() bool {
	return s.pos >= s.seq.Len()
}

func (s *state) peekAt(offset int) *tree.Node {
	return s.seq.Peek(s.pos + offset)
}

func (s *state) at(op lang.Op) bool {
	n := s.peekAt(0)
	return n != nil && n.Value.IsOp(op)
}

func (s *state) atKind(kind tree.Kind) bool {
	n := s.peekAt(0)
	return n != nil && n.Value.Kind == kind
}

// take moves the current token into the parser's ownership and advances.
func (s *state) take() *tree.Node {
	n := s.seq.Take(s.pos)
	s.pos++
	s.owned = append(s.owned, n)
	return n
}

// release frees the current punctuation token and advances.
func (s *state) release() {
	s.seq.Release(s.pos)
	s.pos++
	s.released++
}

func (s *state) synth(op lang.Op) *tree.Node {
	n := tree.NewNode(tree.Oper(op))
	s.owned = append(s.owned, n)
	s.synthesized++
	return n
}

// expect releases the current token if it is op.
func (s *state) expect(op lang.Op, context string) error {
	if !s.at(op) {
		return s.errorExpected("'"+op.String()+"'", context)
	}
	s.release()
	return nil
}

func (s *state) enter(context string) error {
	s.depth++
	if s.depth > s.cfg.maxDepth {
		err := s.errorExpected("shallower nesting", context)
		err.Message = "nesting too deep"
		return err
	}
	return nil
}

func (s *state) leave() {
	s.depth--
}

// Grammar

// program := function+, chained through a semicolon spine.
func (s *state) program() (*tree.Node, error) {
	var spine []*tree.Node
	for {
		s.skipStraySemicolons()
		if s.atEnd() {
			break
		}

		fn, err := s.function()
		if err != nil {
			return nil, err
		}
		s.cfg.logger.Debug("function", "kind", fn.Value.String(), "token", s.pos)

		semi := s.spineFor(nil)
		semi.SetLeft(fn)
		spine = append(spine, semi)
	}
	if len(spine) == 0 {
		return nil, s.errorExpected("function definition", "program")
	}
	return chain(spine), nil
}

// function := ('main' | 'func' variable) '(' paramList? ')' block
func (s *state) function() (*tree.Node, error) {
	switch {
	case s.at(lang.OpMain):
		fn := s.take()
		params, err := s.list("parameter list", s.param)
		if err != nil {
			return nil, err
		}
		body, err := s.block("body of main")
		if err != nil {
			return nil, err
		}
		fn.SetLeft(params)
		fn.SetRight(body)
		return fn, nil

	case s.at(lang.OpFunc):
		fn := s.take()
		if !s.atKind(tree.KindVariable) {
			return nil, s.errorExpected("function name", "function definition")
		}
		name := s.take()
		fn.SetLeft(name)
		params, err := s.list("parameter list", s.param)
		if err != nil {
			return nil, err
		}
		name.SetLeft(params)
		body, err := s.block("body of " + name.Value.Name)
		if err != nil {
			return nil, err
		}
		fn.SetRight(body)
		return fn, nil

	default:
		return nil, s.errorExpected("function definition ('main' or 'func')", "program")
	}
}

func (s *state) param() (*tree.Node, error) {
	if !s.atKind(tree.KindVariable) {
		return nil, s.errorExpected("parameter name", "parameter list")
	}
	return s.take(), nil
}

// list parses '(' (elem (',' elem)*)? ')' into a comma spine. Each element
// hangs off the ',' that follows it; the last one gets a synthesized ','.
// An empty list is nil.
func (s *state) list(context string, elem func() (*tree.Node, error)) (*tree.Node, error) {
	if err := s.expect(lang.OpOpenParen, context); err != nil {
		return nil, err
	}
	if s.at(lang.OpCloseParen) {
		s.release()
		return nil, nil
	}

	var spine []*tree.Node
	for {
		e, err := elem()
		if err != nil {
			return nil, err
		}
		var comma *tree.Node
		more := s.at(lang.OpComma)
		if more {
			comma = s.take()
		} else {
			comma = s.synth(lang.OpComma)
		}
		comma.SetLeft(e)
		spine = append(spine, comma)
		if !more {
			break
		}
	}

	if err := s.expect(lang.OpCloseParen, context); err != nil {
		return nil, err
	}
	return chain(spine), nil
}

// block := '{' op+ '}'
func (s *state) block(context string) (*tree.Node, error) {
	if err := s.expect(lang.OpOpenBrace, context); err != nil {
		return nil, err
	}
	body, err := s.sequence(lang.OpCloseBrace, context)
	if err != nil {
		return nil, err
	}
	s.release()
	return body, nil
}

// sequence parses statements until closer (or the end of input for OpNone)
// and chains them through a semicolon spine. The closer itself is left for
// the caller.
func (s *state) sequence(closer lang.Op, context string) (*tree.Node, error) {
	var spine []*tree.Node
	for {
		s.skipStraySemicolons()
		if s.atEnd() {
			if closer != lang.OpNone {
				return nil, s.errorExpected("'"+closer.String()+"'", context)
			}
			break
		}
		if closer != lang.OpNone && s.at(closer) {
			break
		}

		stmt, semi, err := s.statement()
		if err != nil {
			return nil, err
		}
		semi = s.spineFor(semi)
		semi.SetLeft(stmt)
		spine = append(spine, semi)
	}

	if len(spine) == 0 {
		if closer == lang.OpNone {
			return nil, s.errorExpected("statement", context)
		}
		err := s.errorExpected("statement", context)
		err.Message = "empty block"
		return nil, err
	}
	return chain(spine), nil
}

// spineFor returns the ';' node for a statement: the statement's own ';', an
// optional ';' right after it, or a synthesized one.
func (s *state) spineFor(semi *tree.Node) *tree.Node {
	if semi != nil {
		return semi
	}
	if s.at(lang.OpSemicolon) {
		return s.take()
	}
	return s.synth(lang.OpSemicolon)
}

func (s *state) skipStraySemicolons() {
	for s.at(lang.OpSemicolon) {
		s.release()
	}
}

// statement parses one op. semi is the ';' token the statement ended with,
// nil for block-shaped statements.
//
//	op := block | if | while | 'return' expr ';' | assignment ';' | expr ';'
func (s *state) statement() (stmt, semi *tree.Node, err error) {
	if err := s.enter("statement"); err != nil {
		return nil, nil, err
	}
	defer s.leave()

	switch {
	case s.at(lang.OpOpenBrace):
		stmt, err = s.block("block")
		return stmt, nil, err

	case s.at(lang.OpIf):
		stmt, err = s.ifStatement()
		return stmt, nil, err

	case s.at(lang.OpWhile):
		stmt, err = s.whileStatement()
		return stmt, nil, err

	case s.at(lang.OpReturn):
		stmt = s.take()
		e, err := s.expression()
		if err != nil {
			return nil, nil, err
		}
		stmt.SetLeft(e)

	case s.atKind(tree.KindVariable) && s.isAssignOp(s.peekAt(1)):
		v := s.take()
		stmt = s.take()
		stmt.SetLeft(v)
		e, err := s.expression()
		if err != nil {
			return nil, nil, err
		}
		stmt.SetRight(e)

	default:
		stmt, err = s.expression()
		if err != nil {
			return nil, nil, err
		}
	}

	if !s.at(lang.OpSemicolon) {
		return nil, nil, s.errorExpected("';'", "statement")
	}
	return stmt, s.take(), nil
}

func (s *state) isAssignOp(n *tree.Node) bool {
	return n != nil && (n.Value.IsOp(lang.OpAdvert) || n.Value.IsOp(lang.OpAssign))
}

// ifStatement := 'if' '(' expr ')' op ('else' op)?
func (s *state) ifStatement() (*tree.Node, error) {
	ifNode := s.take()
	cond, err := s.condition("if condition")
	if err != nil {
		return nil, err
	}
	ifNode.SetLeft(cond)

	then, err := s.branch()
	if err != nil {
		return nil, err
	}
	if !s.at(lang.OpElse) {
		ifNode.SetRight(then)
		return ifNode, nil
	}

	elseNode := s.take()
	elseNode.SetLeft(then)
	ifNode.SetRight(elseNode)
	otherwise, err := s.branch()
	if err != nil {
		return nil, err
	}
	elseNode.SetRight(otherwise)
	return ifNode, nil
}

// whileStatement := 'while' '(' expr ')' op
func (s *state) whileStatement() (*tree.Node, error) {
	w := s.take()
	cond, err := s.condition("while condition")
	if err != nil {
		return nil, err
	}
	w.SetLeft(cond)
	body, err := s.branch()
	if err != nil {
		return nil, err
	}
	w.SetRight(body)
	return w, nil
}

func (s *state) condition(context string) (*tree.Node, error) {
	if err := s.expect(lang.OpOpenParen, context); err != nil {
		return nil, err
	}
	cond, err := s.expression()
	if err != nil {
		return nil, err
	}
	if err := s.expect(lang.OpCloseParen, context); err != nil {
		return nil, err
	}
	return cond, nil
}

// branch parses the body of if, else or while. A block is its own spine; any
// other statement is wrapped in a one-element spine.
func (s *state) branch() (*tree.Node, error) {
	isBlock := s.at(lang.OpOpenBrace)
	stmt, semi, err := s.statement()
	if err != nil {
		return nil, err
	}
	if isBlock {
		return stmt, nil
	}
	if semi == nil {
		semi = s.synth(lang.OpSemicolon)
	}
	semi.SetLeft(stmt)
	return semi, nil
}

// Expressions

// expression := term (('+' | '-') term)*
func (s *state) expression() (*tree.Node, error) {
	return s.binary(1)
}

// precedence of the current token as a binary operator, 0 if it is not one.
// All levels are left-associative, ^ included.
func (s *state) precedence() int {
	n := s.peekAt(0)
	if n == nil || n.Value.Kind != tree.KindOperation {
		return 0
	}
	switch n.Value.Op {
	case lang.OpAdd, lang.OpSub:
		return 1
	case lang.OpMul, lang.OpDiv:
		return 2
	case lang.OpPow:
		return 3
	default:
		return 0
	}
}

// binary is precedence climbing over expr, term and pow.
func (s *state) binary(minPrec int) (*tree.Node, error) {
	if err := s.enter("expression"); err != nil {
		return nil, err
	}
	defer s.leave()

	left, err := s.unary()
	if err != nil {
		return nil, err
	}
	for {
		prec := s.precedence()
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		op := s.take()
		op.SetLeft(left)
		right, err := s.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		op.SetRight(right)
		left = op
	}
}

// unary := 'sqrt' '(' expr ')' | primary
func (s *state) unary() (*tree.Node, error) {
	if !s.at(lang.OpSqrt) {
		return s.primary()
	}
	sq := s.take()
	arg, err := s.parenthesized("sqrt argument")
	if err != nil {
		return nil, err
	}
	sq.SetLeft(arg)
	return sq, nil
}

// primary := number | variable | '(' expr ')' | 'input' '(' ')'
//
//	| 'print' '(' expr ')' | 'call' variable '(' argList? ')'
func (s *state) primary() (*tree.Node, error) {
	switch {
	case s.atKind(tree.KindNumber), s.atKind(tree.KindVariable):
		return s.take(), nil

	case s.at(lang.OpOpenParen):
		return s.parenthesized("parenthesized expression")

	case s.at(lang.OpIn):
		in := s.take()
		if err := s.expect(lang.OpOpenParen, "input()"); err != nil {
			return nil, err
		}
		if err := s.expect(lang.OpCloseParen, "input()"); err != nil {
			return nil, err
		}
		return in, nil

	case s.at(lang.OpOut):
		out := s.take()
		arg, err := s.parenthesized("print argument")
		if err != nil {
			return nil, err
		}
		out.SetLeft(arg)
		return out, nil

	case s.at(lang.OpCall):
		call := s.take()
		if !s.atKind(tree.KindVariable) {
			return nil, s.errorExpected("function name", "call")
		}
		name := s.take()
		call.SetLeft(name)
		args, err := s.list("argument list", s.expression)
		if err != nil {
			return nil, err
		}
		name.SetLeft(args)
		return call, nil

	default:
		return nil, s.errorExpected("expression", "")
	}
}

func (s *state) parenthesized(context string) (*tree.Node, error) {
	if err := s.expect(lang.OpOpenParen, context); err != nil {
		return nil, err
	}
	e, err := s.expression()
	if err != nil {
		return nil, err
	}
	if err := s.expect(lang.OpCloseParen, context); err != nil {
		return nil, err
	}
	return e, nil
}

// chain links nodes into a right-leaning spine and returns its head. Links
// are made bottom-up, always under a parentless node, so long statement lists
// stay linear.
func chain(nodes []*tree.Node) *tree.Node {
	if len(nodes) == 0 {
		return nil
	}
	for i := len(nodes) - 1; i > 0; i-- {
		nodes[i-1].SetRight(nodes[i])
	}
	return nodes[0]
}

// errorExpected reports the current token as the offender.
func (s *state) errorExpected(expected, context string) *SyntaxError {
	err := &SyntaxError{
		TokenIndex: s.pos,
		Expected:   expected,
		Position:   s.seq.Position(s.pos),
		Context:    context,
		Source:     s.seq.Source(),
	}
	if s.atEnd() {
		err.Found = EndOfInput
	} else {
		err.Found = s.seq.Text(s.pos)
	}
	err.Suggestion = diag.DidYouMean(s.suggest())
	return err
}

// suggest looks for a misspelled keyword at or just before the error.
// "whle (x)" fails at '(' but the typo is the token before it.
func (s *state) suggest() string {
	for _, i := range []int{s.pos, s.pos - 1} {
		text := s.seq.Text(i)
		if !lang.IsIdentifier(text) {
			continue
		}
		if _, isKeyword := lang.Match([]byte(text)); isKeyword {
			continue
		}
		if hint := diag.Suggest(text, lang.Words()); hint != "" {
			return hint
		}
	}
	return ""
}
