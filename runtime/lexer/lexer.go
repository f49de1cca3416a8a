// Package lexer turns source text into a Sequence of single-node tokens.
//
// Each token is a childless tree.Node carrying a number, a variable name or a
// registered operation. Lexing is all-or-nothing: an unrecognized character
// yields a *LexError and no sequence.
package lexer

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/invariant"
	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

// ContextWidth is how many bytes of source a LexError quotes.
const ContextWidth = 20

// Option configures a Lexer.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	telemetry bool
}

// WithLogger traces every token at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTelemetry enables per-kind token counts, read back with Stats.
func WithTelemetry() Option {
	return func(c *config) {
		c.telemetry = true
	}
}

// Stats is the lexer's telemetry. It is zero unless WithTelemetry was given.
type Stats struct {
	Tokens   int
	Counts   map[string]int // keyed like Sequence.Kinds
	Duration time.Duration
}

// Lexer scans one source text.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int

	logger    *slog.Logger
	telemetry bool
	stats     Stats
}

// NewLexer creates a lexer over input.
func NewLexer(input []byte, opts ...Option) *Lexer {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &Lexer{
		input:     input,
		line:      1,
		column:    1,
		logger:    cfg.logger,
		telemetry: cfg.telemetry,
	}
	if l.telemetry {
		l.stats.Counts = make(map[string]int)
	}
	return l
}

// Lex is NewLexer(src, opts...).Lex().
func Lex(src []byte, opts ...Option) (*Sequence, error) {
	return NewLexer(src, opts...).Lex()
}

// LexString lexes a string.
func LexString(src string, opts ...Option) (*Sequence, error) {
	return Lex([]byte(src), opts...)
}

// Stats returns a copy of the telemetry gathered by the last Lex.
func (l *Lexer) Stats() Stats {
	if !l.telemetry {
		return Stats{}
	}
	out := l.stats
	out.Counts = make(map[string]int, len(l.stats.Counts))
	for k, v := range l.stats.Counts {
		out.Counts[k] = v
	}
	return out
}

// Lex scans the whole input. On failure the partial sequence is discarded and
// a *LexError is returned.
func (l *Lexer) Lex() (*Sequence, error) {
	l.pos, l.line, l.column = 0, 1, 1

	var start time.Time
	if l.telemetry {
		start = time.Now()
		l.stats = Stats{Counts: make(map[string]int)}
	}

	seq := newSequence(l.input)
	for {
		l.skipTrivia()
		if l.pos >= len(l.input) {
			break
		}

		prev := l.pos
		if err := l.lexToken(seq); err != nil {
			seq.Discard(nil)
			l.logger.Debug("lex failed", "offset", err.Offset, "char", string(err.Char))
			return nil, err
		}
		invariant.Invariant(l.pos > prev, "lexer stuck at offset %d", prev)
	}

	if l.telemetry {
		l.stats.Duration = time.Since(start)
	}
	l.logger.Debug("lexed", "tokens", seq.Len(), "bytes", len(l.input))
	return seq, nil
}

// lexToken recognizes one token at the current offset: a registered operator
// or keyword, then a number, then an identifier.
func (l *Lexer) lexToken(seq *Sequence) *LexError {
	startPos := l.position()
	ch := l.input[l.pos]

	if e, ok := lang.Match(l.input[l.pos:]); ok {
		l.emit(seq, tree.Oper(e.Op), startPos, len(e.Surface))
		return nil
	}

	if digit(ch) || (ch == '.' && l.pos+1 < len(l.input) && digit(l.input[l.pos+1])) {
		n := l.scanNumber()
		text := string(l.input[l.pos : l.pos+n])
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// Only overflow gets here; the scanner admits plain decimals.
			return l.errorAt(startPos, "number out of range")
		}
		l.emit(seq, tree.Num(v), startPos, n)
		return nil
	}

	if identStart(ch) {
		n := l.scanIdentifier()
		l.emit(seq, tree.Var(string(l.input[l.pos:l.pos+n])), startPos, n)
		return nil
	}

	return l.errorAt(startPos, "unexpected character")
}

func (l *Lexer) emit(seq *Sequence, v tree.Value, pos diag.Position, length int) {
	text := string(l.input[l.pos : l.pos+length])
	seq.push(tree.NewNode(v), pos, text)
	l.advance(length)

	kind := KindOf(seq.Peek(seq.Len() - 1))
	if l.telemetry {
		l.stats.Tokens++
		l.stats.Counts[kind]++
	}
	l.logger.Debug("token", "kind", kind, "text", text, "pos", pos.String())
}

// scanNumber returns the length of the numeric literal at the current offset:
// digits with an optional fraction, or '.' followed by digits.
func (l *Lexer) scanNumber() int {
	i := l.pos
	for i < len(l.input) && digit(l.input[i]) {
		i++
	}
	if i+1 < len(l.input) && l.input[i] == '.' && digit(l.input[i+1]) {
		i++
		for i < len(l.input) && digit(l.input[i]) {
			i++
		}
	}
	return i - l.pos
}

func (l *Lexer) scanIdentifier() int {
	i := l.pos + 1
	for i < len(l.input) && identPart(l.input[i]) {
		i++
	}
	return i - l.pos
}

// skipTrivia skips whitespace and // line comments.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case whitespace(ch):
			l.advance(1)
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance(1)
			}
		default:
			return
		}
	}
}

func (l *Lexer) advance(n int) {
	for ; n > 0 && l.pos < len(l.input); n-- {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) position() diag.Position {
	return diag.Position{Offset: l.pos, Line: l.line, Column: l.column}
}

func (l *Lexer) errorAt(pos diag.Position, reason string) *LexError {
	return &LexError{
		Offset:  pos.Offset,
		Line:    pos.Line,
		Column:  pos.Column,
		Char:    l.input[pos.Offset],
		Reason:  reason,
		Context: diag.Excerpt(l.input, pos.Offset, ContextWidth),
		Source:  l.input,
	}
}
