package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/aledsdavies/treelang/core/diag"
)

// LexError reports the first byte the lexer could not turn into a token.
type LexError struct {
	Offset  int
	Line    int
	Column  int
	Char    byte
	Reason  string
	Context string // up to ContextWidth bytes from Offset
	Source  []byte // for the snippet; not compared
}

func (e *LexError) Error() string {
	msg := fmt.Sprintf("lexical error at %d:%d (offset %d): %s",
		e.Line, e.Column, e.Offset, e.Summary())
	if snippet := e.Snippet(); snippet != "" {
		msg += "\n" + snippet
	}
	return msg
}

// Summary is the one-line description without position or snippet.
func (e *LexError) Summary() string {
	return fmt.Sprintf("%s %s near %q", e.Reason, e.describeChar(), e.Context)
}

// Position returns where the error occurred.
func (e *LexError) Position() diag.Position {
	return diag.Position{Offset: e.Offset, Line: e.Line, Column: e.Column}
}

// Snippet renders the offending line with a caret.
func (e *LexError) Snippet() string {
	return diag.Snippet(e.Source, e.Position())
}

func (e *LexError) describeChar() string {
	if e.Char < utf8.RuneSelf && e.Char >= 0x20 && e.Char != 0x7f {
		return fmt.Sprintf("'%c'", e.Char)
	}
	return fmt.Sprintf("byte 0x%02x", e.Char)
}
