package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/treelang/core/diag"
)

// EndOfInput is SyntaxError.Found when the parser ran out of tokens.
const EndOfInput = "end of input"

// SyntaxError is the first grammar violation found. The parse that produced it
// returns no tree.
type SyntaxError struct {
	TokenIndex int           // index of the offending token; Len() at end of input
	Expected   string        // what would have been valid: "expression", "')'"
	Found      string        // raw token text, or EndOfInput
	Position   diag.Position // where the offending token starts
	Context    string        // what was being parsed: "parameter list"
	Message    string        // overrides the expected/found wording when set
	Suggestion string        // "did you mean 'while'?"
	Source     []byte        // for the snippet
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at %s (token %d): %s", e.Position, e.TokenIndex, e.Summary())
	if e.Context != "" {
		fmt.Fprintf(&b, " in %s", e.Context)
	}
	if snippet := diag.Snippet(e.Source, e.Position); snippet != "" {
		b.WriteString("\n")
		b.WriteString(snippet)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n   = help: %s", e.Suggestion)
	}
	return b.String()
}

// Summary is the one-line description without position or snippet.
func (e *SyntaxError) Summary() string {
	if e.Message != "" {
		return e.Message
	}
	if e.AtEnd() {
		return fmt.Sprintf("unexpected end of input, expected %s", e.Expected)
	}
	return fmt.Sprintf("expected %s, found '%s'", e.Expected, e.Found)
}

// AtEnd reports whether the parser ran out of tokens.
func (e *SyntaxError) AtEnd() bool {
	return e.Found == EndOfInput
}
