package lexer

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

func mustLex(t *testing.T, src string, opts ...Option) *Sequence {
	t.Helper()
	seq, err := LexString(src, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { seq.Discard(nil) })
	return seq
}

func values(seq *Sequence) []string {
	out := make([]string, seq.Len())
	for i := range out {
		out[i] = seq.Peek(i).Value.String()
	}
	return out
}

func TestLexKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"only whitespace", " \t\r\n ", []string{}},
		{"assignment", "x := 5;", []string{"variable", ":=", "number", ";"}},
		{"reassignment", "x=5", []string{"variable", "=", "number"}},
		{"arithmetic", "a+b-c*d/e^f", []string{
			"variable", "+", "variable", "-", "variable", "*", "variable", "/", "variable", "^", "variable",
		}},
		{"call", "call f(1, y)", []string{"call", "variable", "(", "number", ",", "variable", ")"}},
		{"function", "func f(a) { return a; }", []string{
			"func", "variable", "(", "variable", ")", "{", "return", "variable", ";", "}",
		}},
		{"builtins", "print(sqrt(input()))", []string{
			"print", "(", "sqrt", "(", "input", "(", ")", ")", ")",
		}},
		{"control flow", "if(x){}else{}while(y){}", []string{
			"if", "(", "variable", ")", "{", "}", "else", "{", "}", "while", "(", "variable", ")", "{", "}",
		}},
		{"main", "main() {}", []string{"main", "(", ")", "{", "}"}},
		{"keyword prefix is an identifier", "iffy printer main2 while_", []string{
			"variable", "variable", "variable", "variable",
		}},
		{"comment skipped", "x // trailing := stuff\ny", []string{"variable", "variable"}},
		{"comment at end of input", "x //", []string{"variable"}},
		{"number then identifier", "5x", []string{"number", "variable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := mustLex(t, tt.input)
			if diff := cmp.Diff(tt.want, seq.Kinds()); diff != "" {
				t.Errorf("kinds mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, seq.Len(), seq.Held())
		})
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"12", []string{"12"}},
		{"3.5", []string{"3.5"}},
		{".5", []string{"0.5"}},
		{"007", []string{"7"}},
		{"1.2.3", []string{"1.2", "0.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			seq := mustLex(t, tt.input)
			assert.Equal(t, tt.want, values(seq))
		})
	}

	// A trailing dot is not part of the number and is not a token either.
	_, err := LexString("1.")
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Offset)
}

func TestLexTokenValues(t *testing.T) {
	seq := mustLex(t, "count := count + 1;")

	require.Equal(t, 6, seq.Len())
	assert.True(t, seq.Peek(0).Value.Equal(tree.Var("count")))
	assert.True(t, seq.Peek(1).Value.IsOp(lang.OpAdvert))
	assert.True(t, seq.Peek(3).Value.IsOp(lang.OpAdd))
	assert.True(t, seq.Peek(4).Value.Equal(tree.Num(1)))
	for i := 0; i < seq.Len(); i++ {
		assert.True(t, seq.Peek(i).IsLeaf(), "token %d", i)
		assert.Nil(t, seq.Peek(i).Parent, "token %d", i)
	}
	assert.Equal(t, ":=", seq.Text(1))
	assert.Equal(t, "count", seq.Text(2))
}

func TestLexPositions(t *testing.T) {
	seq := mustLex(t, "x := 1;\n  y = x;")

	assert.Equal(t, diag.Position{Offset: 0, Line: 1, Column: 1}, seq.Position(0))
	assert.Equal(t, diag.Position{Offset: 2, Line: 1, Column: 3}, seq.Position(1))
	assert.Equal(t, diag.Position{Offset: 10, Line: 2, Column: 3}, seq.Position(4))
	assert.Equal(t, diag.Position{Offset: 16, Line: 2, Column: 9}, seq.Position(seq.Len()), "end of input")
}

func TestLexError(t *testing.T) {
	src := "main() {\n  x := 5 # 3;\n}"
	seq, err := LexString(src)
	assert.Nil(t, seq, "no partial sequence on failure")

	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, 18, lexErr.Offset)
	assert.Equal(t, 2, lexErr.Line)
	assert.Equal(t, 10, lexErr.Column)
	assert.Equal(t, byte('#'), lexErr.Char)
	assert.Equal(t, "# 3;", lexErr.Context)

	msg := err.Error()
	assert.Contains(t, msg, "lexical error at 2:10 (offset 18)")
	assert.Contains(t, msg, "'#'")
	assert.Contains(t, msg, " 2 |   x := 5 # 3;")
}

func TestLexErrorContextIsCapped(t *testing.T) {
	_, err := LexString("@" + strings.Repeat("a", 40))
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Len(t, lexErr.Context, ContextWidth)
	assert.Equal(t, 0, lexErr.Offset)
}

func TestLexErrorNonASCII(t *testing.T) {
	_, err := LexString("x := \xc3\xa9;")
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 5, lexErr.Offset)
	assert.Contains(t, err.Error(), "byte 0xc3")
}

func TestLexLoneColon(t *testing.T) {
	_, err := LexString("x : 5")
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, byte(':'), lexErr.Char)
}

func TestTelemetry(t *testing.T) {
	l := NewLexer([]byte("x := x + 1; y := 2;"), WithTelemetry())
	seq, err := l.Lex()
	require.NoError(t, err)
	defer seq.Discard(nil)

	stats := l.Stats()
	assert.Equal(t, 10, stats.Tokens)
	assert.Equal(t, map[string]int{
		"variable": 3,
		":=":       2,
		"+":        1,
		"number":   2,
		";":        2,
	}, stats.Counts)

	// The returned map is a copy.
	stats.Counts["variable"] = 99
	assert.Equal(t, 3, l.Stats().Counts["variable"])
}

func TestTelemetryOff(t *testing.T) {
	l := NewLexer([]byte("x"))
	seq, err := l.Lex()
	require.NoError(t, err)
	defer seq.Discard(nil)
	assert.Equal(t, Stats{}, l.Stats())
}

func TestLexTwiceRestarts(t *testing.T) {
	l := NewLexer([]byte("a b"), WithTelemetry())
	first, err := l.Lex()
	require.NoError(t, err)
	second, err := l.Lex()
	require.NoError(t, err)

	assert.Equal(t, first.Kinds(), second.Kinds())
	assert.Equal(t, 2, l.Stats().Tokens)
	first.Discard(nil)
	second.Discard(nil)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	seq := mustLex(t, "x := 1;", WithLogger(logger))
	assert.Equal(t, 4, seq.Len())

	out := buf.String()
	assert.Contains(t, out, "msg=token")
	assert.Contains(t, out, "kind=variable text=x")
	assert.Contains(t, out, "msg=lexed tokens=4")
}

func TestIdentifierRuleMatchesRegistry(t *testing.T) {
	for i := 0; i < 256; i++ {
		ch := byte(i)
		assert.Equal(t, lang.IsIdentStart(ch), identStart(ch), "start byte 0x%02x", ch)
		assert.Equal(t, lang.IsIdentPart(ch), identPart(ch), "part byte 0x%02x", ch)
	}
}

func TestKeywordFollowedByIdentPartIsOneVariable(t *testing.T) {
	for _, word := range lang.Words() {
		for _, tail := range []string{"a", "Z", "_", "0", "9"} {
			src := word + tail
			seq := mustLex(t, src)
			require.Equal(t, 1, seq.Len(), "%q", src)
			assert.Equal(t, tree.Var(src), seq.Peek(0).Value, "%q", src)
		}
	}
}
