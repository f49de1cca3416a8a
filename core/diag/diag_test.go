package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var keywords = []string{"sqrt", "input", "print", "if", "else", "while", "func", "call", "return", "main"}

func TestPositionAt(t *testing.T) {
	src := []byte("x := 1;\ny = x + 2;\n")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Offset: 0, Line: 1, Column: 1}},
		{5, Position{Offset: 5, Line: 1, Column: 6}},
		{7, Position{Offset: 7, Line: 1, Column: 8}},
		{8, Position{Offset: 8, Line: 2, Column: 1}},
		{12, Position{Offset: 12, Line: 2, Column: 5}},
		{-4, Position{Offset: 0, Line: 1, Column: 1}},
		{100, Position{Offset: len(src), Line: 3, Column: 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PositionAt(src, tt.offset), "offset %d", tt.offset)
	}
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "2:5", Position{Line: 2, Column: 5}.String())
	assert.Equal(t, "-", Position{}.String())
}

func TestExcerpt(t *testing.T) {
	src := []byte("x := 1 # comment that runs long\nnext")
	assert.Equal(t, "# comment that runs ", Excerpt(src, 7, 20))
	assert.Equal(t, "1 # comment that run", Excerpt(src, 5, 20))
	assert.Equal(t, "long", Excerpt(src, 27, 20), "excerpt stops at the newline")
	assert.Equal(t, "", Excerpt(src, len(src), 20))
	assert.Equal(t, "", Excerpt(src, -1, 20))
}

func TestSnippet(t *testing.T) {
	src := []byte("main () {\n  x := ;\n}\n")
	got := Snippet(src, Position{Offset: 17, Line: 2, Column: 8})

	want := "  --> 2:8\n" +
		"   |\n" +
		" 2 |   x := ;\n" +
		"   |        ^"
	assert.Equal(t, want, got)
}

func TestSnippetAtEndOfLine(t *testing.T) {
	src := []byte("(")
	got := Snippet(src, PositionAt(src, 1))
	assert.Equal(t, "  --> 1:2\n   |\n 1 | (\n   |  ^", got)
}

func TestSnippetWithoutPosition(t *testing.T) {
	assert.Empty(t, Snippet([]byte("x"), Position{}))
	assert.Empty(t, Snippet(nil, Position{Line: 1, Column: 1}))
	assert.Empty(t, Snippet([]byte("x"), Position{Line: 9, Column: 1}))
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"whle", "while"},
		{"retrun", "return"},
		{"wihle", "while"},
		{"pritn", "print"},
		{"WHILE", "while"},
		{"iff", "if"},
		{"while", ""},
		{"x", ""},
		{"i", ""},
		{"counter", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.word, keywords))
		})
	}

	assert.Empty(t, Suggest("whle", nil))
}

func TestDidYouMean(t *testing.T) {
	assert.Equal(t, "did you mean 'while'?", DidYouMean("while"))
	assert.Empty(t, DidYouMean(""))
}
