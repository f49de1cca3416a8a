package treefmt

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

// sample builds (; (:= "x" (+ 2 (* 3 4))) nil).
func sample() *tree.Tree {
	mul := tree.NewOp(tree.Oper(lang.OpMul), tree.NewNode(tree.Num(3)), tree.NewNode(tree.Num(4)))
	add := tree.NewOp(tree.Oper(lang.OpAdd), tree.NewNode(tree.Num(2)), mul)
	assign := tree.NewOp(tree.Oper(lang.OpAdvert), tree.NewNode(tree.Var("x")), add)
	return tree.New(tree.NewOp(tree.Oper(lang.OpSemicolon), assign, nil))
}

const sampleText = `( ; ( := ( "x" nil nil ) ( + ( 2 nil nil ) ( * ( 3 nil nil ) ( 4 nil nil ) ) ) ) nil )` + "\n"

func TestMarshal(t *testing.T) {
	got, err := Marshal(sample())
	require.NoError(t, err)
	if diff := cmp.Diff(sampleText, string(got)); diff != "" {
		t.Errorf("Marshal mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalEmptyTree(t *testing.T) {
	got, err := Marshal(&tree.Tree{})
	require.NoError(t, err)
	assert.Equal(t, "nil\n", string(got))

	got, err = Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "nil\n", string(got))
}

func TestMarshalNumbers(t *testing.T) {
	for _, n := range []float64{0, 7, -2, 0.5, 1.25, 1e21, 123456789} {
		data, err := Marshal(tree.New(tree.NewNode(tree.Num(n))))
		require.NoError(t, err)

		back, err := Unmarshal(data)
		require.NoError(t, err, "reading %s", data)
		assert.Equal(t, n, back.Root.Value.Number, "via %s", data)
	}
}

func TestWriteRejectsUnreadableTrees(t *testing.T) {
	tests := []struct {
		name string
		root *tree.Node
		want string
	}{
		{"unknown value", tree.NewNode(tree.Value{Kind: tree.KindUnknown}), "unknown value"},
		{"zero value", tree.NewOp(tree.Oper(lang.OpMul), tree.NewNode(tree.Num(2)), tree.NewNode(tree.Value{})), "unknown value"},
		{"name with space", tree.NewNode(tree.Var("a b")), "quote or whitespace"},
		{"name with quote", tree.NewNode(tree.Var(`a"b`)), "quote or whitespace"},
		{"empty name", tree.NewNode(tree.Var("")), "empty name"},
		{"infinity", tree.NewNode(tree.Num(math.Inf(1))), "no decimal form"},
		{"nan", tree.NewNode(tree.Num(math.NaN())), "no decimal form"},
		{"paren operation", tree.NewOp(tree.Oper(lang.OpAdd), tree.NewNode(tree.Oper(lang.OpOpenParen)), nil), "node delimiters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tree.New(tt.root))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, buf.Len(), "nothing is written for a rejected tree")
		})
	}
}

func TestUnmarshal(t *testing.T) {
	got, err := Unmarshal([]byte(sampleText))
	require.NoError(t, err)
	assert.True(t, got.Equal(sample()), "got %s", got)
	require.NoError(t, tree.Validate(got.Root))
}

func TestUnmarshalIsWhitespaceInsensitive(t *testing.T) {
	inputs := []string{
		`(;(:=("x"nil nil)(+(2 nil nil)(*(3 nil nil)(4 nil nil))))nil)`,
		"\n\t( ;\r\n  ( :=\n    ( \"x\" nil nil )\n    ( + ( 2 nil nil ) ( * ( 3 nil nil ) ( 4 nil nil ) ) ) )\n  nil )\n\n",
	}
	for _, in := range inputs {
		got, err := Unmarshal([]byte(in))
		require.NoError(t, err, in)
		assert.True(t, got.Equal(sample()), "got %s from %q", got, in)
	}
}

func TestUnmarshalValues(t *testing.T) {
	tests := []struct {
		input string
		want  tree.Value
	}{
		{"( 42 nil nil )", tree.Num(42)},
		{"( -2.5 nil nil )", tree.Num(-2.5)},
		{"( .5 nil nil )", tree.Num(0.5)},
		{"( -0.25 nil nil )", tree.Num(-0.25)},
		{"( - nil nil )", tree.Oper(lang.OpSub)},
		{"( while nil nil )", tree.Oper(lang.OpWhile)},
		{"( { nil nil )", tree.Oper(lang.OpOpenBrace)},
		{`( "counter_2" nil nil )`, tree.Var("counter_2")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Root.Value), "got %#v", got.Root.Value)
		})
	}
}

func TestUnmarshalNilRoot(t *testing.T) {
	got, err := Unmarshal([]byte(" nil\n"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Root)
}

func TestMalformedTrees(t *testing.T) {
	huge := strings.Repeat("9", 400)
	tests := []struct {
		name   string
		input  string
		offset int
		reason string
		found  string
	}{
		{"unterminated node", "( 5 nil", 7, "expected '(' or nil", EndOfInput},
		{"missing close paren", "( 5 nil nil", 11, "missing ')'", EndOfInput},
		{"extra child", "( 5 nil nil nil )", 12, "missing ')'", "nil"},
		{"missing open paren", "5", 0, "expected '('", "5"},
		{"empty input", "  ", 2, "expected '('", EndOfInput},
		{"close first", ")", 0, "expected '('", ")"},
		{"unterminated string", `( "x nil nil )`, 2, "unterminated string", `"x nil nil )`},
		{"nil value", "( nil nil nil )", 2, "expected node value", "nil"},
		{"missing value", "( ( 1 nil nil ) nil nil )", 2, "expected node value", "("},
		{"bare child", "( 1 2 nil )", 4, "expected '(' or nil", "2"},
		{"unknown operator", "( % nil nil )", 2, "unknown operator", "%"},
		{"unquoted name", "( x nil nil )", 2, "unknown operator", "x"},
		{"legacy unknown marker", "( ? nil nil )", 2, "unknown operator", "?"},
		{"number out of range", "( " + huge + " nil nil )", 2, "number out of range", huge},
		{"bad number", "( 1.2.3 nil nil )", 2, "invalid number", "1.2.3"},
		{"exponent", "( 1e3 nil nil )", 2, "invalid number", "1e3"},
		{"plus sign", "( +5 nil nil )", 2, "invalid number", "+5"},
		{"trailing dot", "( 5. nil nil )", 2, "invalid number", "5."},
		{"lone dot", "( . nil nil )", 2, "invalid number", "."},
		{"empty name", `( "" nil nil )`, 2, "invalid variable name", `""`},
		{"name with tab", "( \"a\tb\" nil nil )", 2, "invalid variable name", "\"a\tb\""},
		{"trailing data", "( 1 nil nil ) )", 14, "trailing data after the tree", ")"},
		{"two trees", "( 1 nil nil ) ( 2 nil nil )", 14, "trailing data after the tree", "("},
		{"nil then data", "nil nil", 4, "trailing data after the tree", "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, got, "no partial tree on error")

			var mte *MalformedTreeError
			require.True(t, errors.As(err, &mte), "got %T: %v", err, err)
			assert.Equal(t, tt.offset, mte.Offset)
			assert.Equal(t, tt.reason, mte.Reason)
			assert.Equal(t, tt.found, mte.Found)
			assert.Equal(t, 1, mte.Position.Line)
			assert.Equal(t, tt.offset+1, mte.Position.Column)
		})
	}
}

func TestMalformedTreeErrorMessage(t *testing.T) {
	_, err := Unmarshal([]byte("( 5 nil"))
	require.Error(t, err)
	assert.Equal(t, "malformed tree at 1:8 (offset 7): expected '(' or nil, found end of input", err.Error())

	_, err = Unmarshal([]byte("(\n  retrun nil nil )"))
	require.Error(t, err)
	assert.Equal(t, "malformed tree at 2:3 (offset 4): unknown operator, found 'retrun'; did you mean 'return'?", err.Error())
}

func TestUnknownOperatorSuggestion(t *testing.T) {
	_, err := Unmarshal([]byte("( wihle ( 1 nil nil ) nil )"))
	var mte *MalformedTreeError
	require.True(t, errors.As(err, &mte))
	assert.Equal(t, "did you mean 'while'?", mte.Suggestion)

	_, err = Unmarshal([]byte("( % nil nil )"))
	require.True(t, errors.As(err, &mte))
	assert.Empty(t, mte.Suggestion)
}

func TestUnmarshalMaxDepth(t *testing.T) {
	input := []byte("( + ( 1 nil nil ) ( * ( 2 nil nil ) nil ) )")

	_, err := Unmarshal(input, WithMaxDepth(2))
	var mte *MalformedTreeError
	require.True(t, errors.As(err, &mte), "got %v", err)
	assert.Equal(t, "nesting deeper than 2", mte.Reason)
	assert.Equal(t, 22, mte.Offset)

	got, err := Unmarshal(input, WithMaxDepth(3))
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Depth(got.Root))

	_, err = Unmarshal(input, WithMaxDepth(0))
	require.NoError(t, err, "values below 1 keep the default")
}

func TestReadDeepSpine(t *testing.T) {
	// A long right-leaning statement spine, written and read back without
	// recursion.
	const n = 50000
	var next *tree.Node
	for i := n - 1; i >= 0; i-- {
		stmt := tree.NewOp(tree.Oper(lang.OpAssign), tree.NewNode(tree.Var("i")), tree.NewNode(tree.Num(float64(i))))
		next = tree.NewOp(tree.Oper(lang.OpSemicolon), stmt, next)
	}
	want := tree.New(next)

	data, err := Marshal(want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `( ; ( = ( "i" nil nil ) ( 0 nil nil ) ) ( ; `))

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 4*n, got.Count())
	assert.True(t, got.Equal(want))
}

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader(sampleText))
	require.NoError(t, err)
	assert.True(t, got.Equal(sample()))

	_, err = Read(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read tree")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}
