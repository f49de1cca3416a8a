package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

func TestTakeEmptiesSlot(t *testing.T) {
	seq, err := LexString("x := 5;")
	require.NoError(t, err)

	x := seq.Take(0)
	require.NotNil(t, x)
	assert.Nil(t, seq.Peek(0))
	assert.Equal(t, "x", seq.Text(0), "text survives the take")
	assert.Equal(t, 3, seq.Held())
	assert.Equal(t, 4, seq.Len())
	assert.Equal(t, []string{"-", ":=", "number", ";"}, seq.Kinds())

	assert.Equal(t, 3, seq.Discard(nil))
	assert.Zero(t, seq.Len())
	tree.Delete(x, nil)
}

func TestTakeTwicePanics(t *testing.T) {
	seq, err := LexString("x")
	require.NoError(t, err)
	n := seq.Take(0)
	defer tree.Delete(n, nil)

	assert.Panics(t, func() { seq.Take(0) })
	assert.Panics(t, func() { seq.Take(1) })
	assert.Panics(t, func() { seq.Take(-1) })
}

func TestRelease(t *testing.T) {
	seq, err := LexString("( x )")
	require.NoError(t, err)

	seq.Release(0)
	seq.Release(2)
	assert.Equal(t, 1, seq.Held())
	assert.Panics(t, func() { seq.Release(0) })

	assert.Equal(t, 1, seq.Discard(nil))
}

func TestReleaseRejectsLinkedToken(t *testing.T) {
	seq, err := LexString("x + 1")
	require.NoError(t, err)
	defer seq.Discard(nil)

	// A token still in its slot but already given children is a parser bug.
	seq.Peek(1).SetLeft(tree.NewNode(tree.Num(0)))
	assert.Panics(t, func() { seq.Release(1) })
}

// Tokens linked into a tree belong to the tree: discarding the sequence must
// not free them a second time, and destroying the tree must not touch tokens
// that stayed in the sequence.
func TestOwnershipHandOff(t *testing.T) {
	seq, err := LexString("x := 5 ; stray")
	require.NoError(t, err)

	x := seq.Take(0)
	op := seq.Take(1)
	five := seq.Take(2)
	op.SetLeft(x)
	op.SetRight(five)
	tr := tree.New(op)

	var discarded []string
	assert.Equal(t, 2, seq.Discard(func(v tree.Value) {
		discarded = append(discarded, v.String())
	}))
	assert.Equal(t, []string{";", `"stray"`}, discarded)

	// The tree is untouched by the discard.
	assert.True(t, tr.Root.Value.IsOp(lang.OpAdvert))
	require.NoError(t, tree.Validate(tr.Root))

	freed := 0
	assert.Equal(t, 3, tr.Destroy(func(tree.Value) { freed++ }))
	assert.Equal(t, 3, freed)

	assert.Zero(t, seq.Discard(nil), "second discard frees nothing")
}

func TestPeekOutOfRange(t *testing.T) {
	seq, err := LexString("x")
	require.NoError(t, err)
	defer seq.Discard(nil)

	assert.Nil(t, seq.Peek(-1))
	assert.Nil(t, seq.Peek(1))
	assert.Equal(t, "", seq.Text(5))
	assert.Equal(t, []byte("x"), seq.Source())
}

func TestDiscardNilSequence(t *testing.T) {
	var seq *Sequence
	assert.Zero(t, seq.Discard(nil))
}
