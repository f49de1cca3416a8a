package lexer

import (
	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/invariant"
	"github.com/aledsdavies/treelang/core/tree"
)

// slot holds one token. node is nil once the token has been taken or released;
// pos and text stay behind for error reporting.
type slot struct {
	node *tree.Node
	pos  diag.Position
	text string
}

// Sequence is the lexer's output: an ordered list of token nodes, each in an
// owned slot. The parser moves a node into the tree with Take, which empties
// the slot, so Discard only ever frees tokens that were never linked.
type Sequence struct {
	src   []byte
	slots []slot
}

func newSequence(src []byte) *Sequence {
	return &Sequence{src: src, slots: make([]slot, 0, len(src)/3+1)}
}

func (s *Sequence) push(n *tree.Node, pos diag.Position, text string) {
	s.slots = append(s.slots, slot{node: n, pos: pos, text: text})
}

// Len returns the number of tokens lexed, taken or not.
func (s *Sequence) Len() int {
	return len(s.slots)
}

// Held returns how many slots still own their token.
func (s *Sequence) Held() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].node != nil {
			n++
		}
	}
	return n
}

// Source returns the text the sequence was lexed from.
func (s *Sequence) Source() []byte {
	return s.src
}

// Peek returns the token in slot i without taking it. It returns nil for an
// empty slot or an index outside the sequence.
func (s *Sequence) Peek(i int) *tree.Node {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i].node
}

// Take moves the token in slot i to the caller and empties the slot. Taking
// from an empty slot means two owners for one node and panics.
func (s *Sequence) Take(i int) *tree.Node {
	invariant.InRange(i, 0, len(s.slots)-1, "token index")
	n := s.slots[i].node
	invariant.Precondition(n != nil, "token %d (%q) already taken", i, s.slots[i].text)
	s.slots[i].node = nil
	return n
}

// Release takes the token in slot i and deletes it. Used for punctuation that
// does not survive into the tree.
func (s *Sequence) Release(i int) {
	n := s.Take(i)
	invariant.Precondition(n.IsLeaf() && n.Parent == nil, "released token %d is linked into a tree", i)
	tree.Delete(n, nil)
}

// Discard deletes every token still held and empties the sequence. Tokens that
// were taken belong to their tree and are left alone. It returns the number of
// tokens freed.
func (s *Sequence) Discard(clean tree.CleanFunc) int {
	if s == nil {
		return 0
	}
	freed := 0
	for i := range s.slots {
		if n := s.slots[i].node; n != nil {
			invariant.Invariant(n.Parent == nil, "held token %d has a parent", i)
			tree.Delete(n, clean)
			s.slots[i].node = nil
			freed++
		}
	}
	s.slots = s.slots[:0]
	return freed
}

// Position returns where token i starts. Out-of-range indexes report the end
// of the source.
func (s *Sequence) Position(i int) diag.Position {
	if i < 0 || i >= len(s.slots) {
		return diag.PositionAt(s.src, len(s.src))
	}
	return s.slots[i].pos
}

// Text returns the source text of token i, or "" out of range.
func (s *Sequence) Text(i int) string {
	if i < 0 || i >= len(s.slots) {
		return ""
	}
	return s.slots[i].text
}

// Kinds describes every held token: "number", "variable" or the operator's
// display text. Empty slots are reported as "-".
func (s *Sequence) Kinds() []string {
	out := make([]string, len(s.slots))
	for i := range s.slots {
		out[i] = KindOf(s.slots[i].node)
	}
	return out
}

// KindOf describes a single token the way Kinds does.
func KindOf(n *tree.Node) string {
	if n == nil {
		return "-"
	}
	switch n.Value.Kind {
	case tree.KindNumber:
		return "number"
	case tree.KindVariable:
		return "variable"
	case tree.KindOperation:
		return n.Value.Op.String()
	default:
		return "?"
	}
}
