package treefmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

// Write prints t to w in S-expression form followed by a newline. A nil tree
// or empty root is written as "nil". Trees that could not be read back are
// rejected before anything reaches w.
func Write(w io.Writer, t *tree.Tree) error {
	var root *tree.Node
	if t != nil {
		root = t.Root
	}
	if err := checkWritable(root); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	wr := &writer{w: bw}
	wr.tree(root)
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	return nil
}

// Marshal returns the S-expression form of t.
func Marshal(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type writer struct {
	w       *bufio.Writer
	started bool
}

// token writes s, separated from the previous token by one space. Errors are
// sticky in bufio.Writer and surface at Flush.
func (wr *writer) token(s string) {
	if wr.started {
		_ = wr.w.WriteByte(' ')
	}
	wr.started = true
	_, _ = wr.w.WriteString(s)
}

func (wr *writer) tree(root *tree.Node) {
	type item struct {
		node  *tree.Node
		close bool
	}

	stack := []item{{node: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case it.close:
			wr.token(")")
		case it.node == nil:
			wr.token("nil")
		default:
			wr.token("(")
			wr.token(it.node.Value.String())
			stack = append(stack, item{close: true}, item{node: it.node.Right}, item{node: it.node.Left})
		}
	}
}

// checkWritable rejects anything the reader would refuse or misread: broken
// parent links, unknown values, names with quotes or whitespace, non-finite
// numbers and the two operations spelled like the grammar's own parentheses.
func checkWritable(root *tree.Node) error {
	if err := tree.Validate(root); err != nil {
		return fmt.Errorf("cannot write tree: %w", err)
	}

	var bad error
	tree.Walk(root, func(n *tree.Node, _ int) bool {
		if bad != nil {
			return false
		}
		v := n.Value
		switch {
		case v.Kind == tree.KindNumber && (math.IsInf(v.Number, 0) || math.IsNaN(v.Number)):
			bad = fmt.Errorf("cannot write tree: number %v has no decimal form", v.Number)
		case v.IsOp(lang.OpOpenParen) || v.IsOp(lang.OpCloseParen):
			bad = fmt.Errorf("cannot write tree: operation '%s' collides with the node delimiters", v.Op)
		}
		return bad == nil
	})
	return bad
}
