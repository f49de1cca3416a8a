// Package tree is the AST data model: a binary node that owns its two children
// and keeps a non-owning link back to its parent.
//
// The same Node type is used for a bare lexer token and for an operator node
// of the finished tree, so the parser can link a token into the tree instead
// of copying it. Parent links exist for shape queries (was I the left child?)
// and are never serialized.
//
// Copy, Delete, Equal and Walk use explicit work stacks, so very deep trees do
// not exhaust the goroutine stack.
package tree

import (
	"fmt"

	"github.com/aledsdavies/treelang/core/invariant"
)

// Node is one AST node. Left and Right are owned by the node; Parent is not.
// Relink children through SetLeft, SetRight and Detach so that a node reachable
// as X.Left or X.Right always has Parent == X.
type Node struct {
	Value  Value
	Left   *Node
	Right  *Node
	Parent *Node
}

// NewNode allocates a childless, parentless node.
func NewNode(v Value) *Node {
	return &Node{Value: v}
}

// NewOp allocates a node for value v and links left and right under it.
func NewOp(v Value, left, right *Node) *Node {
	n := NewNode(v)
	n.SetLeft(left)
	n.SetRight(right)
	return n
}

// SetLeft makes child the left child of n. A previous left child is detached
// (and handed back to the caller); child is first detached from wherever it
// was linked. A nil child clears the slot.
func (n *Node) SetLeft(child *Node) *Node {
	invariant.NotNil(n, "parent node")
	old := n.Left
	if old == child {
		return nil
	}
	if old != nil {
		old.Parent = nil
	}
	if child != nil {
		invariant.Precondition(!child.isAncestorOf(n), "linking node under its own descendant")
		child.Detach()
		child.Parent = n
	}
	n.Left = child
	return old
}

// SetRight is SetLeft for the right slot.
func (n *Node) SetRight(child *Node) *Node {
	invariant.NotNil(n, "parent node")
	old := n.Right
	if old == child {
		return nil
	}
	if old != nil {
		old.Parent = nil
	}
	if child != nil {
		invariant.Precondition(!child.isAncestorOf(n), "linking node under its own descendant")
		child.Detach()
		child.Parent = n
	}
	n.Right = child
	return old
}

// Detach unlinks n from its parent, leaving n the root of its own subtree.
func (n *Node) Detach() {
	if n == nil || n.Parent == nil {
		return
	}
	p := n.Parent
	switch {
	case p.Left == n:
		p.Left = nil
	case p.Right == n:
		p.Right = nil
	}
	n.Parent = nil
}

// IsLeftChild reports whether n hangs off its parent's left slot.
func (n *Node) IsLeftChild() bool {
	return n != nil && n.Parent != nil && n.Parent.Left == n
}

// IsRightChild reports whether n hangs off its parent's right slot.
func (n *Node) IsRightChild() bool {
	return n != nil && n.Parent != nil && n.Parent.Right == n
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n != nil && n.Left == nil && n.Right == nil
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	return fmt.Sprintf("(%s %s %s)", n.Value, n.Left, n.Right)
}

// Copy returns a deep copy of the subtree rooted at n. The copy's root has no
// parent; every other parent link points into the copy.
func Copy(n *Node) *Node {
	if n == nil {
		return nil
	}

	type frame struct {
		src, dst *Node
	}

	root := NewNode(n.Value)
	stack := []frame{{n, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.src.Left != nil {
			c := NewNode(f.src.Left.Value)
			c.Parent = f.dst
			f.dst.Left = c
			stack = append(stack, frame{f.src.Left, c})
		}
		if f.src.Right != nil {
			c := NewNode(f.src.Right.Value)
			c.Parent = f.dst
			f.dst.Right = c
			stack = append(stack, frame{f.src.Right, c})
		}
	}
	return root
}

// CleanFunc is called once for every node Delete releases.
type CleanFunc func(v Value)

// Delete detaches n from its parent and releases every node of its subtree
// exactly once, children before parents. clean may be nil.
func Delete(n *Node, clean CleanFunc) int {
	if n == nil {
		return 0
	}
	n.Detach()

	count := 0
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		if cur.Left != nil {
			stack = append(stack, cur.Left)
			cur.Left = nil
			continue
		}
		if cur.Right != nil {
			stack = append(stack, cur.Right)
			cur.Right = nil
			continue
		}
		stack = stack[:len(stack)-1]
		if clean != nil {
			clean(cur.Value)
		}
		cur.Parent = nil
		cur.Value = Value{Kind: KindUnknown}
		count++
	}
	return count
}

// Equal reports whether a and b have the same shape and values. Parent links
// are ignored.
func Equal(a, b *Node) bool {
	type pair struct{ a, b *Node }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a == nil || p.b == nil {
			if p.a != p.b {
				return false
			}
			continue
		}
		if !p.a.Value.Equal(p.b.Value) {
			return false
		}
		stack = append(stack, pair{p.a.Right, p.b.Right}, pair{p.a.Left, p.b.Left})
	}
	return true
}
