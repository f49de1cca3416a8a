package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Tree is the single owning handle of an AST.
type Tree struct {
	Root *Node
}

// New wraps root, detaching it from any parent first.
func New(root *Node) *Tree {
	root.Detach()
	return &Tree{Root: root}
}

// Destroy deletes every reachable node exactly once and leaves t empty.
func (t *Tree) Destroy(clean CleanFunc) int {
	if t == nil {
		return 0
	}
	n := Delete(t.Root, clean)
	t.Root = nil
	return n
}

// Copy returns an independent deep copy of t.
func (t *Tree) Copy() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{Root: Copy(t.Root)}
}

// Equal compares two trees structurally.
func (t *Tree) Equal(o *Tree) bool {
	var a, b *Node
	if t != nil {
		a = t.Root
	}
	if o != nil {
		b = o.Root
	}
	return Equal(a, b)
}

// Count returns the number of nodes in t.
func (t *Tree) Count() int {
	if t == nil {
		return 0
	}
	return Count(t.Root)
}

func (t *Tree) String() string {
	if t == nil {
		return "nil"
	}
	return t.Root.String()
}

// WalkFunc is called for every visited node with its depth (root is 0).
// Returning false skips the node's children.
type WalkFunc func(n *Node, depth int) bool

// Walk visits the subtree rooted at n in pre-order, left before right. fn must
// not relink nodes.
func Walk(n *Node, fn WalkFunc) {
	if n == nil {
		return
	}

	type frame struct {
		node  *Node
		depth int
	}

	stack := []frame{{n, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(f.node, f.depth) {
			continue
		}
		if f.node.Right != nil {
			stack = append(stack, frame{f.node.Right, f.depth + 1})
		}
		if f.node.Left != nil {
			stack = append(stack, frame{f.node.Left, f.depth + 1})
		}
	}
}

// Count returns the number of nodes under n, n included.
func Count(n *Node) int {
	count := 0
	Walk(n, func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels under n: 0 for nil, 1 for a leaf.
func Depth(n *Node) int {
	deepest := 0
	Walk(n, func(_ *Node, d int) bool {
		deepest = max(deepest, d+1)
		return true
	})
	return deepest
}

// ShapeError names the first node that breaks the parent-link or value-kind
// rules.
type ShapeError struct {
	Path   string // L/R steps from the root, "" for the root itself
	Reason string
}

func (e *ShapeError) Error() string {
	path := e.Path
	if path == "" {
		path = "root"
	}
	return fmt.Sprintf("malformed tree at %s: %s", path, e.Reason)
}

// Validate checks that every child points back at its parent, that the root
// has no parent, and that no node carries an unknown value.
func Validate(root *Node) error {
	if root == nil {
		return nil
	}
	if root.Parent != nil {
		return &ShapeError{Reason: "root has a parent"}
	}

	// Children are pushed only after their parent link was checked, so the
	// path of any node on the stack can be rebuilt from its Parent chain.
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := validateValue(n.Value); err != "" {
			return &ShapeError{Path: pathTo(n), Reason: err}
		}
		if n.Right != nil {
			if n.Right.Parent != n {
				return &ShapeError{Path: pathTo(n) + "R", Reason: "parent link does not point at the owning node"}
			}
			stack = append(stack, n.Right)
		}
		if n.Left != nil {
			if n.Left.Parent != n {
				return &ShapeError{Path: pathTo(n) + "L", Reason: "parent link does not point at the owning node"}
			}
			if n.Left == n.Right {
				return &ShapeError{Path: pathTo(n) + "L", Reason: "node linked as both children"}
			}
			stack = append(stack, n.Left)
		}
	}
	return nil
}

// pathTo spells the L/R steps from the root down to n.
func pathTo(n *Node) string {
	var steps []byte
	for ; n.Parent != nil; n = n.Parent {
		if n.Parent.Left == n {
			steps = append(steps, 'L')
		} else {
			steps = append(steps, 'R')
		}
	}
	slices.Reverse(steps)
	return string(steps)
}

func validateValue(v Value) string {
	switch v.Kind {
	case KindNumber:
		return ""
	case KindVariable:
		if v.Name == "" {
			return "variable has an empty name"
		}
		if strings.ContainsAny(v.Name, "\" \t\r\n") {
			return fmt.Sprintf("variable name %q contains a quote or whitespace", v.Name)
		}
		return ""
	case KindOperation:
		if v.Op.String() == "?" {
			return fmt.Sprintf("unregistered operation %d", int(v.Op))
		}
		return ""
	default:
		return "node has an unknown value"
	}
}
