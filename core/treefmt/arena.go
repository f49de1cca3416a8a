package treefmt

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

const (
	// ArenaFormat tags CBOR and JSON documents.
	ArenaFormat = "treelang-ast"
	// ArenaVersion is written into every document. Readers accept any version
	// with the same major number.
	ArenaVersion = "v1.0.0"
)

// ErrInvalidArena is wrapped by every structural error found while decoding a
// CBOR or JSON document.
var ErrInvalidArena = errors.New("invalid tree arena")

// envelope is the document shared by the CBOR and JSON encodings. Nodes are
// stored in pre-order; Left and Right index into Nodes, -1 for no child.
type envelope struct {
	Format  string      `cbor:"format" json:"format"`
	Version string      `cbor:"version" json:"version"`
	Nodes   []arenaNode `cbor:"nodes" json:"nodes"`
}

type arenaNode struct {
	Kind   string  `cbor:"kind" json:"kind"`
	Number float64 `cbor:"number,omitempty" json:"number,omitempty"`
	Name   string  `cbor:"name,omitempty" json:"name,omitempty"`
	Op     string  `cbor:"op,omitempty" json:"op,omitempty"`
	Left   int     `cbor:"left" json:"left"`
	Right  int     `cbor:"right" json:"right"`
}

func toArena(t *tree.Tree) (*envelope, error) {
	env := &envelope{Format: ArenaFormat, Version: ArenaVersion, Nodes: []arenaNode{}}
	if t == nil || t.Root == nil {
		return env, nil
	}
	if err := tree.Validate(t.Root); err != nil {
		return nil, fmt.Errorf("cannot encode tree: %w", err)
	}

	index := make(map[*tree.Node]int)
	tree.Walk(t.Root, func(n *tree.Node, _ int) bool {
		i := len(env.Nodes)
		index[n] = i
		env.Nodes = append(env.Nodes, arenaNode{Left: -1, Right: -1})
		fill(&env.Nodes[i], n.Value)

		if n != t.Root {
			parent := &env.Nodes[index[n.Parent]]
			if n.IsLeftChild() {
				parent.Left = i
			} else {
				parent.Right = i
			}
		}
		return true
	})
	return env, nil
}

func fill(an *arenaNode, v tree.Value) {
	an.Kind = v.Kind.String()
	switch v.Kind {
	case tree.KindNumber:
		an.Number = v.Number
	case tree.KindVariable:
		an.Name = v.Name
	case tree.KindOperation:
		an.Op = v.Op.String()
	}
}

func fromArena(env *envelope) (*tree.Tree, error) {
	if env.Format != ArenaFormat {
		return nil, fmt.Errorf("%w: format %q, expected %q", ErrInvalidArena, env.Format, ArenaFormat)
	}
	if !semver.IsValid(env.Version) {
		return nil, fmt.Errorf("%w: version %q is not a semantic version", ErrInvalidArena, env.Version)
	}
	if semver.Major(env.Version) != semver.Major(ArenaVersion) {
		return nil, fmt.Errorf("%w: unsupported version %s (reader is %s)", ErrInvalidArena, env.Version, ArenaVersion)
	}
	if len(env.Nodes) == 0 {
		return &tree.Tree{}, nil
	}

	values := make([]tree.Value, len(env.Nodes))
	parents := make([]int, len(env.Nodes))
	for i, an := range env.Nodes {
		v, err := arenaValue(an)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidArena, i, err)
		}
		values[i] = v

		for _, c := range [2]int{an.Left, an.Right} {
			if c == -1 {
				continue
			}
			// Children come after their parent, which also rules out cycles.
			if c <= i || c >= len(env.Nodes) {
				return nil, fmt.Errorf("%w: node %d: child index %d out of range", ErrInvalidArena, i, c)
			}
			parents[c]++
			if parents[c] > 1 {
				return nil, fmt.Errorf("%w: node %d has more than one parent", ErrInvalidArena, c)
			}
		}
	}
	for i := 1; i < len(parents); i++ {
		if parents[i] == 0 {
			return nil, fmt.Errorf("%w: node %d is unreachable from the root", ErrInvalidArena, i)
		}
	}

	built := make([]*tree.Node, len(env.Nodes))
	child := func(i int) *tree.Node {
		if i == -1 {
			return nil
		}
		return built[i]
	}
	for i := len(env.Nodes) - 1; i >= 0; i-- {
		an := env.Nodes[i]
		built[i] = tree.NewOp(values[i], child(an.Left), child(an.Right))
	}

	root := built[0]
	if err := tree.Validate(root); err != nil {
		tree.Delete(root, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidArena, err)
	}
	return &tree.Tree{Root: root}, nil
}

func arenaValue(an arenaNode) (tree.Value, error) {
	switch an.Kind {
	case tree.KindNumber.String():
		return tree.Num(an.Number), nil
	case tree.KindVariable.String():
		return tree.Var(an.Name), nil
	case tree.KindOperation.String():
		op, ok := lang.ByDisplay(an.Op)
		if !ok {
			return tree.Value{}, fmt.Errorf("unknown operation %q", an.Op)
		}
		return tree.Oper(op), nil
	default:
		return tree.Value{}, fmt.Errorf("unknown kind %q", an.Kind)
	}
}
