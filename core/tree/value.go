package tree

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/treelang/core/lang"
)

// Kind tags the payload carried by a Value. The zero Kind is KindUnknown, so
// a Value that was never set fails Validate instead of reading as 0.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumber
	KindVariable
	KindOperation
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindVariable:
		return "variable"
	case KindOperation:
		return "operation"
	default:
		return "unknown"
	}
}

// Value is the tagged payload of a node. Kind decides which of Number, Name or
// Op is meaningful; the constructors leave the others zero.
type Value struct {
	Kind   Kind
	Number float64
	Name   string
	Op     lang.Op
}

// Num returns a number value.
func Num(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// Var returns a variable value owning its own copy of name.
func Var(name string) Value {
	return Value{Kind: KindVariable, Name: name}
}

// Oper returns an operation value.
func Oper(op lang.Op) Value {
	return Value{Kind: KindOperation, Op: op}
}

// IsOp reports whether v is the operation op.
func (v Value) IsOp(op lang.Op) bool {
	return v.Kind == KindOperation && v.Op == op
}

// Equal compares kinds and the payload the kind selects.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == o.Number
	case KindVariable:
		return v.Name == o.Name
	case KindOperation:
		return v.Op == o.Op
	default:
		return true
	}
}

// String renders the value the way the tree writer does: numbers in shortest
// decimal form, variables quoted, operations by display text.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Number)
	case KindVariable:
		return `"` + v.Name + `"`
	case KindOperation:
		return v.Op.String()
	default:
		return "?"
	}
}

// GoString is used by %#v in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("tree.Value{%s %s}", v.Kind, v.String())
}

// FormatNumber prints integral values as bare integers and everything else in
// the shortest decimal form that parses back to the same float64.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
