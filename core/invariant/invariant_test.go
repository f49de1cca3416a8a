package invariant_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/treelang/core/invariant"
)

// panicMessage runs fn and returns the recovered panic message, or "" if fn returned normally.
func panicMessage(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%v", r)
		}
	}()
	fn()
	return ""
}

func TestAssertionsPass(t *testing.T) {
	node := &struct{ name string }{"x"}

	assert.Empty(t, panicMessage(func() {
		invariant.Precondition(true, "never shown")
		invariant.Postcondition(1+1 == 2, "never shown")
		invariant.Invariant(len("abc") == 3, "never shown")
		invariant.NotNil(node, "node")
		invariant.NotNil([]int{}, "slots")
		invariant.InRange(0, 0, 3, "index")
		invariant.InRange(3, 0, 3, "index")
		invariant.ExpectNoError(nil, "buffer write")
	}))
}

func TestAssertionsFail(t *testing.T) {
	var nilNode *struct{}

	tests := []struct {
		name     string
		fn       func()
		kind     string
		contains string
	}{
		{
			name:     "precondition",
			fn:       func() { invariant.Precondition(false, "token %d already taken", 4) },
			kind:     "PRECONDITION VIOLATION",
			contains: "token 4 already taken",
		},
		{
			name:     "postcondition",
			fn:       func() { invariant.Postcondition(false, "%d tokens still held", 2) },
			kind:     "POSTCONDITION VIOLATION",
			contains: "2 tokens still held",
		},
		{
			name:     "invariant",
			fn:       func() { invariant.Invariant(false, "parser stuck at token %d", 7) },
			kind:     "INVARIANT VIOLATION",
			contains: "parser stuck at token 7",
		},
		{
			name:     "untyped nil",
			fn:       func() { invariant.NotNil(nil, "parent") },
			kind:     "PRECONDITION VIOLATION",
			contains: "parent must not be nil",
		},
		{
			name:     "typed nil",
			fn:       func() { invariant.NotNil(nilNode, "child") },
			kind:     "PRECONDITION VIOLATION",
			contains: "child must not be nil",
		},
		{
			name:     "below range",
			fn:       func() { invariant.InRange(-1, 0, 10, "index") },
			kind:     "PRECONDITION VIOLATION",
			contains: "index must be in range [0, 10], got -1",
		},
		{
			name:     "above range",
			fn:       func() { invariant.InRange(11, 0, 10, "index") },
			kind:     "PRECONDITION VIOLATION",
			contains: "got 11",
		},
		{
			name:     "unexpected error",
			fn:       func() { invariant.ExpectNoError(errors.New("disk full"), "buffer write") },
			kind:     "POSTCONDITION VIOLATION",
			contains: "buffer write must not fail: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := panicMessage(tt.fn)
			require.NotEmpty(t, msg, "expected a panic")
			assert.Contains(t, msg, tt.kind)
			assert.Contains(t, msg, tt.contains)
			assert.Contains(t, msg, "invariant_test.go:", "violation should name the calling file")
		})
	}
}

func ExampleInvariant() {
	tokens := []string{"x", ":=", "5", ";"}
	pos, prev := 0, -1
	for pos < len(tokens) {
		invariant.Invariant(pos > prev, "position must advance")
		prev = pos
		fmt.Println(tokens[pos])
		pos++
	}
	// Output:
	// x
	// :=
	// 5
	// ;
}
