// Package treefmt saves and loads ASTs.
//
// The S-expression form is the interchange format read by downstream tools:
// a node is "( <value> <left> <right> )", an absent child is "nil", and a
// value is a decimal number, a double-quoted variable name or the display text
// of a registered operation. Tokens are separated by single spaces:
//
//	( ; ( := "x" ( 5 nil nil ) ) nil )
//
// CBOR and JSON carry the same tree as a flat pre-order arena so that deep
// statement spines do not turn into deeply nested documents.
package treefmt

import (
	"fmt"
	"strings"
)

// Format selects an on-disk encoding.
type Format int

const (
	FormatSExpr Format = iota
	FormatCBOR
	FormatJSON
)

var formatNames = [...]string{
	FormatSExpr: "sexpr",
	FormatCBOR:  "cbor",
	FormatJSON:  "json",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat accepts the names printed by Format.String, case-insensitively.
func ParseFormat(name string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(name, n) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tree format %q (want one of %s)", name, strings.Join(formatNames[:], ", "))
}

// FormatNames lists the accepted format names.
func FormatNames() []string {
	out := make([]string, len(formatNames))
	copy(out, formatNames[:])
	return out
}
