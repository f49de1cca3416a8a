package formatter

import (
	"fmt"
	"io"

	"github.com/aledsdavies/treelang/core/tree"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// FormatTree renders t with box-drawing branches, left child above right.
// A missing child is shown as nil when its sibling exists, so the two slots
// stay distinguishable.
func FormatTree(w io.Writer, t *tree.Tree, useColor bool) {
	if t == nil || t.Root == nil {
		_, _ = fmt.Fprintf(w, "(empty tree)\n")
		return
	}

	type frame struct {
		node   *tree.Node
		prefix string // inherited indentation
		branch string // "├─ ", "└─ " or "" for the root
	}

	stack := []frame{{node: t.Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		_, _ = fmt.Fprintf(w, "%s%s%s\n", f.prefix, f.branch, label(f.node, useColor))
		if f.node == nil || f.node.IsLeaf() {
			continue
		}

		childPrefix := f.prefix
		switch f.branch {
		case "├─ ":
			childPrefix += "│  "
		case "└─ ":
			childPrefix += "   "
		}
		stack = append(stack,
			frame{node: f.node.Right, prefix: childPrefix, branch: "└─ "},
			frame{node: f.node.Left, prefix: childPrefix, branch: "├─ "},
		)
	}
}

func label(n *tree.Node, useColor bool) string {
	if n == nil {
		return Colorize("nil", ColorGray, useColor)
	}
	text := n.Value.String()
	switch n.Value.Kind {
	case tree.KindNumber:
		return Colorize(text, ColorBlue, useColor)
	case tree.KindVariable:
		return Colorize(text, ColorGreen, useColor)
	case tree.KindOperation:
		return Colorize(text, ColorYellow, useColor)
	default:
		return Colorize(text, ColorRed, useColor)
	}
}
