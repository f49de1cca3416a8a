package main

import (
	"fmt"
	"io"

	"github.com/aledsdavies/treelang/core/tree"
	"github.com/aledsdavies/treelang/core/treefmt/formatter"
	"github.com/aledsdavies/treelang/runtime/lexer"
)

// DisplayTree renders an AST as a tree structure
// This is a thin wrapper around formatter.FormatTree
func DisplayTree(w io.Writer, t *tree.Tree, useColor bool) {
	formatter.FormatTree(w, t, useColor)
}

// DisplayTokens prints one token per line: index, position, kind and text.
func DisplayTokens(w io.Writer, seq *lexer.Sequence, useColor bool) {
	kinds := seq.Kinds()
	for i, kind := range kinds {
		color := ColorYellow
		switch kind {
		case "number":
			color = ColorBlue
		case "variable":
			color = ColorGreen
		}
		_, _ = fmt.Fprintf(w, "%4d  %-8s %s  %s\n",
			i,
			seq.Position(i),
			Colorize(fmt.Sprintf("%-8s", kind), color, useColor),
			seq.Text(i),
		)
	}
	_, _ = fmt.Fprintf(w, "%s\n", Colorize(fmt.Sprintf("%d tokens", len(kinds)), ColorGray, useColor))
}
