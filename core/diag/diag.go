// Package diag renders the positional context shared by lexer, parser and tree
// reader errors: line/column positions, Rust-style source snippets with a
// caret, and "did you mean" suggestions.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Position is a location in source text. Line and Column are 1-based; Offset
// is the 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p was set.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionAt converts a byte offset into a Position. Offsets past the end are
// clamped to len(src).
func PositionAt(src []byte, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for _, ch := range src[:offset] {
		if ch == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return Position{Offset: offset, Line: line, Column: col}
}

// Excerpt returns at most n bytes of src starting at offset, cut at the first
// newline.
func Excerpt(src []byte, offset, n int) string {
	if offset < 0 || offset >= len(src) {
		return ""
	}
	end := min(offset+n, len(src))
	s := string(src[offset:end])
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Snippet renders the line holding pos with a caret under the column:
//
//	  --> 3:7
//	   |
//	 3 | x := ;
//	   |      ^
//
// An invalid position or a line past the end of src yields "".
func Snippet(src []byte, pos Position) string {
	if len(src) == 0 || !pos.IsValid() {
		return ""
	}

	lines := strings.Split(string(src), "\n")
	if pos.Line > len(lines) {
		return ""
	}
	lineContent := strings.TrimRight(lines[pos.Line-1], "\r")

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", pos.Line, pos.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", pos.Line, lineContent)
	b.WriteString("   | ")
	if pos.Column > 0 && pos.Column <= len(lineContent)+1 {
		b.WriteString(strings.Repeat(" ", pos.Column-1) + "^")
	}
	return b.String()
}

// MaxDistance is the largest edit distance Suggest accepts.
const MaxDistance = 2

// Suggest returns the candidate closest to word, or "" when nothing is within
// MaxDistance edits. Case is ignored; an exact match is not a suggestion.
func Suggest(word string, candidates []string) string {
	if word == "" || len(candidates) == 0 {
		return ""
	}

	// A suggestion must keep at least one character of word, so "x" never
	// turns into "if".
	limit := min(MaxDistance, len(word)-1)

	ranks := fuzzy.RankFindFold(word, candidates)
	sort.Stable(ranks)
	for _, r := range ranks {
		if r.Target == word {
			return ""
		}
		if r.Distance <= limit {
			return r.Target
		}
	}

	// Subsequence matching misses transpositions ("wihle"); fall back to plain
	// edit distance.
	best, bestDist := "", limit+1
	lower := strings.ToLower(word)
	for _, c := range candidates {
		if c == word {
			return ""
		}
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// DidYouMean formats a suggestion for an error message, or "" for none.
func DidYouMean(suggestion string) string {
	if suggestion == "" {
		return ""
	}
	return fmt.Sprintf("did you mean '%s'?", suggestion)
}
