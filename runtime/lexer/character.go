package lexer

import "github.com/aledsdavies/treelang/core/lang"

// ASCII lookup tables. Bytes >= 128 are never valid outside comments, so
// lookups are guarded with ch < 128.
var (
	isWhitespace [128]bool // space, tab, CR, LF, form feed, vertical tab
	isDigit      [128]bool // 0-9
	isIdentStart [128]bool // lang.IsIdentStart
	isIdentPart  [128]bool // lang.IsIdentPart
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)

		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v'
		isDigit[i] = '0' <= ch && ch <= '9'
		isIdentStart[i] = lang.IsIdentStart(ch)
		isIdentPart[i] = lang.IsIdentPart(ch)
	}
}

func whitespace(ch byte) bool { return ch < 128 && isWhitespace[ch] }
func digit(ch byte) bool      { return ch < 128 && isDigit[ch] }
func identStart(ch byte) bool { return ch < 128 && isIdentStart[ch] }
func identPart(ch byte) bool  { return ch < 128 && isIdentPart[ch] }
