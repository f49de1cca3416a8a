// Package lang holds the operator registry: the one table that maps every
// surface token of the language to its tag, arity class and display text.
//
// The lexer matches source text against it, the parser dispatches on its tags,
// and the tree writer, reader and formatter print and recognize its display
// strings. Keeping a single table is what keeps saved trees readable by the
// loader.
package lang

// Op identifies a registered token. OpNone is the zero value and never appears
// in a well-formed tree.
type Op int

const (
	OpNone Op = iota

	// Assignment
	OpAdvert // :=
	OpAssign // =

	// Arithmetic
	OpAdd  // +
	OpSub  // -
	OpMul  // *
	OpDiv  // /
	OpPow  // ^
	OpSqrt // sqrt

	// I/O
	OpIn  // input
	OpOut // print

	// Control flow
	OpIf    // if
	OpElse  // else
	OpWhile // while

	// Functions
	OpFunc   // func
	OpCall   // call
	OpReturn // return
	OpMain   // main

	// Punctuation
	OpComma      // ,
	OpSemicolon  // ;
	OpOpenParen  // (
	OpCloseParen // )
	OpOpenBrace  // {
	OpCloseBrace // }
)

// Arity classifies how an entry shapes the tree.
type Arity int

const (
	// Pseudo entries are structural punctuation.
	Pseudo Arity = iota - 1
	// NonCustom entries are built-in operators and keywords with a fixed shape.
	NonCustom
	// Custom entries introduce a user-shaped subtree (if, while, print).
	Custom
)

func (a Arity) String() string {
	switch a {
	case Pseudo:
		return "pseudo"
	case NonCustom:
		return "non-custom"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Entry is one row of the registry.
type Entry struct {
	Surface string // text matched in source
	Op      Op
	Arity   Arity
	Display string // text printed by the dumper and the tree writer
}

// IsWord reports whether the entry is spelled with identifier characters.
// Word entries only match at an identifier boundary.
func (e Entry) IsWord() bool {
	return e.Surface != "" && IsIdentStart(e.Surface[0])
}

// entries is declared so that no entry is a prefix of a later one it should
// lose to (":=" precedes "=").
var entries = [...]Entry{
	{":=", OpAdvert, NonCustom, ":="},
	{"=", OpAssign, NonCustom, "="},
	{"+", OpAdd, NonCustom, "+"},
	{"-", OpSub, NonCustom, "-"},
	{"*", OpMul, NonCustom, "*"},
	{"/", OpDiv, NonCustom, "/"},
	{"^", OpPow, NonCustom, "^"},
	{"sqrt", OpSqrt, NonCustom, "sqrt"},
	{"input", OpIn, NonCustom, "input"},
	{"print", OpOut, Custom, "print"},
	{"if", OpIf, Custom, "if"},
	{"else", OpElse, NonCustom, "else"},
	{"while", OpWhile, Custom, "while"},
	{"func", OpFunc, NonCustom, "func"},
	{"call", OpCall, NonCustom, "call"},
	{"return", OpReturn, NonCustom, "return"},
	{"main", OpMain, NonCustom, "main"},
	{",", OpComma, Pseudo, ","},
	{";", OpSemicolon, Pseudo, ";"},
	{"(", OpOpenParen, Pseudo, "("},
	{")", OpCloseParen, Pseudo, ")"},
	{"{", OpOpenBrace, Pseudo, "{"},
	{"}", OpCloseBrace, Pseudo, "}"},
}

var (
	byOp      map[Op]int
	byDisplay map[string]Op
	words     []string
)

func init() {
	byOp = make(map[Op]int, len(entries))
	byDisplay = make(map[string]Op, len(entries))
	for i, e := range entries {
		byOp[e.Op] = i
		byDisplay[e.Display] = e.Op
		if e.IsWord() {
			words = append(words, e.Display)
		}
	}
}

// Match reports the longest registered token that prefixes src. Word entries
// such as "if" only match when the following byte cannot continue an
// identifier, so "iffy" is left for the identifier rule.
func Match(src []byte) (Entry, bool) {
	best := -1
	for i, e := range entries {
		if len(e.Surface) > len(src) || string(src[:len(e.Surface)]) != e.Surface {
			continue
		}
		if e.IsWord() && len(src) > len(e.Surface) && IsIdentPart(src[len(e.Surface)]) {
			continue
		}
		if best < 0 || len(e.Surface) > len(entries[best].Surface) {
			best = i
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return entries[best], true
}

// Lookup returns the registry entry for op.
func Lookup(op Op) (Entry, bool) {
	i, ok := byOp[op]
	if !ok {
		return Entry{}, false
	}
	return entries[i], true
}

// ByDisplay returns the op whose display text is exactly text.
func ByDisplay(text string) (Op, bool) {
	op, ok := byDisplay[text]
	return op, ok
}

// String returns the canonical display text, or "?" for unregistered ops.
func (op Op) String() string {
	if e, ok := Lookup(op); ok {
		return e.Display
	}
	return "?"
}

// Arity returns the arity class of op; unregistered ops report Pseudo.
func (op Op) Arity() Arity {
	if e, ok := Lookup(op); ok {
		return e.Arity
	}
	return Pseudo
}

// Entries returns a copy of the registry in declaration order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries[:])
	return out
}

// Displays returns every display string in declaration order.
func Displays() []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Display)
	}
	return out
}

// Words returns the display text of every keyword entry.
func Words() []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// IsIdentifier reports whether s is spelled like a variable name. Keywords
// are spelled that way too; use Match to tell them apart.
func IsIdentifier(s string) bool {
	if s == "" || !IsIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentPart(s[i]) {
			return false
		}
	}
	return true
}

// IsIdentStart reports whether ch can begin an identifier. The lexer builds
// its identifier rule from this and IsIdentPart, so keyword boundaries and
// identifiers always split the same way.
func IsIdentStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

// IsIdentPart reports whether ch can continue an identifier.
func IsIdentPart(ch byte) bool {
	return IsIdentStart(ch) || ('0' <= ch && ch <= '9')
}
