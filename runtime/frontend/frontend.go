// Package frontend is the file-level pipeline: read a source file, lex it,
// parse it, and save or load the resulting tree.
package frontend

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aledsdavies/treelang/core/tree"
	"github.com/aledsdavies/treelang/core/treefmt"
	"github.com/aledsdavies/treelang/runtime/lexer"
	"github.com/aledsdavies/treelang/runtime/parser"
)

// Default file names used when none are given.
const (
	DefaultSource = "source.lang"
	DefaultTree   = "tree.txt"
)

// Stdin is the path that reads source from standard input.
const Stdin = "-"

// IOError reports a failed file operation.
type IOError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// LoadError ties a decoding error to the tree file it came from.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Config controls Compile and LoadTree. The zero value parses programs with a
// silent logger.
type Config struct {
	Logger   *slog.Logger
	Script   bool      // parse a bare statement list instead of a program
	MaxDepth int       // parser nesting limit; 0 keeps the parser default
	Stdin    io.Reader // source for the path "-"; os.Stdin when nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// Result is one compiled source file.
type Result struct {
	Path     string
	Source   []byte
	Tree     *tree.Tree
	Lex      lexer.Stats
	Parse    parser.Telemetry
	Duration time.Duration
}

// ReadSource reads the whole file at path, or all of stdin for "-".
func ReadSource(path string, stdin io.Reader) ([]byte, error) {
	if path == Stdin {
		if stdin == nil {
			stdin = os.Stdin
		}
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &IOError{Path: "<stdin>", Op: "read", Err: err}
		}
		return src, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "read", Err: err}
	}
	return src, nil
}

// Compile reads path and parses it. Lexical and syntax errors are returned
// unwrapped as *lexer.LexError and *parser.SyntaxError.
func Compile(path string, cfg Config) (*Result, error) {
	src, err := ReadSource(path, cfg.Stdin)
	if err != nil {
		return nil, err
	}
	return CompileSource(path, src, cfg)
}

// CompileSource parses src; path is only used for logging and the Result.
func CompileSource(path string, src []byte, cfg Config) (*Result, error) {
	logger := cfg.logger().With("path", path)
	start := time.Now()

	lx := lexer.NewLexer(src, lexer.WithLogger(logger), lexer.WithTelemetry())
	seq, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	defer seq.Discard(nil)

	opts := []parser.Option{parser.WithLogger(logger), parser.WithTelemetry()}
	if cfg.MaxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(cfg.MaxDepth))
	}
	p := parser.New(opts...)

	var t *tree.Tree
	if cfg.Script {
		t, err = p.Statements(seq)
	} else {
		t, err = p.Program(seq)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:     path,
		Source:   src,
		Tree:     t,
		Lex:      lx.Stats(),
		Duration: time.Since(start),
	}
	if tel := p.Telemetry(); tel != nil {
		res.Parse = *tel
	}
	logger.Debug("compiled", "tokens", res.Lex.Tokens, "nodes", res.Parse.Nodes, "duration", res.Duration)
	return res, nil
}

// FormatFor picks the encoding from a file extension: .cbor and .json, and
// S-expressions for everything else.
func FormatFor(path string) treefmt.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return treefmt.FormatCBOR
	case ".json":
		return treefmt.FormatJSON
	default:
		return treefmt.FormatSExpr
	}
}

// Encode renders t in format.
func Encode(t *tree.Tree, format treefmt.Format) ([]byte, error) {
	switch format {
	case treefmt.FormatCBOR:
		return treefmt.EncodeCBOR(t)
	case treefmt.FormatJSON:
		return treefmt.EncodeJSON(t)
	case treefmt.FormatSExpr:
		return treefmt.Marshal(t)
	default:
		return nil, fmt.Errorf("unsupported tree format %s", format)
	}
}

// Decode parses data written in format.
func Decode(data []byte, format treefmt.Format) (*tree.Tree, error) {
	switch format {
	case treefmt.FormatCBOR:
		return treefmt.DecodeCBOR(data)
	case treefmt.FormatJSON:
		return treefmt.DecodeJSON(data)
	case treefmt.FormatSExpr:
		return treefmt.Unmarshal(data)
	default:
		return nil, fmt.Errorf("unsupported tree format %s", format)
	}
}

// SaveTree encodes t and writes it to path. Nothing is written when the tree
// cannot be encoded.
func SaveTree(path string, t *tree.Tree, format treefmt.Format) error {
	data, err := Encode(t, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &IOError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// LoadTree reads path and decodes it. Decoding errors come back as a
// *LoadError; the decoder's own error stays reachable with errors.As.
func LoadTree(path string, format treefmt.Format, cfg Config) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "read", Err: err}
	}

	t, err := Decode(data, format)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	cfg.logger().Debug("loaded tree", "path", path, "format", format.String(), "nodes", t.Count())
	return t, nil
}
