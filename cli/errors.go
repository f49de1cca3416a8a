package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/treelang/core/diag"
	"github.com/aledsdavies/treelang/core/treefmt"
	"github.com/aledsdavies/treelang/runtime/frontend"
	"github.com/aledsdavies/treelang/runtime/lexer"
	"github.com/aledsdavies/treelang/runtime/parser"
)

// Exit codes
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitIO      = 2
	ExitCompile = 3 // lexical or syntax error
	ExitLoad    = 4 // malformed saved tree
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "usage", "watch"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// SourceError ties a lexical or syntax error to the file it came from.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var (
		ioErr  *frontend.IOError
		lexErr *lexer.LexError
		synErr *parser.SyntaxError
		mte    *treefmt.MalformedTreeError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ioErr):
		return ExitIO
	case errors.As(err, &lexErr), errors.As(err, &synErr):
		return ExitCompile
	case errors.As(err, &mte), errors.Is(err, treefmt.ErrInvalidArena):
		return ExitLoad
	default:
		return ExitUsage
	}
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	path := ""
	var (
		srcErr  *SourceError
		loadErr *frontend.LoadError
	)
	switch {
	case errors.As(err, &srcErr):
		path = srcErr.Path
	case errors.As(err, &loadErr):
		path = loadErr.Path
	}

	var (
		lexErr *lexer.LexError
		synErr *parser.SyntaxError
		mte    *treefmt.MalformedTreeError
		cliErr *CLIError
	)
	switch {
	case errors.As(err, &lexErr):
		formatLexError(w, path, lexErr, useColor)
	case errors.As(err, &synErr):
		formatSyntaxError(w, path, synErr, useColor)
	case errors.As(err, &mte):
		formatMalformedTree(w, path, mte, useColor)
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	default:
		// Generic error
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

func location(path string, pos diag.Position) string {
	if path == "" {
		return pos.String()
	}
	return path + ":" + pos.String()
}

func formatLexError(w io.Writer, path string, err *lexer.LexError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s: %s\n",
		Colorize("Error: ", ColorRed, useColor),
		location(path, err.Position()),
		err.Summary())
	if snippet := err.Snippet(); snippet != "" {
		_, _ = fmt.Fprintf(w, "%s\n", snippet)
	}
}

// formatSyntaxError formats parser errors with suggestions
func formatSyntaxError(w io.Writer, path string, err *parser.SyntaxError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s: %s\n",
		Colorize("Error: ", ColorRed, useColor),
		location(path, err.Position),
		err.Summary())

	if err.Context != "" {
		_, _ = fmt.Fprintf(w, "%sContext: %s (token %d)\n", Colorize("  ", ColorGray, useColor), err.Context, err.TokenIndex)
	}

	if snippet := diag.Snippet(err.Source, err.Position); snippet != "" {
		_, _ = fmt.Fprintf(w, "%s\n", snippet)
	}

	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Suggestion)
	}
}

// formatMalformedTree prints the location and reason; the suggestion only
// appears on the Hint line.
func formatMalformedTree(w io.Writer, path string, mte *treefmt.MalformedTreeError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s: malformed tree: %s\n",
		Colorize("Error: ", ColorRed, useColor),
		location(path, mte.Position),
		mte.Summary())
	if mte.Suggestion != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), mte.Suggestion)
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
