package parser

import (
	"io"
	"log/slog"
	"time"
)

// DefaultMaxDepth bounds statement and expression nesting.
const DefaultMaxDepth = 10000

// Option configures a Parser.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	telemetry bool
	maxDepth  int
}

func defaultConfig() config {
	return config{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxDepth,
	}
}

// WithLogger traces the parse at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTelemetry records token and node counts and parse time, read back with
// Parser.Telemetry.
func WithTelemetry() Option {
	return func(c *config) {
		c.telemetry = true
	}
}

// WithMaxDepth sets the nesting limit. Input nested deeper fails with a
// SyntaxError instead of growing the stack. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// Telemetry describes one parse.
type Telemetry struct {
	Tokens      int // tokens in the sequence
	Nodes       int // nodes in the resulting tree
	Synthesized int // spine nodes created without a token
	Released    int // punctuation tokens consumed and freed
	ParseTime   time.Duration
}
