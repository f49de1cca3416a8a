package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/treelang/core/tree"
	"github.com/aledsdavies/treelang/core/treefmt"
	"github.com/aledsdavies/treelang/runtime/frontend"
	"github.com/aledsdavies/treelang/runtime/lexer"
)

// DebugEnv turns on debug logging like --debug.
const DebugEnv = "TREELANG_DEBUG"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app holds the streams and persistent flags shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	debug   bool
	noColor bool

	logger   *slog.Logger
	useColor bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := a.rootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		FormatError(stderr, err, ShouldUseColor(a.noColor, stderr))
		return ExitCode(err)
	}
	return ExitOK
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "treelang [command]",
		Short:         "Parse treelang sources into saved syntax trees",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(a.stderr, a.debug || os.Getenv(DebugEnv) != "")
			a.useColor = ShouldUseColor(a.noColor, a.stdout)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(a.parseCommand(), a.loadCommand(), a.tokensCommand(), a.watchCommand())
	return rootCmd
}

// newLogger writes text records without time and level, so debug traces stay
// readable next to normal output.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && (attr.Key == slog.TimeKey || attr.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return attr
		},
	}))
}

// parseOptions are the flags shared by parse and watch.
type parseOptions struct {
	input  string
	output string
	format string
	script bool
}

func (o *parseOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", frontend.DefaultSource, "Source file to parse (- for stdin)")
	cmd.Flags().StringVarP(&o.output, "output", "o", frontend.DefaultTree, "Where to save the tree")
	cmd.Flags().StringVar(&o.format, "format", "", "Tree format: "+strings.Join(treefmt.FormatNames(), ", ")+" (default: from the output extension)")
	cmd.Flags().BoolVar(&o.script, "script", false, "Parse a bare statement list instead of a program")
}

func resolveFormat(flag, path string) (treefmt.Format, error) {
	if flag == "" {
		return frontend.FormatFor(path), nil
	}
	f, err := treefmt.ParseFormat(flag)
	if err != nil {
		return 0, &CLIError{
			Type:    "usage",
			Message: err.Error(),
			Hint:    "Use --format with one of: " + strings.Join(treefmt.FormatNames(), ", "),
		}
	}
	return f, nil
}

func (a *app) config(script bool) frontend.Config {
	return frontend.Config{Logger: a.logger, Script: script, Stdin: a.stdin}
}

// compile parses opts.input and saves the tree to opts.output.
func (a *app) compile(opts parseOptions) (*tree.Tree, error) {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return nil, err
	}

	res, err := frontend.Compile(opts.input, a.config(opts.script))
	if err != nil {
		if ExitCode(err) == ExitCompile {
			return nil, &SourceError{Path: opts.input, Err: err}
		}
		return nil, err
	}

	if err := frontend.SaveTree(opts.output, res.Tree, format); err != nil {
		return nil, err
	}
	a.logger.Debug("saved tree", "path", opts.output, "format", format.String(),
		"tokens", res.Lex.Tokens, "nodes", res.Parse.Nodes, "synthesized", res.Parse.Synthesized)
	return res.Tree, nil
}

func (a *app) parseCommand() *cobra.Command {
	var (
		opts      parseOptions
		printTree bool
		digest    bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a source file and save its syntax tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.compile(opts)
			if err != nil {
				return err
			}
			if printTree {
				DisplayTree(a.stdout, t, a.useColor)
			}
			_, _ = fmt.Fprintf(a.stdout, "The tree was saved in %s (%d nodes)\n", opts.output, t.Count())
			if digest {
				return a.printDigest(t)
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&printTree, "print", false, "Print the tree after saving it")
	cmd.Flags().BoolVar(&digest, "digest", false, "Print the tree digest")
	return cmd
}

func (a *app) loadCommand() *cobra.Command {
	var (
		format string
		resave string
		digest bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "load [tree file]",
		Short: "Read a saved tree back and display it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := frontend.DefaultTree
			if len(args) == 1 {
				path = args[0]
			}
			in, err := resolveFormat(format, path)
			if err != nil {
				return err
			}

			t, err := frontend.LoadTree(path, in, a.config(false))
			if err != nil {
				return err
			}
			if !quiet {
				DisplayTree(a.stdout, t, a.useColor)
			}
			if digest {
				if err := a.printDigest(t); err != nil {
					return err
				}
			}
			if resave != "" {
				if err := frontend.SaveTree(resave, t, frontend.FormatFor(resave)); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, "The tree was saved in %s\n", resave)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Tree format: "+strings.Join(treefmt.FormatNames(), ", ")+" (default: from the file extension)")
	cmd.Flags().StringVar(&resave, "resave", "", "Write the loaded tree to this path (format from its extension)")
	cmd.Flags().BoolVar(&digest, "digest", false, "Print the tree digest")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the tree")
	return cmd
}

func (a *app) tokensCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Print the token sequence of a source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := frontend.ReadSource(input, a.stdin)
			if err != nil {
				return err
			}
			seq, err := lexer.Lex(src, lexer.WithLogger(a.logger))
			if err != nil {
				return &SourceError{Path: input, Err: err}
			}
			defer seq.Discard(nil)

			DisplayTokens(a.stdout, seq, a.useColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", frontend.DefaultSource, "Source file to lex (- for stdin)")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-parse the source file whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, opts, nil)
		},
	}

	opts.register(cmd)
	return cmd
}

func (a *app) printDigest(t *tree.Tree) error {
	d, err := treefmt.Digest(t)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.stdout, d)
	return nil
}
