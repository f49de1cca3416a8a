package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aledsdavies/treelang/runtime/frontend"
)

// watch compiles opts.input once and again after every change until ctx is
// done. Compile errors are printed and do not stop the loop. rebuilt, when
// set, receives the result of every compile.
func (a *app) watch(ctx context.Context, opts parseOptions, rebuilt func(error)) error {
	if opts.input == frontend.Stdin {
		return &CLIError{
			Type:    "watch",
			Message: "cannot watch standard input",
			Hint:    "Pass a source file with -i",
		}
	}
	if _, err := resolveFormat(opts.format, opts.output); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &CLIError{Type: "watch", Message: fmt.Sprintf("start file watcher: %v", err)}
	}
	defer func() { _ = watcher.Close() }()

	// Editors often save by renaming a temp file over the original, which
	// drops a watch on the file itself. Watch the directory instead.
	target := filepath.Clean(opts.input)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return &CLIError{
			Type:    "watch",
			Message: fmt.Sprintf("watch %s: %v", filepath.Dir(target), err),
		}
	}

	build := func() {
		start := time.Now()
		t, err := a.compile(opts)
		if err != nil {
			FormatError(a.stderr, err, a.useColor)
		} else {
			_, _ = fmt.Fprintf(a.stdout, "The tree was saved in %s (%d nodes, %s)\n",
				opts.output, t.Count(), time.Since(start).Round(time.Microsecond))
		}
		if rebuilt != nil {
			rebuilt(err)
		}
	}

	a.logger.Info("watching", "path", target)
	build()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("watch stopped", "path", target)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			a.logger.Debug("source changed", "op", event.Op.String())
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				build()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "error", err)
		}
	}
}
