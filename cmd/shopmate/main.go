package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const usage = `Usage: shopmate [command] [flags] [args]

Commands:
  serve                  run the HTTP API (default)
  list                   print the shopping list
  search <query>         search the catalog
  add <name>             create a catalog item from a search
  toggle <entry-id>      mark a list entry done or not done
  image <item-id> [file] attach a photo to a catalog item
  share                  share the shopping list
  reset                  delete the catalog, the list and all photos

Common flags:
  -c, -config <path>     YAML config file
  -s, -storage <driver>  storage driver: sqlite, redis, memory (default: sqlite)
  -d, -db <path>         SQLite database path (default: shopmate.sqlite3)
  -m, -media <dir>       media directory (default: media)
  -l, -log <path>        log file path (default: no file, stdout/stderr only)
  -h, -help              show help for a command and exit
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return cmdServe(args)
	case "list":
		return cmdList(args)
	case "search":
		return cmdSearch(args)
	case "add":
		return cmdAdd(args)
	case "toggle":
		return cmdToggle(args)
	case "image":
		return cmdImage(args)
	case "share":
		return cmdShare(args)
	case "reset":
		return cmdReset(args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
}

// levelRouter is a slog.Handler that routes records below ERROR to out and
// ERROR+ to errOut.
type levelRouter struct {
	min    slog.Level
	out    slog.Handler
	errOut slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.errOut.Handle(ctx, r)
	}
	return lr.out.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		out:    lr.out.WithAttrs(attrs),
		errOut: lr.errOut.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		out:    lr.out.WithGroup(name),
		errOut: lr.errOut.WithGroup(name),
	}
}

// setupLogger configures structured logging. The server sends INFO/WARN to
// stdout and ERROR to stderr. Other commands keep stdout for their output
// and log WARN+ to stderr. If logPath is non-empty, records are also written
// to that file. Returns a cleanup function that closes the log file (if
// opened).
func setupLogger(logPath string, server bool) (func(), error) {
	level := slog.LevelInfo
	outW := io.Writer(os.Stdout)
	if !server {
		level = slog.LevelWarn
		outW = os.Stderr
	}
	errW := io.Writer(os.Stderr)

	cleanup := func() {}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		outW = io.MultiWriter(outW, f)
		errW = io.MultiWriter(errW, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := &levelRouter{
		min:    level,
		out:    slog.NewTextHandler(outW, opts),
		errOut: slog.NewTextHandler(errW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}
