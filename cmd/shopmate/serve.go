package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/api"
	"github.com/swamy3697/Shop-Mate/internal/auth"
)

const serveHelp = `Usage: shopmate serve [flags]

Flags:
  -c, -config <path>      YAML config file
  -s, -storage <driver>   storage driver: sqlite, redis, memory (default: sqlite)
  -d, -db <path>          SQLite database path (default: shopmate.sqlite3)
  -m, -media <dir>        media directory (default: media)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        account username on first run (default: Owner)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`

func cmdServe(args []string) int {
	var common commonFlags
	fs := newFlagSet("serve", serveHelp, &common)

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var username string
	fs.StringVar(&username, "user", "", "")
	fs.StringVar(&username, "u", "", "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return 1
	}

	a, done, code := startCommand(&common, true)
	if a == nil {
		return code
	}
	defer done()

	if addr != "" {
		a.cfg.Server.Addr = addr
	}
	if username != "" {
		a.cfg.Account.Username = username
	}

	ctx := context.Background()

	// Create the owner account on first run.
	password, err := auth.Bootstrap(ctx, a.store, a.cfg.Account.Username)
	if err != nil {
		slog.Error("failed to initialize account", "error", err)
		return 1
	}
	if password != "" {
		printInitResult(a.cfg.Account.Username, password)
		fmt.Println()
	}

	// Load JWT secret from storage (auto-generated on first run).
	jwtSecret, err := a.store.JWTSecret(ctx)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return 1
	}

	handler := api.NewRouter(api.Options{
		Service:     a.service,
		Accounts:    a.store,
		JWTSecret:   jwtSecret,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		PDFFont:     a.font,
	})

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started",
		"addr", a.cfg.Server.Addr,
		"storage", a.cfg.Storage.Driver,
		"media", a.service.Media().Dir(),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("server stopped, closing storage")
	return 0
}

// printInitResult prints the generated account credentials to stdout.
func printInitResult(username, password string) {
	fmt.Println("Account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("It can be changed through PUT /api/auth/password.")
}
