package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/swamy3697/Shop-Mate/internal/config"
	"github.com/swamy3697/Shop-Mate/internal/db"
	"github.com/swamy3697/Shop-Mate/internal/kv"
	"github.com/swamy3697/Shop-Mate/internal/media"
	"github.com/swamy3697/Shop-Mate/internal/share"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
	"github.com/swamy3697/Shop-Mate/internal/store"
)

// commonFlags are accepted by every command and override the config file.
type commonFlags struct {
	configPath string
	driver     string
	dbPath     string
	mediaDir   string
	logPath    string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "")
	fs.StringVar(&c.configPath, "c", "", "")
	fs.StringVar(&c.driver, "storage", "", "")
	fs.StringVar(&c.driver, "s", "", "")
	fs.StringVar(&c.dbPath, "db", "", "")
	fs.StringVar(&c.dbPath, "d", "", "")
	fs.StringVar(&c.mediaDir, "media", "", "")
	fs.StringVar(&c.mediaDir, "m", "", "")
	fs.StringVar(&c.logPath, "log", "", "")
	fs.StringVar(&c.logPath, "l", "", "")
}

// newFlagSet returns a flag set for a command with the common flags
// registered and the usage text printed on -h.
func newFlagSet(name, help string, common *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	common.register(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, help)
	}
	return fs
}

// parseFlags parses args and reports the exit code to use when parsing
// ends the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1, false
	}
	return 0, true
}

// load reads the config file and applies the flags that were set.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.driver != "" {
		cfg.Storage.Driver = c.driver
	}
	if c.dbPath != "" {
		cfg.Storage.Path = c.dbPath
	}
	if c.mediaDir != "" {
		cfg.Media.Dir = c.mediaDir
	}
	if c.logPath != "" {
		cfg.Log.Path = c.logPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app holds the opened storage and services shared by the commands.
type app struct {
	cfg     *config.Config
	store   *store.Store
	service *shopping.Service
	font    share.Font
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
}

// openApp connects the configured key-value backend and builds the services.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	backend, err := a.openKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	m, err := media.NewManager(cfg.Media.Dir)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Share.PDFFont != "" {
		if a.font, err = share.LoadFont(cfg.Share.PDFFont); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.store = store.New(backend)
	a.service = shopping.New(a.store, m)
	return a, nil
}

func (a *app) openKV(ctx context.Context) (kv.Store, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverSQLite:
		database, err := db.Open(a.cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.closers = append(a.closers, database.Close)

		if err := db.EnsureSchema(database); err != nil {
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
		slog.Debug("database ready", "path", a.cfg.Storage.Path)
		return kv.NewSQLite(database), nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: a.cfg.Storage.RedisAddr,
			DB:   a.cfg.Storage.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", a.cfg.Storage.RedisAddr, err)
		}
		return kv.NewRedis(rdb, a.cfg.Storage.RedisPrefix), nil

	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on exit")
		return kv.NewMemory(), nil
	}
	return nil, config.ErrInvalidDriver
}

// startCommand loads the configuration, sets up logging and opens the app.
// A nil app means the command failed and code is its exit code.
func startCommand(common *commonFlags, server bool) (*app, func(), int) {
	cfg, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, nil, 1
	}

	closeLog, err := setupLogger(cfg.Log.Path, server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, nil, 1
	}

	a, err := openApp(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		closeLog()
		return nil, nil, 1
	}

	return a, func() {
		a.Close()
		closeLog()
	}, 0
}
