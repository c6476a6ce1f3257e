package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/clock"
	"github.com/abhisek/prepday/internal/config"
	"github.com/abhisek/prepday/internal/daily"
	"github.com/abhisek/prepday/internal/logger"
	"github.com/abhisek/prepday/internal/store"
)

// app holds the dependencies a command runs against.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	catalog *catalog.Catalog
	svc     *daily.Service
	events  store.EventRepo // nil with the memory backend

	closers []func() error
}

// openApp loads configuration, opens the configured backend and builds the
// engine.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error { log.Sync(); return nil })

	if cfg.Catalog != "" {
		a.catalog, err = catalog.LoadFile(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	} else {
		a.catalog = catalog.Default()
	}

	repo, err := a.openRepo(cmd)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []daily.Option{
		daily.WithPolicy(cfg.Policy),
		daily.WithLogger(log),
		daily.WithAttempts(cfg.Attempts),
	}
	if a.events != nil {
		opts = append(opts, daily.WithEvents(a.events))
	}
	a.svc, err = daily.NewService(a.catalog, repo, clock.NewCivil(cfg.Offset), opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openRepo opens the user state backend. The SQLite event log is opened
// for every persistent backend.
func (a *app) openRepo(cmd *cobra.Command) (store.UserStateRepo, error) {
	if a.cfg.Backend == config.BackendMemory {
		a.log.Warn("memory backend: state is discarded on exit")
		return store.NewMemoryStore(), nil
	}

	dbPath, err := resolveDBPath(cmd, a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	sq, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, sq.Close)
	a.events = sq.EventRepo()

	switch a.cfg.Backend {
	case config.BackendSQLite:
		return sq.UserStateRepo(), nil

	case config.BackendBadger:
		dir := a.cfg.BadgerDir
		if dir == "" {
			data, err := store.DataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(data, "badger")
		}
		bcfg := store.DefaultBadgerConfig(dir)
		bcfg.Logger = a.log
		bs, err := store.OpenBadger(bcfg)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		a.closers = append(a.closers, bs.Close)
		return bs, nil

	case config.BackendRedis:
		client, err := store.DialRedis(cmd.Context(), a.cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return store.NewRedisStore(client, a.cfg.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
}

// Close releases everything openApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// userID returns the user commands act on.
func (a *app) userID() string { return a.cfg.User }

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fc, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Resolve(fc, os.Getenv)
	if err != nil {
		return config.Config{}, err
	}

	flags := map[string]*string{
		"user":    &cfg.User,
		"backend": &cfg.Backend,
		"catalog": &cfg.Catalog,
		"log":     &cfg.Log,
	}
	for name, dst := range flags {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
