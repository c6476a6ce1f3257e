// Package config loads prepday settings from a TOML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/abhisek/prepday/internal/clock"
	"github.com/abhisek/prepday/internal/planner"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendSQLite, BackendBadger, BackendRedis, BackendMemory}

// FileConfig represents the TOML configuration file. Unset keys keep
// their defaults.
type FileConfig struct {
	User    *string `toml:"user"`
	Log     *string `toml:"log"`
	Catalog *string `toml:"catalog"`

	Store  StoreConfig  `toml:"store"`
	Policy PolicyConfig `toml:"policy"`
	Clock  ClockConfig  `toml:"clock"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig maps storage settings.
type StoreConfig struct {
	Backend     *string `toml:"backend"`
	Path        *string `toml:"path"`
	BadgerDir   *string `toml:"badger-dir"`
	RedisAddr   *string `toml:"redis-addr"`
	RedisPrefix *string `toml:"redis-prefix"`
	Attempts    *int    `toml:"attempts"`
}

// PolicyConfig maps allocation policy settings.
type PolicyConfig struct {
	TargetMinutes    *int `toml:"target-minutes"`
	MinMinutes       *int `toml:"min-minutes"`
	MaxMinutes       *int `toml:"max-minutes"`
	AudioRatio       *int `toml:"audio-ratio"`
	TextRatio        *int `toml:"text-ratio"`
	OvershootMinutes *int `toml:"overshoot-minutes"`
	AudioCap         *int `toml:"audio-cap"`
	TextCap          *int `toml:"text-cap"`
	HistoryCapacity  *int `toml:"history-capacity"`
}

// ClockConfig maps civil calendar settings.
type ClockConfig struct {
	// Offset from UTC as a Go duration, e.g. "7h".
	Offset *string `toml:"offset"`
}

// ServerConfig maps HTTP and watch settings.
type ServerConfig struct {
	Addr          *string `toml:"addr"`
	WatchInterval *string `toml:"watch-interval"`
}

// Config is the resolved configuration.
type Config struct {
	User    string
	Log     string
	Catalog string // empty for the built-in catalog

	Backend     string
	DBPath      string // empty for the default data path
	BadgerDir   string // empty for the default data path
	RedisAddr   string
	RedisPrefix string
	Attempts    int

	Policy planner.Policy
	Offset time.Duration

	HTTPAddr      string
	WatchInterval time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		User:          "default",
		Log:           "quiet",
		Backend:       BackendSQLite,
		RedisAddr:     "localhost:6379",
		RedisPrefix:   "prepday:",
		Attempts:      3,
		Policy:        planner.DefaultPolicy(),
		Offset:        clock.DefaultOffset,
		HTTPAddr:      "127.0.0.1:8080",
		WatchInterval: time.Minute,
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return fc, nil
}

// Load reads the file at path, applies it and the environment on top of
// the defaults, and validates the result.
func Load(path string) (Config, error) {
	fc, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Resolve(fc, os.Getenv)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Resolve merges fc and then the PREPDAY_* environment variables read
// through getenv onto the defaults.
func Resolve(fc FileConfig, getenv func(string) string) (Config, error) {
	cfg := Default()

	setString(&cfg.User, fc.User)
	setString(&cfg.Log, fc.Log)
	setString(&cfg.Catalog, fc.Catalog)

	setString(&cfg.Backend, fc.Store.Backend)
	setString(&cfg.DBPath, fc.Store.Path)
	setString(&cfg.BadgerDir, fc.Store.BadgerDir)
	setString(&cfg.RedisAddr, fc.Store.RedisAddr)
	setString(&cfg.RedisPrefix, fc.Store.RedisPrefix)
	setInt(&cfg.Attempts, fc.Store.Attempts)

	p := &cfg.Policy
	setInt(&p.TargetMinutes, fc.Policy.TargetMinutes)
	setInt(&p.MinMinutes, fc.Policy.MinMinutes)
	setInt(&p.MaxMinutes, fc.Policy.MaxMinutes)
	setInt(&p.AudioRatio, fc.Policy.AudioRatio)
	setInt(&p.TextRatio, fc.Policy.TextRatio)
	setInt(&p.OvershootMinutes, fc.Policy.OvershootMinutes)
	setInt(&p.AudioCap, fc.Policy.AudioCap)
	setInt(&p.TextCap, fc.Policy.TextCap)
	setInt(&p.HistoryCapacity, fc.Policy.HistoryCapacity)

	if err := setDuration(&cfg.Offset, fc.Clock.Offset); err != nil {
		return Config{}, fmt.Errorf("clock.offset: %w", err)
	}
	setString(&cfg.HTTPAddr, fc.Server.Addr)
	if err := setDuration(&cfg.WatchInterval, fc.Server.WatchInterval); err != nil {
		return Config{}, fmt.Errorf("server.watch-interval: %w", err)
	}

	env := map[string]*string{
		"PREPDAY_USER":       &cfg.User,
		"PREPDAY_LOG":        &cfg.Log,
		"PREPDAY_CATALOG":    &cfg.Catalog,
		"PREPDAY_BACKEND":    &cfg.Backend,
		"PREPDAY_DB":         &cfg.DBPath,
		"PREPDAY_REDIS_ADDR": &cfg.RedisAddr,
		"PREPDAY_HTTP_ADDR":  &cfg.HTTPAddr,
	}
	for key, dst := range env {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
	return cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("user is empty")
	}
	known := false
	for _, b := range Backends {
		if c.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if c.Attempts < 1 {
		return fmt.Errorf("store.attempts must be at least 1")
	}
	if c.Offset <= -24*time.Hour || c.Offset >= 24*time.Hour {
		return fmt.Errorf("clock.offset %s is out of range", c.Offset)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("server.watch-interval must be positive")
	}
	return c.Policy.Validate()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
