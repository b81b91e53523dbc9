// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendS3       Backend = "s3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	StoreBackend Backend `env:"STORE_BACKEND" envDefault:"memory"`
	SQLitePath   string  `env:"SQLITE_PATH" envDefault:"card-battle.db"`
	DatabaseURL  string  `env:"DATABASE_URL"`
	S3           S3

	AIActivateDelay time.Duration `env:"AI_ACTIVATE_DELAY" envDefault:"500ms"`
	AIThinkDelay    time.Duration `env:"AI_THINK_DELAY" envDefault:"2s"`
	ResolveDelay    time.Duration `env:"RESOLVE_DELAY" envDefault:"500ms"`
	NextRoundDelay  time.Duration `env:"NEXT_ROUND_DELAY" envDefault:"2s"`

	RoomIdleTTL      time.Duration `env:"ROOM_IDLE_TTL" envDefault:"30m"`
	RoomReapInterval time.Duration `env:"ROOM_REAP_INTERVAL" envDefault:"1m"`

	HandSize         int  `env:"HAND_SIZE" envDefault:"5"`
	ElementAbilities bool `env:"ELEMENT_ABILITIES" envDefault:"false"`
}

type S3 struct {
	Bucket          string `env:"S3_BUCKET"`
	Prefix          string `env:"S3_PREFIX" envDefault:"card-battle"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"auto"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite backend", ErrInvalid)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrInvalid)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET is required for the s3 backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalid, c.StoreBackend)
	}
	if c.HandSize <= 0 {
		return fmt.Errorf("%w: HAND_SIZE must be positive", ErrInvalid)
	}
	for name, d := range map[string]time.Duration{
		"AI_ACTIVATE_DELAY": c.AIActivateDelay,
		"AI_THINK_DELAY":    c.AIThinkDelay,
		"RESOLVE_DELAY":     c.ResolveDelay,
		"NEXT_ROUND_DELAY":  c.NextRoundDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, name)
		}
	}
	if c.RoomReapInterval <= 0 || c.RoomIdleTTL <= 0 {
		return fmt.Errorf("%w: ROOM_IDLE_TTL and ROOM_REAP_INTERVAL must be positive", ErrInvalid)
	}
	return nil
}

func (c Config) Delays() engine.Delays {
	return engine.Delays{
		Activate:  c.AIActivateDelay,
		Think:     c.AIThinkDelay,
		Resolve:   c.ResolveDelay,
		NextRound: c.NextRoundDelay,
	}
}

// Rules are the defaults applied to every new room.
func (c Config) Rules() engine.Rules {
	return engine.Rules{HandSize: c.HandSize, ElementAbilities: c.ElementAbilities}
}
