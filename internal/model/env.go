package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// EnvOverrides are settings taken from the environment. Empty values
// leave the file configuration untouched.
type EnvOverrides struct {
	BackendKind   string `env:"PULSE_BACKEND_KIND"`
	BackendURL    string `env:"PULSE_BACKEND_URL"`
	BackendToken  string `env:"PULSE_BACKEND_TOKEN"`
	MongoURI      string `env:"PULSE_MONGO_URI"`
	MongoDatabase string `env:"PULSE_MONGO_DATABASE"`
	MySQLDSN      string `env:"PULSE_MYSQL_DSN"`
	DisplayName   string `env:"PULSE_DISPLAY_NAME"`

	StateBackend  string `env:"PULSE_STATE_BACKEND"`
	DBPath        string `env:"PULSE_DB_PATH"`
	RedisAddr     string `env:"PULSE_REDIS_ADDR"`
	RedisPassword string `env:"PULSE_REDIS_PASSWORD"`

	LogLevel    string `env:"PULSE_LOG_LEVEL"`
	LogFormat   string `env:"PULSE_LOG_FORMAT"`
	MetricsAddr string `env:"PULSE_METRICS_ADDR"`
}

// LoadDotEnv loads path into the process environment if it exists.
// Variables already set are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv parses the environment and overlays non-empty values on cfg.
func ApplyEnv(cfg *AppConfig) error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&cfg.Backend.Kind, o.BackendKind)
	set(&cfg.Backend.BaseURL, o.BackendURL)
	set(&cfg.Backend.Token, o.BackendToken)
	set(&cfg.Backend.MongoURI, o.MongoURI)
	set(&cfg.Backend.MongoDatabase, o.MongoDatabase)
	set(&cfg.Backend.MySQLDSN, o.MySQLDSN)
	set(&cfg.Backend.DisplayName, o.DisplayName)
	set(&cfg.State.Backend, o.StateBackend)
	set(&cfg.State.DBPath, o.DBPath)
	set(&cfg.State.RedisAddr, o.RedisAddr)
	set(&cfg.State.RedisPassword, o.RedisPassword)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Log.Format, o.LogFormat)
	set(&cfg.Metrics.Addr, o.MetricsAddr)

	return nil
}
