package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Backend kinds supported for collection reads.
const (
	BackendREST  = "rest"
	BackendMongo = "mongo"
	BackendMySQL = "mysql"
)

// State backends for the acknowledgement key-value store.
const (
	StateSQLite = "sqlite"
	StateRedis  = "redis"
)

// BackendConfig describes where portal records are read from.
type BackendConfig struct {
	// Kind selects the reader: "rest", "mongo" or "mysql".
	Kind string `mapstructure:"kind" yaml:"kind"`

	// BaseURL is the root URL of the managed backend REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Token is the API bearer token. It is never written to the config
	// file; it comes from the environment or the system keyring.
	Token string `mapstructure:"token" yaml:"-"`

	// PageSize is the number of documents requested per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// Timeout bounds a single collection read.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
	MySQLDSN      string `mapstructure:"mysql_dsn" yaml:"mysql_dsn"`

	// DisplayName greets the user when the backend has no identity
	// endpoint (mongo, mysql).
	DisplayName string `mapstructure:"display_name" yaml:"display_name"`
}

// StateConfig describes the local durable state.
type StateConfig struct {
	// Backend selects the key-value store: "sqlite" or "redis".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// DBPath is the SQLite file holding state and check-in history.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"-"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// HistoryRetention is how long check-in events are kept by prune.
	HistoryRetention time.Duration `mapstructure:"history_retention" yaml:"history_retention"`
}

// CheckInConfig holds the business thresholds of the check-in engine.
type CheckInConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"`
	FollowUpAfter    time.Duration `mapstructure:"follow_up_after" yaml:"follow_up_after"`
	SuppressFor      time.Duration `mapstructure:"suppress_for" yaml:"suppress_for"`

	InitialTimeout      time.Duration `mapstructure:"initial_timeout" yaml:"initial_timeout"`
	FollowUpTimeout     time.Duration `mapstructure:"follow_up_timeout" yaml:"follow_up_timeout"`
	ProgressTimeout     time.Duration `mapstructure:"progress_timeout" yaml:"progress_timeout"`
	AcknowledgedTimeout time.Duration `mapstructure:"acknowledged_timeout" yaml:"acknowledged_timeout"`
	QuestionTimeout     time.Duration `mapstructure:"question_timeout" yaml:"question_timeout"`

	// ShowAllClear enables the status-only message when nothing is pending.
	ShowAllClear  bool          `mapstructure:"show_all_clear" yaml:"show_all_clear"`
	AllClearEvery time.Duration `mapstructure:"all_clear_every" yaml:"all_clear_every"`

	// ClearOnResolve drops a category's records once its count reaches zero.
	ClearOnResolve bool `mapstructure:"clear_on_resolve" yaml:"clear_on_resolve"`

	// MaxDetails caps representative records per category.
	MaxDetails int `mapstructure:"max_details" yaml:"max_details"`

	// Categories restricts the engine to these keys. Empty means all.
	Categories []string `mapstructure:"categories" yaml:"categories"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	State   StateConfig   `mapstructure:"state" yaml:"state"`
	CheckIn CheckInConfig `mapstructure:"checkin" yaml:"checkin"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ConfigDir returns ~/.config/pulse, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "pulse")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/pulse/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultLogPath is where the terminal UI writes its log.
func DefaultLogPath() string {
	return filepath.Join(ConfigDir(), "pulse.log")
}

// DefaultAppConfig returns the built-in configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			Kind:          BackendREST,
			PageSize:      200,
			Timeout:       30 * time.Second,
			MongoDatabase: "portal",
		},
		State: StateConfig{
			Backend:          StateSQLite,
			DBPath:           filepath.Join(ConfigDir(), "pulse.db"),
			RedisAddr:        "localhost:6379",
			RedisPrefix:      "pulse",
			HistoryRetention: 90 * 24 * time.Hour,
		},
		CheckIn: CheckInConfig{
			PollInterval:        45 * time.Second,
			ProgressInterval:    8 * time.Second,
			FollowUpAfter:       60 * time.Minute,
			SuppressFor:         45 * time.Minute,
			InitialTimeout:      10 * time.Second,
			FollowUpTimeout:     15 * time.Second,
			ProgressTimeout:     8 * time.Second,
			AcknowledgedTimeout: 2 * time.Second,
			QuestionTimeout:     30 * time.Second,
			ShowAllClear:        true,
			AllClearEvery:       60 * time.Minute,
			ClearOnResolve:      true,
			MaxDetails:          2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// setDefaults mirrors DefaultAppConfig into v so missing keys resolve to
// the built-in values.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()

	v.SetDefault("backend.kind", d.Backend.Kind)
	v.SetDefault("backend.page_size", d.Backend.PageSize)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.mongo_database", d.Backend.MongoDatabase)

	v.SetDefault("state.backend", d.State.Backend)
	v.SetDefault("state.db_path", d.State.DBPath)
	v.SetDefault("state.redis_addr", d.State.RedisAddr)
	v.SetDefault("state.redis_prefix", d.State.RedisPrefix)
	v.SetDefault("state.history_retention", d.State.HistoryRetention)

	v.SetDefault("checkin.poll_interval", d.CheckIn.PollInterval)
	v.SetDefault("checkin.progress_interval", d.CheckIn.ProgressInterval)
	v.SetDefault("checkin.follow_up_after", d.CheckIn.FollowUpAfter)
	v.SetDefault("checkin.suppress_for", d.CheckIn.SuppressFor)
	v.SetDefault("checkin.initial_timeout", d.CheckIn.InitialTimeout)
	v.SetDefault("checkin.follow_up_timeout", d.CheckIn.FollowUpTimeout)
	v.SetDefault("checkin.progress_timeout", d.CheckIn.ProgressTimeout)
	v.SetDefault("checkin.acknowledged_timeout", d.CheckIn.AcknowledgedTimeout)
	v.SetDefault("checkin.question_timeout", d.CheckIn.QuestionTimeout)
	v.SetDefault("checkin.show_all_clear", d.CheckIn.ShowAllClear)
	v.SetDefault("checkin.all_clear_every", d.CheckIn.AllClearEvery)
	v.SetDefault("checkin.clear_on_resolve", d.CheckIn.ClearOnResolve)
	v.SetDefault("checkin.max_details", d.CheckIn.MaxDetails)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("state", cfg.State)
	v.Set("checkin", cfg.CheckIn)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Validate reports the first configuration problem found.
func (c *AppConfig) Validate() error {
	switch c.Backend.Kind {
	case BackendREST:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required for the rest backend")
		}
	case BackendMongo:
		if c.Backend.MongoURI == "" {
			return fmt.Errorf("backend.mongo_uri is required for the mongo backend")
		}
	case BackendMySQL:
		if c.Backend.MySQLDSN == "" {
			return fmt.Errorf("backend.mysql_dsn is required for the mysql backend")
		}
	default:
		return fmt.Errorf("unknown backend.kind %q", c.Backend.Kind)
	}

	switch c.State.Backend {
	case StateSQLite, StateRedis:
	default:
		return fmt.Errorf("unknown state.backend %q", c.State.Backend)
	}

	ci := c.CheckIn
	durations := map[string]time.Duration{
		"checkin.poll_interval":        ci.PollInterval,
		"checkin.progress_interval":    ci.ProgressInterval,
		"checkin.follow_up_after":      ci.FollowUpAfter,
		"checkin.suppress_for":         ci.SuppressFor,
		"checkin.initial_timeout":      ci.InitialTimeout,
		"checkin.follow_up_timeout":    ci.FollowUpTimeout,
		"checkin.progress_timeout":     ci.ProgressTimeout,
		"checkin.acknowledged_timeout": ci.AcknowledgedTimeout,
		"checkin.question_timeout":     ci.QuestionTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}

	for _, key := range ci.Categories {
		if _, ok := LookupCategory(CategoryKey(key)); !ok {
			return fmt.Errorf("unknown category %q in checkin.categories", key)
		}
	}

	return nil
}
