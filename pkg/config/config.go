package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/logger"
	"github.com/mcclellann/loanschedule/pkg/store"
	"github.com/shopspring/decimal"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "LOANSCHEDULE_CONFIG"

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      logger.Config  `toml:"log"`
	Store    StoreConfig    `toml:"store"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// StoreConfig holds database settings
type StoreConfig struct {
	DSN string `toml:"dsn"` // SQLite data source, ":memory:" by default
}

// ScheduleConfig holds the precision policy for schedule calculations.
// DecimalPlaces and TermCeilingSlack are pointers because zero is a valid
// setting for both and has to be told apart from a missing key.
type ScheduleConfig struct {
	DecimalPlaces    *int32 `toml:"decimal_places"`
	ZeroTolerance    string `toml:"zero_tolerance"`
	DaysPerYear      int    `toml:"days_per_year"`
	TermCeilingSlack *int   `toml:"term_ceiling_slack"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file. An empty path falls back to
// $LOANSCHEDULE_CONFIG, and to the defaults when that is unset too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if _, err := cfg.Policy(); err != nil {
		return nil, fmt.Errorf("invalid [schedule] section: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 15 * time.Second
	}
	if c.Server.IdleTimeout.Duration == 0 {
		c.Server.IdleTimeout.Duration = 60 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 30 * time.Second
	}

	defaults := logger.DefaultConfig()
	if c.Log.Level == "" {
		c.Log.Level = defaults.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = defaults.Output
	}

	if c.Store.DSN == "" {
		c.Store.DSN = store.MemoryDSN
	}

	policy := amortization.DefaultPolicy()
	if c.Schedule.DecimalPlaces == nil {
		c.Schedule.DecimalPlaces = &policy.Places
	}
	if c.Schedule.ZeroTolerance == "" {
		c.Schedule.ZeroTolerance = policy.ZeroTolerance.String()
	}
	if c.Schedule.DaysPerYear == 0 {
		c.Schedule.DaysPerYear = policy.DaysPerYear
	}
	if c.Schedule.TermCeilingSlack == nil {
		c.Schedule.TermCeilingSlack = &policy.TermCeilingSlack
	}
}

// Policy builds the calculation policy from the [schedule] section.
func (c *Config) Policy() (amortization.Policy, error) {
	tolerance, err := decimal.NewFromString(c.Schedule.ZeroTolerance)
	if err != nil {
		return amortization.Policy{}, fmt.Errorf("zero_tolerance %q: %w", c.Schedule.ZeroTolerance, err)
	}
	p := amortization.DefaultPolicy()
	p.ZeroTolerance = tolerance
	p.DaysPerYear = c.Schedule.DaysPerYear
	if c.Schedule.DecimalPlaces != nil {
		p.Places = *c.Schedule.DecimalPlaces
	}
	if c.Schedule.TermCeilingSlack != nil {
		p.TermCeilingSlack = *c.Schedule.TermCeilingSlack
	}
	if err := p.Validate(); err != nil {
		return amortization.Policy{}, err
	}
	return p, nil
}
