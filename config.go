package filelock

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/enverbisevac/filelock/errors"
	"github.com/enverbisevac/filelock/timeutil"
	"github.com/enverbisevac/filelock/validator"
)

// Type selects which strategy the manager uses for new locks.
type Type string

const (
	// TypeAdvisory uses the OS advisory lock on a sentinel file.
	TypeAdvisory Type = "advisory"
	// TypeLinkBased uses atomic hard-link creation, safe across hosts
	// sharing a network filesystem.
	TypeLinkBased Type = "link-based"
)

// ParseType converts a configuration string into a Type. Unrecognized
// values return a ConfigurationError rather than silently defaulting.
func ParseType(value string) (Type, error) {
	switch t := Type(value); t {
	case TypeAdvisory, TypeLinkBased:
		return t, nil
	}
	return "", errors.Configuration("unknown lock type %q", value)
}

const (
	// DefaultTimeout is how long a link-based lock may go unrefreshed
	// before another process may reclaim it.
	DefaultTimeout = 30 * time.Second
	// DefaultRefreshRate is the cadence at which held locks renew
	// their evidence. Must stay below DefaultTimeout.
	DefaultRefreshRate = 20 * time.Second
)

// Config holds the process-wide locking configuration. It is fixed at
// Manager construction.
type Config struct {
	Type        Type
	Timeout     time.Duration
	RefreshRate time.Duration

	// Clock is the time source for staleness decisions. Nil selects
	// the system clock; tests inject a manual one.
	Clock timeutil.Clock
}

// DefaultConfig returns the advisory strategy with the default
// staleness window.
func DefaultConfig() Config {
	return Config{
		Type:        TypeAdvisory,
		Timeout:     DefaultTimeout,
		RefreshRate: DefaultRefreshRate,
	}
}

// Validate reports every configuration violation at once as a
// ConfigurationError, or nil.
func (c Config) Validate() error {
	v := validator.Validator{}
	v.Check(validator.In(c.Type, TypeAdvisory, TypeLinkBased),
		errors.New("unknown lock type "+string(c.Type)))
	v.Check(validator.Positive(c.Timeout),
		errors.New("timeout must be positive"))
	v.Check(validator.Positive(c.RefreshRate),
		errors.New("refresh rate must be positive"))
	// a held lock must be refreshed before it can go stale
	v.Check(validator.LessThan(c.RefreshRate, c.Timeout),
		errors.New("refresh rate must be less than timeout"))
	return v.Err("invalid lock configuration")
}

// fileConfig is the on-disk configuration shape. Durations are plain
// seconds so any process sharing the file can write it.
type fileConfig struct {
	Type        string `yaml:"type"`
	Timeout     int    `yaml:"timeout"`
	RefreshRate int    `yaml:"refresh_rate"`
}

// FromFile loads and validates a yaml configuration file. Absent fields
// keep their defaults.
func FromFile(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.IO(err, "read lock configuration %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return config, errors.Configuration("parse lock configuration %s: %s", path, err)
	}

	if fc.Type != "" {
		config.Type, err = ParseType(fc.Type)
		if err != nil {
			return config, err
		}
	}
	if fc.Timeout != 0 {
		config.Timeout = time.Duration(fc.Timeout) * time.Second
	}
	if fc.RefreshRate != 0 {
		config.RefreshRate = time.Duration(fc.RefreshRate) * time.Second
	}

	return config, config.Validate()
}

// An Option configures a Manager.
type Option interface {
	Apply(*Config)
}

// OptionFunc is a function that configures a Manager config.
type OptionFunc func(*Config)

// Apply calls f(config).
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// WithConfig replaces the whole configuration, for example one loaded
// with FromFile.
func WithConfig(config Config) Option {
	return OptionFunc(func(c *Config) {
		*c = config
	})
}

// WithType selects the strategy used for new locks.
func WithType(t Type) Option {
	return OptionFunc(func(c *Config) {
		c.Type = t
	})
}

// WithTimeout sets the staleness window for link-based locks.
func WithTimeout(d time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.Timeout = d
	})
}

// WithRefreshRate sets the cadence of the periodic refresh cycle.
func WithRefreshRate(d time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.RefreshRate = d
	})
}

// WithClock injects the time source used for staleness decisions.
func WithClock(clock timeutil.Clock) Option {
	return OptionFunc(func(c *Config) {
		c.Clock = clock
	})
}
