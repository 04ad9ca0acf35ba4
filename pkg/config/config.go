// Package config provides configuration file support for scalar.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
)

const (
	// MetadataDirName is the per-enlistment directory holding scalar state.
	MetadataDirName = ".scalar"
	fileName        = "config.yaml"
	envPrefix       = "SCALAR"
)

// Config represents the scalar configuration.
type Config struct {
	Git         GitConfig         `yaml:"git" mapstructure:"git"`
	Maintenance MaintenanceConfig `yaml:"maintenance" mapstructure:"maintenance"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// GitConfig locates the git binary and the object store.
type GitConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// MaintenanceBuiltin is auto, true or false.
	MaintenanceBuiltin string `yaml:"maintenance_builtin" mapstructure:"maintenance_builtin"`
	// ObjectsRoot overrides <root>/.git/objects, e.g. for a shared object cache.
	ObjectsRoot string `yaml:"objects_root" mapstructure:"objects_root"`
}

// MaintenanceConfig controls which steps run and how often.
type MaintenanceConfig struct {
	Steps       []string      `yaml:"steps" mapstructure:"steps"`
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
	StaleAfter  time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, text
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Stdout      bool   `yaml:"stdout" mapstructure:"stdout"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Git: GitConfig{
			Path:               "git",
			MaintenanceBuiltin: "auto",
		},
		Maintenance: MaintenanceConfig{
			Steps:       []string{"commit-graph", "loose-objects", "incremental-repack"},
			Interval:    time.Hour,
			LockTimeout: 30 * time.Second,
			StaleAfter:  7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "scalar",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
	}
}

// Path returns the config file location for an enlistment root.
func Path(root string) string {
	return filepath.Join(root, MetadataDirName, fileName)
}

// Load reads <root>/.scalar/config.yaml on top of the defaults, then overlays
// SCALAR_ environment variables (e.g. SCALAR_LOGGING_LEVEL).
// A missing file is not an error.
func Load(root string) (*Config, error) {
	return load(root, true)
}

// LoadFile reads <root>/.scalar/config.yaml on top of the defaults without the
// environment overlay. Use it before Save so overrides are not persisted.
func LoadFile(root string) (*Config, error) {
	return load(root, false)
}

func load(root string, withEnv bool) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("parse %s: %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("git.path", d.Git.Path)
	v.SetDefault("git.maintenance_builtin", d.Git.MaintenanceBuiltin)
	v.SetDefault("git.objects_root", d.Git.ObjectsRoot)
	v.SetDefault("maintenance.steps", d.Maintenance.Steps)
	v.SetDefault("maintenance.interval", d.Maintenance.Interval)
	v.SetDefault("maintenance.lock_timeout", d.Maintenance.LockTimeout)
	v.SetDefault("maintenance.stale_after", d.Maintenance.StaleAfter)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.stdout", d.Telemetry.Stdout)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.Git.MaintenanceBuiltin {
	case "auto", "true", "false":
	default:
		return errclass.ErrConfigInvalid.WithMessagef("git.maintenance_builtin must be auto, true or false, got %q", c.Git.MaintenanceBuiltin)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errclass.ErrConfigInvalid.WithMessagef("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.Maintenance.Interval <= 0 {
		return errclass.ErrConfigInvalid.WithMessage("maintenance.interval must be positive")
	}
	if c.Maintenance.LockTimeout < 0 {
		return errclass.ErrConfigInvalid.WithMessage("maintenance.lock_timeout must not be negative")
	}
	return nil
}

// Save writes configuration to <root>/.scalar/config.yaml.
func Save(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := fsutil.NewPhysical().WriteFileAtomic(Path(root), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Keys lists every settable key in dotted form.
func Keys() []string {
	keys := []string{
		"git.path", "git.maintenance_builtin", "git.objects_root",
		"maintenance.steps", "maintenance.interval", "maintenance.lock_timeout", "maintenance.stale_after",
		"logging.level", "logging.format",
		"telemetry.enabled", "telemetry.stdout", "telemetry.service_name",
		"metrics.addr",
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "git.path":
		return c.Git.Path, nil
	case "git.maintenance_builtin":
		return c.Git.MaintenanceBuiltin, nil
	case "git.objects_root":
		return c.Git.ObjectsRoot, nil
	case "maintenance.steps":
		return strings.Join(c.Maintenance.Steps, ","), nil
	case "maintenance.interval":
		return c.Maintenance.Interval.String(), nil
	case "maintenance.lock_timeout":
		return c.Maintenance.LockTimeout.String(), nil
	case "maintenance.stale_after":
		return c.Maintenance.StaleAfter.String(), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.stdout":
		return strconv.FormatBool(c.Telemetry.Stdout), nil
	case "telemetry.service_name":
		return c.Telemetry.ServiceName, nil
	case "metrics.addr":
		return c.Metrics.Addr, nil
	}
	return "", errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
}

// Set parses value into the dotted key and validates the result.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "git.path":
		c.Git.Path = value
	case "git.maintenance_builtin":
		c.Git.MaintenanceBuiltin = value
	case "git.objects_root":
		c.Git.ObjectsRoot = value
	case "maintenance.steps":
		c.Maintenance.Steps = splitList(value)
	case "maintenance.interval":
		c.Maintenance.Interval, err = time.ParseDuration(value)
	case "maintenance.lock_timeout":
		c.Maintenance.LockTimeout, err = time.ParseDuration(value)
	case "maintenance.stale_after":
		c.Maintenance.StaleAfter, err = time.ParseDuration(value)
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "telemetry.enabled":
		c.Telemetry.Enabled, err = strconv.ParseBool(value)
	case "telemetry.stdout":
		c.Telemetry.Stdout, err = strconv.ParseBool(value)
	case "telemetry.service_name":
		c.Telemetry.ServiceName = value
	case "metrics.addr":
		c.Metrics.Addr = value
	default:
		return errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
	}
	if err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("%s: %v", key, err)
	}
	return c.Validate()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
