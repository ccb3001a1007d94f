// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/okian/crewrate/internal/domain/category"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/internal/domain/scoring"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	Database Database `koanf:"database"`

	// Categories is the closed list of recognized rating categories.
	Categories []string `koanf:"categories"`

	Thresholds Thresholds `koanf:"thresholds"`

	// ScoreMin and ScoreMax bound accepted scores.
	ScoreMin float64 `koanf:"score_min"`
	ScoreMax float64 `koanf:"score_max"`

	// SnapshotPath is the JSON file used by the local profile store.
	SnapshotPath string `koanf:"snapshot_path"`
	// SnapshotKey namespaces the profile collection inside that file.
	SnapshotKey string `koanf:"snapshot_key"`

	// WatchConfig hot-reloads categories, thresholds and scale from the
	// config file.
	WatchConfig bool `koanf:"watch_config"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	Metrics Metrics `koanf:"metrics"`

	// Path is the file the config was read from, if any.
	Path string `koanf:"-"`
}

// Database configures the relational store.
type Database struct {
	// Driver is sqlite or mysql.
	Driver string `koanf:"driver"`
	// DSN is a file path for sqlite or a go-sql-driver DSN for mysql.
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	// LogSQL logs every statement at info level.
	LogSQL bool `koanf:"log_sql"`
}

// Metrics configures the Prometheus series exposed on /metrics.
type Metrics struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
	// Prefix is prepended to every metric name.
	Prefix string `koanf:"prefix"`
	// Labels are constant labels attached to every series.
	Labels map[string]string `koanf:"labels"`
	// Buckets are the latency histogram buckets in milliseconds.
	Buckets []float64 `koanf:"buckets"`
	// RefreshInterval is how often inventory and system gauges are refreshed.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// Thresholds mirrors scoring.Thresholds with config keys.
type Thresholds struct {
	TopPerformerMin float64 `koanf:"top_performer_min"`
	AtRiskMax       float64 `koanf:"at_risk_max"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	th := scoring.DefaultThresholds()
	return &Config{
		LogLevel:  "info",
		LogFormat: logger.FormatText,
		Addr:      ":9080",
		Database: Database{
			Driver:       DriverSQLite,
			DSN:          "crewrate.db",
			MaxOpenConns: 10,
		},
		// nil so file or env values replace rather than overlay the default
		Categories: nil,
		Thresholds: Thresholds{
			TopPerformerMin: th.TopPerformerMin,
			AtRiskMax:       th.AtRiskMax,
		},
		ScoreMin:     profile.DefaultScoreMin,
		ScoreMax:     profile.DefaultScoreMax,
		SnapshotPath: "crewrate-profiles.json",
		SnapshotKey:  profile.DefaultCollectionKey,
		MaxBodyBytes: 1 << 20,
		Metrics: Metrics{
			Enabled:         true,
			Namespace:       "crewrate",
			Subsystem:       "ratings",
			RefreshInterval: 10 * time.Second,
		},
	}
}

// CategorySet returns the configured categories, or the defaults when none
// are configured.
func (c *Config) CategorySet() category.Set {
	if len(c.Categories) == 0 {
		return category.Default()
	}
	return category.NewSet(c.Categories...)
}

// Rules converts the domain-facing settings into profile rules.
func (c *Config) Rules() profile.Rules {
	return profile.Rules{
		Categories: c.CategorySet(),
		Thresholds: scoring.Thresholds{
			TopPerformerMin: c.Thresholds.TopPerformerMin,
			AtRiskMax:       c.Thresholds.AtRiskMax,
		},
		ScoreMin: c.ScoreMin,
		ScoreMax: c.ScoreMax,
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("%w: database.dsn must not be empty", ErrInvalidConfig)
	}
	if len(c.Categories) > 0 && c.CategorySet().Len() == 0 {
		return fmt.Errorf("%w: categories must name at least one category", ErrInvalidConfig)
	}
	if err := c.Rules().Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.ScoreMin) || math.IsNaN(c.ScoreMax) || c.ScoreMin >= c.ScoreMax {
		return fmt.Errorf("%w: score_min (%g) must be below score_max (%g)", ErrInvalidConfig, c.ScoreMin, c.ScoreMax)
	}
	if strings.TrimSpace(c.SnapshotKey) == "" {
		return fmt.Errorf("%w: snapshot_key must not be empty", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	return c.Metrics.validate()
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (m Metrics) validate() error {
	if !metricName.MatchString(m.Namespace) {
		return fmt.Errorf("%w: metrics.namespace %q is not a valid metric name", ErrInvalidConfig, m.Namespace)
	}
	for key, v := range map[string]string{"subsystem": m.Subsystem, "prefix": m.Prefix} {
		if v != "" && !metricName.MatchString(v) {
			return fmt.Errorf("%w: metrics.%s %q is not a valid metric name", ErrInvalidConfig, key, v)
		}
	}
	for name := range m.Labels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics.labels: invalid label name %q", ErrInvalidConfig, name)
		}
	}
	if !slices.IsSorted(m.Buckets) {
		return fmt.Errorf("%w: metrics.buckets must be in increasing order", ErrInvalidConfig)
	}
	if m.RefreshInterval <= 0 {
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// MetricsOptions converts the metrics section into manager options.
func (c *Config) MetricsOptions() []metrics.Option {
	m := c.Metrics
	return []metrics.Option{
		metrics.WithMetricsEnabled(m.Enabled),
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithMetricPrefix(m.Prefix),
		metrics.WithCustomLabels(m.Labels),
		metrics.WithHistogramBuckets(m.Buckets),
		metrics.WithRefreshInterval(m.RefreshInterval),
	}
}
