// Package config holds explicit connection and analysis configuration.
// Components receive a config value at construction; there is no process-wide
// singleton derived from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database describes one target database connection.
type Database struct {
	Engine   string `yaml:"engine" json:"engine"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"name" json:"name"`
	DSN      string `yaml:"dsn" json:"dsn"` // optional explicit DSN
}

// Validation holds tunables for the validation harness.
type Validation struct {
	Iterations  int           `yaml:"iterations" json:"iterations"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// Regression holds tunables for the regression analyzer.
type Regression struct {
	WindowDays int     `yaml:"window_days" json:"window_days"`
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	MinCalls   int64   `yaml:"min_calls" json:"min_calls"`
}

// Config is the advisor's full configuration.
type Config struct {
	Database   Database   `yaml:"database" json:"database"`
	Validation Validation `yaml:"validation" json:"validation"`
	Regression Regression `yaml:"regression" json:"regression"`
}

// Default returns a configuration with the advisor's standard tunables.
func Default() Config {
	return Config{
		Validation: Validation{Iterations: 3, SettleDelay: 100 * time.Millisecond},
		Regression: Regression{WindowDays: 7, Threshold: 0.5, MinCalls: 10},
	}
}

// LoadFile loads YAML config from path on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// NormalizeEngine maps common aliases to canonical engine keys.
func NormalizeEngine(e string) string {
	switch strings.ToLower(strings.TrimSpace(e)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(e)
	}
}

// DriverAndDSN produces a database/sql driver name and DSN for the target.
// An explicit DSN wins; otherwise one is assembled from the parts.
func (d Database) DriverAndDSN() (driver string, dsn string, err error) {
	engine := NormalizeEngine(d.Engine)

	switch engine {
	case "postgres":
		driver = "postgres"
	case "mysql":
		driver = "mysql"
	case "sqlite":
		driver = "sqlite3"
	default:
		return "", "", fmt.Errorf("unsupported database engine: %q", d.Engine)
	}

	if d.DSN != "" {
		return driver, d.DSN, nil
	}

	switch engine {
	case "postgres":
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			d.Username, d.Password, d.Host, d.Port, d.Name)
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.Username, d.Password, d.Host, d.Port, d.Name)
	case "sqlite":
		if d.Name == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in name")
		}
		dsn = fmt.Sprintf("file:%s", d.Name)
	}
	return driver, dsn, nil
}
