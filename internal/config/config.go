// Package config loads the process configuration from config.json in the
// current working directory, per SPEC_FULL.md §6. Unlike the teacher's
// viper-backed internal/config package, the wire schema here is fixed by
// the spec (a single "database" object) so a plain encoding/json load is
// the faithful translation rather than a generalized multi-source loader.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DatabaseConfig holds the relational store's connection parameters.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Config is the top-level config.json document.
type Config struct {
	Database DatabaseConfig `json:"database"`
}

// DSN renders a libpq-style connection string for the pgx stdlib driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Database)
}

// Load reads and parses config.json from the given path ("config.json" by
// convention, per the CLI contract).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
