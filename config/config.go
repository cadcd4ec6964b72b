// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads the gradebook YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/mdhender/gradebook/reports"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when --config is not given.
const DefaultPath = "gradebook.yaml"

// Config is the top-level configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Reports  ReportsConfig  `yaml:"reports"`
	Seed     SeedConfig     `yaml:"seed"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	// Path is the database file. Empty means a throwaway in-memory database.
	Path            string `yaml:"path"`
	CreateIfMissing bool   `yaml:"create_if_missing"`
}

// LogConfig mirrors the --log-with-* flags.
type LogConfig struct {
	Shortfile bool `yaml:"shortfile"`
	Timestamp bool `yaml:"timestamp"`
}

// ReportsConfig tunes the report engine and table output.
type ReportsConfig struct {
	TopN   int    `yaml:"top_n"`
	Border string `yaml:"border"`
}

// SeedConfig sizes the generated seed data.
type SeedConfig struct {
	Groups           int    `yaml:"groups"`
	Teachers         int    `yaml:"teachers"`
	Students         int    `yaml:"students"`
	ScoresPerStudent int    `yaml:"scores_per_student"`
	RandomSeed       uint64 `yaml:"random_seed"` // 0 picks a random seed
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "gradebook.db",
			CreateIfMissing: true,
		},
		Log: LogConfig{
			Shortfile: true,
		},
		Reports: ReportsConfig{
			TopN:   reports.DefaultTopN,
			Border: "normal",
		},
		Seed: SeedConfig{
			Groups:           3,
			Teachers:         5,
			Students:         50,
			ScoresPerStudent: 20,
		},
	}
}

// Load reads the file at path on top of the defaults.
// A missing file is not an error unless mustExist is set.
func Load(fsys afero.Fs, path string, mustExist bool) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) && !mustExist {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(fsys afero.Fs, cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	if c.Reports.TopN <= 0 {
		return fmt.Errorf("reports.top_n: %d must be positive", c.Reports.TopN)
	}
	for name, n := range map[string]int{
		"seed.groups":             c.Seed.Groups,
		"seed.teachers":           c.Seed.Teachers,
		"seed.students":           c.Seed.Students,
		"seed.scores_per_student": c.Seed.ScoresPerStudent,
	} {
		if n < 0 {
			return fmt.Errorf("%s: %d must not be negative", name, n)
		}
	}
	if c.Seed.Groups > 100 {
		return fmt.Errorf("seed.groups: %d: group names G300-G399 allow at most 100", c.Seed.Groups)
	}
	return nil
}
