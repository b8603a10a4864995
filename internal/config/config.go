// Package config loads optional workspace settings from .amalgam.yml.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds workspace-level settings. Zero values mean "use defaults";
// command-line flags override anything loaded here.
type Config struct {
	Languages        []string
	Output           string
	DBPath           string
	StrictDuplicates bool
	Workers          int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Languages: []string{"c", "cpp"},
		DBPath:    ".amalgam.db",
	}
}

// Load reads .amalgam.yml from dir, with AMALGAM_* environment overrides.
// A missing file is not an error; defaults are returned.
func Load(dir string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(filepath.Join(dir, ".amalgam.yml")); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigName(".amalgam")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.AutomaticEnv()
	v.SetEnvPrefix("AMALGAM")

	v.SetDefault("languages", cfg.Languages)
	v.SetDefault("db_path", cfg.DBPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg.Languages = v.GetStringSlice("languages")
	cfg.Output = v.GetString("output")
	cfg.DBPath = v.GetString("db_path")
	cfg.StrictDuplicates = v.GetBool("strict_duplicates")
	cfg.Workers = v.GetInt("workers")
	return cfg, nil
}
