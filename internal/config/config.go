// Package config loads server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ereinhol/nycevents/internal/db"
)

// Config holds server configuration.
type Config struct {
	Port            int    `yaml:"port,omitempty"`
	DBPath          string `yaml:"db_path,omitempty"`
	NYCAPIURL       string `yaml:"nyc_api_url,omitempty"`
	NYCFetchLimit   int    `yaml:"nyc_fetch_limit,omitempty"`
	RefreshSchedule string `yaml:"refresh_schedule,omitempty"`
	HistoryWindow   int    `yaml:"history_window,omitempty"`
	GeocodeCache    int    `yaml:"geocode_cache,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() (Config, error) {
	dbPath, err := db.DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Port:            8080,
		DBPath:          dbPath,
		RefreshSchedule: "0 4 * * *", // daily at 04:00
	}, nil
}

// DefaultPath returns the path to the server config file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nye", "config.yaml"), nil
}

// Load reads configuration from the given path, falling back to defaults
// for the file itself and for any field left unset.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if fileCfg.Port != 0 {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.DBPath != "" {
		cfg.DBPath = fileCfg.DBPath
	}
	if fileCfg.NYCAPIURL != "" {
		cfg.NYCAPIURL = fileCfg.NYCAPIURL
	}
	if fileCfg.NYCFetchLimit != 0 {
		cfg.NYCFetchLimit = fileCfg.NYCFetchLimit
	}
	if fileCfg.RefreshSchedule != "" {
		cfg.RefreshSchedule = fileCfg.RefreshSchedule
	}
	if fileCfg.HistoryWindow != 0 {
		cfg.HistoryWindow = fileCfg.HistoryWindow
	}
	if fileCfg.GeocodeCache != 0 {
		cfg.GeocodeCache = fileCfg.GeocodeCache
	}

	return cfg, nil
}
