package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads as "30s", "5m" and so on from
// YAML, TOML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q (use format like '30s', '5m', '1h')", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// loadFile overlays the file at path onto cfg. The format follows the
// extension: .yaml/.yml, .toml or .json. A missing file leaves cfg alone; a
// file that does not parse is moved aside to path+".bak".
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var decodeErr error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, decodeErr = toml.Decode(string(data), cfg)
	case ".json":
		decodeErr = json.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		decodeErr = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format %q", filepath.Ext(path))
	}

	if decodeErr != nil {
		backupPath := path + ".bak"
		if err := os.Rename(path, backupPath); err != nil {
			return fmt.Errorf("config file %s is corrupted and could not be backed up: %w", path, err)
		}
		slog.Warn("Config file corrupted, backed up and using defaults", "path", path, "backup", backupPath, "error", decodeErr)
		*cfg = *Default()
		return nil
	}

	slog.Debug("Loaded config file", "path", path)
	return nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}
