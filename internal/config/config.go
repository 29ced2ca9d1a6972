package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. The canonical file
// is JSON (the historical `.config.json` with upper-snake keys), but
// `.yaml`/`.yml` paths are accepted too.
type Config struct {
	// CalendarURLs lists the ICS feeds to pull events from.
	CalendarURLs []string `json:"CALENDAR_URLS" yaml:"calendar_urls"`

	// NotionAPIKey is the integration token for the task database API.
	NotionAPIKey string `json:"NOTION_API_KEY" yaml:"notion_api_key"`

	// NotionDatabaseID identifies the task database to query.
	NotionDatabaseID string `json:"NOTION_DATABASE_ID" yaml:"notion_database_id"`
}

// DefaultConfig returns an empty skeleton; Load writes it on first run so
// the user has a file to fill in.
func DefaultConfig() *Config {
	return &Config{
		CalendarURLs: []string{},
	}
}

// Normalize fills nil slices so callers can range without nil checks.
func (c *Config) Normalize() {
	if c.CalendarURLs == nil {
		c.CalendarURLs = []string{}
	}
}

// Validate reports whether the config is usable for adapter construction.
func (c *Config) Validate() error {
	if c.NotionAPIKey == "" {
		return errors.New("config: NOTION_API_KEY is empty")
	}
	if c.NotionDatabaseID == "" {
		return errors.New("config: NOTION_DATABASE_ID is empty")
	}
	return nil
}

// Load reads configuration from path. If the file does not exist, a
// skeleton config is written there (0600) and returned, so a first run
// leaves something editable behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := unmarshal(path, data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daybook-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	return json.MarshalIndent(cfg, "", "  ")
}
