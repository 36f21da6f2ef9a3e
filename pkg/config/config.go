// Package config handles loading and saving showroom configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/sr/config.yaml
//   - Data:    ~/.local/share/showroom/ (mirror database)
//   - State:   ~/.local/state/sr/ (view state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values read "350ms" or "45s"
// instead of nanosecond integers.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses "350ms" style duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// APIConfig holds catalog backend settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	// Token is read from SR_API_TOKEN when empty; the config file is not
	// the place for credentials.
	Token   string   `yaml:"-"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// SyncConfig tunes the save queue and verification pipeline.
type SyncConfig struct {
	Pacing       Duration `yaml:"pacing,omitempty"`
	WriteTimeout Duration `yaml:"write_timeout,omitempty"`
	TypingDelay  Duration `yaml:"typing_delay,omitempty"`
	BlurDelay    Duration `yaml:"blur_delay,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultCollection string  `yaml:"default_collection,omitempty"`
	SplitRatio        float64 `yaml:"split_ratio,omitempty"` // list/detail ratio (0.2-0.8)
	Headless          bool    `yaml:"headless,omitempty"`    // compact header mode
}

// Config is the top-level configuration for showroom.
type Config struct {
	API APIConfig `yaml:"api,omitempty"`
	// Favorites maps number keys (1-9) to collection names.
	Favorites map[int]string `yaml:"favorites,omitempty"`
	UI        UIConfig       `yaml:"ui,omitempty"`
	Sync      SyncConfig     `yaml:"sync,omitempty"`
	// FieldMapPath points at a YAML file overriding the built-in
	// per-collection field schemas.
	FieldMapPath string `yaml:"field_map,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			DefaultCollection: "sinks",
			SplitRatio:        0.4,
		},
	}
}

// ConfigDir returns the XDG config directory for showroom.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sr")
}

// StateDir returns the XDG state directory for showroom.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "sr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "sr")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		applyEnv(&cfg)
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Returns DefaultConfig if the
// file doesn't exist. Environment variables win over file values:
// SR_API_URL, SR_API_TOKEN, SR_COLLECTION.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}
	cfg.FieldMapPath = expandHome(cfg.FieldMapPath)

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if url := os.Getenv("SR_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if token := os.Getenv("SR_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if coll := os.Getenv("SR_COLLECTION"); coll != "" {
		cfg.UI.DefaultCollection = coll
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FavoriteCollection returns the collection assigned to number key n (1-9),
// or "" when unassigned.
func (c Config) FavoriteCollection(n int) string {
	return c.Favorites[n]
}

// SetFavorite assigns a collection name to a number key (1-9).
func (c *Config) SetFavorite(n int, collection string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if collection == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = collection
	}
}

// CollectionFavoriteNumber returns the favorite number (1-9) for a
// collection name, or 0 if not favorited.
func (c Config) CollectionFavoriteNumber(name string) int {
	for n, cname := range c.Favorites {
		if strings.EqualFold(cname, name) {
			return n
		}
	}
	return 0
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
