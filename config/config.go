// Package config loads the YAML configuration shared by every command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edrefis/edrefis/logic"
)

type Config struct {
	// Player names the local player in replays and records.
	Player string `yaml:"player"`
	Seed   uint32 `yaml:"seed"`

	Window WindowConfig `yaml:"window"`
	// Keys binds input names (up, down, left, right, cw, ccw) to
	// KeyboardEvent.code names. Inputs left out keep their default keys.
	Keys    map[string][]string `yaml:"keys"`
	QuitKey string              `yaml:"quit_key"`

	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Replay ReplayConfig `yaml:"replay"`
	Log    LogConfig    `yaml:"log"`
}

type WindowConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Title    string  `yaml:"title"`
	FontSize float64 `yaml:"font_size"`
	ShowPerf bool    `yaml:"show_perf"`
}

type ServerConfig struct {
	// Listen is the address `serve` binds.
	Listen string `yaml:"listen"`
	// URL is the server `play --online` joins.
	URL string `yaml:"url"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type ReplayConfig struct {
	Dir    string `yaml:"dir"`
	Record bool   `yaml:"record"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

func Default() *Config {
	return &Config{
		Player: "player",
		Seed:   logic.DefaultSeed,
		Window: WindowConfig{
			Width:    1280,
			Height:   720,
			Title:    "edrefis",
			FontSize: 48,
		},
		QuitKey: "Escape",
		Server: ServerConfig{
			Listen: ":6507",
			URL:    "ws://localhost:6507/",
		},
		Store: StoreConfig{
			Path: filepath.Join(DataDir(), "games.db"),
		},
		Replay: ReplayConfig{
			Dir:    filepath.Join(DataDir(), "replays"),
			Record: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DataDir is where replays and the game database live by default.
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "edrefis")
	}
	return ".edrefis"
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
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

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.FontSize < 0 {
		errs = append(errs, fmt.Errorf("font size %g is negative", c.Window.FontSize))
	}
	for name, codes := range c.Keys {
		if _, err := logic.ParseInput(name); err != nil {
			errs = append(errs, fmt.Errorf("keys: %w", err))
			continue
		}
		if len(codes) == 0 {
			errs = append(errs, fmt.Errorf("keys: %s has no keys", name))
		}
		for _, code := range codes {
			if strings.TrimSpace(code) == "" {
				errs = append(errs, fmt.Errorf("keys: %s has an empty key", name))
			}
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q is not console or json", c.Log.Format))
	}
	if c.Replay.Record && c.Replay.Dir == "" {
		errs = append(errs, errors.New("replay dir is required when recording"))
	}
	return errors.Join(errs...)
}
