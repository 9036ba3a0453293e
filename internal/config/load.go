package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/multiscene/pkg/colorutil"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./multiscene.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "multiscene")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "multiscene")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "multiscene")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "multiscene")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// A file that lists scenes replaces the default scene list entirely.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks values that would otherwise fail much later at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Render.MaxPixelRatio < 1 {
		errs = append(errs, fmt.Errorf("render.max_pixel_ratio %v must be at least 1", c.Render.MaxPixelRatio))
	}
	if _, err := colorutil.ParseHex(c.Render.ClearColor); err != nil {
		errs = append(errs, fmt.Errorf("render.clear_color: %w", err))
	}
	if c.Assets.LoadTimeout < 0 {
		errs = append(errs, fmt.Errorf("assets.load_timeout %v must not be negative", c.Assets.LoadTimeout))
	}
	for i, s := range c.Scenes {
		if s.Selector == "" {
			errs = append(errs, fmt.Errorf("scenes[%d] (%s): selector is required", i, s.Name))
		}
		if s.Camera.FOV <= 0 || s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near {
			errs = append(errs, fmt.Errorf("scenes[%d] (%s): invalid camera fov/near/far", i, s.Name))
		}
		for _, hex := range []string{s.Lights.AmbientColor, s.Lights.DirectionalColor} {
			if _, err := colorutil.ParseHex(hex); err != nil {
				errs = append(errs, fmt.Errorf("scenes[%d] (%s) light colour: %w", i, s.Name, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
