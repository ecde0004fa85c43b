// Package config loads the .evmodel.yaml project configuration file,
// adapted directly from the teacher's own config loader: same
// flag > env > default-file priority, same "missing default file is not
// an error" behavior.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/render"
	"github.com/eventmodeler/eventmodeler/internal/router"
)

// Config represents the .evmodel.yaml configuration file.
type Config struct {
	Lint   LintConfig   `yaml:"lint"`
	Fmt    FmtConfig    `yaml:"fmt"`
	Render RenderConfig `yaml:"render"`
}

// FmtConfig holds formatter configuration.
type FmtConfig struct {
	Keys string `yaml:"keys"` // "short" or "long" (default "long")
}

// LintConfig holds linter configuration.
type LintConfig struct {
	Ignore []string `yaml:"ignore"`
}

// RenderConfig holds layout/routing/theme tuning for the render subcommand.
type RenderConfig struct {
	ThemeName      string `yaml:"theme"` // "light" or "dark" (default "light")
	EntitySpacing  int    `yaml:"entity-spacing"`
	SwimlaneHeight int    `yaml:"swimlane-height"`
	EntityWidth    int    `yaml:"entity-width"`
	EntityHeight   int    `yaml:"entity-height"`
	SliceGutter    int    `yaml:"slice-gutter"`
	RouterMargin   int    `yaml:"router-margin"`
	MinExtension   int    `yaml:"min-extension"`
}

// LayoutConfig overlays non-zero fields onto the layout package defaults.
func (c RenderConfig) LayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	if c.EntitySpacing != 0 {
		cfg.EntitySpacing = c.EntitySpacing
	}
	if c.SwimlaneHeight != 0 {
		cfg.SwimlaneHeight = c.SwimlaneHeight
	}
	if c.EntityWidth != 0 {
		cfg.EntityWidth = c.EntityWidth
	}
	if c.EntityHeight != 0 {
		cfg.EntityHeight = c.EntityHeight
	}
	if c.SliceGutter != 0 {
		cfg.SliceGutter = c.SliceGutter
	}
	return cfg
}

// RouterConfig overlays non-zero fields onto the router package defaults.
func (c RenderConfig) RouterConfig() router.Config {
	cfg := router.DefaultConfig()
	if c.RouterMargin != 0 {
		cfg.Margin = c.RouterMargin
	}
	if c.MinExtension != 0 {
		cfg.MinExtension = c.MinExtension
	}
	return cfg
}

// Theme resolves the configured theme name to a render.Theme, defaulting
// to light.
func (c RenderConfig) Theme() render.Theme {
	if c.ThemeName == "dark" {
		return render.DarkTheme()
	}
	return render.LightTheme()
}

// Load resolves and loads the config file with priority: flagPath >
// EVMODEL_CONFIG env > .evmodel.yaml in cwd. Returns a zero-value config
// if no file is found at the default path. Returns an error if an
// explicit path (flag or env) doesn't exist or contains invalid YAML.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	explicit := true

	if path == "" {
		path = os.Getenv("EVMODEL_CONFIG")
	}

	if path == "" {
		path = ".evmodel.yaml"
		explicit = false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &cfg, nil
}
