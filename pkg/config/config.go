// Package config loads the optional YAML settings file of the command line tool.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/summit-editor/summit/pkg/errs"
)

// DefaultAtlases are loaded when the file names none.
var DefaultAtlases = []string{"Gameplay"}

// Config holds the tool settings. Command line flags override its fields.
type Config struct {
	CelesteDir      string   `yaml:"celeste_dir"`
	Atlases         []string `yaml:"atlases"`
	ForegroundTiles string   `yaml:"foreground_tiles"`
	BackgroundTiles string   `yaml:"background_tiles"`
	LogLevel        string   `yaml:"log_level"`
}

// Default returns the settings used without a config file.
func Default() *Config {
	return &Config{
		Atlases:  append([]string(nil), DefaultAtlases...),
		LogLevel: zerolog.LevelInfoValue,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Malformed("config %s: %v", path, err)
	}

	if len(cfg.Atlases) == 0 {
		cfg.Atlases = append([]string(nil), DefaultAtlases...)
	}

	if _, err := cfg.Level(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Level parses LogLevel. An empty value means info.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}

	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errs.Malformed("log level %q", c.LogLevel)
	}

	return lvl, nil
}
