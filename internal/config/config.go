// Package config loads figure and save options from a config file, the
// environment and command line overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ukaji3/myfigure-go/pkg/myfigure"
)

// EnvPrefix prefixes environment overrides: MYFIGURE_FIGURE_ROWS=2 sets
// figure.rows.
const EnvPrefix = "MYFIGURE_"

// searchNames are the config files looked up in the XDG config directories.
var searchNames = []string{
	"myfigure/config.yaml",
	"myfigure/config.yml",
	"myfigure/config.toml",
}

// Config is the complete render configuration.
type Config struct {
	Figure myfigure.Options     `koanf:"figure"`
	Save   myfigure.SaveOptions `koanf:"save"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Figure: myfigure.DefaultOptions(),
		Save:   myfigure.DefaultSaveOptions(),
	}
}

// Load layers, lowest first: defaults, the config file at path (or the first
// one found in the XDG config directories when path is empty), MYFIGURE_
// environment variables and overrides, whose keys are dotted paths such as
// "save.dpi".
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	cfg := Default()
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

// envKey maps MYFIGURE_FIGURE_X_LAB to figure.x_lab: the first underscore
// separates the section from the key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	}
	return nil, fmt.Errorf("%w: unsupported config file type %q", myfigure.ErrInvalidOption, filepath.Ext(path))
}

func findConfigFile() string {
	for _, name := range searchNames {
		if p, err := xdg.SearchConfigFile(name); err == nil {
			return p
		}
	}
	return ""
}
