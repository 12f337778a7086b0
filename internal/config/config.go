// Package config loads persistent defaults from a YAML file. Command-line
// flags override anything set here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint     = "https://sora-api-ahsan.ahsanlabs.workers.dev/"
	DefaultMetaEndpoint = "https://api.soracdn.workers.dev/api-proxy/"
	DefaultPrefix       = "Sora_Pakistan"
)

type Config struct {
	Endpoint     string            `yaml:"endpoint"`
	MetaEndpoint string            `yaml:"meta_endpoint"`
	OutputDir    string            `yaml:"output_dir"`
	Prefix       string            `yaml:"prefix"`
	UserAgent    string            `yaml:"user_agent"`
	Timeout      time.Duration     `yaml:"timeout"`
	Proxy        string            `yaml:"proxy"`
	Headers      map[string]string `yaml:"headers"`
	S3           S3Config          `yaml:"s3"`
}

type S3Config struct {
	Destination string `yaml:"destination"`
	Profile     string `yaml:"profile"`
}

func Default() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		MetaEndpoint: DefaultMetaEndpoint,
		OutputDir:    ".",
		Prefix:       DefaultPrefix,
		S3:           S3Config{Profile: "default"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/sorazip/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sorazip", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error unless
// required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return cfg, nil
}
