// Package config loads the saf CLI configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/reoring/saf"
)

// Config is the on-disk configuration. Every field has a command-line flag
// that overrides it.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Parse struct {
		// DuplicateKeys is ignore, warn or error.
		DuplicateKeys string `yaml:"duplicate-keys"`
		MaxDepth      int    `yaml:"max-depth"`
		MaxBytes      int64  `yaml:"max-bytes"`
		// Driver is "go-json" (default) or "encoding/json".
		Driver string `yaml:"driver"`
	} `yaml:"parse"`

	// Schemas lists YAML files with extra layer schemas.
	Schemas []string `yaml:"schemas"`

	Merge struct {
		Policy string `yaml:"policy"`
	} `yaml:"merge"`

	Store struct {
		DB       string `yaml:"db"`
		Dir      string `yaml:"dir"`
		Compress bool   `yaml:"compress"`
	} `yaml:"store"`

	// Language selects issue messages (en or ja).
	Language string `yaml:"language"`
}

// DefaultPath is $XDG_CONFIG_HOME/saf/config.yaml or its home equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "saf", "config.yaml")
}

// Load reads the config at path. A missing file yields the zero Config.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, c.Check()
}

// Check validates enumerated settings.
func (c *Config) Check() error {
	if _, err := saf.ParseSeverity(c.Parse.DuplicateKeys); err != nil {
		return fmt.Errorf("parse.duplicate-keys: %w", err)
	}
	if _, err := saf.ParseMergePolicy(c.Merge.Policy); err != nil {
		return fmt.Errorf("merge.policy: %w", err)
	}
	switch c.Parse.Driver {
	case "", "go-json", "encoding/json":
	default:
		return fmt.Errorf("parse.driver: unknown driver %q", c.Parse.Driver)
	}
	if c.Parse.MaxDepth < 0 || c.Parse.MaxBytes < 0 {
		return errors.New("parse limits must not be negative")
	}
	return nil
}

// ParseOpt projects the parse section (and schemas) onto saf.ParseOpt.
func (c *Config) ParseOpt() (saf.ParseOpt, error) {
	sev, err := saf.ParseSeverity(c.Parse.DuplicateKeys)
	if err != nil {
		return saf.ParseOpt{}, err
	}
	opt := saf.ParseOpt{
		Strictness: saf.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.Parse.MaxDepth,
		MaxBytes:   c.Parse.MaxBytes,
	}
	if len(c.Schemas) > 0 {
		reg := saf.DefaultRegistry()
		for _, p := range c.Schemas {
			if err := reg.LoadYAMLFile(p); err != nil {
				return saf.ParseOpt{}, fmt.Errorf("schema %s: %w", p, err)
			}
		}
		opt.Registry = reg
	}
	return opt, nil
}

// JSONDriver returns the configured driver.
func (c *Config) JSONDriver() saf.JSONDriver {
	if c.Parse.Driver == "encoding/json" {
		return saf.StdJSONDriver()
	}
	return saf.GoJSONDriver()
}
