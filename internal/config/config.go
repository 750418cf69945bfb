package config

import (
	"os"
	"sort"

	"github.com/bsm/teehistorian"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the thtool configuration
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Compression string            `yaml:"compression"`
	MaxClients  int               `yaml:"max_clients"`
	Header      map[string]string `yaml:"header,omitempty"`
	Extensions  []Extension       `yaml:"extensions,omitempty"`
}

// Extension registers a handler name for an extension UUID
type Extension struct {
	UUID string `yaml:"uuid"`
	Name string `yaml:"name"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		Compression: teehistorian.NoCompression.String(),
		MaxClients:  teehistorian.MaxClients,
	}
}

// LoadConfig loads configuration from the specified path. Missing fields
// keep their default values.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return nil, errors.Errorf("config file does not exist: %s", path)
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to path
func SaveConfig(fs afero.Fs, config *Config, path string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Validate checks all values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "none":
	default:
		return errors.Errorf("invalid log level %q", c.LogLevel)
	}

	if _, err := teehistorian.ParseCompression(c.Compression); err != nil {
		return errors.Wrap(err, "invalid compression")
	}
	if c.MaxClients < 1 {
		return errors.Errorf("invalid max clients %d", c.MaxClients)
	}

	for i, ext := range c.Extensions {
		if ext.Name == "" {
			return errors.Errorf("extension #%d has no name", i+1)
		}
		if _, err := teehistorian.ParseUUID(ext.UUID); err != nil {
			return errors.Wrapf(err, "extension %q", ext.Name)
		}
	}
	return nil
}

// Registry builds a registry with all configured extensions.
func (c *Config) Registry() (*teehistorian.Registry, error) {
	reg := teehistorian.NewRegistry()
	for _, ext := range c.Extensions {
		if err := reg.Register(ext.UUID, ext.Name); err != nil {
			return nil, errors.Wrapf(err, "extension %q", ext.Name)
		}
	}
	return reg, nil
}

// WriterOptions returns writer options with the configured client bound and
// header fields, sorted by key.
func (c *Config) WriterOptions() *teehistorian.WriterOptions {
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := &teehistorian.WriterOptions{MaxClients: c.MaxClients}
	for _, k := range keys {
		o.Header = append(o.Header, teehistorian.HeaderField{Key: k, Value: c.Header[k]})
	}
	return o
}

// CompressionCodec returns the parsed compression codec.
func (c *Config) CompressionCodec() teehistorian.Compression {
	codec, _ := teehistorian.ParseCompression(c.Compression)
	return codec
}
