package conf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path (DefaultPath when empty), fills
// in defaults, applies environment overrides and validates the result.
// The format follows the extension: .yaml/.yml is YAML, anything else TOML.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %s", undecoded[0].String())
		}
		return nil
	}
}

// fillDefaults restores defaults for keys present in the file but left empty
func (c *Config) fillDefaults() {
	def := Default()
	if c.RawQuery.Server == "" {
		c.RawQuery.Server = def.RawQuery.Server
	}
	if c.Telegram.APIServer == "" {
		c.Telegram.APIServer = def.Telegram.APIServer
	}
	if c.Misc.LogLevel == "" {
		c.Misc.LogLevel = def.Misc.LogLevel
	}
}
