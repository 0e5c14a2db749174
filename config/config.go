// Package config loads kvcli settings from a TOML or YAML file on top of
// built-in defaults. Command-line flags override both (see cmd/kvcli).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"mini-kv/loadbalance"
)

// DefaultPath is tried when no config file is given.
const DefaultPath = "~/.mini-kv/config.toml"

type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Discovery DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Limit     LimitConfig     `toml:"limit" yaml:"limit"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr        string        `toml:"addr" yaml:"addr"`
	DialTimeout time.Duration `toml:"dial_timeout" yaml:"dial_timeout"`
	// Timeout bounds one request/response cycle. 0 waits forever.
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
}

// DiscoveryConfig enables etcd lookup of the server when Endpoints is set.
type DiscoveryConfig struct {
	Endpoints []string      `toml:"endpoints" yaml:"endpoints"`
	Service   string        `toml:"service" yaml:"service"`
	Balancer  string        `toml:"balancer" yaml:"balancer"`
	Timeout   time.Duration `toml:"timeout" yaml:"timeout"`
}

type LimitConfig struct {
	Rate  float64 `toml:"rate" yaml:"rate"` // requests per second, 0 = unlimited
	Burst int     `toml:"burst" yaml:"burst"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        "127.0.0.1:1234",
			DialTimeout: 5 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Service:  "mini-kv",
			Balancer: "round_robin",
			Timeout:  3 * time.Second,
		},
		Limit: LimitConfig{
			Burst: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "auto",
		},
	}
}

// Load reads a TOML or YAML config file and returns the parsed Config.
// The format follows the extension: .yaml/.yml is YAML, anything else TOML.
// If path is empty, DefaultPath is used when it exists, else only defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = ExpandHome(DefaultPath)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Discovery.Endpoints) == 0 && c.Server.Addr == "" {
		return errors.New("server.addr is required when discovery is disabled")
	}
	if c.Server.DialTimeout < 0 || c.Server.Timeout < 0 || c.Discovery.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if len(c.Discovery.Endpoints) > 0 {
		if c.Discovery.Service == "" {
			return errors.New("discovery.service is required with discovery.endpoints")
		}
		if _, err := loadbalance.New(c.Discovery.Balancer); err != nil {
			return fmt.Errorf("discovery.balancer: %w", err)
		}
	}
	if c.Limit.Rate < 0 {
		return errors.New("limit.rate must not be negative")
	}
	if c.Limit.Rate > 0 && c.Limit.Burst < 1 {
		return errors.New("limit.burst must be at least 1 when limit.rate is set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log.format %q: want auto, console or json", c.Log.Format)
	}
	return nil
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
