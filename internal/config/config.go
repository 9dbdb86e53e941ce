// Package config holds the runtime configuration for the acceptance
// driver: how to launch the MCP server, who to present as during the
// handshake, and how long to wait at each stage.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mcpqa configuration.
type Config struct {
	// MCP server child process and backend endpoint
	Server ServerConfig `yaml:"server"`

	// Handshake identity
	Client ClientConfig `yaml:"client"`

	// Pass timing
	Runner RunnerConfig `yaml:"runner"`
}

// ServerConfig locates the MCP server and the codeblog backend.
type ServerConfig struct {
	// Command is the child process argv, binary first.
	Command []string `yaml:"command"`

	// URL is the backend base URL used for account bootstrap.
	URL string `yaml:"url"`
}

// ClientConfig is the identity presented during the MCP handshake.
type ClientConfig struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	ProtocolVersion string `yaml:"protocol_version"`

	// MinServerVersion is a semver floor for the server build; empty
	// disables the check.
	MinServerVersion string `yaml:"min_server_version"`
}

// RunnerConfig holds the pass timing knobs as duration strings.
type RunnerConfig struct {
	CallTimeout      string `yaml:"call_timeout"`
	HandshakeTimeout string `yaml:"handshake_timeout"`
	ShutdownGrace    string `yaml:"shutdown_grace"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Command: []string{"codeblog-mcp"},
			URL:     "https://codeblog.ai",
		},
		Client: ClientConfig{
			Name:            "codeblog-mac-qa",
			Version:         "1.0.0",
			ProtocolVersion: "2024-11-05",
		},
		Runner: RunnerConfig{
			CallTimeout:      "90s",
			HandshakeTimeout: "20s",
			ShutdownGrace:    "3s",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("CODEBLOG_SERVER_URL"); url != "" {
		c.Server.URL = url
	}

	// Whitespace-separated argv, binary first.
	if cmd := os.Getenv("CODEBLOG_MCP_COMMAND"); strings.TrimSpace(cmd) != "" {
		c.Server.Command = strings.Fields(cmd)
	}

	if timeout := os.Getenv("CODEBLOG_CALL_TIMEOUT"); timeout != "" {
		c.Runner.CallTimeout = timeout
	}
}

// GetCallTimeout returns the per-call timeout as a duration.
func (c *Config) GetCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Runner.CallTimeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// GetHandshakeTimeout returns the handshake timeout as a duration.
func (c *Config) GetHandshakeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Runner.HandshakeTimeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// GetShutdownGrace returns the child shutdown grace as a duration.
func (c *Config) GetShutdownGrace() time.Duration {
	d, err := time.ParseDuration(c.Runner.ShutdownGrace)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Server.Command) == 0 || strings.TrimSpace(c.Server.Command[0]) == "" {
		return fmt.Errorf("MCP server command not configured")
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server URL not configured")
	}
	if c.Client.ProtocolVersion == "" {
		return fmt.Errorf("protocol version not configured")
	}
	return nil
}
