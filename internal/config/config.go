// Package config holds the agent's YAML-backed configuration, loaded from
// the platform data directory and overridden by environment variables.
// Grounded on internal/agent/config/config.go's DefaultConfig/Load/Save
// shape from the teacher repo, pared down to the settings this spec's
// components actually read (§2 "C0 Config", §6 environment variables).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deskstratum/agent/internal/defaults"
)

// Config holds the settings every C0 ambient component reads at startup.
type Config struct {
	DataDir string `yaml:"data_dir"`

	AnthropicModel string `yaml:"anthropic_model"`
	MaxIterations  int    `yaml:"max_iterations"`
	SettleDelayMs  int    `yaml:"settle_delay_ms"`

	TransportURL string `yaml:"transport_url"`
	AgentName    string `yaml:"agent_name"`

	HelperPath string `yaml:"event_helper_path"`
}

const configFileName = "config.yaml"

// Default returns a Config populated with the spec's documented defaults
// (§4.C10 "max iterations default 25", §6 WS_URL / AGENT_MAX_ITERATIONS).
func Default() *Config {
	dataDir, err := defaults.DataDir()
	if err != nil {
		dataDir = ".deskstratum"
	}
	return &Config{
		DataDir:        dataDir,
		AnthropicModel: "claude-sonnet-4-5",
		MaxIterations:  25,
		SettleDelayMs:  800,
		AgentName:      "deskstratum",
	}
}

// Load reads <dataDir>/config.yaml if present, then applies environment
// overrides (§6: ANTHROPIC_MODEL, AGENT_MAX_ITERATIONS, WS_URL). Missing
// file is not an error — Default() is returned with overrides applied.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(cfg.DataDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if strings.HasPrefix(cfg.DataDir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, cfg.DataDir[2:])
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if m := os.Getenv("ANTHROPIC_MODEL"); m != "" {
		c.AnthropicModel = m
	}
	if n := os.Getenv("AGENT_MAX_ITERATIONS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			c.MaxIterations = v
		}
	}
	if url := os.Getenv("WS_URL"); url != "" {
		c.TransportURL = url
	}
}

// Save writes the config back to <DataDir>/config.yaml, creating the
// directory if needed (matches internal/agent/config/config.go's Save).
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, configFileName), data, 0o644)
}
