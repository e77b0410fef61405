// Package config loads prismd/prismc's operational configuration from a
// TOML file, mirroring internal/tqw/marshaling.go's toml.Unmarshal usage,
// with environment variable overrides in the style of cmd/tqserver's flag
// handling.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for prismd and prismc.
type Config struct {
	// Server holds the HTTP server's settings.
	Server ServerConfig

	// CLI holds defaults consulted by prismc when a flag isn't given.
	CLI CLIConfig
}

// ServerConfig configures prismd.
type ServerConfig struct {
	// ListenAddress is the address prismd binds to, e.g. ":8080".
	ListenAddress string `toml:"listen_address"`

	// TokenSecret signs and verifies JWTs issued at POST /login. If empty
	// after environment overrides are applied, a development default is
	// used (never acceptable in production, same caveat as the teacher's
	// Config.FillDefaults TokenSecret default).
	TokenSecret string `toml:"token_secret"`

	// StorageDir is the directory sqlstore uses for its sqlite database
	// file. Empty means use an in-memory store instead.
	StorageDir string `toml:"storage_dir"`
}

// CLIConfig configures prismc's defaults.
type CLIConfig struct {
	DefaultGrammarFile string `toml:"default_grammar_file"`
	DefaultStartRule   string `toml:"default_start_rule"`
	LayoutEnabled      bool   `toml:"layout_enabled"`
}

// Load decodes the TOML file at path into a Config, then applies
// environment variable overrides (PRISM_LISTEN_ADDRESS, PRISM_TOKEN_SECRET,
// PRISM_STORAGE_DIR), mirroring cmd/tqserver's env-override convention.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg = cfg.withEnvOverrides()
	return cfg.FillDefaults(), nil
}

func (cfg Config) withEnvOverrides() Config {
	if v := os.Getenv("PRISM_LISTEN_ADDRESS"); v != "" {
		cfg.Server.ListenAddress = v
	}
	if v := os.Getenv("PRISM_TOKEN_SECRET"); v != "" {
		cfg.Server.TokenSecret = v
	}
	if v := os.Getenv("PRISM_STORAGE_DIR"); v != "" {
		cfg.Server.StorageDir = v
	}
	return cfg
}

// FillDefaults returns a copy of cfg with unset fields replaced by their
// defaults, mirroring the teacher's Config.FillDefaults.
func (cfg Config) FillDefaults() Config {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.TokenSecret == "" {
		cfg.Server.TokenSecret = "DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!"
	}
	if cfg.CLI.DefaultStartRule == "" {
		cfg.CLI.DefaultStartRule = "start"
	}
	return cfg
}
