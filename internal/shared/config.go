package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Matcher     MatcherConfig     `toml:"matcher"`
	Provider    ProviderConfig    `toml:"provider"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// MatcherConfig contains defaults for CSV conversion jobs.
type MatcherConfig struct {
	DurationMin          int      `toml:"duration_min"`
	DurationMax          float64  `toml:"duration_max"`
	ExcludeInstrumentals bool     `toml:"exclude_instrumentals"`
	Variants             []string `toml:"variants"`
	FetchWorkers         int      `toml:"fetch_workers"`
}

// ProviderConfig contains search provider settings.
type ProviderConfig struct {
	SearchTimeoutSeconds int     `toml:"search_timeout_seconds"`
	RateLimit            float64 `toml:"rate_limit"`
}

// DownloadsConfig contains audio download settings.
type DownloadsConfig struct {
	Directory          string `toml:"directory"`
	Format             string `toml:"format"`
	EmbedThumbnail     bool   `toml:"embed_thumbnail"`
	ArchiveFile        string `toml:"archive_file"`
	FallbackToRunnerUp bool   `toml:"fallback_to_runner_up"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
