package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// PlaybackMode selects how playback is routed at startup.
type PlaybackMode string

const (
	PlaybackRemote PlaybackMode = "remote" // route to a Spotify Connect device
	PlaybackLocal  PlaybackMode = "local"  // route to the built-in engine
	PlaybackAuto   PlaybackMode = "auto"   // prefer local, fall back to remote
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Cache       CacheConfig       `toml:"cache"`
	Playback    PlaybackConfig    `toml:"playback"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains Spotify API credentials.
type CredentialsConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// CacheConfig contains on-disk cache locations.
type CacheConfig struct {
	TokenPath    string `toml:"token_path"`    // credential cache artifact
	DatabasePath string `toml:"database_path"` // sqlite library cache
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlaybackConfig contains playback routing preferences.
type PlaybackConfig struct {
	Mode      PlaybackMode `toml:"mode"`
	DeviceID  string       `toml:"device_id"`  // preferred Connect device, optional
	VolumePct int          `toml:"volume_pct"` // initial volume for the local engine
}

// ServerConfig contains settings for the OAuth loopback callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Validate checks that the configuration carries enough to construct the session manager.
func (c *Config) Validate() error {
	if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
		return fmt.Errorf("%w: client_id and client_secret are required", ErrMissingCredentials)
	}
	switch c.Playback.Mode {
	case PlaybackRemote, PlaybackLocal, PlaybackAuto, "":
	default:
		return fmt.Errorf("%w: unknown playback mode %q", ErrInvalidConfig, c.Playback.Mode)
	}
	return nil
}

// ExpandPaths resolves ~/ prefixes in cache paths against the user's home directory.
func (c *Config) ExpandPaths() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(p string) string {
		if len(p) >= 2 && p[:2] == "~/" {
			return filepath.Join(home, p[2:])
		}
		return p
	}
	c.Cache.TokenPath = expand(c.Cache.TokenPath)
	c.Cache.DatabasePath = expand(c.Cache.DatabasePath)
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

	config.ExpandPaths()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.ExpandPaths()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
