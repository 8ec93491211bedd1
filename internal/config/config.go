package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned when a required setting is unset.
var ErrConfigurationMissing = errors.New("configuration missing")

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Platform  PlatformConfig  `yaml:"platform" envPrefix:"PLATFORM_"`
	Flag      FlagConfig      `yaml:"flag" envPrefix:"FLAG_"`
	Discord   DiscordConfig   `yaml:"discord" envPrefix:"DISCORD_"`
	Messages  MessagesConfig  `yaml:"messages" envPrefix:"MESSAGES_"`
	MCP       MCPConfig       `yaml:"mcp" envPrefix:"MCP_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
	// APIToken guards the read API when set.
	APIToken string `yaml:"api_token" env:"API_TOKEN"`
}

// StoreConfig locates the flag state file.
type StoreConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// DBConfig locates the activity log database.
type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// PlatformConfig points at the CTF scoring platform.
type PlatformConfig struct {
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	APIKey      string        `yaml:"api_key" env:"API_KEY"`
	ChallengeID string        `yaml:"challenge_id" env:"CHALLENGE_ID"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// FlagConfig controls token generation.
type FlagConfig struct {
	Prefix         string `yaml:"prefix" env:"PREFIX"`
	NamesPath      string `yaml:"names_path" env:"NAMES_PATH"`
	AdjectivesPath string `yaml:"adjectives_path" env:"ADJECTIVES_PATH"`
}

// DiscordConfig configures the chat front end. An empty token disables it.
type DiscordConfig struct {
	Token            string `yaml:"token" env:"TOKEN"`
	RoleID           string `yaml:"role_id" env:"ROLE_ID"`
	WelcomeChannelID string `yaml:"welcome_channel_id" env:"WELCOME_CHANNEL_ID"`
	CTFChannelID     string `yaml:"ctf_channel_id" env:"CTF_CHANNEL_ID"`
}

type MessagesConfig struct {
	Locale string `yaml:"locale" env:"LOCALE"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Default returns the configuration used before any file or environment overlay.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Store: StoreConfig{
			Path: "flags_db.json",
		},
		DB: DBConfig{
			Path: "flagbot.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Platform: PlatformConfig{
			Timeout: 10 * time.Second,
		},
		Flag: FlagConfig{
			Prefix:         "ISEN",
			NamesPath:      "FG_NAME",
			AdjectivesPath: "FG_ADJ",
		},
		Messages: MessagesConfig{
			Locale: "fr",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "flagbot",
		},
	}
}

// Load reads configuration from an optional YAML file and FLAGBOT_* environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("FLAGBOT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "FLAGBOT_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// IssuanceEnabled reports whether the chat front end should run.
func (c Config) IssuanceEnabled() bool {
	return strings.TrimSpace(c.Discord.Token) != ""
}

// Validate fails fast on settings the issuance workflow cannot run without.
func (c Config) Validate() error {
	if c.Platform.Timeout <= 0 {
		return fmt.Errorf("%w: platform.timeout must be positive", ErrConfigurationMissing)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("%w: store.path", ErrConfigurationMissing)
	}
	if !c.IssuanceEnabled() {
		return nil
	}
	if strings.TrimSpace(c.Platform.BaseURL) == "" {
		return fmt.Errorf("%w: platform.base_url", ErrConfigurationMissing)
	}
	if strings.TrimSpace(c.Platform.ChallengeID) == "" {
		return fmt.Errorf("%w: platform.challenge_id", ErrConfigurationMissing)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
