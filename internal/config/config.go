package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all finplan configuration.
type Config struct {
	General      GeneralConfig      `toml:"general"`
	Rates        RatesConfig        `toml:"rates"`
	AlphaVantage AlphaVantageConfig `toml:"alpha_vantage"`
	OpenAI       OpenAIConfig       `toml:"openai"`
	OpenRouter   OpenRouterConfig   `toml:"openrouter"`
	Gemini       GeminiConfig       `toml:"gemini"`
	Botpress     BotpressConfig     `toml:"botpress"`
	Appearance   AppearanceConfig   `toml:"appearance"`
	Daemon       DaemonConfig       `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	HorizonMonths int     `toml:"horizon_months"`
	SavingsTarget float64 `toml:"savings_target"`
	LogLevel      string  `toml:"log_level"`
}

// RatesConfig controls growth-rate resolution.
type RatesConfig struct {
	CacheTTLHours int                `toml:"cache_ttl_hours"`
	Defaults      map[string]float64 `toml:"defaults,omitempty"`
	Symbols       map[string]string  `toml:"symbols,omitempty"`
}

// AlphaVantageConfig holds market-data API settings.
type AlphaVantageConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// OpenAIConfig holds OpenAI chat-completions settings.
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key,omitempty"`
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	Temperature float64 `toml:"temperature"`
}

// OpenRouterConfig holds OpenRouter settings.
type OpenRouterConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"model,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey string `toml:"api_key,omitempty"`
	Model  string `toml:"model,omitempty"`
}

// BotpressConfig holds assistant chat settings.
type BotpressConfig struct {
	Token   string `toml:"token,omitempty"`
	BotID   string `toml:"bot_id,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds settings for finplan serve.
type DaemonConfig struct {
	Addr           string   `toml:"addr"`
	RefreshCron    string   `toml:"refresh_cron"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// Default endpoints and models.
const (
	DefaultAlphaVantageURL = "https://www.alphavantage.co"
	DefaultOpenAIURL       = "https://api.openai.com/v1"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "deepseek/deepseek-r1:free"
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultBotpressURL     = "https://chat.botpress.cloud/v1/chat"
	DefaultDaemonAddr      = "127.0.0.1:8787"
	DefaultRefreshCron     = "@every 6h"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			HorizonMonths: 12,
			SavingsTarget: 10000,
			LogLevel:      "warn",
		},
		Rates: RatesConfig{
			CacheTTLHours: 24,
		},
		AlphaVantage: AlphaVantageConfig{BaseURL: DefaultAlphaVantageURL},
		OpenAI: OpenAIConfig{
			Model:       DefaultOpenAIModel,
			BaseURL:     DefaultOpenAIURL,
			Temperature: 0.7,
		},
		OpenRouter: OpenRouterConfig{
			Model:   DefaultOpenRouterModel,
			BaseURL: DefaultOpenRouterURL,
		},
		Gemini:   GeminiConfig{Model: DefaultGeminiModel},
		Botpress: BotpressConfig{BaseURL: DefaultBotpressURL},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:        DefaultDaemonAddr,
			RefreshCron: DefaultRefreshCron,
		},
	}
}

// pathOverride is set by the --config flag.
var pathOverride string

// SetPath makes Load, Save and Exists use path instead of the XDG location.
// An empty path restores the default.
func SetPath(path string) {
	pathOverride = path
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finplan")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	if pathOverride != "" {
		return pathOverride
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory, home of the rate cache.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "finplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "finplan")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// GetAlphaVantageKey returns the API key from env var or config, in that order.
func GetAlphaVantageKey(cfg Config) string {
	return envOr("ALPHA_VANTAGE_API_KEY", cfg.AlphaVantage.APIKey)
}

// GetOpenAIKey returns the API key from env var or config, in that order.
func GetOpenAIKey(cfg Config) string {
	return envOr("OPENAI_API_KEY", cfg.OpenAI.APIKey)
}

// GetOpenRouterKey returns the API key from env var or config, in that order.
func GetOpenRouterKey(cfg Config) string {
	return envOr("OPENROUTER_API_KEY", cfg.OpenRouter.APIKey)
}

// GetGeminiKey returns the API key from env var or config, in that order.
func GetGeminiKey(cfg Config) string {
	return envOr("GEMINI_API_KEY", cfg.Gemini.APIKey)
}

// GetBotpressToken returns the token from env var or config, in that order.
func GetBotpressToken(cfg Config) string {
	return envOr("BOTPRESS_TOKEN", cfg.Botpress.Token)
}

// GetBotpressBotID returns the bot id from env var or config, in that order.
func GetBotpressBotID(cfg Config) string {
	return envOr("BOTPRESS_BOT_ID", cfg.Botpress.BotID)
}

// MaskSecret keeps the first and last four characters of a secret.
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
