package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds webhook transport settings.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"SERVER_PORT"`
	// MediaDir is where generated audio files are written.
	MediaDir string `yaml:"media_dir" envconfig:"SERVER_MEDIA_DIR"`
	// MediaBaseURL prefixes generated media file names in outbound messages.
	MediaBaseURL string `yaml:"media_base_url" envconfig:"SERVER_MEDIA_BASE_URL"`
}

// RedisConfig selects the session store backend. An empty URL keeps
// per-conversation state in process memory.
type RedisConfig struct {
	URL string `yaml:"url" envconfig:"REDIS_URL"`
	// TTL bounds how long abandoned conversation state is kept.
	TTLHours int `yaml:"ttl_hours" envconfig:"REDIS_TTL_HOURS"`
}

// TelegramConfig enables the optional Telegram channel adapter.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"TELEGRAM_ENABLED"`
	Token   string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// ProvidersConfig points at the external content services.
type ProvidersConfig struct {
	NewsURL        string `yaml:"news_url" envconfig:"PROVIDER_NEWS_URL"`
	TranslateURL   string `yaml:"translate_url" envconfig:"PROVIDER_TRANSLATE_URL"`
	WeatherURL     string `yaml:"weather_url" envconfig:"PROVIDER_WEATHER_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"PROVIDER_TIMEOUT_SECONDS"`
	// TTS voice used for audio renderings of news and translations.
	TTSLanguage string `yaml:"tts_language" envconfig:"PROVIDER_TTS_LANGUAGE"`
	TTSVoice    string `yaml:"tts_voice" envconfig:"PROVIDER_TTS_VOICE"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// Config aggregates application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProviderTimeout returns the configured provider call timeout.
func (c *Config) ProviderTimeout() time.Duration {
	if c == nil || c.Providers.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long conversation state may live in the session store.
func (c *Config) SessionTTL() time.Duration {
	if c == nil || c.Redis.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTLHours) * time.Hour
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = "0.0.0.0"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3978
	}
	if strings.TrimSpace(cfg.Server.MediaDir) == "" {
		cfg.Server.MediaDir = "media"
	}
	cfg.Server.MediaBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.MediaBaseURL), "/")
	if cfg.Server.MediaBaseURL == "" {
		cfg.Server.MediaBaseURL = fmt.Sprintf("http://localhost:%d/media", cfg.Server.Port)
	}

	if cfg.Telegram.Enabled && strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled is true")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}

	if cfg.Providers.TimeoutSeconds < 0 {
		return fmt.Errorf("providers.timeout_seconds must be >= 0")
	}
	if strings.TrimSpace(cfg.Providers.TTSLanguage) == "" {
		cfg.Providers.TTSLanguage = "fr-FR"
	}
	if strings.TrimSpace(cfg.Providers.TTSVoice) == "" {
		cfg.Providers.TTSVoice = "fr-FR-Wavenet-A"
	}

	if cfg.Redis.TTLHours < 0 {
		return fmt.Errorf("redis.ttl_hours must be >= 0")
	}

	return nil
}
