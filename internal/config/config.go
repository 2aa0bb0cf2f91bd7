package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode               string        `mapstructure:"mode"`
	Port               int           `mapstructure:"port"`
	ReadLimit          int64         `mapstructure:"read_limit"`
	PingPeriod         time.Duration `mapstructure:"ping_period"`
	Secret             string        `mapstructure:"secret"`
	SendBuffer         int           `mapstructure:"send_buffer"`
	InboxSize          int           `mapstructure:"inbox_size"`
	JoinRateLimit      int           `mapstructure:"join_rate_limit"`
	JoinRateInterval   time.Duration `mapstructure:"join_rate_interval"`
	MaxAttachmentBytes int           `mapstructure:"max_attachment_bytes"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level"`
}

// ClientConfig drives the terminal client and its session layer.
type ClientConfig struct {
	ServerURL        string        `mapstructure:"server_url"`
	StorePath        string        `mapstructure:"store_path"`
	SessionTimeout   time.Duration `mapstructure:"session_timeout"`
	ActivityDebounce time.Duration `mapstructure:"activity_debounce"`
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	TypingTimeout    time.Duration `mapstructure:"typing_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
}

func newViper(section string) *viper.Viper {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHATJET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/%s.%s.yaml", section, env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}
	return v
}

func Load() (*Config, error) {
	v := newViper("config")
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 8<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "chatjet-dev-secret")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("inbox_size", 256)
	v.SetDefault("join_rate_limit", 10)
	v.SetDefault("join_rate_interval", "1m")
	v.SetDefault("max_attachment_bytes", 5<<20)
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.JoinRateLimit <= 0 {
		return nil, fmt.Errorf("join_rate_limit must be positive, got %d", cfg.JoinRateLimit)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("server config")
	return &cfg, nil
}

func LoadClient() (*ClientConfig, error) {
	v := newViper("client")
	v.SetDefault("server_url", "ws://localhost:8080/api/ws")
	v.SetDefault("store_path", "./data/session")
	v.SetDefault("session_timeout", "2m")
	v.SetDefault("activity_debounce", "1s")
	v.SetDefault("check_interval", "1s")
	v.SetDefault("history_limit", 50)
	v.SetDefault("typing_timeout", "1s")
	v.SetDefault("log_level", "warn")

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return &cfg, nil
}

// ParseLevel maps a config level onto zerolog, falling back to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}
