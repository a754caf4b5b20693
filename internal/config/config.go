package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server
	Port           int      `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`

	// Auth
	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminToken string        `env:"ADMIN_TOKEN"`

	// AI help chat
	OpenAIKey         string        `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	ChatTimeout       time.Duration `env:"CHAT_TIMEOUT" envDefault:"30s"`
	ChatRatePerMinute int           `env:"CHAT_RATE_PER_MINUTE" envDefault:"6"`
	ChatBurst         int           `env:"CHAT_BURST" envDefault:"3"`
	TrustProxy        bool          `env:"TRUST_PROXY" envDefault:"false"`

	// Withdrawals
	MinWithdrawalPoints  int    `env:"MIN_WITHDRAWAL_POINTS" envDefault:"50"`
	MaxWithdrawalPoints  int    `env:"MAX_WITHDRAWAL_POINTS" envDefault:"500"`
	PointValueINR        string `env:"POINT_VALUE_INR" envDefault:"1"`
	WithdrawalFeePercent string `env:"WITHDRAWAL_FEE_PERCENT" envDefault:"2"`

	// Anti-abuse
	MinTaskDuration       time.Duration `env:"MIN_TASK_DURATION" envDefault:"5s"`
	MinCompletionInterval time.Duration `env:"MIN_COMPLETION_INTERVAL" envDefault:"2s"`
	DailyPointCap         int           `env:"DAILY_POINT_CAP" envDefault:"500"`

	// Housekeeping
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MinWithdrawalPoints <= 0 || cfg.MaxWithdrawalPoints < cfg.MinWithdrawalPoints {
		return nil, fmt.Errorf("parse config: withdrawal limits %d..%d are inconsistent", cfg.MinWithdrawalPoints, cfg.MaxWithdrawalPoints)
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
