package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	Env           string `mapstructure:"APP_ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`
	BusinessName  string `mapstructure:"BUSINESS_NAME"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AuthSecret            string `mapstructure:"AUTH_SECRET"`
	AccessTokenTTLMinutes int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`

	GeminiAPIKey         string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel          string `mapstructure:"GEMINI_MODEL"`
	AdvisorTimeoutMS     int    `mapstructure:"ADVISOR_TIMEOUT_MS"`
	SuggestionTTLSeconds int    `mapstructure:"SUGGESTION_TTL_SECONDS"`

	TaxRateRaw      string `mapstructure:"TAX_RATE"`
	CheckoutDelayMS int    `mapstructure:"CHECKOUT_DELAY_MS"`
	QRGeneratingMS  int    `mapstructure:"QR_GENERATING_MS"`
	QRWaitingMS     int    `mapstructure:"QR_WAITING_MS"`
	QRApprovalMS    int    `mapstructure:"QR_APPROVAL_MS"`

	TaxRate decimal.Decimal `mapstructure:"-"`
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"APP_ENV":                  "development",
	"LOG_LEVEL":                "info",
	"ALLOWED_ORIGIN":           "http://127.0.0.1:5173",
	"BUSINESS_NAME":            "NovaPOS",
	"DATABASE_URL":             "",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"AUTH_SECRET":              "",
	"ACCESS_TOKEN_TTL_MINUTES": 480,
	"GEMINI_API_KEY":           "",
	"GEMINI_MODEL":             "gemini-2.5-flash",
	"ADVISOR_TIMEOUT_MS":       4000,
	"SUGGESTION_TTL_SECONDS":   120,
	"TAX_RATE":                 "0.16",
	"CHECKOUT_DELAY_MS":        1000,
	"QR_GENERATING_MS":         800,
	"QR_WAITING_MS":            5000,
	"QR_APPROVAL_MS":           1000,
}

// Load reads configuration from the environment. Unset keys fall back to
// development defaults; secrets have no default.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)

	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRateRaw))
	if err != nil {
		return Config{}, fmt.Errorf("TAX_RATE %q: %w", cfg.TaxRateRaw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("TAX_RATE must be between 0 and 1, got %s", rate)
	}
	cfg.TaxRate = rate

	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.SuggestionTTLSeconds < 1 {
		cfg.SuggestionTTLSeconds = 120
	}
	for _, ms := range []*int{&cfg.AdvisorTimeoutMS, &cfg.CheckoutDelayMS, &cfg.QRGeneratingMS, &cfg.QRWaitingMS, &cfg.QRApprovalMS} {
		if *ms < 0 {
			*ms = 0
		}
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.AdvisorTimeoutMS) * time.Millisecond
}

func (c Config) SuggestionTTL() time.Duration {
	return time.Duration(c.SuggestionTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) CheckoutDelay() time.Duration {
	return time.Duration(c.CheckoutDelayMS) * time.Millisecond
}

// QRTimings returns the generating, waiting and approval holds.
func (c Config) QRTimings() (time.Duration, time.Duration, time.Duration) {
	return time.Duration(c.QRGeneratingMS) * time.Millisecond,
		time.Duration(c.QRWaitingMS) * time.Millisecond,
		time.Duration(c.QRApprovalMS) * time.Millisecond
}
