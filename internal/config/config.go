package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string `validate:"required"`
	}
	Upstream struct {
		URL     string        `validate:"required,url"`
		Timeout time.Duration `validate:"gt=0"`
	}
	Session struct {
		AccessCookie  string        `validate:"required"`
		RefreshCookie string        `validate:"required"`
		CacheSize     int           `validate:"gte=1"`
		CacheTTL      time.Duration `validate:"gte=0"`
		Lifetime      time.Duration `validate:"gt=0"`
	}
	Theme struct {
		Default string `validate:"oneof=light dark"`
		Cookie  string `validate:"required"`
	}
	Flash struct {
		DismissAfter time.Duration `validate:"gte=0"`
	}
	Log struct {
		Level      string `validate:"oneof=debug info warn error"`
		Format     string `validate:"oneof=json console"`
		File       string
		MaxSizeMB  int `validate:"gte=0"`
		MaxBackups int `validate:"gte=0"`
		MaxAgeDays int `validate:"gte=0"`
	}
	InsecureCookies bool
}

// envNames maps validator struct namespaces to the variables users set.
var envNames = map[string]string{
	"Config.HTTP.Addr":             "FEEDBACK_HTTP_ADDR",
	"Config.Upstream.URL":          "FEEDBACK_UPSTREAM_URL",
	"Config.Upstream.Timeout":      "FEEDBACK_UPSTREAM_TIMEOUT",
	"Config.Session.AccessCookie":  "FEEDBACK_SESSION_ACCESS_COOKIE",
	"Config.Session.RefreshCookie": "FEEDBACK_SESSION_REFRESH_COOKIE",
	"Config.Session.CacheSize":     "FEEDBACK_SESSION_CACHE_SIZE",
	"Config.Session.CacheTTL":      "FEEDBACK_SESSION_CACHE_TTL",
	"Config.Session.Lifetime":      "FEEDBACK_SESSION_LIFETIME",
	"Config.Theme.Default":         "FEEDBACK_THEME_DEFAULT",
	"Config.Theme.Cookie":          "FEEDBACK_THEME_COOKIE",
	"Config.Flash.DismissAfter":    "FEEDBACK_FLASH_DISMISS_AFTER",
	"Config.Log.Level":             "FEEDBACK_LOG_LEVEL",
	"Config.Log.Format":            "FEEDBACK_LOG_FORMAT",
	"Config.Log.MaxSizeMB":         "FEEDBACK_LOG_MAX_SIZE_MB",
	"Config.Log.MaxBackups":        "FEEDBACK_LOG_MAX_BACKUPS",
	"Config.Log.MaxAgeDays":        "FEEDBACK_LOG_MAX_AGE_DAYS",
}

// Load reads config from environment (FEEDBACK_ prefix) and optional feedback-web.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEEDBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("feedback-web")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	return FromViper(v)
}

// FromViper assembles and validates a Config from v, applying defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("upstream.timeout", "5s")
	v.SetDefault("session.access_cookie", "access_token_cookie")
	v.SetDefault("session.refresh_cookie", "refresh_token_cookie")
	v.SetDefault("session.cache_size", 256)
	v.SetDefault("session.cache_ttl", "30s")
	v.SetDefault("session.lifetime", "24h")
	v.SetDefault("theme.default", "light")
	v.SetDefault("theme.cookie", "theme")
	v.SetDefault("flash.dismiss_after", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.Upstream.URL = v.GetString("upstream.url")
	cfg.Session.AccessCookie = v.GetString("session.access_cookie")
	cfg.Session.RefreshCookie = v.GetString("session.refresh_cookie")
	cfg.Session.CacheSize = v.GetInt("session.cache_size")
	cfg.Theme.Default = strings.ToLower(v.GetString("theme.default"))
	cfg.Theme.Cookie = v.GetString("theme.cookie")
	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))
	cfg.Log.File = v.GetString("log.file")
	cfg.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")
	cfg.Log.MaxAgeDays = v.GetInt("log.max_age_days")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	durations := []struct {
		key, env string
		dst      *time.Duration
	}{
		{"upstream.timeout", "FEEDBACK_UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout},
		{"session.cache_ttl", "FEEDBACK_SESSION_CACHE_TTL", &cfg.Session.CacheTTL},
		{"session.lifetime", "FEEDBACK_SESSION_LIFETIME", &cfg.Session.Lifetime},
		{"flash.dismiss_after", "FEEDBACK_FLASH_DISMISS_AFTER", &cfg.Flash.DismissAfter},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var structValidator = validator.New()

func validate(cfg *Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name, ok := envNames[fe.Namespace()]
	if !ok {
		name = fe.Namespace()
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return fmt.Sprintf("%s must be an absolute URL, got %q", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", name, fe.Tag(), fe.Param())
	}
}
