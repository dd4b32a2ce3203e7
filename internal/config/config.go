package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the console's runtime configuration.
type Config struct {
	Env             string        `mapstructure:"app_env"`
	Port            string        `mapstructure:"port"`
	APIBaseURL      string        `mapstructure:"api_base_url"`
	SessionSecret   string        `mapstructure:"session_secret"`
	SessionCookie   string        `mapstructure:"session_cookie"`
	SessionIdleTTL  time.Duration `mapstructure:"session_idle_ttl"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	Timezone        string        `mapstructure:"timezone"`
	DefaultAvatar   string        `mapstructure:"default_avatar"`
	LogLevel        string        `mapstructure:"log_level"`

	loc *time.Location
}

var keys = []string{
	"app_env", "port", "api_base_url", "session_secret", "session_cookie",
	"session_idle_ttl", "upstream_timeout", "timezone",
	"default_avatar", "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("api_base_url", "http://localhost:3000")
	v.SetDefault("session_cookie", "console_session")
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("upstream_timeout", "15s")
	v.SetDefault("timezone", "Asia/Manila")
	v.SetDefault("default_avatar", "/default-avatar.png")
	v.SetDefault("log_level", "info")
}

// Load reads .env (if present) and the process environment on top of defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from v. Environment variables are upper-cased keys
// (API_BASE_URL, SESSION_SECRET, ...).
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about during Unmarshal.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("PHT", 8*60*60)
	}
	cfg.loc = loc
	return &cfg, nil
}

// Location is the zone used for every displayed date.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// IsProd reports whether the console runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}
