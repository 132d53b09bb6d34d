package config

import "time"

type AppConfig struct {
	DBDriver    string         `yaml:"db_driver" env:"AIBVS_DB_DRIVER" env-default:"sqlite"`
	DBURL       string         `yaml:"db_url" env:"AIBVS_DB_URL"`
	DBPath      string         `yaml:"db_path" env:"AIBVS_DB_PATH" env-default:"data/aibvs.db"`
	ListenAddr  string         `yaml:"listen_addr" env:"AIBVS_LISTEN_ADDR" env-default:"0.0.0.0:5000"`
	TokenSecret string         `yaml:"token_secret" env:"AIBVS_TOKEN_SECRET"`
	TokenTTL    time.Duration  `yaml:"token_ttl" env:"AIBVS_TOKEN_TTL" env-default:"24h"`
	AppEnv      string         `yaml:"app_env" env:"AIBVS_APP_ENV"`
	SeedData    bool           `yaml:"seed_data" env:"AIBVS_SEED_DATA" env-default:"true"`
	Watchdog    WatchdogConfig `yaml:"watchdog"`
	Logs        LogsConfig     `yaml:"logs"`
}

type WatchdogConfig struct {
	Enabled    bool          `yaml:"enabled" env:"AIBVS_WATCHDOG_ENABLED" env-default:"true"`
	Schedule   string        `yaml:"schedule" env:"AIBVS_WATCHDOG_SCHEDULE" env-default:"@every 5m"`
	StaleAfter time.Duration `yaml:"stale_after" env:"AIBVS_WATCHDOG_STALE_AFTER" env-default:"24h"`
}

type LogsConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"AIBVS_LOGS_DEFAULT_LIMIT" env-default:"100"`
	MaxLimit     int `yaml:"max_limit" env:"AIBVS_LOGS_MAX_LIMIT" env-default:"1000"`
}

const maxTokenTTL = 24 * time.Hour

func (c *AppConfig) EffectiveTokenTTL() time.Duration {
	ttl := maxTokenTTL
	if c != nil && c.TokenTTL > 0 {
		ttl = c.TokenTTL
	}
	if ttl > maxTokenTTL {
		return maxTokenTTL
	}
	return ttl
}
