package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultListenAddr       = ":8080"
	DefaultAccessTokenTTL   = 24 * time.Hour
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
	DefaultAuditRetention   = 90 * 24 * time.Hour
	DefaultPurgeInterval    = time.Hour
)

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"maxConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwtSecret"`
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	LockoutThreshold int           `mapstructure:"lockoutThreshold"`
	LockoutDuration  time.Duration `mapstructure:"lockoutDuration"`
}

type HashConfig struct {
	ArgonMemory      uint32 `mapstructure:"argonMemory"`
	ArgonIterations  uint32 `mapstructure:"argonIterations"`
	ArgonParallelism uint8  `mapstructure:"argonParallelism"`
	BcryptCost       int    `mapstructure:"bcryptCost"`
}

type AuditConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	PurgeInterval time.Duration `mapstructure:"purgeInterval"`
}

type Config struct {
	Env        string         `mapstructure:"env"`
	ListenAddr string         `mapstructure:"listenAddr"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Hash       HashConfig     `mapstructure:"hash"`
	Audit      AuditConfig    `mapstructure:"audit"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables (KOULIO_ prefix, dots become
// underscores). The JWT secret and database URL have no defaults; Validate
// rejects a config without them.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("KOULIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("listenAddr", DefaultListenAddr)
	// Empty defaults so AutomaticEnv can bind keys absent from the file.
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.connMaxLifetime", time.Hour)
	v.SetDefault("auth.accessTokenTTL", DefaultAccessTokenTTL)
	v.SetDefault("auth.refreshTokenTTL", DefaultRefreshTokenTTL)
	v.SetDefault("auth.lockoutThreshold", DefaultLockoutThreshold)
	v.SetDefault("auth.lockoutDuration", DefaultLockoutDuration)
	v.SetDefault("hash.argonMemory", 64*1024)
	v.SetDefault("hash.argonIterations", 3)
	v.SetDefault("hash.argonParallelism", 1)
	v.SetDefault("hash.bcryptCost", 12)
	v.SetDefault("audit.retention", DefaultAuditRetention)
	v.SetDefault("audit.purgeInterval", DefaultPurgeInterval)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required (KOULIO_AUTH_JWTSECRET)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (KOULIO_DATABASE_URL)")
	}
	return nil
}
