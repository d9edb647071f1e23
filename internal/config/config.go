package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"GO_ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Redis (cache, token blacklist, chat change feed)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// R2 / S3
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	R2PublicURL       string `mapstructure:"R2_PUBLIC_URL"` // Custom domain

	// Chat
	ThreadCacheTTLSeconds int `mapstructure:"THREAD_CACHE_TTL_SECONDS"`

	// Optional AWS SSM prefix holding secrets, e.g. /rentitout/prod
	SSMParameterPrefix string `mapstructure:"SSM_PARAMETER_PREFIX"`
}

var AppConfig *Config

// defaults also registers every key so AutomaticEnv can populate Unmarshal.
var defaults = map[string]interface{}{
	"GO_ENV":                   "development",
	"PORT":                     "8080",
	"DATABASE_URL":             "",
	"JWT_SECRET":               "",
	"FRONTEND_URL":             "http://localhost:5173",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"R2_ACCOUNT_ID":            "",
	"R2_ACCESS_KEY_ID":         "",
	"R2_SECRET_ACCESS_KEY":     "",
	"R2_BUCKET_NAME":           "",
	"R2_PUBLIC_URL":            "",
	"THREAD_CACHE_TTL_SECONDS": 30,
	"SSM_PARAMETER_PREFIX":     "",
}

func LoadConfig() {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	AppConfig = cfg
}

// ThreadCacheTTL returns the cache lifetime for loaded chat threads.
func (c *Config) ThreadCacheTTL() time.Duration {
	if c.ThreadCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ThreadCacheTTLSeconds) * time.Second
}

// StorageConfigured reports whether object storage credentials are present.
func (c *Config) StorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
