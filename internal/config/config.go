package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	Redis RedisConfig
	AWS   AWSConfig

	OTPTTL time.Duration

	SeedAdminEmail    string
	SeedAdminPassword string

	LogLevel  string
	LogFormat string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AWSConfig struct {
	Region    string
	EmailFrom string
	SMSSender string
}

// Load reads configuration from the environment, with a .env file as an
// optional source for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=fleettrack port=5432 sslmode=disable")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("AWS_REGION", "ap-south-1")
	viper.SetDefault("EMAIL_FROM", "noreply@fleettrack.local")
	viper.SetDefault("SMS_SENDER_ID", "FLTTRK")
	viper.SetDefault("OTP_TTL_SECONDS", 300)
	viper.SetDefault("SEED_ADMIN_EMAIL", "admin@fleettrack.local")
	viper.SetDefault("SEED_ADMIN_PASSWORD", "Admin@123")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	cfg := &Config{
		HTTPPort:    viper.GetString("HTTP_PORT"),
		DatabaseDSN: viper.GetString("DATABASE_DSN"),
		JWTSecret:   viper.GetString("JWT_SECRET"),
		CORSOrigins: viper.GetString("CORS_ALLOWED_ORIGINS"),
		Redis: RedisConfig{
			Address:  viper.GetString("REDIS_ADDRESS"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		AWS: AWSConfig{
			Region:    viper.GetString("AWS_REGION"),
			EmailFrom: viper.GetString("EMAIL_FROM"),
			SMSSender: viper.GetString("SMS_SENDER_ID"),
		},
		OTPTTL:            time.Duration(viper.GetInt("OTP_TTL_SECONDS")) * time.Second,
		SeedAdminEmail:    viper.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: viper.GetString("SEED_ADMIN_PASSWORD"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
		LogFormat:         viper.GetString("LOG_FORMAT"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}
