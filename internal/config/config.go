// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ModelURL     string        `envconfig:"MODEL_URL" default:"http://localhost:5000"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	AllowOrigins []string      `envconfig:"ALLOW_ORIGINS" default:"http://localhost:3000"`

	Database DatabaseConfig `envconfig:"DB"`
	MinIO    MinIOConfig    `envconfig:"MINIO"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"keratoscan"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET" default:"keratoscan-scans"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}
