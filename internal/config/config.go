package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSecretKey = "dev-secret-key-change-me"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Mail     MailConfig
	Avatar   AvatarConfig
	MinIO    MinIOConfig
	Posts    PostsConfig

	// Warnings lists fallbacks applied while loading. Config is loaded
	// before the logger exists, so the caller logs them.
	Warnings []string
}

type ServerConfig struct {
	Port           string
	Environment    string
	PublicURL      string
	LoginRateLimit int
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	SecretKey     string
	ResetTokenTTL time.Duration
	SessionTTL    time.Duration
	RememberTTL   time.Duration
	BcryptCost    int
}

type RedisConfig struct {
	URL string
}

type RabbitMQConfig struct {
	URL string
}

type MailConfig struct {
	From string
}

type AvatarConfig struct {
	Dir string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type PostsConfig struct {
	PageSize int
}

// Enabled reports whether avatars should go to MinIO instead of the local directory.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("LOGIN_RATE_LIMIT", 20)

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "miniblog.db")

	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("RESET_TOKEN_TTL", 1800*time.Second)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("REMEMBER_TTL", 30*24*time.Hour)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAIL_FROM", "noreply@miniblog.local")

	v.SetDefault("AVATAR_DIR", "static/profile_pictures")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "miniblog-avatars")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("PAGE_SIZE", 5)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("APP_PORT"),
			Environment:    v.GetString("ENVIRONMENT"),
			PublicURL:      v.GetString("PUBLIC_URL"),
			LoginRateLimit: v.GetInt("LOGIN_RATE_LIMIT"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			SecretKey:     v.GetString("SECRET_KEY"),
			ResetTokenTTL: v.GetDuration("RESET_TOKEN_TTL"),
			SessionTTL:    v.GetDuration("SESSION_TTL"),
			RememberTTL:   v.GetDuration("REMEMBER_TTL"),
			BcryptCost:    v.GetInt("BCRYPT_COST"),
		},
		Redis:    RedisConfig{URL: v.GetString("REDIS_URL")},
		RabbitMQ: RabbitMQConfig{URL: v.GetString("RABBITMQ_URL")},
		Mail:     MailConfig{From: v.GetString("MAIL_FROM")},
		Avatar:   AvatarConfig{Dir: v.GetString("AVATAR_DIR")},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Posts: PostsConfig{PageSize: v.GetInt("PAGE_SIZE")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SecretKey == "" {
		if c.Server.IsProduction() {
			return errors.New("SECRET_KEY is required in production")
		}
		c.Warnings = append(c.Warnings, "SECRET_KEY not set, using an insecure development key")
		c.Auth.SecretKey = devSecretKey
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive, got %s", c.Auth.ResetTokenTTL)
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.RememberTTL <= 0 {
		return errors.New("SESSION_TTL and REMEMBER_TTL must be positive")
	}
	if c.Posts.PageSize <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid PAGE_SIZE %d, falling back to 5", c.Posts.PageSize))
		c.Posts.PageSize = 5
	}
	return nil
}
