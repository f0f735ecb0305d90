package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig
	Gateway     GatewayConfig
	Database    DatabaseConfig `envPrefix:"DB_"`
	Redis       RedisConfig    `envPrefix:"REDIS_"`
	Log         LogConfig      `envPrefix:"LOG_"`
}

type BasicConfig struct {
	ServerAddress  string        `env:"SERVER_ADDRESS" envDefault:":5001"`
	UploadDir      string        `env:"UPLOAD_FOLDER" envDefault:"uploads"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	SessionStore   string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// GatewayConfig describes the translation backend.
type GatewayConfig struct {
	URL            string        `env:"BACKEND_API,required"`
	BucketName     string        `env:"BUCKET_NAME" envDefault:"nhngobhz_bucket"`
	TargetLanguage string        `env:"TARGET_LANGUAGE" envDefault:"en"`
	Timeout        time.Duration `env:"BACKEND_TIMEOUT" envDefault:"2m"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"postgres"`
	DBName      string `env:"NAME"`
	Username    string `env:"USER"`
	Password    string `env:"PASSWORD"`
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"5432"`
	SSLMode     string `env:"SSLMODE" envDefault:"disable"`
	Path        string `env:"PATH" envDefault:"data/translations.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load reads configuration from the environment. Files passed in (default .env)
// are loaded first; variables already set in the process take precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Gateway.URL); err != nil {
		return fmt.Errorf("BACKEND_API must be an absolute url: %w", err)
	}
	switch c.BasicConfig.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session store: %s", c.BasicConfig.SessionStore)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "mysql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported driver: %s", c.Database.Driver)
	}
	if c.BasicConfig.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// DriverName returns the database/sql driver name for the configured dialect.
func (d DatabaseConfig) DriverName() string {
	switch strings.ToLower(d.Driver) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return strings.ToLower(d.Driver)
	}
}

// DSN builds the connection string handed to sql.Open.
func (d DatabaseConfig) DSN() string {
	switch d.DriverName() {
	case "sqlite3":
		return d.Path
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = d.Username
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		mc.DBName = d.DBName
		mc.ParseTime = true
		return mc.FormatDSN()
	default:
		return d.postgresURL().String()
	}
}

// MigrationURL is the database url understood by golang-migrate.
func (d DatabaseConfig) MigrationURL() string {
	switch d.DriverName() {
	case "sqlite3":
		return "sqlite3://" + d.Path
	case "mysql":
		return "mysql://" + d.DSN()
	default:
		return d.postgresURL().String()
	}
}

func (d DatabaseConfig) postgresURL() *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.DBName,
	}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u
}
