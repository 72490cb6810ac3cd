package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bstardust/htgen/pkg/common"
	"github.com/bstardust/htgen/pkg/s3client"
)

// Config represents the application configuration
type Config struct {
	Env      string
	Version  string
	LogLevel string
	Server   ServerConfig
	Upload   UploadConfig
	Vertex   VertexConfig
	Geocode  GeocodeConfig
	Archive  ArchiveConfig
	Limit    RateLimitConfig
}

// ServerConfig represents the HTTP listener configuration
type ServerConfig struct {
	Host string
	Port int
}

// UploadConfig bounds what the endpoint accepts
type UploadConfig struct {
	MaxSize           int64
	AllowedExtensions []string
}

// VertexConfig represents the model connection
type VertexConfig struct {
	Project         string
	Region          string
	Model           string
	CredentialsFile string
}

// GeocodeConfig represents the reverse geocoding service
type GeocodeConfig struct {
	Enabled   bool
	URL       string
	UserAgent string
	Delay     time.Duration
	Timeout   time.Duration
}

// ArchiveConfig selects where uploads are kept. A bucket wins over a directory.
type ArchiveConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
	Dir       string
}

// RateLimitConfig is a per-client token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Production reports whether APP_ENV is production
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SetDefaults registers default values for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "1")
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("MAX_UPLOAD_SIZE", 20*1024*1024)
	v.SetDefault("ALLOWED_EXTENSIONS", "png,jpg,jpeg,webp,heic,heif")
	v.SetDefault("GOOGLE_CLOUD_REGION", "us-central1")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEOCODE_ENABLED", true)
	v.SetDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODE_USER_AGENT", "HTGen/1.0")
	v.SetDefault("GEOCODE_DELAY", time.Second)
	v.SetDefault("GEOCODE_TIMEOUT", 10*time.Second)
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 5)
}

// EnvFile returns the dotenv file for the environment: .env in production, .env.dev otherwise
func EnvFile(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		return ".env"
	}
	return ".env.dev"
}

// Load reads configuration from defaults, the dotenv file, the environment and any flags
// already bound to v, in increasing order of precedence. An empty envFile selects the file
// from APP_ENV. A missing file is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if envFile == "" {
		envFile = EnvFile(v.GetString("APP_ENV"))
	}
	if err := readEnvFile(v, envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:      strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		Version:  v.GetString("APP_VERSION"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Upload: UploadConfig{
			MaxSize:           v.GetInt64("MAX_UPLOAD_SIZE"),
			AllowedExtensions: splitList(v.GetString("ALLOWED_EXTENSIONS")),
		},
		Vertex: VertexConfig{
			Project:         v.GetString("GOOGLE_CLOUD_PROJECT"),
			Region:          v.GetString("GOOGLE_CLOUD_REGION"),
			Model:           v.GetString("GEMINI_MODEL"),
			CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Geocode: GeocodeConfig{
			Enabled:   v.GetBool("GEOCODE_ENABLED"),
			URL:       v.GetString("GEOCODE_URL"),
			UserAgent: v.GetString("GEOCODE_USER_AGENT"),
			Delay:     v.GetDuration("GEOCODE_DELAY"),
			Timeout:   v.GetDuration("GEOCODE_TIMEOUT"),
		},
		Archive: ArchiveConfig{
			Bucket:    v.GetString("BUCKET_NAME"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			Region:    v.GetString("S3_REGION"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			Prefix:    v.GetString("S3_PREFIX"),
			Dir:       v.GetString("UPLOAD_DIR"),
		},
		Limit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
		if cfg.Production() {
			cfg.LogLevel = "warning"
		}
	}

	return cfg, nil
}

func readEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings needed to serve requests
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vertex.Project) == "" {
		return common.NewConfigError("GOOGLE_CLOUD_PROJECT", "environment variable is not set")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return common.NewConfigError("SERVER_PORT", fmt.Sprintf("invalid port %d", c.Server.Port))
	}
	if c.Upload.MaxSize <= 0 {
		return common.NewConfigError("MAX_UPLOAD_SIZE", "must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return common.NewConfigError("ALLOWED_EXTENSIONS", "at least one extension is required")
	}
	if c.Limit.RPS < 0 {
		return common.NewConfigError("RATE_LIMIT_RPS", "must not be negative")
	}
	if c.Limit.RPS > 0 && c.Limit.Burst < 1 {
		return common.NewConfigError("RATE_LIMIT_BURST", "must be at least 1 when rate limiting is enabled")
	}
	if c.Archive.Bucket != "" {
		if err := s3client.ValidateBucketName(c.Archive.Bucket); err != nil {
			return common.NewConfigError("BUCKET_NAME", err.Error())
		}
	}
	if c.Archive.Bucket != "" && (c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
		return common.NewConfigError("S3_ACCESS_KEY", "access and secret keys are required when BUCKET_NAME is set")
	}
	return nil
}

// splitList parses "png, .JPG,jpeg" into lowercase extensions without dots
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
