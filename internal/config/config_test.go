package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/htgen/pkg/common"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, int64(20971520), cfg.Upload.MaxSize)
	assert.Equal(t, []string{"png", "jpg", "jpeg", "webp", "heic", "heif"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, "us-central1", cfg.Vertex.Region)
	assert.Equal(t, "gemini-1.5-flash", cfg.Vertex.Model)
	assert.True(t, cfg.Geocode.Enabled)
	assert.Equal(t, "HTGen/1.0", cfg.Geocode.UserAgent)
	assert.Equal(t, time.Second, cfg.Geocode.Delay)
	assert.Equal(t, 10*time.Second, cfg.Geocode.Timeout)
	assert.Zero(t, cfg.Limit.RPS)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte(
		"GOOGLE_CLOUD_PROJECT=from-file\nGEMINI_MODEL=gemini-pro-vision\nGEOCODE_DELAY=250ms\n",
	), 0o644))
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")
	t.Setenv("ALLOWED_EXTENSIONS", " .PNG, jpg ,,")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Vertex.Project)
	assert.Equal(t, "gemini-1.5-pro", cfg.Vertex.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocode.Delay)
	assert.Equal(t, []string{"png", "jpg"}, cfg.Upload.AllowedExtensions)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	require.NoError(t, flags.Parse([]string{"--port", "9999"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("SERVER_PORT", flags.Lookup("port")))

	cfg, err := Load(v, missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadProduction(t *testing.T) {
	t.Setenv("APP_ENV", "Production")

	cfg, err := Load(viper.New(), missingFile(t))
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, "warning", cfg.LogLevel)
}

func TestEnvFile(t *testing.T) {
	assert.Equal(t, ".env", EnvFile("production"))
	assert.Equal(t, ".env.dev", EnvFile("development"))
	assert.Equal(t, ".env.dev", EnvFile(""))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(viper.New(), missingFile(t))
		require.NoError(t, err)
		cfg.Vertex.Project = "my-project"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"missing project", func(c *Config) { c.Vertex.Project = " " }, "GOOGLE_CLOUD_PROJECT"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"zero upload size", func(c *Config) { c.Upload.MaxSize = 0 }, "MAX_UPLOAD_SIZE"},
		{"no extensions", func(c *Config) { c.Upload.AllowedExtensions = nil }, "ALLOWED_EXTENSIONS"},
		{"negative rate", func(c *Config) { c.Limit.RPS = -1 }, "RATE_LIMIT_RPS"},
		{"zero burst", func(c *Config) { c.Limit.RPS = 2; c.Limit.Burst = 0 }, "RATE_LIMIT_BURST"},
		{"bad bucket name", func(c *Config) { c.Archive.Bucket = "My_Bucket" }, "BUCKET_NAME"},
		{"bucket without keys", func(c *Config) { c.Archive.Bucket = "htgen-uploads" }, "S3_ACCESS_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			var cfgErr *common.ConfigError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}
