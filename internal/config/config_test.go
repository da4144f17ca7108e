package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_PROVIDER", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.GenAI.MaxToolRounds)
	assert.Equal(t, 0.3, cfg.FactCheck.HitRate)
	assert.Equal(t, "generated", cfg.Storage.Folder)
	assert.Equal(t, 0, cfg.Batch.Concurrency)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspector.yaml")
	yamlDoc := `
port: "9090"
generation_timeout: 90s
classifier:
  endpoint: http://classifier.internal/predict
  timeout: 5s
storage:
  provider: s3
  s3:
    bucket: news-images
    region: eu-west-1
batch:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("STORAGE_PROVIDER", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("S3_BUCKET", "override-bucket")
	t.Setenv("BATCH_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "http://classifier.internal/predict", cfg.Classifier.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, "override-bucket", cfg.Storage.S3.Bucket, "env wins over file")
	assert.Equal(t, 2, cfg.Batch.Concurrency)
}

func TestLoadFromEnv_UsesConfigFileVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_PROVIDER", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port not numeric", func(c *Config) { c.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Port = "70000" }, true},
		{"zero body size", func(c *Config) { c.MaxRequestBodySize = 0 }, true},
		{"zero generation timeout", func(c *Config) { c.GenerationTimeout = 0 }, true},
		{"hit rate above one", func(c *Config) { c.FactCheck.HitRate = 1.5 }, true},
		{"negative concurrency", func(c *Config) { c.Batch.Concurrency = -1 }, true},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "ftp" }, true},
		{"gcs provider", func(c *Config) { c.Storage.Provider = "gcs" }, false},
		{"missing credentials are not a load error", func(c *Config) { c.Storage.Azure = AzureConfig{} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseHelpers_IgnoreGarbage(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	t.Setenv("X_INT", "many")
	t.Setenv("X_FLOAT", "half")

	assert.Equal(t, time.Second, parseDurationOrDefault("X_DURATION", time.Second))
	assert.Equal(t, int64(7), parseIntOrDefault("X_INT", 7))
	assert.Equal(t, 0.5, parseFloatOrDefault("X_FLOAT", 0.5))
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 127.0.0.1 ", Port: "8080 "}
	assert.Equal(t, "127.0.0.1:8080", cfg.ServerAddress())
}
