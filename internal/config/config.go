package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding an optional YAML config path
const ConfigFileEnv = "NEWS_INSPECTOR_CONFIG"

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	DetectionTimeout   time.Duration `yaml:"detection_timeout"`
	GenerationTimeout  time.Duration `yaml:"generation_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	LogLevel           string        `yaml:"log_level"`

	Classifier ClassifierConfig `yaml:"classifier"`
	GenAI      GenAIConfig      `yaml:"genai"`
	FactCheck  FactCheckConfig  `yaml:"fact_check"`
	Storage    StorageConfig    `yaml:"storage"`
	Batch      BatchConfig      `yaml:"batch"`
}

type ClassifierConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type GenAIConfig struct {
	APIKey        string `yaml:"api_key"`
	TextModel     string `yaml:"text_model"`
	ImageModel    string `yaml:"image_model"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`
}

type FactCheckConfig struct {
	HitRate float64       `yaml:"hit_rate"`
	Latency time.Duration `yaml:"latency"`
}

type StorageConfig struct {
	Provider string      `yaml:"provider"`
	Folder   string      `yaml:"folder"`
	Azure    AzureConfig `yaml:"azure"`
	S3       S3Config    `yaml:"s3"`
	GCS      GCSConfig   `yaml:"gcs"`
}

type AzureConfig struct {
	AccountName string `yaml:"account_name"`
	AccountKey  string `yaml:"account_key"`
	Container   string `yaml:"container"`
	ServiceURL  string `yaml:"service_url"`
}

type S3Config struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

type GCSConfig struct {
	ProjectID       string `yaml:"project_id"`
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

type BatchConfig struct {
	// Concurrency caps in-flight generations per batch; 0 means unbounded
	Concurrency int `yaml:"concurrency"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     30 * time.Second,
		DetectionTimeout:   45 * time.Second,
		GenerationTimeout:  120 * time.Second,
		MaxRequestBodySize: 1 * 1024 * 1024, // 1MB
		LogLevel:           "info",
		Classifier: ClassifierConfig{
			Timeout: 15 * time.Second,
		},
		GenAI: GenAIConfig{
			TextModel:     "gemini-2.5-flash",
			ImageModel:    "gemini-2.5-flash-image",
			MaxToolRounds: 3,
		},
		FactCheck: FactCheckConfig{
			HitRate: 0.3,
			Latency: 400 * time.Millisecond,
		},
		Storage: StorageConfig{
			Provider: "azure",
			Folder:   "generated",
			S3:       S3Config{Region: "us-east-1"},
		},
	}
}

// LoadFromEnv loads defaults, then the YAML file named by
// NEWS_INSPECTOR_CONFIG, then .env and the process environment
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(ConfigFileEnv))
}

// Load is LoadFromEnv with an explicit YAML path; empty skips the file
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Host = getEnvOrDefault("HOST", c.Host)
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	c.DetectionTimeout = parseDurationOrDefault("DETECTION_TIMEOUT", c.DetectionTimeout)
	c.GenerationTimeout = parseDurationOrDefault("GENERATION_TIMEOUT", c.GenerationTimeout)
	c.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", c.MaxRequestBodySize)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)

	c.Classifier.Endpoint = getEnvOrDefault("CLASSIFIER_ENDPOINT", c.Classifier.Endpoint)
	c.Classifier.APIKey = getEnvOrDefault("CLASSIFIER_API_KEY", c.Classifier.APIKey)
	c.Classifier.Timeout = parseDurationOrDefault("CLASSIFIER_TIMEOUT", c.Classifier.Timeout)

	c.GenAI.APIKey = getEnvOrDefault("GEMINI_API_KEY", c.GenAI.APIKey)
	c.GenAI.TextModel = getEnvOrDefault("GEMINI_TEXT_MODEL", c.GenAI.TextModel)
	c.GenAI.ImageModel = getEnvOrDefault("GEMINI_IMAGE_MODEL", c.GenAI.ImageModel)
	c.GenAI.MaxToolRounds = int(parseIntOrDefault("DETECTION_MAX_TOOL_ROUNDS", int64(c.GenAI.MaxToolRounds)))

	c.FactCheck.HitRate = parseFloatOrDefault("FACTCHECK_HIT_RATE", c.FactCheck.HitRate)
	c.FactCheck.Latency = parseDurationOrDefault("FACTCHECK_LATENCY", c.FactCheck.Latency)

	c.Storage.Provider = strings.ToLower(getEnvOrDefault("STORAGE_PROVIDER", c.Storage.Provider))
	c.Storage.Folder = getEnvOrDefault("STORAGE_FOLDER", c.Storage.Folder)

	c.Storage.Azure.AccountName = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", c.Storage.Azure.AccountName)
	c.Storage.Azure.AccountKey = getEnvOrDefault("AZURE_STORAGE_KEY", c.Storage.Azure.AccountKey)
	c.Storage.Azure.Container = getEnvOrDefault("AZURE_STORAGE_CONTAINER", c.Storage.Azure.Container)
	c.Storage.Azure.ServiceURL = getEnvOrDefault("AZURE_STORAGE_SERVICE_URL", c.Storage.Azure.ServiceURL)

	c.Storage.S3.AccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", c.Storage.S3.AccessKeyID)
	c.Storage.S3.SecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", c.Storage.S3.SecretAccessKey)
	c.Storage.S3.Bucket = getEnvOrDefault("S3_BUCKET", c.Storage.S3.Bucket)
	c.Storage.S3.Region = getEnvOrDefault("AWS_REGION", c.Storage.S3.Region)
	c.Storage.S3.Endpoint = getEnvOrDefault("S3_ENDPOINT", c.Storage.S3.Endpoint)
	c.Storage.S3.PublicBaseURL = getEnvOrDefault("S3_PUBLIC_BASE_URL", c.Storage.S3.PublicBaseURL)

	c.Storage.GCS.ProjectID = getEnvOrDefault("GCS_PROJECT_ID", c.Storage.GCS.ProjectID)
	c.Storage.GCS.Bucket = getEnvOrDefault("GCS_BUCKET", c.Storage.GCS.Bucket)
	c.Storage.GCS.CredentialsFile = getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", c.Storage.GCS.CredentialsFile)
	c.Storage.GCS.Endpoint = getEnvOrDefault("GCS_ENDPOINT", c.Storage.GCS.Endpoint)
	c.Storage.GCS.PublicBaseURL = getEnvOrDefault("GCS_PUBLIC_BASE_URL", c.Storage.GCS.PublicBaseURL)

	c.Batch.Concurrency = int(parseIntOrDefault("BATCH_CONCURRENCY", int64(c.Batch.Concurrency)))
}

// Validate checks server settings. Provider credentials are not checked
// here; their absence is reported per call.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.DetectionTimeout <= 0 || c.GenerationTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, detection=%s, generation=%s)",
			c.RequestTimeout, c.DetectionTimeout, c.GenerationTimeout)
	}
	if c.FactCheck.HitRate < 0 || c.FactCheck.HitRate > 1 {
		return fmt.Errorf("FACTCHECK_HIT_RATE must be within [0,1] (got %g)", c.FactCheck.HitRate)
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be >= 0 (got %d)", c.Batch.Concurrency)
	}
	switch c.Storage.Provider {
	case "azure", "s3", "gcs":
	default:
		return fmt.Errorf("invalid STORAGE_PROVIDER: %q (expected azure, s3 or gcs)", c.Storage.Provider)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
