package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs. It is built once in the CLI
// and passed explicitly to every constructor.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Matching  MatchingConfig  `yaml:"matching"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" default:"0.0.0.0"`
	Port           int      `yaml:"port" default:"8080"`
	SecretKey      string   `yaml:"secret_key"` // signs flash cookies; random per process if empty
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" default:"5"` // upload requests per second, 0 disables
	Burst          int      `yaml:"burst" default:"10"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" default:"mysql"` // mysql, postgres or sqlite
	URL          string `yaml:"url"`                    // DSN for the selected driver
	MaxOpenConns int    `yaml:"max_open_conns" default:"25"`
	MaxIdleConns int    `yaml:"max_idle_conns" default:"5"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend" default:"local"` // local or s3
	Dir       string `yaml:"dir" default:"static/uploads"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible endpoint, e.g. minio:9000
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket" default:"face-registry"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ExtractorConfig struct {
	Backend        string `yaml:"backend" default:"http"` // http or dlib
	URL            string `yaml:"url" default:"http://localhost:8000"`
	ModelsDir      string `yaml:"models_dir" default:"models"` // dlib model files
	TimeoutSeconds int    `yaml:"timeout_seconds" default:"60"`
	MaxImageSize   int    `yaml:"max_image_size" default:"1920"`
}

type MatchingConfig struct {
	Tolerance float64 `yaml:"tolerance" default:"0.5"`
	Index     string  `yaml:"index" default:"linear"` // linear or hnsw
	Workers   int     `yaml:"workers" default:"5"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"text"` // text or json
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a float. Unlike envInt an unparsable value is an error, so
// a typo cannot silently change matching strictness. Range checks are left
// to Validate.
func envFloat(key string, defaultVal float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultVal, fmt.Errorf("%s: invalid number %q", key, s)
	}
	return f, nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultVal
}

// Load builds the configuration: struct defaults, then the optional YAML file
// named by FACE_REGISTRY_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if path := os.Getenv("FACE_REGISTRY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs error
	cfg.Server.Host = envString("WEB_HOST", cfg.Server.Host)
	cfg.Server.Port = envInt("WEB_PORT", cfg.Server.Port)
	cfg.Server.SecretKey = envString("SECRET_KEY", cfg.Server.SecretKey)
	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		cfg.Server.AllowedOrigins = nil
		for o := range strings.SplitSeq(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}
	var err error
	cfg.Server.RateLimit, err = envFloat("WEB_RATE_LIMIT", cfg.Server.RateLimit)
	errs = multierr.Append(errs, err)
	cfg.Server.Burst = envInt("WEB_RATE_BURST", cfg.Server.Burst)

	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = envString("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Storage.Backend = envString("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Dir = envString("UPLOAD_FOLDER", cfg.Storage.Dir)
	cfg.Storage.Endpoint = envString("S3_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = envString("S3_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = envString("S3_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.Bucket = envString("S3_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.UseSSL = envBool("S3_USE_SSL", cfg.Storage.UseSSL)

	cfg.Extractor.Backend = envString("EXTRACTOR_BACKEND", cfg.Extractor.Backend)
	cfg.Extractor.URL = envString("EMBEDDING_URL", cfg.Extractor.URL)
	cfg.Extractor.ModelsDir = envString("EXTRACTOR_MODELS_DIR", cfg.Extractor.ModelsDir)
	cfg.Extractor.TimeoutSeconds = envInt("EXTRACTOR_TIMEOUT_SECONDS", cfg.Extractor.TimeoutSeconds)
	cfg.Extractor.MaxImageSize = envInt("EXTRACTOR_MAX_IMAGE_SIZE", cfg.Extractor.MaxImageSize)

	cfg.Matching.Tolerance, err = envFloat("MATCH_TOLERANCE", cfg.Matching.Tolerance)
	errs = multierr.Append(errs, err)
	cfg.Matching.Index = envString("MATCHER_INDEX", cfg.Matching.Index)
	cfg.Matching.Workers = envInt("REGISTRY_WORKERS", cfg.Matching.Workers)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envString("LOG_FORMAT", cfg.Log.Format)

	if errs != nil {
		return fmt.Errorf("invalid environment: %w", errs)
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Matching.Tolerance < 0 || math.IsNaN(c.Matching.Tolerance) {
		return fmt.Errorf("matching tolerance must be non-negative, got %v", c.Matching.Tolerance)
	}
	if c.Matching.Workers <= 0 {
		return errors.New("matching workers must be positive")
	}
	switch c.Matching.Index {
	case "linear", "hnsw":
	default:
		return fmt.Errorf("unknown matcher index %q", c.Matching.Index)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Extractor.Backend {
	case "http", "dlib":
	default:
		return fmt.Errorf("unknown extractor backend %q", c.Extractor.Backend)
	}
	return nil
}

// Addr returns the listen address for the web server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
