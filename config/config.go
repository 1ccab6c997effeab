// Package config loads runtime settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDatabaseURL     = "axieST.db"
	DefaultAPIURL          = "https://game-api.axie.technology/api/v1"
	DefaultAPITimeout      = 30 * time.Second
	DefaultCollectInterval = 24 * time.Hour
	DefaultHTTPAddr        = ":5300"
	DefaultExportDir       = "exports"
	DefaultExportRegion    = "auto"
	DefaultLogLevel        = "info"
)

type Config struct {
	DatabaseURL     string
	APIURL          string
	APITimeout      time.Duration
	CollectInterval time.Duration
	HTTPAddr        string
	APIToken        string
	LogLevel        string
	Export          ExportConfig

	// DotenvLoaded reports whether a .env file was found.
	DotenvLoaded bool
}

// ExportConfig controls where export-tracks writes its CSV reports.
// With an empty Bucket reports go to Dir on the local disk.
type ExportConfig struct {
	Dir             string
	Bucket          string
	Endpoint        string // custom S3 endpoint, e.g. a Cloudflare R2 account URL
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads .env files (missing files are not an error) and then the
// process environment.
func Load(files ...string) (*Config, error) {
	cfg := &Config{}
	err := godotenv.Load(files...)
	switch {
	case err == nil:
		cfg.DotenvLoaded = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", DefaultDatabaseURL)
	cfg.APIURL = strings.TrimRight(getEnv("AXIE_API_URL", DefaultAPIURL), "/")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", DefaultHTTPAddr)
	cfg.APIToken = os.Getenv("API_TOKEN")
	cfg.LogLevel = getEnv("LOG_LEVEL", DefaultLogLevel)

	if cfg.APITimeout, err = getDuration("AXIE_API_TIMEOUT", DefaultAPITimeout); err != nil {
		return nil, err
	}
	if cfg.CollectInterval, err = getDuration("COLLECT_INTERVAL", DefaultCollectInterval); err != nil {
		return nil, err
	}

	cfg.Export = ExportConfig{
		Dir:             getEnv("EXPORT_DIR", DefaultExportDir),
		Bucket:          os.Getenv("EXPORT_BUCKET"),
		Endpoint:        os.Getenv("EXPORT_ENDPOINT"),
		Region:          getEnv("EXPORT_REGION", DefaultExportRegion),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}
