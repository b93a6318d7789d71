// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port      string
	DataDir   string
	OutputDir string

	LogLevel       string
	LogDevelopment bool

	// Workers is the smoothing worker count.
	Workers int

	NCOBinDir string

	NSIDCServer   string
	NSIDCProtocol string
	EarthdataUser string
	EarthdataPass string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	workers, err := intEnv("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", workers)
	}

	logDev, err := boolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return nil, err
	}

	protocol := getEnv("NSIDC_PROTOCOL", "https")
	if protocol != "http" && protocol != "https" {
		return nil, fmt.Errorf("NSIDC_PROTOCOL must be http or https, got %q", protocol)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		OutputDir:          getEnv("OUTPUT_DIR", "./output"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDevelopment:     logDev,
		Workers:            workers,
		NCOBinDir:          os.Getenv("NCO_BIN_DIR"),
		NSIDCServer:        getEnv("NSIDC_SERVER", "n5eil01u.ecs.nsidc.org"),
		NSIDCProtocol:      protocol,
		EarthdataUser:      os.Getenv("EARTHDATA_USERNAME"),
		EarthdataPass:      os.Getenv("EARTHDATA_PASSWORD"),
		CORSAllowedOrigins: SplitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
