package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultEnvFile     = ".env"
	DefaultAddr        = "127.0.0.1:5000"
	DefaultTemplateDir = "templates"
	DefaultStaticDir   = "static"
	DefaultCORSOrigins = "*"
)

// Config holds environment-driven configuration. It is built once at
// start-up and never mutated afterwards.
type Config struct {
	Addr        string
	Dev         bool
	TemplateDir string
	StaticDir   string
	CORSOrigins string

	// FirebaseAPIKey is nil when FIREBASE_API_KEY is unset.
	FirebaseAPIKey *string
}

// Load layers envFile (when it exists) under the process environment and
// reads configuration from the result. Variables already set in the
// environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	dev := true
	if v, ok := os.LookupEnv("COOKTIMER_DEV"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse COOKTIMER_DEV: %w", err)
		}
		dev = parsed
	}

	cfg := Config{
		Addr:        getenv("COOKTIMER_ADDR", DefaultAddr),
		Dev:         dev,
		TemplateDir: getenv("COOKTIMER_TEMPLATES", DefaultTemplateDir),
		StaticDir:   getenv("COOKTIMER_STATIC", DefaultStaticDir),
		CORSOrigins: getenv("COOKTIMER_CORS_ORIGINS", DefaultCORSOrigins),
	}
	if key, ok := os.LookupEnv("FIREBASE_API_KEY"); ok {
		cfg.FirebaseAPIKey = &key
	}

	return cfg, nil
}

// FirebaseKey returns the API key, or "" when it is unset.
func (c Config) FirebaseKey() string {
	if c.FirebaseAPIKey == nil {
		return ""
	}
	return *c.FirebaseAPIKey
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
