package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, read from the environment with
// an optional .env file for local development.
type Config struct {
	AppSecret       string
	VerifyToken     string
	PageAccessToken string
	GraphAPIURL     string
	DatabaseURL     string
	Port            string
	GrammarPath     string
}

// Load reads configuration. The three platform credentials are required;
// the process must not serve traffic without them.
func Load() (*Config, error) {
	// A missing .env file is fine outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		AppSecret:       os.Getenv("MESSENGER_APP_SECRET"),
		VerifyToken:     os.Getenv("MESSENGER_VALIDATION_TOKEN"),
		PageAccessToken: os.Getenv("MESSENGER_PAGE_ACCESS_TOKEN"),
		GraphAPIURL:     os.Getenv("GRAPH_API_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Port:            os.Getenv("PORT"),
		GrammarPath:     os.Getenv("GRAMMAR_PATH"),
	}

	var missing []string
	if cfg.AppSecret == "" {
		missing = append(missing, "MESSENGER_APP_SECRET")
	}
	if cfg.VerifyToken == "" {
		missing = append(missing, "MESSENGER_VALIDATION_TOKEN")
	}
	if cfg.PageAccessToken == "" {
		missing = append(missing, "MESSENGER_PAGE_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing config values: %s", strings.Join(missing, ", "))
	}

	if cfg.GraphAPIURL == "" {
		cfg.GraphAPIURL = "https://graph.facebook.com/v2.6"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return cfg, nil
}
