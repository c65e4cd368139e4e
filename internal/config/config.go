package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docquery/internal/document"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Extractions running at once; further requests get 503.
	MaxConcurrentExtract int

	// Run history
	RunsDBPath string
	RunsMaxAge time.Duration

	// Tree construction
	Tree document.Settings

	// Latency stats window
	StatsWindow time.Duration
}

func Load() Config {
	def := document.DefaultSettings()
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCQUERY_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 4),

		RunsDBPath: envOr("RUNS_DB_PATH", "data/runs.db"),
		RunsMaxAge: envDuration("RUNS_MAX_AGE", 30*24*time.Hour),

		Tree: document.Settings{
			MergeTags:       envList("MERGE_TAGS", def.MergeTags),
			RoundFloats:     envBool("ROUND_FLOATS", def.RoundFloats),
			RoundDigits:     envInt("ROUND_DIGITS", def.RoundDigits),
			NormalizeSpaces: envBool("NORMALIZE_SPACES", def.NormalizeSpaces),
			FoldUnicode:     envBool("FOLD_UNICODE", false),
			Resort:          envBool("RESORT", def.Resort),
		},

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 4
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCQUERY_API_KEY is required")
	}
	if c.Tree.RoundDigits < 0 || c.Tree.RoundDigits > 15 {
		return fmt.Errorf("ROUND_DIGITS must be between 0 and 15, got %d", c.Tree.RoundDigits)
	}
	if c.RunsDBPath == "" {
		return fmt.Errorf("RUNS_DB_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envList reads a comma-separated list. A variable set to "none" yields an
// empty list.
func envList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return []string{}
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
