package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/contentcheck/internal/doctree"
)

// Report formats understood by the reporter.
const (
	ReportText  = "text"
	ReportJSONL = "jsonl"
	ReportYAML  = "yaml"
)

// DefaultIgnoreLinks skips static assets that are not content documents.
var DefaultIgnoreLinks = []string{
	"**/*.{png,jpg,jpeg,gif,svg,webp,avif,ico}",
	"**/*.{pdf,zip,txt,xml,json,css,js,woff,woff2}",
}

type Config struct {
	// Scan
	Roots        []string
	Format       doctree.Format
	Include      []string
	Exclude      []string
	OrderingFile string

	// Rules
	Rules               []string
	SkipRules           []string
	IgnoreLinks         []string
	BasePath            string
	RequiredFrontmatter []string

	// Output
	ReportFormat string
	Strict       bool

	// Extraction fan-out
	Workers int

	// Report server
	Port         string
	APIKey       string
	MaxQueueSize int
	RunTTL       time.Duration
}

func Load() Config {
	cfg := Config{
		Format:       parseFormatOr(os.Getenv("VALIDATE_FORMAT"), doctree.FormatMarkdown),
		Include:      envList("VALIDATE_INCLUDE"),
		Exclude:      envList("VALIDATE_EXCLUDE"),
		OrderingFile: os.Getenv("VALIDATE_ORDERING_FILE"),

		Rules:               envList("VALIDATE_RULES"),
		SkipRules:           envList("VALIDATE_SKIP_RULES"),
		IgnoreLinks:         envList("VALIDATE_IGNORE_LINKS"),
		BasePath:            os.Getenv("VALIDATE_BASE_PATH"),
		RequiredFrontmatter: envList("VALIDATE_REQUIRED_FRONTMATTER"),

		ReportFormat: strings.ToLower(envOr("VALIDATE_REPORT", ReportText)),
		Strict:       envBool("VALIDATE_STRICT", false),

		Workers: envInt("VALIDATE_WORKERS", 4),

		Port:         envOr("PORT", "8091"),
		APIKey:       os.Getenv("VALIDATE_API_KEY"),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),
		RunTTL:       envDuration("RUN_TTL", 1*time.Hour),
	}

	if cfg.IgnoreLinks == nil {
		cfg.IgnoreLinks = DefaultIgnoreLinks
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings that would otherwise fail halfway through a run.
func (c Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one root directory is required")
	}
	if _, err := doctree.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	switch c.ReportFormat {
	case ReportText, ReportJSONL, ReportYAML:
	default:
		return fmt.Errorf("unknown report format %q (want text, jsonl or yaml)", c.ReportFormat)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	for _, p := range c.IgnoreLinks {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore-link pattern %q", p)
		}
	}
	return nil
}

func parseFormatOr(v string, fallback doctree.Format) doctree.Format {
	if v == "" {
		return fallback
	}
	if f, err := doctree.ParseFormat(v); err == nil {
		return f
	}
	// Left as given so Validate can report it.
	return doctree.Format(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
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

// envList splits a comma-separated variable. Unset or blank yields nil.
func envList(key string) []string {
	return SplitList(os.Getenv(key))
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
