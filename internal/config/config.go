// Package config loads the pipeline's run configuration from CLI flags
// (bound through Viper so every flag also has an environment fallback) plus
// a handful of infra DSNs that remain environment-only, following the
// teacher repo's getEnvOrDefault convention for shared-daemon addresses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// OCRMode is the --with-ocr tri-state.
type OCRMode string

const (
	OCRAuto OCRMode = "auto"
	OCROn   OCRMode = "on"
	OCROff  OCRMode = "off"
)

// DispatchBackend selects the Run Dispatcher implementation.
type DispatchBackend string

const (
	DispatchLocal DispatchBackend = "local"
	DispatchAsynq DispatchBackend = "asynq"
)

// Config is the fully resolved configuration for one pipeline invocation.
type Config struct {
	InputRoot  string
	OutputRoot string

	WithOCR    OCRMode
	OCRLang    string
	OCRDPI     int
	LawMode    string
	KeepLines  []string
	DumpSteps  bool
	Artifacts  bool
	PerDocDir  bool
	Strict     bool
	GroundTruth string

	Concurrency int
	Dispatch    DispatchBackend
	Cache       bool
	Ledger      bool
	Index       bool
	EnvFile     string

	// Infra DSNs, environment-only: these name shared daemons rather than
	// per-run behavior, so they are never bound to CLI flags.
	RedisURL         string
	DatabaseURL      string
	QdrantURL        string
	QdrantCollection string

	// CISampleSuspects caps OCR work per document; 0 means unlimited.
	CISampleSuspects int
}

// BindFlags registers every CLI flag named in the spec's CLI surface (plus
// the additive ambient/domain ones) onto the given flag set and binds them
// into v so environment variables (LAWDOCS_*) act as fallbacks.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.String("with-ocr", string(OCRAuto), "on, off, or auto")
	fs.String("ocr-lang", "ind", "tesseract language tag")
	fs.Int("ocr-dpi", 300, "rasterization DPI for OCR")
	fs.String("law-mode", "auto", "cleanup/promotion mode")
	fs.StringArray("keep-lines", nil, "regex of lines the suppressor must never remove (repeatable)")
	fs.Bool("dump-steps", false, "keep an existing artifacts/ subtree (no step files are written)")
	fs.String("artifacts", "off", "on or off: keep an existing artifacts/ subtree (OCR page images are not copied into it)")
	fs.String("per-doc-dir", "on", "on or off: nest outputs under <doc_id>/")
	fs.Bool("strict", false, "non-zero exit on KPI violation")
	fs.String("ground-truth", "", "optional ground-truth fixture for --strict landmark KPIs")

	fs.Int("concurrency", 0, "local dispatcher worker count (0 = NumCPU)")
	fs.String("dispatch", string(DispatchLocal), "local or asynq")
	fs.String("cache", "off", "on or off: Redis fingerprint cache")
	fs.String("ledger", "off", "on or off: Postgres run ledger")
	fs.String("index", "off", "on or off: Qdrant quality index")
	fs.String("env-file", ".env.lawdocs", "dotenv file loaded after flag parsing, before the configuration is resolved")

	v.SetEnvPrefix("LAWDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(fs)
}

// Load resolves a Config from parsed flags plus the environment-only infra
// variables. inputRoot/outputRoot are positional CLI arguments, not flags.
func Load(v *viper.Viper, inputRoot, outputRoot string) (*Config, error) {
	cfg := &Config{
		InputRoot:        inputRoot,
		OutputRoot:       outputRoot,
		WithOCR:          OCRMode(v.GetString("with-ocr")),
		OCRLang:          v.GetString("ocr-lang"),
		OCRDPI:           v.GetInt("ocr-dpi"),
		LawMode:          v.GetString("law-mode"),
		KeepLines:        v.GetStringSlice("keep-lines"),
		DumpSteps:        v.GetBool("dump-steps"),
		Artifacts:        v.GetString("artifacts") == "on",
		PerDocDir:        v.GetString("per-doc-dir") != "off",
		Strict:           v.GetBool("strict"),
		GroundTruth:      v.GetString("ground-truth"),
		Concurrency:      v.GetInt("concurrency"),
		Dispatch:         DispatchBackend(v.GetString("dispatch")),
		Cache:            v.GetString("cache") == "on",
		Ledger:           v.GetString("ledger") == "on",
		Index:            v.GetString("index") == "on",
		EnvFile:          v.GetString("env-file"),
		RedisURL:         getEnvOrDefault("REDIS_URL", "redis://127.0.0.1:6379"),
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		QdrantURL:        getEnvOrDefault("QDRANT_URL", "127.0.0.1:6334"),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "lawdocs_quality"),
		CISampleSuspects: getEnvAsIntOrDefault("CI_SAMPLE_SUSPECTS", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks range and enum constraints.
func (c *Config) Validate() error {
	switch c.WithOCR {
	case OCRAuto, OCROn, OCROff:
	default:
		return fmt.Errorf("--with-ocr must be on, off, or auto, got %q", c.WithOCR)
	}

	if c.OCRDPI < 72 {
		return fmt.Errorf("--ocr-dpi must be >= 72, got %d", c.OCRDPI)
	}

	switch c.Dispatch {
	case DispatchLocal, DispatchAsynq:
	default:
		return fmt.Errorf("--dispatch must be local or asynq, got %q", c.Dispatch)
	}

	if c.Dispatch == DispatchAsynq && c.RedisURL == "" {
		return fmt.Errorf("--dispatch=asynq requires REDIS_URL")
	}

	if c.Ledger && c.DatabaseURL == "" {
		return fmt.Errorf("--ledger=on requires DATABASE_URL")
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("--concurrency must be >= 0, got %d", c.Concurrency)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
