package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Values come from defaults, then an
// optional YAML file, then DOCDIALOG_* environment variables. CLI flags are
// applied on top by the caller.
type Config struct {
	// Input and output
	InputPath    string `yaml:"input_path"`
	DBPath       string `yaml:"db_path"`
	ArtifactPath string `yaml:"artifact_path"`
	ExportDir    string `yaml:"export_dir"`
	ImageDir     string `yaml:"image_dir"`

	// Extraction
	MaxFacts             int     `yaml:"max_facts"`
	Conversations        int     `yaml:"conversations"`
	ConversationTopic    string  `yaml:"conversation_topic"`
	ColumnGapThreshold   float64 `yaml:"column_gap_threshold"`
	PDFFallbackPdftotext bool    `yaml:"pdf_fallback_pdftotext"`
	ExtractImages        bool    `yaml:"extract_images"`
	OCRCommand           string  `yaml:"ocr_command"`
	Seed                 uint64  `yaml:"seed"`

	// HTTP server
	Port           string        `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	JobTTL         time.Duration `yaml:"job_ttl"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		DBPath:               "data/knowledge_base.db",
		ImageDir:             "data/images",
		MaxFacts:             50,
		Conversations:        10,
		ConversationTopic:    "Medical Case Discussion",
		ColumnGapThreshold:   100,
		PDFFallbackPdftotext: true,
		OCRCommand:           "tesseract",
		Port:                 "8090",
		MaxUploadBytes:       52428800, // 50MB
		MaxQueueSize:         100,
		JobTTL:               1 * time.Hour,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty) and
// the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ConversationTopic == "" {
		cfg.ConversationTopic = "Medical Case Discussion"
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.InputPath = envOr("DOCDIALOG_INPUT", c.InputPath)
	c.DBPath = envOr("DOCDIALOG_DB", c.DBPath)
	c.ArtifactPath = envOr("DOCDIALOG_ARTIFACT", c.ArtifactPath)
	c.ExportDir = envOr("DOCDIALOG_EXPORT_DIR", c.ExportDir)
	c.ImageDir = envOr("DOCDIALOG_IMAGE_DIR", c.ImageDir)

	c.MaxFacts = envInt("DOCDIALOG_MAX_FACTS", c.MaxFacts)
	c.Conversations = envInt("DOCDIALOG_CONVERSATIONS", c.Conversations)
	c.ConversationTopic = envOr("DOCDIALOG_TOPIC", c.ConversationTopic)
	c.ColumnGapThreshold = envFloat("DOCDIALOG_COLUMN_GAP", c.ColumnGapThreshold)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
	c.ExtractImages = envBool("DOCDIALOG_IMAGES", c.ExtractImages)
	c.OCRCommand = envOr("DOCDIALOG_OCR_COMMAND", c.OCRCommand)
	c.Seed = envUint64("DOCDIALOG_SEED", c.Seed)

	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("DOCDIALOG_API_KEY", c.APIKey)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if c.MaxFacts <= 0 {
		return fmt.Errorf("max_facts must be positive, got %d", c.MaxFacts)
	}
	if c.Conversations < 0 {
		return fmt.Errorf("conversations must not be negative, got %d", c.Conversations)
	}
	if c.ColumnGapThreshold <= 0 {
		return fmt.Errorf("column_gap_threshold must be positive, got %g", c.ColumnGapThreshold)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// ValidateServe adds the checks only the HTTP server needs.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("DOCDIALOG_API_KEY is required")
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return lvl, nil
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
