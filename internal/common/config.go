package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	OCR      OCRConfig
	Preproc  PreprocConfig
	Fields   FieldsConfig
	Template TemplateConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	// Languages is the tesseract language string, "+"-joined
	// (e.g. "eng+mkd").
	Languages string
	// LowSignalChars is the recovered-text length (in characters) below
	// which a result is considered inadequate and a preprocessing rescue
	// pass may be warranted.
	LowSignalChars int
	// LowQualityVariance is the Laplacian-variance sharpness score below
	// which an image is considered blurry enough to preprocess.
	LowQualityVariance float64
	// EnablePreprocess turns the preprocessing rescue path on or off.
	// The engine runs correctly, just less robustly, without it.
	EnablePreprocess bool
}

// PreprocConfig holds the tunables of the preprocessing transform.
type PreprocConfig struct {
	Window int // adaptive threshold window size (odd), default 11
	Bias   int // subtracted from the local mean, default 2
}

// FieldsConfig holds heuristic field extraction configuration
type FieldsConfig struct {
	// MaxTotal is the sanity ceiling for monetary totals, in major
	// currency units. Values above it are treated as misread codes.
	MaxTotal int64
}

// TemplateConfig holds the external template extractor configuration
type TemplateConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Languages:          getEnv("OCR_LANGS", "eng"),
			LowSignalChars:     getEnvAsInt("OCR_LOW_SIGNAL_CHARS", 100),
			LowQualityVariance: getEnvAsFloat64("OCR_LOW_QUALITY_VARIANCE", 100),
			EnablePreprocess:   getEnvAsBool("OCR_ENABLE_PREPROCESS", true),
		},
		Preproc: PreprocConfig{
			Window: getEnvAsInt("PREPROC_WINDOW", 11),
			Bias:   getEnvAsInt("PREPROC_BIAS", 2),
		},
		Fields: FieldsConfig{
			MaxTotal: getEnvAsInt64("FIELDS_MAX_TOTAL", 1_000_000),
		},
		Template: TemplateConfig{
			ServiceURL: getEnv("TEMPLATE_SERVICE_URL", ""),
			Timeout:    getEnvAsDuration("TEMPLATE_TIMEOUT", 30*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.Languages == "" {
		return NewAppError("CONFIG_ERROR", "OCR_LANGS is required", ErrInvalidInput)
	}
	if c.Preproc.Window < 3 || c.Preproc.Window%2 == 0 {
		return NewAppError("CONFIG_ERROR", "PREPROC_WINDOW must be odd and >= 3", ErrInvalidInput)
	}
	if c.Fields.MaxTotal <= 0 {
		return NewAppError("CONFIG_ERROR", "FIELDS_MAX_TOTAL must be positive", ErrInvalidInput)
	}
	return nil
}
