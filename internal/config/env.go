package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"

	ArchiveLocal = "local"
	ArchiveS3    = "s3"
	ArchiveNone  = "none"
)

type Config struct {
	Port               string
	LogLevel           string
	LogEncoding        string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	RequestTimeout     time.Duration
	UploadTimeout      time.Duration

	ArchiveBackend string
	UploadDir      string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string

	SummaryProvider string
	HFAPIToken      string
	HFModel         string
	HFBaseURL       string
	AIAPIKey        string
	GenModel        string
	OpenAIAPIKey    string
	OpenAIModel     string
	OracleTimeout   time.Duration

	SummaryWorkers   int
	SummaryQueueSize int
	SummaryTimeout   time.Duration
	ChunkSize        int
	MinTextLength    int
	DefaultMaxLength int
	DefaultMinLength int

	TaskExpiry          time.Duration
	CleanupInterval     time.Duration
	TextStoreMaxEntries int

	TesseractBin   string
	PdftoppmBin    string
	TesseractLang  string
	OCRDPI         int
	OCRMaxPages    int
	OCRConcurrency int
	TessdataPrefix string
}

var defaults = map[string]any{
	"PORT":                   "5000",
	"LOG_LEVEL":              "info",
	"LOG_ENCODING":           "console",
	"CORS_ALLOWED_ORIGINS":   "http://localhost:3000",
	"MAX_UPLOAD_BYTES":       52428800,
	"REQUEST_TIMEOUT":        "60s",
	"UPLOAD_TIMEOUT":         "0s",
	"ARCHIVE_BACKEND":        ArchiveLocal,
	"UPLOAD_DIR":             "uploads",
	"AWS_ACCESS_KEY":         "",
	"AWS_SECRET_KEY":         "",
	"AWS_REGION":             "",
	"BUCKET_NAME":            "",
	"SUMMARY_PROVIDER":       ProviderHuggingFace,
	"HF_API_TOKEN":           "",
	"HF_MODEL":               "facebook/bart-large-cnn",
	"HF_BASE_URL":            "https://api-inference.huggingface.co",
	"GEMINI_API_KEY":         "",
	"GEN_MODEL":              "gemini-1.5-flash",
	"OPENAI_API_KEY":         "",
	"OPENAI_MODEL":           "gpt-4o-mini",
	"ORACLE_TIMEOUT":         "2m",
	"SUMMARY_WORKERS":        4,
	"SUMMARY_QUEUE_SIZE":     256,
	"SUMMARY_TIMEOUT":        "0s",
	"CHUNK_SIZE":             1024,
	"MIN_TEXT_LENGTH":        100,
	"DEFAULT_MAX_LENGTH":     150,
	"DEFAULT_MIN_LENGTH":     40,
	"TASK_EXPIRY":            "1h",
	"CLEANUP_INTERVAL":       "1h",
	"TEXT_STORE_MAX_ENTRIES": 0,
	"TESSERACT_BIN":          "tesseract",
	"PDFTOPPM_BIN":           "pdftoppm",
	"TESSERACT_LANG":         "eng",
	"OCR_DPI":                150,
	"OCR_MAX_PAGES":          0,
	"OCR_CONCURRENCY":        2,
	"TESSDATA_PREFIX":        "",
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogEncoding:        v.GetString("LOG_ENCODING"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		UploadTimeout:      v.GetDuration("UPLOAD_TIMEOUT"),

		ArchiveBackend: strings.ToLower(v.GetString("ARCHIVE_BACKEND")),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		AwsAccessKey:   v.GetString("AWS_ACCESS_KEY"),
		AwsSecretKey:   v.GetString("AWS_SECRET_KEY"),
		AwsRegion:      v.GetString("AWS_REGION"),
		BucketName:     v.GetString("BUCKET_NAME"),

		SummaryProvider: strings.ToLower(v.GetString("SUMMARY_PROVIDER")),
		HFAPIToken:      v.GetString("HF_API_TOKEN"),
		HFModel:         v.GetString("HF_MODEL"),
		HFBaseURL:       v.GetString("HF_BASE_URL"),
		AIAPIKey:        v.GetString("GEMINI_API_KEY"),
		GenModel:        v.GetString("GEN_MODEL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		OpenAIModel:     v.GetString("OPENAI_MODEL"),
		OracleTimeout:   v.GetDuration("ORACLE_TIMEOUT"),

		SummaryWorkers:   v.GetInt("SUMMARY_WORKERS"),
		SummaryQueueSize: v.GetInt("SUMMARY_QUEUE_SIZE"),
		SummaryTimeout:   v.GetDuration("SUMMARY_TIMEOUT"),
		ChunkSize:        v.GetInt("CHUNK_SIZE"),
		MinTextLength:    v.GetInt("MIN_TEXT_LENGTH"),
		DefaultMaxLength: v.GetInt("DEFAULT_MAX_LENGTH"),
		DefaultMinLength: v.GetInt("DEFAULT_MIN_LENGTH"),

		TaskExpiry:          v.GetDuration("TASK_EXPIRY"),
		CleanupInterval:     v.GetDuration("CLEANUP_INTERVAL"),
		TextStoreMaxEntries: v.GetInt("TEXT_STORE_MAX_ENTRIES"),

		TesseractBin:   v.GetString("TESSERACT_BIN"),
		PdftoppmBin:    v.GetString("PDFTOPPM_BIN"),
		TesseractLang:  v.GetString("TESSERACT_LANG"),
		OCRDPI:         v.GetInt("OCR_DPI"),
		OCRMaxPages:    v.GetInt("OCR_MAX_PAGES"),
		OCRConcurrency: v.GetInt("OCR_CONCURRENCY"),
		TessdataPrefix: v.GetString("TESSDATA_PREFIX"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.RequestTimeout < 0 || c.UploadTimeout < 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT and UPLOAD_TIMEOUT must not be negative"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.MinTextLength < 0 {
		errs = append(errs, fmt.Errorf("MIN_TEXT_LENGTH must not be negative, got %d", c.MinTextLength))
	}
	if c.DefaultMaxLength <= 0 || c.DefaultMinLength < 0 || c.DefaultMinLength > c.DefaultMaxLength {
		errs = append(errs, fmt.Errorf("invalid default summary bounds max=%d min=%d", c.DefaultMaxLength, c.DefaultMinLength))
	}
	if c.SummaryWorkers <= 0 {
		errs = append(errs, fmt.Errorf("SUMMARY_WORKERS must be positive, got %d", c.SummaryWorkers))
	}
	if c.SummaryQueueSize < 0 {
		errs = append(errs, fmt.Errorf("SUMMARY_QUEUE_SIZE must not be negative, got %d", c.SummaryQueueSize))
	}
	if c.TaskExpiry <= 0 || c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("TASK_EXPIRY and CLEANUP_INTERVAL must be positive"))
	}
	if c.TextStoreMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("TEXT_STORE_MAX_ENTRIES must not be negative, got %d", c.TextStoreMaxEntries))
	}
	if c.OCRDPI <= 0 || c.OCRConcurrency <= 0 {
		errs = append(errs, errors.New("OCR_DPI and OCR_CONCURRENCY must be positive"))
	}

	switch c.SummaryProvider {
	case ProviderHuggingFace, ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown SUMMARY_PROVIDER %q", c.SummaryProvider))
	}

	switch c.ArchiveBackend {
	case ArchiveLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR must be set for the local archive"))
		}
	case ArchiveS3:
		if c.BucketName == "" || c.AwsRegion == "" {
			errs = append(errs, errors.New("BUCKET_NAME and AWS_REGION must be set for the s3 archive"))
		}
	case ArchiveNone:
	default:
		errs = append(errs, fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.ArchiveBackend))
	}

	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
