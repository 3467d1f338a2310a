package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Viewer    ViewerConfig
	Realtime  RealtimeConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
	Kafka     KafkaConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port      string
	LogLevel  string
	SeedPath  string
	InboxPath string

	// AllowedOrigins lists the browser origins allowed by CORS. Empty or "*" admits any
	// origin without credentials.
	AllowedOrigins []string
}

// ViewerConfig identifies the staff member whose inbox this process keeps.
type ViewerConfig struct {
	ID   int64
	Name string
	Role string
}

// RealtimeConfig controls the live transport and its fallback.
type RealtimeConfig struct {
	URL               string
	ConnectTimeout    time.Duration
	ReconnectAttempts int
	ReconnectBackoff  time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	LowStockCron      string
	MonthlyReportCron string
	Timezone          string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether low-stock alerts can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertRecipient != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the report sheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the report archive is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// KafkaConfig holds the envelope mirror settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether the mirror is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	viewerID, err := getenvInt64("VIEWER_ID", 0)
	if err != nil {
		return nil, err
	}
	connectTimeout, err := getenvDuration("REALTIME_CONNECT_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	reconnectAttempts, err := getenvInt("REALTIME_RECONNECT_ATTEMPTS", 1)
	if err != nil {
		return nil, err
	}
	reconnectBackoff, err := getenvDuration("REALTIME_RECONNECT_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			LogLevel:       getenvWithDefault("LOG_LEVEL", "info"),
			SeedPath:       os.Getenv("SEED_PATH"),
			InboxPath:      getenvWithDefault("INBOX_PATH", "data/inbox.json"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Viewer: ViewerConfig{
			ID:   viewerID,
			Name: os.Getenv("VIEWER_NAME"),
			Role: getenvWithDefault("VIEWER_ROLE", "admin"),
		},
		Realtime: RealtimeConfig{
			URL:               os.Getenv("REALTIME_URL"),
			ConnectTimeout:    connectTimeout,
			ReconnectAttempts: reconnectAttempts,
			ReconnectBackoff:  reconnectBackoff,
		},
		Reporting: ReportingConfig{
			LowStockCron:      getenvWithDefault("LOW_STOCK_CRON", "0 */6 * * *"),
			MonthlyReportCron: getenvWithDefault("MONTHLY_REPORT_CRON", "0 0 1 * *"),
			Timezone:          getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "kitchenstock"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenvWithDefault("KAFKA_TOPIC", "kitchen.events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Server.InboxPath == "" {
		return errors.New("INBOX_PATH must not be empty")
	}

	switch c.Viewer.Role {
	case "admin", "cook", "manager":
	default:
		return fmt.Errorf("VIEWER_ROLE must be one of admin, cook, manager (got %q)", c.Viewer.Role)
	}

	if c.Realtime.ConnectTimeout <= 0 {
		return errors.New("REALTIME_CONNECT_TIMEOUT must be positive")
	}

	if c.Realtime.ReconnectAttempts < 0 {
		return errors.New("REALTIME_RECONNECT_ATTEMPTS must not be negative")
	}

	if c.Reporting.LowStockCron == "" {
		return errors.New("LOW_STOCK_CRON must be provided")
	}

	if c.Reporting.MonthlyReportCron == "" {
		return errors.New("MONTHLY_REPORT_CRON must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.WhatsApp.AccessToken != "" {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_REPORT_ID must be provided together")
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
