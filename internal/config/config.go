package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendMongo  = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Session   SessionConfig
	View      ViewConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig points the gateway at the remote SellSmart API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the cookie-bound server-side session.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Backend    string
}

// ViewConfig holds per-screen fetch settings.
type ViewConfig struct {
	FetchTimeout time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
	Emails       []string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export reports to Google Sheets.
// Export is disabled unless both fields are set.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

// Enabled reports whether MongoDB should be connected.
func (m MongoDBConfig) Enabled() bool { return m.URI != "" }

// Enabled reports whether sheet export is configured.
func (s SheetsConfig) Enabled() bool { return s.CredentialsPath != "" && s.SpreadsheetID != "" }

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
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getenvWithDefault("APP_PORT", "3000"),
			ReadTimeout:  getenvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getenvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		API: APIConfig{
			BaseURL: getenvWithDefault("SELLSMART_API_URL", "http://localhost:8080"),
			Timeout: getenvDuration("SELLSMART_API_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			CookieName: getenvWithDefault("SESSION_COOKIE_NAME", "sellsmart_session"),
			TTL:        getenvDuration("SESSION_TTL", 24*time.Hour),
			Secure:     getenvBool("SESSION_COOKIE_SECURE", false),
			Backend:    getenvWithDefault("SESSION_BACKEND", SessionBackendMemory),
		},
		View: ViewConfig{
			FetchTimeout: getenvDuration("VIEW_FETCH_TIMEOUT", 10*time.Second),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 2 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
			Emails:       splitList(os.Getenv("REPORT_EMAILS")),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "sellsmart"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
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

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("APP_PORT %q must be a number between 1 and 65535", c.Server.Port)
	}

	if c.API.BaseURL == "" {
		return errors.New("SELLSMART_API_URL must be provided")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SELLSMART_API_URL %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("SELLSMART_API_TIMEOUT must be positive")
	}

	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.TTL < time.Minute {
		return errors.New("SESSION_TTL must be at least one minute")
	}
	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendMongo:
		if !c.MongoDB.Enabled() {
			return errors.New("MONGODB_URI must be provided when SESSION_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND %q must be one of %s, %s", c.Session.Backend, SessionBackendMemory, SessionBackendMongo)
	}

	if c.View.FetchTimeout <= 0 {
		return errors.New("VIEW_FETCH_TIMEOUT must be positive")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_REPORT_ID must be provided together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
