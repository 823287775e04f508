package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // serverless images ship without zoneinfo

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when no Google credentials are configured.
var ErrMissingCredentials = errors.New("google credentials are not configured")

type Config struct {
	Notion  NotionConfig  `json:"notion" yaml:"notion"`
	Google  GoogleConfig  `json:"google" yaml:"google"`
	Intake  IntakeConfig  `json:"intake" yaml:"intake"`
	Secrets SecretsConfig `json:"secrets" yaml:"secrets"`
	HTTP    HTTPConfig    `json:"http" yaml:"http"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

type NotionConfig struct {
	// APIKey is usually left empty in files and resolved from secrets.
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	DatabaseID string `json:"database_id" yaml:"database_id"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
}

type GoogleConfig struct {
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	CredentialsJSON string `json:"credentials_json,omitempty" yaml:"credentials_json,omitempty"`
	// Subject is the Workspace user impersonated through domain-wide delegation.
	// Mail is sent from this address.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

type IntakeConfig struct {
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
	// SpreadsheetID pins a provisioned spreadsheet and skips find-or-create.
	SpreadsheetID string `json:"spreadsheet_id,omitempty" yaml:"spreadsheet_id,omitempty"`
	Timezone      string `json:"timezone" yaml:"timezone"`
	DefaultSource string `json:"default_source" yaml:"default_source"`
	ResourcesURL  string `json:"resources_url" yaml:"resources_url"`
	FromName      string `json:"from_name" yaml:"from_name"`
	ServiceName   string `json:"service_name" yaml:"service_name"`
}

type SecretsConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

type HTTPConfig struct {
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	// IntakeRateLimit is submissions per second per client IP on the local
	// server. Zero disables limiting.
	IntakeRateLimit float64 `json:"intake_rate_limit,omitempty" yaml:"intake_rate_limit,omitempty"`
	IntakeBurst     int     `json:"intake_burst,omitempty" yaml:"intake_burst,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type TracingConfig struct {
	// Exporter is "", "stdout" or "otlp". Empty disables tracing.
	Exporter    string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	Endpoint    string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a JSON or YAML config file. The format is picked by file
// extension; anything other than .yaml/.yml is decoded as JSON.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load reads path if it exists, falls back to defaults when it does not, and
// applies environment overrides last.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// FromEnv builds a Config from defaults and environment variables only. The
// serverless entry points use it since they ship without a config file.
func FromEnv() *Config {
	cfg := Default()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.Notion.APIKey, "NOTION_API_KEY")
	setString(&c.Notion.DatabaseID, "NOTION_DATABASE_ID")
	setString(&c.Notion.BaseURL, "NOTION_BASE_URL")
	setString(&c.Google.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	setString(&c.Google.CredentialsJSON, "GOOGLE_CREDENTIALS_JSON")
	setString(&c.Google.Subject, "GOOGLE_IMPERSONATE")
	setString(&c.Intake.SpreadsheetID, "LEADS_SPREADSHEET_ID")
	setString(&c.Intake.SheetName, "LEADS_SHEET_NAME")
	setString(&c.Secrets.Driver, "SECRETS_DRIVER")
	setString(&c.Secrets.Region, "SECRETS_REGION")
	setString(&c.Secrets.Prefix, "SECRETS_PREFIX")
	setString(&c.Tracing.Exporter, "TRACING_EXPORTER")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Log.Level, "LOG_LEVEL")
	if v := strings.TrimSpace(os.Getenv("INTAKE_RATE_LIMIT")); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			c.HTTP.IntakeRateLimit = limit
		}
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
}

// Timeout returns the parsed outbound request timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.RequestTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultRequestTimeout)
	}
	return d
}

// Location loads the intake timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Intake.Timezone)
}

func (c *Config) applyDefaults() {
	setDefault(&c.Notion.BaseURL, DefaultNotionBaseURL)
	setDefault(&c.Notion.Version, DefaultNotionVersion)
	setDefault(&c.Intake.SheetName, DefaultSheetName)
	setDefault(&c.Intake.Timezone, DefaultTimezone)
	setDefault(&c.Intake.DefaultSource, DefaultSource)
	setDefault(&c.Intake.ResourcesURL, DefaultResourcesURL)
	setDefault(&c.Intake.FromName, DefaultFromName)
	setDefault(&c.Intake.ServiceName, DefaultServiceName)
	setDefault(&c.HTTP.Host, DefaultHost)
	setDefault(&c.HTTP.RequestTimeout, DefaultRequestTimeout)
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultPort
	}
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
