package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Azure     AzureConfig
	Logging   LoggingConfig
	Adherence AdherenceConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AzureConfig holds Azure service configuration
type AzureConfig struct {
	OpenAI  OpenAIConfig
	Storage StorageConfig
}

// OpenAIConfig holds Azure OpenAI configuration for the insight narrator.
// Leave the endpoint empty to disable narrative generation.
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// StorageConfig holds Azure Blob Storage configuration for report files
type StorageConfig struct {
	AccountName     string
	AccountKey      string
	ReportContainer string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// AdherenceConfig seeds the adherence engine defaults
type AdherenceConfig struct {
	OnTimeWindowMinutes       int
	LateWindowHours           int
	CulturalAdjustmentEnabled bool
	MinimumAdherenceThreshold float64
	RecoveryWindowHours       int
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// Azure Storage defaults
	v.SetDefault("azure.storage.reportcontainer", "adherence-reports")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Adherence engine defaults
	v.SetDefault("adherence.ontimewindowminutes", 30)
	v.SetDefault("adherence.latewindowhours", 4)
	v.SetDefault("adherence.culturaladjustmentenabled", true)
	v.SetDefault("adherence.minimumadherencethreshold", 80.0)
	v.SetDefault("adherence.recoverywindowhours", 24)
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Azure OpenAI
	v.BindEnv("azure.openai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("azure.openai.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("azure.openai.deployment", "AZURE_OPENAI_DEPLOYMENT")

	// Azure Storage
	v.BindEnv("azure.storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("azure.storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("azure.storage.reportcontainer", "AZURE_STORAGE_REPORT_CONTAINER")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")

	// Adherence engine
	v.BindEnv("adherence.ontimewindowminutes", "ADHERENCE_ON_TIME_WINDOW_MINUTES")
	v.BindEnv("adherence.latewindowhours", "ADHERENCE_LATE_WINDOW_HOURS")
	v.BindEnv("adherence.culturaladjustmentenabled", "ADHERENCE_CULTURAL_ADJUSTMENT_ENABLED")
	v.BindEnv("adherence.minimumadherencethreshold", "ADHERENCE_MINIMUM_THRESHOLD")
	v.BindEnv("adherence.recoverywindowhours", "ADHERENCE_RECOVERY_WINDOW_HOURS")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Adherence.OnTimeWindowMinutes < 0 {
		return fmt.Errorf("adherence.ontimewindowminutes must not be negative")
	}
	if c.Adherence.LateWindowHours <= 0 {
		return fmt.Errorf("adherence.latewindowhours must be positive")
	}
	if c.Adherence.RecoveryWindowHours <= 0 {
		return fmt.Errorf("adherence.recoverywindowhours must be positive")
	}

	// The narrator and report storage are optional, but partial
	// credentials are a misconfiguration.
	if c.Azure.OpenAI.Endpoint != "" && (c.Azure.OpenAI.APIKey == "" || c.Azure.OpenAI.Deployment == "") {
		return fmt.Errorf("azure.openai.apikey and azure.openai.deployment are required when an endpoint is set")
	}
	if c.Azure.Storage.AccountName != "" && c.Azure.Storage.AccountKey == "" {
		return fmt.Errorf("azure.storage.accountkey is required when an account name is set")
	}

	return nil
}
