package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Activity   ActivityConfig   `yaml:"activity"`
	Snowflake  SnowflakeConfig  `yaml:"snowflake"`
	Storage    StorageConfig    `yaml:"storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Recommend  RecommendConfig  `yaml:"recommend"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                  int      `yaml:"port"`
	Host                  string   `yaml:"host"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// RequestTimeout returns the per-request deadline.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoggingConfig holds structured logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ActivityConfig selects where calendar, e-mail and survey records are read from.
type ActivityConfig struct {
	Source      string `yaml:"source"` // "postgres" or "snowflake"
	DatabaseURL string `yaml:"database_url"`
}

// SnowflakeConfig holds Snowflake warehouse connection settings
type SnowflakeConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Account          string `yaml:"account"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	Schema           string `yaml:"schema"`
	Warehouse        string `yaml:"warehouse"`
}

// StorageConfig holds prediction store configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // "memory" or "dynamodb"
	DynamoDBTable string `yaml:"dynamodb_table"`
	ArchiveBucket string `yaml:"archive_bucket"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// ClassifierConfig holds risk classifier client settings
type ClassifierConfig struct {
	Backend        string       `yaml:"backend"` // "http" or "bedrock"
	BaseURL        string       `yaml:"base_url"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
	MaxRetries     int          `yaml:"max_retries"`
	ModelVersion   string       `yaml:"model_version"`
	OAuth2         OAuth2Config `yaml:"oauth2"`
	BedrockModelID string       `yaml:"bedrock_model_id"`
	BedrockRegion  string       `yaml:"bedrock_region"`
}

// Timeout returns the configured timeout as a duration
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OAuth2Config holds client-credentials settings for the classifier API.
// Empty TokenURL disables token acquisition.
type OAuth2Config struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Enabled reports whether the classifier calls should carry a bearer token.
func (c OAuth2Config) Enabled() bool {
	return c.TokenURL != "" && c.ClientID != ""
}

// RedisConfig holds Redis settings for idempotency and locking
type RedisConfig struct {
	URL               string `yaml:"url"`
	IdempotencyTTLHrs int    `yaml:"idempotency_ttl_hours"`
	LockTTLSeconds    int    `yaml:"lock_ttl_seconds"`
}

// IdempotencyTTL returns how long completed idempotency records are replayable.
func (c RedisConfig) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHrs) * time.Hour
}

// LockTTL returns the idempotency lock expiry.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// KafkaConfig holds prediction event publishing settings
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether events should be published.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// AlertsConfig holds SES settings for high-risk alert e-mails
type AlertsConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"secret_key"`
	From      string   `yaml:"from"`
	To        []string `yaml:"to"`
	MinLevel  string   `yaml:"min_level"`
}

// RecommendConfig holds recommendation composer settings
type RecommendConfig struct {
	WorkloadThreshold float64 `yaml:"workload_threshold"`
	WorkloadResource  string  `yaml:"workload_resource"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Activity.Source == "" {
		cfg.Activity.Source = "postgres"
	}
	if cfg.Snowflake.Database == "" {
		cfg.Snowflake.Database = "WELLBEING"
	}
	if cfg.Snowflake.Schema == "" {
		cfg.Snowflake.Schema = "ACTIVITY"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	if cfg.Storage.DynamoDBTable == "" {
		cfg.Storage.DynamoDBTable = "burnout-predictions"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Classifier.Backend == "" {
		cfg.Classifier.Backend = "http"
	}
	if cfg.Classifier.BaseURL == "" {
		cfg.Classifier.BaseURL = "http://localhost:5000"
	}
	if cfg.Classifier.TimeoutSeconds == 0 {
		cfg.Classifier.TimeoutSeconds = 10
	}
	if cfg.Classifier.MaxRetries == 0 {
		cfg.Classifier.MaxRetries = 2
	}
	if cfg.Classifier.ModelVersion == "" {
		cfg.Classifier.ModelVersion = "latest"
	}
	if cfg.Classifier.BedrockRegion == "" {
		cfg.Classifier.BedrockRegion = cfg.Storage.AWSRegion
	}
	if cfg.Redis.IdempotencyTTLHrs == 0 {
		cfg.Redis.IdempotencyTTLHrs = 24
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 60
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "burnout.predictions"
	}
	if cfg.Alerts.Region == "" {
		cfg.Alerts.Region = cfg.Storage.AWSRegion
	}
	if cfg.Alerts.MinLevel == "" {
		cfg.Alerts.MinLevel = "high"
	}
	if cfg.Recommend.WorkloadThreshold == 0 {
		cfg.Recommend.WorkloadThreshold = 7.0
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Activity.DatabaseURL = dbURL
	}
	if v := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); v != "" {
		cfg.Snowflake.ConnectionString = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}

	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("PREDICTIONS_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Storage.ArchiveBucket = v
	}

	if v := os.Getenv("CLASSIFIER_BASE_URL"); v != "" {
		cfg.Classifier.BaseURL = v
	}
	if v := os.Getenv("CLASSIFIER_CLIENT_ID"); v != "" {
		cfg.Classifier.OAuth2.ClientID = v
	}
	if v := os.Getenv("CLASSIFIER_CLIENT_SECRET"); v != "" {
		cfg.Classifier.OAuth2.ClientSecret = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Classifier.BedrockModelID = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Alerts.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Alerts.SecretKey = v
	}
	if v := os.Getenv("ALERT_RECIPIENTS"); v != "" {
		cfg.Alerts.To = splitList(v)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
