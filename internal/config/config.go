package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Workbooks WorkbooksConfig `yaml:"workbooks"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Sync      SyncConfig      `yaml:"sync"`
	API       APIConfig       `yaml:"api"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
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

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis configuration for the organisation snapshot cache
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	SnapshotTTLMins int    `yaml:"snapshot_ttl_mins"`
	Enabled         bool   `yaml:"enabled"`
}

// SnapshotTTL returns the snapshot cache TTL as a duration
func (c RedisConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMins) * time.Minute
}

// WorkbooksConfig holds Workbooks CRM API configuration
type WorkbooksConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	LogicalDatabase string `yaml:"logical_database"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c WorkbooksConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SnapshotConfig holds organisation snapshot storage settings.
// The snapshot is always written locally; S3 mirroring is optional.
type SnapshotConfig struct {
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Key      string `yaml:"s3_key"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c SnapshotConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.AWSProfile
}

// SyncConfig holds the organisation bulk resync schedule
type SyncConfig struct {
	OrgResyncIntervalHours int `yaml:"org_resync_interval_hours"`
	OrgPageSize            int `yaml:"org_page_size"`
}

// OrgResyncInterval returns the bulk resync interval as a duration
func (c SyncConfig) OrgResyncInterval() time.Duration {
	return time.Duration(c.OrgResyncIntervalHours) * time.Hour
}

// APIConfig holds settings for the public form endpoints
type APIConfig struct {
	// ActionToken is the shared secret that form clients must present on
	// every mutating request. Plays the role the form nonce played in the
	// legacy plugin.
	ActionToken    string   `yaml:"action_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
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
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.SnapshotTTLMins == 0 {
		cfg.Redis.SnapshotTTLMins = 60
	}
	if cfg.Workbooks.TimeoutSeconds == 0 {
		cfg.Workbooks.TimeoutSeconds = 30
	}
	if cfg.Workbooks.MaxRetries == 0 {
		cfg.Workbooks.MaxRetries = 3
	}
	if cfg.Snapshot.LocalPath == "" {
		cfg.Snapshot.LocalPath = "data/organisations.json"
	}
	if cfg.Snapshot.S3Key == "" {
		cfg.Snapshot.S3Key = "snapshots/organisations.json"
	}
	if cfg.Sync.OrgResyncIntervalHours == 0 {
		cfg.Sync.OrgResyncIntervalHours = 24
	}
	if cfg.Sync.OrgPageSize == 0 {
		cfg.Sync.OrgPageSize = 500
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		cfg.API.AllowedOrigins = []string{"http://localhost:8080"}
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

	if baseURL := os.Getenv("WORKBOOKS_BASE_URL"); baseURL != "" {
		cfg.Workbooks.BaseURL = baseURL
	}
	if apiKey := os.Getenv("WORKBOOKS_API_KEY"); apiKey != "" {
		cfg.Workbooks.APIKey = apiKey
	}
	if db := os.Getenv("WORKBOOKS_LOGICAL_DATABASE"); db != "" {
		cfg.Workbooks.LogicalDatabase = db
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}
	if token := os.Getenv("ACTION_TOKEN"); token != "" {
		cfg.API.ActionToken = token
	}
	if bucket := os.Getenv("SNAPSHOT_S3_BUCKET"); bucket != "" {
		cfg.Snapshot.S3Bucket = bucket
	}
	if region := os.Getenv("SNAPSHOT_S3_REGION"); region != "" {
		cfg.Snapshot.AWSRegion = region
	}

	return cfg, nil
}
