package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for opsight-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Backing store (the dataset being queried)
	Database DatabaseConfig `yaml:"database"`

	// Completion endpoint
	LLM LLMConfig `yaml:"llm"`

	// Resolution pipeline knobs
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Optional response cache (disabled when host is empty)
	Redis RedisConfig `yaml:"redis"`

	// Schema glossary location
	Schema SchemaConfig `yaml:"schema"`
}

// DatabaseConfig holds backing store configuration.
type DatabaseConfig struct {
	Driver              string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host                string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port                int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User                string `yaml:"user" env:"PGUSER" env-default:"opsight"`
	Password            string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database            string `yaml:"database" env:"PGDATABASE" env-default:"opsight"`
	SSLMode             string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections      int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds" env:"DB_QUERY_TIMEOUT_SECONDS" env-default:"30"`
	MaxRows             int    `yaml:"max_rows" env:"DB_MAX_ROWS" env-default:"1000"`
	RunMigrations       bool   `yaml:"run_migrations" env:"DB_RUN_MIGRATIONS" env-default:"false"`
	MigrationsPath      string `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds completion endpoint configuration.
type LLMConfig struct {
	Provider       string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL        string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model          string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey         string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`
	MaxRetries     int     `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"3"`
}

// PipelineConfig holds resolution pipeline knobs. The defaults are the
// behavioral constants the pipeline was designed around; they are exposed
// here so deployments can tune them without a rebuild.
type PipelineConfig struct {
	RetryLimit           int     `yaml:"retry_limit" env:"PIPELINE_RETRY_LIMIT" env-default:"3"`
	ClarifyThreshold     float64 `yaml:"clarify_threshold" env:"PIPELINE_CLARIFY_THRESHOLD" env-default:"0.5"`
	InsightPreviewChars  int     `yaml:"insight_preview_chars" env:"PIPELINE_INSIGHT_PREVIEW_CHARS" env-default:"3000"`
	FollowupPreviewChars int     `yaml:"followup_preview_chars" env:"PIPELINE_FOLLOWUP_PREVIEW_CHARS" env-default:"1500"`
	ErrorExcerptChars    int     `yaml:"error_excerpt_chars" env:"PIPELINE_ERROR_EXCERPT_CHARS" env-default:"200"`
}

// RedisConfig holds the optional response cache configuration.
// An empty host disables the cache entirely.
type RedisConfig struct {
	Host       string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port       int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password   string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB         int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"REDIS_TTL_SECONDS" env-default:"300"`
}

// SchemaConfig points at the schema glossary file.
type SchemaConfig struct {
	LabelsPath string `yaml:"labels_path" env:"SCHEMA_LABELS_PATH" env-default:"labels.yaml"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML file.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mssql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Pipeline.RetryLimit < 1 {
		return fmt.Errorf("pipeline retry_limit must be at least 1, got %d", c.Pipeline.RetryLimit)
	}
	if c.Pipeline.ClarifyThreshold < 0 || c.Pipeline.ClarifyThreshold > 1 {
		return fmt.Errorf("pipeline clarify_threshold must be in [0,1], got %g", c.Pipeline.ClarifyThreshold)
	}

	return nil
}

// ConnectionString returns the driver-appropriate connection string.
func (d *DatabaseConfig) ConnectionString() string {
	switch d.Driver {
	case "mssql":
		u := &url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		}
		q := url.Values{}
		q.Set("database", d.Database)
		u.RawQuery = q.Encode()
		return u.String()
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
		)
	}
}

// QueryTimeout returns the per-query deadline as a duration.
func (d *DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

// Timeout returns the per-request completion deadline as a duration.
func (l *LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime as a duration.
func (r *RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// Enabled reports whether the response cache is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}
