package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	NATS          NATSConfig          `mapstructure:"nats"`
	CORS          CORSConfig          `mapstructure:"cors"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	LLM           LLMConfig           `mapstructure:"llm"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	ScanLog       ScanLogConfig       `mapstructure:"scan_log"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	StreamName    string `mapstructure:"stream_name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// AuthConfig protects administrative endpoints
type AuthConfig struct {
	AdminToken string `mapstructure:"admin_token"`
}

// ClassifierConfig selects the heuristic scoring strategy
type ClassifierConfig struct {
	// ScoringMode is one of auto, weighted, sentence_count
	ScoringMode string `mapstructure:"scoring_mode"`
}

// LLMConfig configures the remote OpenAI-compatible model
type LLMConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// KnowledgeBaseConfig controls where scam categories and records come from
type KnowledgeBaseConfig struct {
	// Source is one of postgres, sqlite, none
	Source          string        `mapstructure:"source"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout"`
}

// ScanLogConfig controls fire-and-forget scan logging
type ScanLogConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scamguard-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "scamguard:")

	v.SetDefault("nats.stream_name", "SCAMGUARD_SCANS")
	v.SetDefault("nats.subject_prefix", "scans")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Admin-Token"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("classifier.scoring_mode", "auto")

	v.SetDefault("llm.base_url", "https://api.opentyphoon.ai/v1")
	v.SetDefault("llm.model", "typhoon-v2.1-12b-instruct")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_ttl", time.Hour)

	v.SetDefault("knowledge_base.source", "postgres")
	v.SetDefault("knowledge_base.refresh_interval", 10*time.Minute)
	v.SetDefault("knowledge_base.cache_ttl", 30*time.Minute)
	v.SetDefault("knowledge_base.load_timeout", 10*time.Second)

	v.SetDefault("scan_log.enabled", true)
	v.SetDefault("scan_log.timeout", 5*time.Second)
}

// Load reads configuration from file and environment variables. A missing
// config file is not an error when no explicit path was given.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scamguard")
	}

	v.SetEnvPrefix("SCAMGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper doesn't auto-bind nested keys that are absent from the file
	for _, key := range []string{
		"app.environment",
		"database.enabled", "database.host", "database.port", "database.user",
		"database.password", "database.dbname", "database.sslmode",
		"redis.enabled", "redis.host", "redis.port", "redis.password",
		"nats.enabled", "nats.url",
		"auth.admin_token",
		"llm.enabled", "llm.api_key",
		"knowledge_base.source", "knowledge_base.sqlite_path",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Classifier.ScoringMode {
	case "", "auto", "weighted", "sentence_count":
	default:
		return fmt.Errorf("invalid classifier.scoring_mode: %q", c.Classifier.ScoringMode)
	}

	switch c.KnowledgeBase.Source {
	case "", "postgres", "none":
	case "sqlite":
		if c.KnowledgeBase.SQLitePath == "" {
			return fmt.Errorf("knowledge_base.sqlite_path is required when source is sqlite")
		}
	default:
		return fmt.Errorf("invalid knowledge_base.source: %q", c.KnowledgeBase.Source)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("ratelimit.requests_per_minute must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
