// Package config loads aggregator configuration from defaults, an optional YAML file,
// .env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// Config is the root configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Logger        logger.Config       `mapstructure:"logger"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Crawler       CrawlerConfig       `mapstructure:"crawler"`
	Enrichment    EnrichmentConfig    `mapstructure:"enrichment"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig configures the optional Redis integrations.
type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	KeyPrefix      string        `mapstructure:"key_prefix"`
	FingerprintTTL time.Duration `mapstructure:"fingerprint_ttl"`
	NotifyStream   string        `mapstructure:"notify_stream"`
}

// ElasticsearchConfig configures optional article indexing.
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	APIKey    string   `mapstructure:"api_key"`
	Index     string   `mapstructure:"index"`
}

// CrawlerConfig configures fetching and extraction.
type CrawlerConfig struct {
	UserAgent           string        `mapstructure:"user_agent"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	PolitenessDelay     time.Duration `mapstructure:"politeness_delay"`
	MaxBodyBytes        int64         `mapstructure:"max_body_bytes"`
	ReadabilityFallback bool          `mapstructure:"readability_fallback"`
	MaxFeedItems        int           `mapstructure:"max_feed_items"`
}

// EnrichmentConfig configures LLM analysis of new articles.
type EnrichmentConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig configures periodic crawling.
type SchedulerConfig struct {
	Spec             string        `mapstructure:"spec"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

// DefaultUserAgent is a browser identity; several sites refuse obvious bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	errDatabaseHost    = errors.New("database.host is required")
	errRedisAddress    = errors.New("redis.address is required when redis is enabled")
	errESAddresses     = errors.New("elasticsearch.addresses is required when elasticsearch is enabled")
	errEnrichmentKey   = errors.New("enrichment.api_key is required when enrichment is enabled")
	errRequestTimeout  = errors.New("crawler.request_timeout must be positive")
	errNegativeDelay   = errors.New("crawler.politeness_delay must not be negative")
	errSchedulerSpec   = errors.New("scheduler.spec is required")
	errMaxFeedItemsLow = errors.New("crawler.max_feed_items must be positive")
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aggregator")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", []string{"stdout"})

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "aggregator")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "aggregator")
	v.SetDefault("redis.fingerprint_ttl", "720h")
	v.SetDefault("redis.notify_stream", "aggregator:notifications")

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://127.0.0.1:9200"})
	v.SetDefault("elasticsearch.index", "aggregator_articles")

	v.SetDefault("crawler.user_agent", DefaultUserAgent)
	v.SetDefault("crawler.request_timeout", "15s")
	v.SetDefault("crawler.politeness_delay", "1s")
	v.SetDefault("crawler.max_body_bytes", 10*1024*1024)
	v.SetDefault("crawler.readability_fallback", false)
	v.SetDefault("crawler.max_feed_items", 20)

	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.model", "claude-haiku-4-5")
	v.SetDefault("enrichment.max_tokens", 1024)
	v.SetDefault("enrichment.timeout", "30s")

	v.SetDefault("scheduler.spec", "@every 1m")
	v.SetDefault("scheduler.dispatch_interval", "2s")
	v.SetDefault("scheduler.lock_ttl", "15m")
}

// BindEnv maps conventional environment variable names onto config keys.
func BindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.environment":        {"APP_ENV"},
		"app.debug":              {"APP_DEBUG"},
		"logger.level":           {"LOG_LEVEL"},
		"database.host":          {"POSTGRES_HOST", "DB_HOST"},
		"database.port":          {"POSTGRES_PORT", "DB_PORT"},
		"database.user":          {"POSTGRES_USER", "DB_USER"},
		"database.password":      {"POSTGRES_PASSWORD", "DB_PASSWORD"},
		"database.dbname":        {"POSTGRES_DB", "DB_NAME"},
		"redis.address":          {"REDIS_ADDRESS"},
		"redis.password":         {"REDIS_PASSWORD"},
		"elasticsearch.api_key":  {"ELASTICSEARCH_API_KEY"},
		"elasticsearch.password": {"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"},
		"enrichment.api_key":     {"ANTHROPIC_API_KEY"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults, env binding and an optional config file.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults(v)

	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.App.Debug {
		cfg.Logger.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errDatabaseHost
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errRedisAddress
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return errESAddresses
	}
	if c.Enrichment.Enabled && c.Enrichment.APIKey == "" {
		return errEnrichmentKey
	}
	if c.Crawler.RequestTimeout <= 0 {
		return errRequestTimeout
	}
	if c.Crawler.PolitenessDelay < 0 {
		return errNegativeDelay
	}
	if c.Crawler.MaxFeedItems <= 0 {
		return errMaxFeedItemsLow
	}
	if c.Scheduler.Spec == "" {
		return errSchedulerSpec
	}
	return nil
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
