// Package config loads application configuration from YAML files with
// environment-variable overrides. It provides typed structs for every
// subsystem (Server, Storage, Postgres, Kafka, Redis, Ranking, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// StorageConfig picks the database backing the intake store.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlitePath"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// RankingConfig tunes how similarity passes use the CPU. It never changes
// ranking results.
type RankingConfig struct {
	Workers           int `yaml:"workers"`
	ParallelThreshold int `yaml:"parallelThreshold"`
}

// AnalyticsConfig controls event buffering and the analytics service.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	BufferSize       int           `yaml:"bufferSize"`
	TopIdeas         int           `yaml:"topIdeas"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no service can start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "postgres", "postgresql":
	case "sqlite", "sqlite3":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("config: storage.sqlitePath is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must not be empty when kafka is enabled")
	}
	if c.Analytics.BufferSize <= 0 {
		return fmt.Errorf("config: analytics.bufferSize must be positive")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     "postgres",
			SQLitePath: "data/intake.db",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "intake",
			User:            "intake",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "intake-analytics",
			Topics: KafkaTopics{
				AnalyticsEvents: "intake-analytics-events",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Ranking: RankingConfig{
			ParallelThreshold: 2000,
		},
		Analytics: AnalyticsConfig{
			Port:             8084,
			BufferSize:       1024,
			TopIdeas:         10,
			SnapshotInterval: 5 * time.Minute,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads INTAKE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("INTAKE_SERVER_PORT", &cfg.Server.Port)
	setString("INTAKE_STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("INTAKE_STORAGE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	setString("INTAKE_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("INTAKE_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("INTAKE_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("INTAKE_POSTGRES_USER", &cfg.Postgres.User)
	setString("INTAKE_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("INTAKE_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	setBool("INTAKE_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("INTAKE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setBool("INTAKE_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("INTAKE_REDIS_ADDR", &cfg.Redis.Addr)
	setString("INTAKE_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("INTAKE_RANKING_WORKERS", &cfg.Ranking.Workers)
	setInt("INTAKE_RANKING_PARALLEL_THRESHOLD", &cfg.Ranking.ParallelThreshold)
	setInt("INTAKE_ANALYTICS_PORT", &cfg.Analytics.Port)
	if v := os.Getenv("INTAKE_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}
	setString("INTAKE_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("INTAKE_LOGGING_FORMAT", &cfg.Logging.Format)
}
