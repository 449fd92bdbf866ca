package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Email      EmailConfig
	Ranking    RankingConfig
	Reconciler ReconcilerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Redis addresses (host:port), used by every mode. For 'single'
	// the first entry wins when the list is non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative single-mode address, kept for compatibility. Used
	// when Mode="single" and Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name, sentinel mode only.
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: reconnect attempts (-1 = unlimited). Default 0.
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: minimum retry interval in milliseconds. Default 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: maximum retry interval in milliseconds. Default 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig holds access token settings.
type JWTConfig struct {
	Secret         string `mapstructure:"secret"`
	ExpirationMins int    `mapstructure:"expiration_mins"`
}

// EmailConfig holds decision notification settings. An empty APIKey disables
// outbound email entirely.
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// RankingConfig holds ranking aggregation settings.
type RankingConfig struct {
	// CacheTTL for cached standings. Zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// NeighborWindow is the default "around me" window size per side.
	NeighborWindow int `mapstructure:"neighbor_window"`
}

// ReconcilerConfig holds expiry reconciler settings. The reconciler only
// speeds up ranking visibility; lazy expiry stays correct without it.
type ReconcilerConfig struct {
	// Interval between sweeps. Zero disables the reconciler.
	Interval time.Duration `mapstructure:"interval"`
	// BatchSize caps how many overdue attempts one sweep finalizes.
	BatchSize int `mapstructure:"batch_size"`
}

// PostgresConnectionString builds the PostgreSQL connection string.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load loads configuration from a file merged with environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // fresh instance, no global viper state

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("jwt.expiration_mins", 60)
	vip.SetDefault("ranking.cache_ttl", 30*time.Second)
	vip.SetDefault("ranking.neighbor_window", 3)
	vip.SetDefault("reconciler.interval", time.Minute)
	vip.SetDefault("reconciler.batch_size", 100)

	// Bind environment variables explicitly.
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_mins", "JWT_EXPIRATION_MINS")

	vip.BindEnv("email.api_key", "EMAIL_API_KEY")
	vip.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	vip.BindEnv("email.from_name", "EMAIL_FROM_NAME")

	vip.BindEnv("ranking.cache_ttl", "RANKING_CACHE_TTL")
	vip.BindEnv("ranking.neighbor_window", "RANKING_NEIGHBOR_WINDOW")

	vip.BindEnv("reconciler.interval", "RECONCILER_INTERVAL")
	vip.BindEnv("reconciler.batch_size", "RECONCILER_BATCH_SIZE")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables and defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Email Enabled: %t", cfg.Email.APIKey != "")
		log.Printf("Ranking Cache TTL: %s", cfg.Ranking.CacheTTL)
		log.Printf("Reconciler Interval: %s", cfg.Reconciler.Interval)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("----------------------------")
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
