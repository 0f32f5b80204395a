package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Catalog   CatalogConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	Namespace string
	StatsTTL  time.Duration
}

type JWTConfig struct {
	Enabled    bool
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig bounds timetable generation.
type SchedulerConfig struct {
	MaxAttempts  int
	Randomize    bool
	Workers      int
	TimeBudget   time.Duration
	MaxNodes     int
	TermStart    *time.Time
	TimetableTTL time.Duration
}

// CatalogConfig points at the catalog loaded on startup. JSON wins when both are set.
type CatalogConfig struct {
	File   string
	CSVDir string
}

// ExportsConfig controls where rendered exports are written and how long links stay valid.
type ExportsConfig struct {
	StorageDir string
	LinkTTL    time.Duration
	Retention  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("ENABLE_PERSISTENCE"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:   v.GetBool("ENABLE_CACHE"),
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		Namespace: v.GetString("REDIS_NAMESPACE"),
		StatsTTL:  parseDuration(v.GetString("CACHE_STATS_TTL"), 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Enabled:    v.GetBool("ENABLE_AUTH"),
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	termStart, err := parseDate(v.GetString("SCHEDULER_TERM_START"))
	if err != nil {
		return nil, err
	}
	cfg.Scheduler = SchedulerConfig{
		MaxAttempts:  v.GetInt("SCHEDULER_MAX_ATTEMPTS"),
		Randomize:    v.GetBool("SCHEDULER_RANDOMIZE"),
		Workers:      v.GetInt("SCHEDULER_WORKERS"),
		TimeBudget:   parseDuration(v.GetString("SCHEDULER_TIME_BUDGET"), 30*time.Second),
		MaxNodes:     v.GetInt("SCHEDULER_MAX_NODES"),
		TermStart:    termStart,
		TimetableTTL: parseDuration(v.GetString("SCHEDULER_TIMETABLE_TTL"), 2*time.Hour),
	}

	cfg.Catalog = CatalogConfig{
		File:   v.GetString("CATALOG_FILE"),
		CSVDir: v.GetString("CATALOG_CSV_DIR"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
		LinkTTL:    parseDuration(v.GetString("EXPORTS_LINK_TTL"), time.Hour),
		Retention:  parseDuration(v.GetString("EXPORTS_RETENTION"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ENABLE_PERSISTENCE", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_NAMESPACE", "timetable-scheduler")
	v.SetDefault("CACHE_STATS_TTL", "10m")

	v.SetDefault("ENABLE_AUTH", true)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "timetable-scheduler")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_ATTEMPTS", 1000)
	v.SetDefault("SCHEDULER_RANDOMIZE", true)
	v.SetDefault("SCHEDULER_WORKERS", 1)
	v.SetDefault("SCHEDULER_TIME_BUDGET", "30s")
	v.SetDefault("SCHEDULER_MAX_NODES", 200000)
	v.SetDefault("SCHEDULER_TERM_START", "")
	v.SetDefault("SCHEDULER_TIMETABLE_TTL", "2h")

	v.SetDefault("CATALOG_FILE", "")
	v.SetDefault("CATALOG_CSV_DIR", "")
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_LINK_TTL", "1h")
	v.SetDefault("EXPORTS_RETENTION", "24h")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TERM_START %q: %w", raw, err)
	}
	return &t, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
