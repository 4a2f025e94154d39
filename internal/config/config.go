package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	Port           string
	AllowedOrigins []string

	UploadDelay     time.Duration
	ProcessingDelay time.Duration
	MaxUploadBytes  int64
	CrisisFirst     bool

	LogLevel  string
	LogFormat string

	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// ArchiveEnabled reports whether readings are archived to InfluxDB.
func (c Config) ArchiveEnabled() bool {
	return c.InfluxDBURL != ""
}

// CacheEnabled reports whether snapshots are cached in Redis.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// AuthEnabled reports whether uploads require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// LoadConfig loads the configuration from a .env file, if any, and the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:           valueOr(getenv("PORT"), "8000"),
		AllowedOrigins: splitList(valueOr(getenv("ALLOWED_ORIGINS"), "http://localhost:5173")),
		LogLevel:       valueOr(getenv("LOG_LEVEL"), "info"),
		LogFormat:      valueOr(getenv("LOG_FORMAT"), "json"),
		InfluxDBURL:    getenv("INFLUXDB_URL"),
		InfluxDBToken:  getenv("INFLUXDB_TOKEN"),
		InfluxDBOrg:    getenv("INFLUXDB_ORG"),
		InfluxDBBucket: valueOr(getenv("INFLUXDB_BUCKET"), "bp_readings"),
		RedisAddr:      getenv("REDIS_ADDR"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		JWTSecret:      getenv("AUTH_JWT_SECRET"),
		JWTIssuer:      valueOr(getenv("AUTH_ISSUER"), "bp-organizer"),
		JWTAudience:    valueOr(getenv("AUTH_AUDIENCE"), "bp-organizer-web"),
	}

	var err error
	if cfg.UploadDelay, err = durationOr(getenv("UPLOAD_DELAY"), 1500*time.Millisecond); err != nil {
		return Config{}, fmt.Errorf("UPLOAD_DELAY: %w", err)
	}
	if cfg.ProcessingDelay, err = durationOr(getenv("PROCESSING_DELAY"), 2500*time.Millisecond); err != nil {
		return Config{}, fmt.Errorf("PROCESSING_DELAY: %w", err)
	}
	if cfg.MaxUploadBytes, err = int64Or(getenv("MAX_UPLOAD_BYTES"), 10<<20); err != nil {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.CrisisFirst, err = boolOr(getenv("BP_CRISIS_FIRST"), false); err != nil {
		return Config{}, fmt.Errorf("BP_CRISIS_FIRST: %w", err)
	}
	db, err := int64Or(getenv("REDIS_DB"), 0)
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}
	cfg.RedisDB = int(db)

	influxSet := 0
	for _, v := range []string{cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg} {
		if v != "" {
			influxSet++
		}
	}
	if influxSet != 0 && influxSet != 3 {
		return Config{}, fmt.Errorf("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, and INFLUXDB_ORG environment variables")
	}

	return cfg, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", v)
	}
	return d, nil
}

func int64Or(v string, def int64) (int64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func boolOr(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}
