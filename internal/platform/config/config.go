package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	textutil "rollcall/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	DatabaseURL     string
	AutoMigrate     bool
	JWTSigningKey   string
	JWTIssuer       string
	AdminToken      string
	ShutdownTimeout time.Duration
	// ReportingLocation defines where a calendar day starts and ends for the
	// check-in ledger.
	ReportingLocation *time.Location
	LogLevel          string
	LogFormat         string

	Redis    RedisConfig
	Kafka    KafkaConfig
	Registry RegistryConfig
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
}

type RegistryConfig struct {
	URL              string
	APIKey           string
	Timeout          time.Duration
	LookupsPerMinute int
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads an optional .env file and then the environment. A missing env
// file is not an error; a malformed value is.
func Load(envFile string) (Server, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	var errs []error
	cfg := Server{
		Addr:          getEnv("ROLLCALL_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AutoMigrate:   getBool("AUTO_MIGRATE", true, &errs),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "rollcall"),
		AdminToken:    os.Getenv("ADMIN_API_TOKEN"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),

		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:       textutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:    getEnv("AUDIT_TOPIC", "rollcall.audit"),
			RelayInterval: getDuration("AUDIT_RELAY_INTERVAL", time.Second, &errs),
		},
		Registry: RegistryConfig{
			URL:              os.Getenv("REGISTRY_URL"),
			APIKey:           os.Getenv("REGISTRY_API_KEY"),
			Timeout:          getDuration("REGISTRY_TIMEOUT", 5*time.Second, &errs),
			LookupsPerMinute: getInt("REGISTRY_LOOKUPS_PER_MINUTE", 60, &errs),
		},
	}

	loc, err := time.LoadLocation(getEnv("REPORTING_TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("REPORTING_TIMEZONE: %w", err))
	}
	cfg.ReportingLocation = loc

	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}
	return cfg, nil
}

// UsingDevSigningKey reports whether the JWT key was left at its default.
func (s Server) UsingDevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: expected non-negative integer, got %q", key, v))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: expected boolean, got %q", key, v))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: expected positive duration, got %q", key, v))
		return fallback
	}
	return d
}
