package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config описывает настройки запуска сервиса. Все поля читаются из окружения
// с префиксом BOOKSTORE_; пустой PostgresDSN переключает на in-memory хранилище.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BookCacheTTL  time.Duration

	KafkaBrokers string
	KafkaTopic   string
	KafkaDLQ     string

	// JWTSecret включает аутентификацию API; пустой секрет — открытый режим.
	JWTSecret string
	JWTTTL    time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	IdempotencyCleanupInterval time.Duration
	IdempotencyCleanupBatch    int

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает рабочие значения для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                   ":8080",
		MetricsAddr:                ":9090",
		BookCacheTTL:               5 * time.Minute,
		OutboxPollInterval:         time.Second,
		OutboxBatchSize:            100,
		OutboxMaxAttempts:          3,
		JWTTTL:                     24 * time.Hour,
		IdempotencyCleanupInterval: 10 * time.Minute,
		IdempotencyCleanupBatch:    500,
		ShutdownTimeout:            5 * time.Second,
	}
}

// LoadConfig собирает конфигурацию: сначала .env (если есть), затем окружение
// поверх значений по умолчанию.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env file")
	}

	cfg := DefaultConfig()
	cfg.HTTPAddr = envString("BOOKSTORE_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("BOOKSTORE_METRICS_ADDR", cfg.MetricsAddr)
	cfg.PostgresDSN = envString("BOOKSTORE_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = envString("BOOKSTORE_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envString("BOOKSTORE_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = envInt("BOOKSTORE_REDIS_DB", cfg.RedisDB)
	cfg.BookCacheTTL = envDuration("BOOKSTORE_BOOK_CACHE_TTL", cfg.BookCacheTTL)
	cfg.KafkaBrokers = envString("BOOKSTORE_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envString("BOOKSTORE_KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.KafkaDLQ = envString("BOOKSTORE_KAFKA_DLQ_TOPIC", cfg.KafkaDLQ)
	cfg.JWTSecret = envString("BOOKSTORE_JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTL = envDuration("BOOKSTORE_JWT_TTL", cfg.JWTTTL)
	cfg.OutboxPollInterval = envDuration("BOOKSTORE_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("BOOKSTORE_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxAttempts = envInt("BOOKSTORE_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	cfg.IdempotencyCleanupInterval = envDuration("BOOKSTORE_IDEMPOTENCY_CLEANUP_INTERVAL", cfg.IdempotencyCleanupInterval)
	cfg.IdempotencyCleanupBatch = envInt("BOOKSTORE_IDEMPOTENCY_CLEANUP_BATCH", cfg.IdempotencyCleanupBatch)
	cfg.ShutdownTimeout = envDuration("BOOKSTORE_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	return cfg
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid integer in environment, using default")
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid duration in environment, using default")
		return fallback
	}
	return d
}
