package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/messaging/kafka"
)

// EnvPrefix — общий префикс переменных окружения сервиса.
const EnvPrefix = "ORDERMGMT_"

// StorageDriver выбирает бэкенд хранения.
type StorageDriver string

const (
	// StorageDriverFile — CSV-файлы в каталоге DataDir.
	StorageDriverFile StorageDriver = "file"
	// StorageDriverMemory — данные в памяти процесса, теряются при перезапуске.
	StorageDriverMemory StorageDriver = "memory"
	// StorageDriverPostgres — PostgreSQL через pgx.
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения. Имена переменных
// указаны без префикса ORDERMGMT_.
type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR"`
	MetricsAddr    string `env:"METRICS_ADDR"`
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`

	StorageDriver       StorageDriver `env:"STORAGE_DRIVER"`
	DataDir             string        `env:"DATA_DIR"`
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	PostgresMaxConns    int           `env:"POSTGRES_MAX_CONNS"`
	PostgresAutoMigrate bool          `env:"POSTGRES_AUTO_MIGRATE"`

	CancelPolicy string `env:"CANCEL_POLICY"`

	AuthSecret   string        `env:"AUTH_SECRET"`
	AuthTokenTTL time.Duration `env:"AUTH_TOKEN_TTL"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic    string   `env:"KAFKA_TOPIC"`
	KafkaDLQTopic string   `env:"KAFKA_DLQ_TOPIC"`

	EventQueueSize   int `env:"EVENTS_QUEUE_SIZE"`
	EventMaxAttempts int `env:"EVENTS_MAX_ATTEMPTS"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// DefaultConfig возвращает настройки для локального запуска на файловом хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverFile,
		DataDir:             "data",
		PostgresMaxConns:    1,
		PostgresAutoMigrate: true,
		CancelPolicy:        string(domain.CancelPolicyPending),
		AuthTokenTTL:        24 * time.Hour,
		KafkaTopic:          kafka.DefaultTopic,
		KafkaDLQTopic:       kafka.DefaultTopic + ".dlq",
		EventQueueSize:      1024,
		EventMaxAttempts:    3,
		LogLevel:            "info",
		LogFormat:           "text",
		ShutdownTimeout:     5 * time.Second,
	}
}

// LoadConfig читает .env (если файл есть) и переменные ORDERMGMT_* поверх
// DefaultConfig. Уже заданные переменные окружения .env не перетирает.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	switch c.StorageDriver {
	case StorageDriverFile:
		if strings.TrimSpace(c.DataDir) == "" {
			errs = append(errs, errors.New("data dir is required for file storage"))
		}
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
		if c.PostgresMaxConns < 1 {
			errs = append(errs, fmt.Errorf("postgres max conns must be >= 1, got %d", c.PostgresMaxConns))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if _, err := domain.ParseCancelPolicy(c.CancelPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.AuthTokenTTL <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	if c.EventQueueSize < 1 || c.EventMaxAttempts < 1 {
		errs = append(errs, errors.New("event queue size and max attempts must be >= 1"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ConfigureLogger применяет уровень и формат логирования к стандартному логгеру logrus.
func ConfigureLogger(c Config) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
