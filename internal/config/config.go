package config

import (
	"fmt"
	"time"

	"novel-reader/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Хранилища, которые умеет поднимать сервер.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config содержит конфигурацию сервиса чтения историй.
type Config struct {
	// Сервер
	Port        string        `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string        `envconfig:"LOG_ENCODING" default:"json"`
	ShutdownTTL time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Хранилище: postgres или memory
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	// Каталог YAML-фикстур для memory. Пусто - встроенная демо-история.
	FixturesPath string `envconfig:"FIXTURES_PATH"`

	// PostgreSQL
	DBHost           string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort           int           `envconfig:"DB_PORT" default:"5432"`
	DBUser           string        `envconfig:"DB_USER" default:"postgres"`
	DBName           string        `envconfig:"DB_NAME" default:"novel_reader"`
	DBSSLMode        string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout    time.Duration `envconfig:"DB_MAX_IDLE" default:"5m"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s"`
	DBAutoMigrate    bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	// Секрет, без envconfig тега
	DBPassword string `ignored:"true"`

	// Redis-кэш графа. Пустой адрес отключает кэш.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	GraphCacheTTL time.Duration `envconfig:"GRAPH_CACHE_TTL" default:"1h"`

	// RabbitMQ для аналитики. Пустой URL отключает публикацию.
	RabbitMQURL    string `envconfig:"RABBITMQ_URL"`
	AnalyticsQueue string `envconfig:"ANALYTICS_QUEUE" default:"story_analytics_events"`

	// Секреты, без envconfig тегов
	JWTSecret          string `ignored:"true"`
	InterServiceSecret string `ignored:"true"`
}

// Load загружает конфигурацию из .env (если есть), окружения и файлов секретов.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	var err error
	if cfg.StorageDriver == StorageDriverPostgres {
		if cfg.DBPassword, err = utils.ReadSecret("db_password"); err != nil {
			return nil, err
		}
	}
	if cfg.JWTSecret, err = utils.ReadSecret("jwt_secret"); err != nil {
		return nil, err
	}
	if cfg.InterServiceSecret, err = utils.ReadSecret("inter_service_secret"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LogSummary пишет несекретную часть конфигурации.
func (c *Config) LogSummary(log *zap.Logger) {
	log.Info("Configuration loaded",
		zap.String("port", c.Port),
		zap.String("logLevel", c.LogLevel),
		zap.String("storageDriver", c.StorageDriver),
		zap.String("db", fmt.Sprintf("postgres://%s:***@%s:%d/%s?sslmode=%s", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)),
		zap.Bool("graphCache", c.RedisAddr != ""),
		zap.Duration("graphCacheTTL", c.GraphCacheTTL),
		zap.Bool("analyticsPublisher", c.RabbitMQURL != ""),
		zap.String("analyticsQueue", c.AnalyticsQueue),
	)
}
