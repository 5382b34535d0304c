package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"novel-reader/internal/config"
	"novel-reader/internal/handler"
	"novel-reader/internal/messaging"
	"novel-reader/internal/service"
	"novel-reader/internal/transaction"
	pkgDatabase "novel-reader/pkg/database"
	"novel-reader/pkg/migration"
	"novel-reader/shared/authutils"
	sharedDatabase "novel-reader/shared/database"
	"novel-reader/shared/interfaces"
	sharedLogger "novel-reader/shared/logger"
	sharedMiddleware "novel-reader/shared/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// storage - набор хранилищ, которые нужны движку.
type storage struct {
	graph    interfaces.GraphStore
	balances interfaces.BalanceProvider
	progress interfaces.ProgressRepository
	ledger   interfaces.PurchaseLedger
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "story-engine",
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Sync()
	cfg.LogSummary(logger)

	ctx := context.Background()

	store, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Не удалось подготовить хранилище", zap.Error(err))
	}
	defer store.close()

	graph := store.graph
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// кэш необязателен, CachedGraphStore сам падает в основное хранилище
			logger.Warn("Redis недоступен при старте", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		graph = sharedDatabase.NewCachedGraphStore(graph, redisClient, cfg.GraphCacheTTL, logger)
		logger.Info("Кэш графа включен", zap.String("addr", cfg.RedisAddr))
	}

	sinks := []interfaces.AnalyticsSink{
		messaging.NewPrometheusSink(prometheus.DefaultRegisterer),
		messaging.NewLogSink(logger),
	}
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()
		publisher, closeChannel, err := messaging.NewRabbitMQAnalyticsPublisher(rabbitConn, cfg.AnalyticsQueue, logger)
		if err != nil {
			logger.Fatal("Не удалось создать публикатор аналитики", zap.Error(err))
		}
		defer closeChannel()
		sinks = append(sinks, publisher)
	}

	// Доставка аналитики не должна задерживать навигацию.
	analytics := messaging.NewAsyncSink(messaging.NewMultiSink(sinks...), messaging.DefaultAsyncBuffer, logger)

	engine := service.NewStoryEngine(service.Deps{
		Graph:     graph,
		Balances:  store.balances,
		Progress:  store.progress,
		Ledger:    store.ledger,
		Purchaser: transaction.NewManager(store.ledger, logger),
		Sink:      analytics,
	}, logger)

	userVerifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create User JWT Verifier", zap.Error(err))
	}
	serviceVerifier, err := authutils.NewJWTVerifier(cfg.InterServiceSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create Inter-Service JWT Verifier", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.RequestID())
	e.Use(sharedMiddleware.EchoZapLogger(logger))
	e.Use(echoMiddleware.Recover())
	handler.NewReaderHandler(engine, userVerifier, serviceVerifier, logger).RegisterRoutes(e)

	go func() {
		logger.Info("HTTP сервер слушает", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTTL)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при graceful shutdown Echo", zap.Error(err))
	}
	if err := analytics.Close(shutdownCtx); err != nil {
		logger.Error("Не все события аналитики доставлены", zap.Error(err))
	}
	logger.Info("Story engine остановлен")
}

// setupStorage поднимает выбранное хранилище. Для memory граф берется из фикстур.
func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store := sharedDatabase.NewMemoryStore()
		fsys, dir := sharedDatabase.SampleFixtures, "fixtures"
		var fixtures []*sharedDatabase.GraphFixture
		var err error
		if cfg.FixturesPath != "" {
			fixtures, err = sharedDatabase.LoadGraphFixtures(os.DirFS(cfg.FixturesPath), ".")
		} else {
			fixtures, err = sharedDatabase.LoadGraphFixtures(fsys, dir)
		}
		if err != nil {
			return nil, err
		}
		if err := sharedDatabase.SeedGraphs(ctx, store, fixtures); err != nil {
			return nil, err
		}
		logger.Info("In-memory хранилище готово", zap.Int("stories", len(fixtures)))
		return &storage{graph: store, balances: store, progress: store, ledger: store, close: func() {}}, nil
	}

	pool, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		migrator := migration.NewMigrator(migration.Config{
			MigrationsFS:   sharedDatabase.MigrationsFS,
			MigrationsPath: sharedDatabase.MigrationsDir,
		}, pool)
		if err := migrator.Up(); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		graph:    sharedDatabase.NewPgStoryGraphRepository(pool, logger),
		balances: sharedDatabase.NewPgBalanceRepository(pool, logger),
		progress: sharedDatabase.NewPgUserProgressRepository(pool, logger),
		ledger:   sharedDatabase.NewPgPurchaseLedger(pool, logger),
		close:    pool.Close,
	}, nil
}

func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	return pkgDatabase.Connect(ctx, pkgDatabase.Config{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
	}, logger)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
