package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	platformlogging "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/logging"
	platformobservability "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
	platformshutdown "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/shutdown"

	httpapi "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/api/http"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/config"
	eventkafka "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/event/kafka"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/repository/postgres"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/service"
)

// App содержит все зависимости для запуска и корректного shutdown Catalog Service
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Catalog Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "catalog",
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	// OpenTelemetry: traces + metrics (noop если OTEL_ENABLED=false)
	otelCfg := platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           "catalog",
		DeploymentEnvironment: string(cfg.AppEnv),
	}
	otelShutdown, err := platformobservability.Init(context.Background(), otelCfg)
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	logger.Info("Building Catalog service",
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("size_deleted_topic", cfg.SizeDeletedTopic),
		zap.String("brand_deleted_topic", cfg.BrandDeletedTopic),
		zap.String("product_updated_topic", cfg.ProductUpdatedTopic),
		zap.Duration("publish_ack_timeout", cfg.PublishAckTimeout),
	)

	// Подключаемся к PostgreSQL
	logger.Info("Connecting to PostgreSQL")
	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	// Проверяем подключение к PostgreSQL
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("PostgreSQL connection established")

	// Применяем миграции
	logger.Info("Applying database migrations")
	db, err := goose.OpenDBWithDriver("pgx", cfg.PostgresDSN)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		pool.Close()
		return nil, err
	}
	migrationsDir := filepath.Join(wd, "migrations", "catalog")

	if err := goose.Up(db, migrationsDir); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("Database migrations applied successfully")

	// Функция readiness для health check
	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}

	// Создаём PostgreSQL репозиторий каталога
	catalogRepo := postgres.NewRepository(pool)

	// Создаём Kafka publisher событий каталога
	publisher := eventkafka.NewPublisher(
		logger,
		cfg.KafkaBrokers,
		cfg.SizeDeletedTopic,
		cfg.BrandDeletedTopic,
		cfg.ProductUpdatedTopic,
	)

	// Создаём service слой
	catalogService := service.NewCatalogService(logger, catalogRepo, publisher, cfg.PublishAckTimeout)

	// HTTP сервер с админскими мутациями каталога
	handler := httpapi.NewHandler(logger, catalogService)
	router := httpapi.NewRouter(handler, readiness, logger)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Создаём shutdown manager
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)

	// Регистрируем shutdown функции в обратном порядке выполнения
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))
	shutdownMgr.Add("kafka_publisher", platformshutdown.CloseKafka(publisher))
	shutdownMgr.Add("otel", otelShutdown)
	shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting Catalog service")

	// Запускаем HTTP сервер
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	a.logger.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))

	// Ожидаем сигнал и выполняем shutdown
	a.shutdownMgr.Wait()

	// Ждём завершения всех горутин
	a.wg.Wait()

	a.logger.Info("Catalog service stopped")
	return nil
}
