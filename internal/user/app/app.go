package app

import (
	"context"
	"fmt"
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

	httpapi "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/api/http"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/config"
	eventkafka "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/event/kafka"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/payment"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository/postgres"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/service"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/webhook"
)

// App содержит все зависимости для запуска и корректного shutdown User Service
type App struct {
	logger          *zap.Logger
	httpServer      *http.Server
	sizeConsumer    *eventkafka.Consumer
	brandConsumer   *eventkafka.Consumer
	productConsumer *eventkafka.Consumer
	shutdownMgr     *platformshutdown.Manager
	wg              sync.WaitGroup
}

// Build создаёт и настраивает все зависимости User Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "user",
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
		ServiceName:           "user",
		DeploymentEnvironment: string(cfg.AppEnv),
	}
	otelShutdown, err := platformobservability.Init(context.Background(), otelCfg)
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	logger.Info("Building User service",
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("size_deleted_topic", cfg.SizeDeletedTopic),
		zap.String("brand_deleted_topic", cfg.BrandDeletedTopic),
		zap.String("product_updated_topic", cfg.ProductUpdatedTopic),
		zap.Int("retry_max_attempts", cfg.RetryMaxAttempts),
		zap.Duration("retry_backoff_base", cfg.RetryBackoffBase),
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
	migrationsDir := filepath.Join(wd, "migrations", "user")

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

	// Создаём PostgreSQL репозиторий
	repo := postgres.NewRepository(pool)

	// Создаём payment gateway
	var gateway service.PaymentGateway
	if cfg.PaymentEnabled {
		gateway = payment.NewHTTPGateway(logger, cfg.PaymentAPIBaseURL, cfg.PaymentAPIKey)
		logger.Info("Payment gateway enabled", zap.String("base_url", cfg.PaymentAPIBaseURL))
	} else {
		gateway = payment.NewNoOpGateway(logger)
		logger.Warn("Payment disabled, using no-op gateway")
	}

	// Создаём service слой
	cascadeService := service.NewCascadeService(logger, repo, repo, repo, gateway)

	// Создаём webhook dispatcher для платёжного провайдера.
	// Дублирование event type между обработчиками - дефект конфигурации,
	// падаем на старте, а не молча перетираем обработчик
	dispatcher, err := webhook.NewDispatcher(logger,
		webhook.NewPaymentSucceededHandler(logger, repo),
		webhook.NewPaymentFailedHandler(logger, repo),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to build webhook dispatcher: %w", err)
	}

	// Создаём DLQ publisher
	dlqPublisher := eventkafka.NewDLQPublisher(
		logger,
		cfg.KafkaBrokers,
		cfg.DLQTopic,
	)

	// Создаём Kafka consumers
	sizeConsumer := eventkafka.NewSizeDeletionConsumer(
		logger,
		cfg.KafkaBrokers,
		cfg.SizeDeletedGroupID,
		cfg.SizeDeletedTopic,
		cascadeService,
		dlqPublisher,
		cfg.RetryMaxAttempts,
		cfg.RetryBackoffBase,
	)

	brandConsumer := eventkafka.NewBrandDeletionConsumer(
		logger,
		cfg.KafkaBrokers,
		cfg.BrandDeletedGroupID,
		cfg.BrandDeletedTopic,
		cascadeService,
		dlqPublisher,
		cfg.RetryMaxAttempts,
		cfg.RetryBackoffBase,
	)

	productConsumer := eventkafka.NewProductUpdateConsumer(
		logger,
		cfg.KafkaBrokers,
		cfg.ProductUpdatedGroupID,
		cfg.ProductUpdatedTopic,
		cascadeService,
		dlqPublisher,
		cfg.RetryMaxAttempts,
		cfg.RetryBackoffBase,
	)

	// HTTP сервер для приёма webhook от платёжного провайдера
	handler := httpapi.NewHandler(logger, dispatcher)
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
	shutdownMgr.Add("kafka_product_consumer", platformshutdown.CloseKafka(productConsumer))
	shutdownMgr.Add("kafka_brand_consumer", platformshutdown.CloseKafka(brandConsumer))
	shutdownMgr.Add("kafka_size_consumer", platformshutdown.CloseKafka(sizeConsumer))
	shutdownMgr.Add("dlq_publisher", platformshutdown.CloseKafka(dlqPublisher))
	shutdownMgr.Add("otel", otelShutdown)
	shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))

	return &App{
		logger:          logger,
		httpServer:      httpServer,
		sizeConsumer:    sizeConsumer,
		brandConsumer:   brandConsumer,
		productConsumer: productConsumer,
		shutdownMgr:     shutdownMgr,
	}, nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting User service")

	// Контекст для consumers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем HTTP сервер
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	a.logger.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))

	// Запускаем consumers в отдельных горутинах
	for _, consumer := range []*eventkafka.Consumer{a.sizeConsumer, a.brandConsumer, a.productConsumer} {
		c := consumer
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := c.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", zap.Error(err))
			}
		}()
	}
	a.logger.Info("Kafka consumers started")

	// Ожидаем сигнал и выполняем shutdown
	a.shutdownMgr.Wait()

	// Отменяем контекст consumers
	cancel()

	// Ждём завершения всех горутин
	a.wg.Wait()

	a.logger.Info("User service stopped")
	return nil
}
