package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gunvolt24/courtdesk/config"
	"github.com/Gunvolt24/courtdesk/internal/apiclient"
	cachemem "github.com/Gunvolt24/courtdesk/internal/cache/memory"
	"github.com/Gunvolt24/courtdesk/internal/dedup"
	"github.com/Gunvolt24/courtdesk/internal/kafka"
	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/internal/repo/postgres"
	"github.com/Gunvolt24/courtdesk/internal/storage"
	rest "github.com/Gunvolt24/courtdesk/internal/transport/http"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
	"github.com/Gunvolt24/courtdesk/pkg/telemetry"
)

// App — собранный агент и его внешние интерфейсы (шлюз, метрики, consumer).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // шлюз
	MetricsServer   *http.Server          // отдельный /metrics; nil — метрики только на шлюзе
	KafkaConsumer   ports.MessageConsumer // nil — Kafka выключена
	gracefulTimeout time.Duration         // время ожидания завершения серверов
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// NewStorage — долговременное хранилище сессии по конфигурации.
// Для postgres применяются встроенные миграции. closeFn освобождает соединения.
func NewStorage(ctx context.Context, cfg config.Storage) (ports.Storage, func(), error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "file":
		return storage.NewFile(cfg.FilePath), func() {}, nil
	case "redis":
		st := storage.NewRedis(storage.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		})
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return nil, func() {}, fmt.Errorf("redis ping: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, func() {}, fmt.Errorf("postgres pool: %w", err)
		}
		if _, err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return postgres.NewClientStorage(pool, cfg.Namespace), pool.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config, logg ports.Logger) (*App, Cleanup, error) {
	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	store, closeStore, err := NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, func() {}, err
	}
	logg.Infof(ctx, "session storage backend=%s", cfg.Storage.Backend)

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	shutdownTrace := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}

	// Клиент удалённого API: токен берётся из хранилища сессии на каждый запрос.
	api := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTokenSource(usecase.TokenFromStorage(store)),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithUserAgent(cfg.API.UserAgent),
	)

	// Рассылка событий после записи настроек (только при включённой Kafka).
	// Свои события агент узнаёт по instance id и не применяет повторно.
	instanceID := cfg.Kafka.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	var (
		pub       ports.InvalidationPublisher
		publisher *kafka.Publisher
	)
	if cfg.Kafka.Enabled && cfg.Kafka.Publish {
		publisher = kafka.NewPublisher(&kafka.PublisherConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			Origin:       instanceID,
		}, logg)
		pub = publisher
	}

	// Общий кэш и группа схлопывания запросов для всех сервисов.
	cache := cachemem.NewTTLCache("agent")
	group := dedup.New(cfg.Cache.DedupTimeout)

	authSvc := usecase.NewAuthService(api, store, cache, group, logg, cfg.Cache.UserTTL)
	settingsSvc := usecase.NewSettingsService(api, cache, group, pub, logg, usecase.SettingsTTL{
		TTL:      cfg.Cache.SettingsTTL,
		ShortTTL: cfg.Cache.SettingsShortTTL,
	})
	paymentSvc := usecase.NewPaymentSettingsService(settingsSvc)
	catalogSvc := usecase.NewCatalogService(api, cache, group, logg, cfg.Cache.CatalogTTL)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	httpHandler := rest.NewHandler(rest.Services{
		Auth:     authSvc,
		Settings: settingsSvc,
		Payment:  paymentSvc,
		Catalog:  catalogSvc,
	}, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, cfg.HTTP.StaticDir, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		}
	}

	// Консьюмер событий инвалидации от других агентов.
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		kafkaCfg := kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
			Origin:         instanceID,
		}
		invalidator := usecase.NewInvalidator(authSvc, settingsSvc, catalogSvc, logg)
		consumer = kafka.NewConsumer(&kafkaCfg, invalidator, logg)
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		MetricsServer:   metricsSrv,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}
	if consumer != nil {
		app.KafkaConsumer = consumer
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logg.Warnf(ctx, "kafka publisher close error: %v", err)
			}
		}
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		closeStore()
	}

	return app, cleanup, nil
}

// Run — запускает шлюз, сервер метрик и консьюмера; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 3)

	if a.KafkaConsumer != nil {
		go func() {
			a.Logger.Infof(ctx, "kafka consumer starting")
			if err := a.KafkaConsumer.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	serve := func(name string, srv *http.Server) {
		a.Logger.Infof(ctx, "%s server starting (addr=%s)", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("http", a.HTTPServer)
	if a.MetricsServer != nil {
		go serve("metrics", a.MetricsServer)
	}

	// Ожидание сигнала остановки или фоновой ошибки.
	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Errorf(ctx, "background error: %v", err)
			runErr = err
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "metrics server shutdown failed: %v", err)
		}
	}

	if a.KafkaConsumer != nil {
		if err := a.KafkaConsumer.Close(); err != nil {
			a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
		}
	}

	a.Logger.Infof(ctx, "agent stopped")
	return runErr
}
