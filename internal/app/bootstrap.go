package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whoknows/weather/config"
	cachemem "github.com/whoknows/weather/internal/cache/memory"
	"github.com/whoknows/weather/internal/kafka"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/internal/provider/breaker"
	"github.com/whoknows/weather/internal/provider/openweather"
	"github.com/whoknows/weather/internal/scheduler"
	rest "github.com/whoknows/weather/internal/transport/http"
	"github.com/whoknows/weather/internal/usecase"
	"github.com/whoknows/weather/pkg/logger"
	"github.com/whoknows/weather/pkg/metrics"
	"github.com/whoknows/weather/pkg/telemetry"
)

// Warmer — периодический прогрев кэша.
type Warmer interface {
	Start(ctx context.Context) error
	Stop()
}

// Closer — сервис с фоновыми попытками, которые нужно дождаться при остановке.
type Closer interface {
	Close(ctx context.Context) error
}

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer, прогрев).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	KafkaConsumer   ports.MessageConsumer // консьюмер подсказок; nil — Kafka выключена
	Warmer          Warmer                // прогрев кэша; nil — без прогрева
	Service         Closer                // оркестратор; nil — нечего закрывать
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
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

// policies — политики точек вызова поверх общего кэша и провайдера.
func policies(cfg *config.Config) (api, page, hints, warm usecase.Policy) {
	base := usecase.Policy{TTLFresh: cfg.Cache.TTLFresh, TTLStale: cfg.Cache.TTLStale}

	api, page, hints, warm = base, base, base, base
	api.Name, api.SoftDeadline = "api", cfg.API.SoftDeadline
	page.Name, page.SoftDeadline = "page", cfg.Page.SoftDeadline
	hints.Name = "kafka"
	warm.Name = "warmer"
	return api, page, hints, warm
}

// newProvider — клиент OpenWeather, при включённом breaker — за автоматическим выключателем.
func newProvider(cfg *config.Config, log ports.Logger) ports.WeatherProvider {
	client := openweather.NewClient(openweather.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	}, nil)
	if !cfg.Breaker.Enabled {
		return client
	}
	return breaker.New(client, breaker.Settings{
		Name:             "openweather",
		MaxRequests:      cfg.Breaker.HalfOpenRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.OpenTimeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}, log)
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, func() {}, err
	}

	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	shutdownTrace := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, telemetry.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}

	if cfg.Provider.APIKey == "" {
		logg.Warnf(ctx, "provider API key is empty: every refresh will fail, only cached data can be served")
	}

	// Сборка зависимостей доменного слоя.
	cache := cachemem.NewFreshnessCache(cfg.Cache.Capacity, nil)
	service := usecase.NewWeatherService(cache, newProvider(cfg, logg), logg, metrics.Recorder{}, usecase.Options{
		AttemptTimeout: cfg.Refresh.AttemptTimeout,
		Coalesce:       cfg.Refresh.Coalesce,
	})
	apiPolicy, pagePolicy, hintPolicy, warmPolicy := policies(cfg)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(
		service.WithPolicy(apiPolicy),
		service.WithPolicy(pagePolicy),
		logg,
		cfg.HTTP.HandlerTimeout,
		cfg.DefaultCity,
	)
	router := rest.NewRouter(httpHandler, cfg.HTTP.StaticDir, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	// Прогрев кэша популярных городов.
	warmer := scheduler.NewWarmer(service.WithPolicy(warmPolicy), scheduler.Config{
		Cities:   cfg.Warmer.Cities,
		Interval: cfg.Warmer.Interval,
		Timeout:  cfg.Warmer.Timeout,
	}, logg)

	// Конфигурация и создание консьюмера Kafka (опционально).
	var consumer ports.MessageConsumer
	if cfg.Kafka.Enabled {
		kafkaCfg := kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}
		consumer = kafka.NewConsumer(&kafkaCfg, service.WithPolicy(hintPolicy), logg)
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		KafkaConsumer:   consumer,
		Warmer:          warmer,
		Service:         service,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		warmer.Stop()
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.GracefulTimeout)
		defer cancel()
		if err := service.Close(closeCtx); err != nil {
			logg.Warnf(ctx, "weather service close: %v", err)
		}
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}

	return app, cleanup, nil
}

// Run — запускает HTTP-сервер, консьюмера и прогрев; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 3)

	// Запуск консьюмера.
	if a.KafkaConsumer != nil {
		go func() {
			a.Logger.Infof(ctx, "kafka consumer starting")
			if err := a.KafkaConsumer.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Прогрев: первый прогон синхронный внутри Start, поэтому не блокирует HTTP.
	if a.Warmer != nil {
		go func() {
			if err := a.Warmer.Start(ctx); err != nil {
				errCh <- err
			}
		}()
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
			a.Logger.Warnf(ctx, "background error: %v", err)
			runErr = err
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	if a.Warmer != nil {
		a.Warmer.Stop()
	}

	// Остановка Kafka-консьюмера
	if a.KafkaConsumer != nil {
		if err := a.KafkaConsumer.Close(); err != nil {
			a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
		}
	}

	// Отвязанные попытки обновления отменяются и дожидаются.
	if a.Service != nil {
		if err := a.Service.Close(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "weather service close: %v", err)
		}
	}

	a.Logger.Infof(ctx, "service stopped")
	return runErr
}
