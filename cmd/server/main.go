package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/config"
	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/handler"
	"github.com/iliyamo/coworking-reservation/internal/loyalty"
	"github.com/iliyamo/coworking-reservation/internal/middleware"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/router"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	_ = godotenv.Load() // .env is optional outside development

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	store := service.NewSQLStore(repository.NewStore(db))
	issuer := loyalty.NewIssuer(store, loyalty.Policy{
		Threshold:      cfg.Loyalty.Threshold,
		Percent:        cfg.Loyalty.Percent,
		ValidityMonths: cfg.Loyalty.ValidityMonths,
	}, logger.Named("loyalty"))

	var events service.EventPublisher
	if cfg.EventsEnabled {
		events = service.NewPublisher(cfg.AMQPURL, logger.Named("publisher"))
		sink, err := queue.NewBookingLog(cfg.BookingLogPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.Sync() }()
		consumer := queue.NewConsumer(cfg.AMQPURL, logger.Named("consumer"), sink)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	svc := service.NewReservationService(store, issuer, events, logger.Named("reservations"))

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and quote cache disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))

	router.Register(e, handler.NewReservationHandler(svc, logger.Named("http")), router.Deps{
		JWTSecret: cfg.JWTSecret,
		DB:        db,
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, logger.Named("ratelimit")),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb, logger.Named("cache")),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
