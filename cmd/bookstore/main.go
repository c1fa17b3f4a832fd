package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/auth"
	"github.com/matheusmosca/bookstore-backoffice/internal/config"
	delivery "github.com/matheusmosca/bookstore-backoffice/internal/delivery/http"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/messaging"
	"github.com/matheusmosca/bookstore-backoffice/internal/messaging/kafka"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository/memory"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository/postgres"
	"github.com/matheusmosca/bookstore-backoffice/internal/server"
	"github.com/matheusmosca/bookstore-backoffice/internal/telemetry"
	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Base().Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.GetLogger(ctx).WithError(err).Error("bookstore stopped with errors")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// build wires every dependency. When a step fails, whatever was already
// opened is closed before returning.
func build(ctx context.Context, cfg config.Config) (_ *server.Server, err error) {
	log := logger.GetLogger(ctx)
	var closers []server.Closer
	defer func() {
		if err != nil {
			if closeErr := server.CloseAll(context.WithoutCancel(ctx), closers...); closeErr != nil {
				log.WithError(closeErr).Error("failed to release resources after startup error")
			}
		}
	}()

	settings := telemetry.Settings{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
	}
	tp, err := telemetry.InitTracer(ctx, settings)
	if err != nil {
		return nil, err
	}
	closers = append(closers, server.Closer{Name: "tracer", Close: tp.Shutdown})

	mp, err := telemetry.InitMetrics(ctx, settings)
	if err != nil {
		return nil, err
	}
	closers = append(closers, server.Closer{Name: "meter", Close: mp.Shutdown})

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, server.Closer{Name: "store", Close: func(context.Context) error {
		store.Close()
		return nil
	}})

	var sessions auth.SessionStore = auth.NoopSessionStore{}
	if cfg.Redis.Addr != "" {
		redisSessions, err := auth.NewRedisSessionStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		sessions = redisSessions
		log.WithField("addr", cfg.Redis.Addr).Info("✅ session store connected")
	}
	closers = append(closers, server.Closer{Name: "sessions", Close: func(context.Context) error {
		return sessions.Close()
	}})

	var publisher messaging.Publisher = messaging.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.WithField("topic", cfg.Kafka.Topic).Info("✅ publishing transaction events")
	}
	closers = append(closers, server.Closer{Name: "publisher", Close: func(context.Context) error {
		return publisher.Close()
	}})

	transactions, err := usecase.NewTransactionUseCase(store, publisher,
		tp.Tracer(cfg.ServiceName), mp.Meter(cfg.ServiceName))
	if err != nil {
		return nil, err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := delivery.NewRouter(delivery.Dependencies{
		Auth:         usecase.NewAuthUseCase(store, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), sessions),
		Genres:       usecase.NewGenreUseCase(store),
		Books:        usecase.NewBookUseCase(store),
		Transactions: transactions,
		Store:        store,
		ServiceName:  cfg.ServiceName,
		Version:      cfg.Version,
		Development:  cfg.IsDevelopment(),
	})

	return server.New(":"+cfg.Port, router, closers...), nil
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.GetLogger(ctx).Warn("using the in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	return postgres.Open(ctx, cfg.Database)
}
