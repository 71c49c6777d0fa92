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

	"github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/memory"
	minioAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/minio"
	mongoAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/mongo"
	natsAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/nats"
	redisAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/redis"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/tracer"
	httpPort "github.com/Abdurahmanit/GroupProject/class-service/internal/port/http"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/subscription"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Configuration loaded",
		zap.String("service", cfg.ServiceName),
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("store_backend", cfg.Store.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := tracer.InitTracer(cfg.ServiceName, cfg.Tracing.OTLPEndpoint, appLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(ctx, cfg.Metrics.Port, appLogger, metricsManager.Registry); err != nil {
			appLogger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = natsAdapter.Connect(cfg.NATS, appLogger, cfg.ServiceName)
		if err != nil {
			if cfg.Store.Backend == config.BackendMongo {
				appLogger.Fatal("NATS is required for the mongo store backend", zap.Error(err))
			}
			appLogger.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		} else {
			defer natsAdapter.Close(natsConn, appLogger)
		}
	}

	var backend store.Client
	switch cfg.Store.Backend {
	case config.BackendMongo:
		mongoClient, err := mongoAdapter.NewMongoDBConnection(&cfg.Mongo)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Failed to disconnect MongoDB", zap.Error(err))
			} else {
				appLogger.Info("MongoDB connection closed.")
			}
		}()
		feed := natsAdapter.NewChangeFeed(natsConn, cfg.NATS.ChangeSubject, appLogger)
		mongoStore, err := mongoAdapter.NewStore(ctx, mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection, feed, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize MongoDB store", zap.Error(err))
		}
		backend = mongoStore
	default:
		appLogger.Warn("Using the in-memory store; data is lost on restart")
		backend = memory.New()
	}
	client := store.WithTimeout(backend, cfg.Store.OpTimeout)

	var events usecase.EventPublisher
	if natsConn != nil {
		events = natsAdapter.NewPublisher(natsConn, cfg.ServiceName, appLogger)
	}

	listingUC := usecase.NewListingUsecase(client, events, metricsManager, appLogger)
	aggregateUC := usecase.NewAggregateUsecase(client, events, metricsManager, appLogger)
	postUC := usecase.NewPostUsecase(client, aggregateUC, events, metricsManager, appLogger)
	reconcileUC := usecase.NewReconcileUsecase(client, aggregateUC, metricsManager, appLogger)

	streams := subscription.NewManager(client, appLogger)
	defer streams.CloseAll()
	metricsManager.RegisterActiveStreams(cfg.ServiceName, func() float64 { return float64(streams.Active()) })

	deps := httpPort.Handler{
		Listings:       listingUC,
		Aggregates:     aggregateUC,
		Posts:          postUC,
		Reconciler:     reconcileUC,
		Streams:        streams,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	}
	if cfg.Redis.Address != "" {
		rdb, err := redisAdapter.NewRedisClient(&cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, handoff disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.Handoff = redisAdapter.NewHandoffStore(rdb, cfg.Handoff.TTL, appLogger)
		}
	}
	if cfg.MinIO.Endpoint != "" {
		images, err := minioAdapter.NewImageStore(ctx, cfg.MinIO, appLogger)
		if err != nil {
			appLogger.Warn("MinIO unavailable, image upload disabled", zap.Error(err))
		} else {
			deps.Images = images
		}
	}

	go runReconcileLoop(ctx, reconcileUC, cfg.Reconcile.Interval, appLogger)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      httpPort.NewRouter(httpPort.NewHandler(deps, appLogger), appLogger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		appLogger.Info("Starting class-service HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down class-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	streams.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("class-service stopped")
}

func runReconcileLoop(ctx context.Context, uc *usecase.ReconcileUsecase, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		log.Info("Background reconciliation disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := uc.Sweep(ctx)
			if err != nil {
				log.Error("Background sweep failed", zap.Error(err))
				continue
			}
			log.Info("Background sweep finished",
				zap.Int("repaired", report.Repaired),
				zap.Int("posts", report.Posts),
				zap.Int("failures", len(report.Failures)))
		}
	}
}
