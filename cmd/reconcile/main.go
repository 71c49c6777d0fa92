// Command reconcile runs one reconciliation sweep against the configured
// MongoDB store and exits non-zero when any repair failed.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	mongoAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/mongo"
	natsAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if cfg.Store.Backend != config.BackendMongo {
		appLogger.Fatal("reconcile needs a persistent store", zap.String("store_backend", cfg.Store.Backend))
	}

	ctx := context.Background()
	natsConn, err := natsAdapter.Connect(cfg.NATS, appLogger, cfg.ServiceName+"-reconcile")
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsAdapter.Close(natsConn, appLogger)

	mongoClient, err := mongoAdapter.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	feed := natsAdapter.NewChangeFeed(natsConn, cfg.NATS.ChangeSubject, appLogger)
	backend, err := mongoAdapter.NewStore(ctx, mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection, feed, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize MongoDB store", zap.Error(err))
	}
	client := store.WithTimeout(backend, cfg.Store.OpTimeout)

	aggregates := usecase.NewAggregateUsecase(client, nil, nil, appLogger)
	reconciler := usecase.NewReconcileUsecase(client, aggregates, nil, appLogger)

	report, err := reconciler.Sweep(ctx)
	if err != nil {
		appLogger.Fatal("Sweep failed", zap.Error(err))
	}
	if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
		appLogger.Error("Failed to print report", zap.Error(err))
	}
	if len(report.Failures) > 0 {
		appLogger.Error("Sweep finished with failures", zap.Strings("failures", report.Failures))
		os.Exit(1)
	}
}
