// Command api is the read-mostly HTTP surface from spec.md §6: job
// browsing, status transitions, the Telegram callback webhook, and
// source/weekly analytics, backed by the same Postgres store the
// scheduler writes to. Grounded on the teacher's cmd/api/main.go (config
// load, signal handling, store init, server goroutine, graceful shutdown
// with timeout), with etcd coordination and the Redis job queue dropped —
// this process only reads and transitions rows the scheduler already
// wrote, it never dispatches work.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/httpapi"
	"jobradar/pkg/logger"
	"jobradar/pkg/observability"
	"jobradar/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.Init(logger.Config{Level: "info", Encoding: "json", OutputPath: "stdout", Service: "api"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "api: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	store, err := postgres.New(connStr)
	if err != nil {
		log.Fatal("api: failed to initialize storage", zap.Error(err))
	}
	defer store.Close()
	log.Info("api: postgres connected & schema migrated")

	tracingCfg := observability.DefaultConfig("jobradar-api")
	tracingCfg.Endpoint = cfg.TracingEndpoint
	tracingCfg.Enabled = cfg.TracingEnabled
	tracer, err := observability.Init(ctx, tracingCfg)
	if err != nil {
		log.Fatal("api: failed to initialize tracing", zap.Error(err))
	}
	defer tracer.Shutdown(ctx)

	server := httpapi.NewServer(httpapi.Config{
		Port:      cfg.APIPort,
		AuthToken: cfg.APIAuthToken,
		Store:     store,
		Tracer:    tracer.Tracer(),
		Log:       log,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error("api: server error", zap.Error(err))
		}
	}()
	log.Info("api: server started", zap.String("port", cfg.APIPort))

	sig := <-sigChan
	log.Info("api: received signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("api: shutdown error", zap.Error(err))
	}

	cancel()
	log.Info("api: shutdown complete")
}
