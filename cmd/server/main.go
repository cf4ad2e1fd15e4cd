package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/config"
	"github.com/mamadbah2/stockbook/internal/repository/mongodb"
	"github.com/mamadbah2/stockbook/internal/scheduler"
	"github.com/mamadbah2/stockbook/internal/server/handlers"
	"github.com/mamadbah2/stockbook/internal/server/router"
	auditsvc "github.com/mamadbah2/stockbook/internal/service/audit"
	"github.com/mamadbah2/stockbook/internal/service/identity"
	salessvc "github.com/mamadbah2/stockbook/internal/service/sales"
	"github.com/mamadbah2/stockbook/pkg/clients/notifier"
	"github.com/mamadbah2/stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	ledgerRepo, err := mongodb.NewLedgerRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongo"))
	connectCancel()
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := ledgerRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var saleNotifier salessvc.Notifier
	if cfg.Notifier.WebhookURL != "" {
		saleNotifier = notifier.NewWebhookClient(cfg.Notifier)
		baseLogger.Info("sale webhook notifier enabled")
	} else {
		baseLogger.Warn("sale webhook url missing, notifications disabled")
	}

	processor := salessvc.NewProcessor(ledgerRepo, saleNotifier, baseLogger.Named("svc.sales"))
	auditService := auditsvc.NewService(ledgerRepo, baseLogger.Named("svc.audit"))
	resolver := identity.NewStaticResolver(cfg.Auth.Tokens, baseLogger.Named("svc.identity"))

	ledgerHandler := handlers.NewLedgerHandler(processor, baseLogger.Named("handlers.ledger"))
	engine := router.New(ledgerHandler, resolver, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Audit, auditService, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
