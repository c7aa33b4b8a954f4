package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardapio/internal/cashier"
	"cardapio/internal/config"
	"cardapio/internal/infra"
	"cardapio/internal/repository"
	"cardapio/internal/router"
	"cardapio/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cashier state machine. The Redis snapshot plus the durable sales
	// history rehydrate an interrupted shift across restarts.
	saleHistoryRepo := repository.NewSaleHistoryRepository(db)
	sessionArchiveRepo := repository.NewSessionArchiveRepository(db)
	manager, err := cashier.NewManager(ctx, cashier.Config{
		Store:     cashier.NewRedisStore(rdb, cfg.CashierStateKey),
		History:   saleHistoryRepo,
		Archive:   sessionArchiveRepo,
		QueueSize: cfg.CashierWriteQueue,
		OnWarning: func(w cashier.PersistenceWarning) {
			log.Warn().Str("op", w.Op).Err(w.Err).Msg("cashier: snapshot write failed")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to rehydrate cashier state")
	}

	// Async pipeline: close-of-session PDF + email, SMTP behind a breaker.
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewBreaker(infra.DefaultBreakerConfig())
	dispatcher := worker.NewDispatcher(rdb)
	handlers := map[string]worker.Handler{
		"session_report": worker.NewReportWorker(mailer, smtpCB, rdb, cfg.PDFStoragePath),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	r := router.New(cfg, db, rdb, manager, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cardapio backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	// Drain pending cashier snapshot writes before exiting.
	manager.Close()
	log.Info().Msg("server exited")
}
