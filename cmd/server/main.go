package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/config"
	"chicpos/internal/infra"
	"chicpos/internal/metrics"
	"chicpos/internal/repository"
	"chicpos/internal/router"
	"chicpos/internal/service"
	"chicpos/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Ledger events go to Kafka only when brokers are configured
	var publisher service.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := infra.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("ledger events published to kafka")
	}

	// Worker handlers are wired here (composition root) so the pool has the
	// infrastructure it needs without the router knowing about it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := worker.NewDispatcher(rdb)
	mailer := infra.NewMailer(cfg, infra.NewCircuitBreaker(infra.DefaultBreakerConfig(), nil))
	pool := worker.NewPool(rdb, m)
	// jobs:email only gets a consumer when SMTP is set; without one nothing may be pushed there.
	var emails worker.EmailQueue
	if mailer.Configured() {
		emails = dispatcher
		pool.Register(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer))
	} else {
		log.Warn().Msg("SMTP_HOST not set, closure receipts are generated but not mailed")
	}
	pool.Register(worker.QueueClosureReceipt, worker.JobClosureReceipt, worker.NewClosureReceiptWorker(
		repository.NewClosureRepository(db), emails, cfg.StoreName, cfg.PDFStoragePath, cfg.OwnerEmail))
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(cfg, router.Deps{
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
		Receipts:  dispatcher,
		Metrics:   m,
		Gatherer:  reg,
		Clock:     clock.System(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("%s backend listening on :%d", cfg.StoreName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
