package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifelink/internal/donor"
	donorhandler "lifelink/internal/donor/handler"
	"lifelink/internal/ledger"
	ledgerhandler "lifelink/internal/ledger/handler"
	"lifelink/internal/match"
	matchhandler "lifelink/internal/match/handler"
	"lifelink/internal/match/metrics"
	"lifelink/internal/match/runner"
	matchservice "lifelink/internal/match/service"
	"lifelink/internal/platform/config"
	"lifelink/internal/platform/httpserver"
	"lifelink/internal/platform/logger"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/platform/postgres"
	platformredis "lifelink/internal/platform/redis"
	"lifelink/internal/recipient"
	recipienthandler "lifelink/internal/recipient/handler"
	"lifelink/internal/stats"
	httptransport "lifelink/internal/transport/http"
)

// main wires the stores, the matching core, and the HTTP surface. Everything
// heavier than wiring lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}

	var (
		donors     donor.Store
		recipients recipient.Store
		matches    match.Store
		ledgers    ledger.Store
		txRunner   matchservice.TxRunner
	)
	if db != nil {
		donors = donor.NewPostgresStore(db)
		recipients = recipient.NewPostgresStore(db)
		matches = match.NewPostgresStore(db)
		ledgers = ledger.NewPostgresStore(db)
		txRunner = newMatchPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		donors = donor.NewInMemoryStore()
		recipients = recipient.NewInMemoryStore()
		matches = match.NewInMemoryStore()
		ledgers = ledger.NewInMemoryStore()
		txRunner = matchservice.NewMemoryTxRunner()
		log.Info("no postgres configured, using in-memory stores")
	}

	var cache stats.Cache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = stats.NewRedisCache(redisClient)
		log.Info("using redis statistics cache")
	} else {
		cache = stats.NewInMemoryCache()
	}

	var publisherOpts []ledger.Option
	if len(cfg.Kafka.Brokers) > 0 {
		outbox := make(chan ledger.Event, 256)
		worker, err := ledger.NewKafkaWorker(cfg.Kafka.Brokers, cfg.Kafka.Topic, outbox, log)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err.Error())
			os.Exit(1)
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("ledger kafka worker stopped", "error", err.Error())
			}
		}()
		publisherOpts = append(publisherOpts, ledger.WithOutbox(outbox))
		log.Info("publishing ledger events to kafka", "topic", cfg.Kafka.Topic)
	}
	publisher := ledger.NewPublisher(ledgers, log, publisherOpts...)

	statsService := stats.NewService(donors, recipients, matches, cache)
	matchService := matchservice.NewService(
		donors,
		recipients,
		matches,
		txRunner,
		publisher,
		statsService,
		log,
		matchservice.WithMetrics(metrics.New()),
	)

	if cfg.BatchInterval > 0 {
		go runner.New(matchService, cfg.BatchInterval, log).Run(ctx)
	}

	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(
		donorhandler.New(donors, matchService, log),
		recipienthandler.New(recipients, matchService, log),
		matchhandler.New(matchService, statsService, validator, log),
		ledgerhandler.New(publisher, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting lifelink", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	stop()

	if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("lifelink stopped")
}
