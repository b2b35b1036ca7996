package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"regpulse/internal/audit"
	auditkafka "regpulse/internal/audit/kafka"
	"regpulse/internal/ecfr"
	"regpulse/internal/ingest"
	ingesthandler "regpulse/internal/ingest/handler"
	"regpulse/internal/metricstore"
	"regpulse/internal/platform/config"
	"regpulse/internal/platform/httpserver"
	"regpulse/internal/platform/logger"
	"regpulse/internal/platform/metrics"
	"regpulse/internal/platform/postgres"
	platformredis "regpulse/internal/platform/redis"
	"regpulse/internal/platform/token"
	"regpulse/internal/query"
	queryhandler "regpulse/internal/query/handler"
	"regpulse/internal/registry"
	httptransport "regpulse/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	reg, err := registry.Load()
	if err != nil {
		log.Error("loading reference registry failed", "error", err)
		os.Exit(1)
	}

	var store metricstore.Store = metricstore.NewInMemory()
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		store = metricstore.NewPostgres(db)
		log.Info("using postgres metric store")
	} else {
		log.Warn("no postgres DSN configured, metrics are in-memory only")
	}

	m := metrics.New()

	facadeOpts := []query.FacadeOption{
		query.WithPacer(query.NewTokenBucket(cfg.PaceInterval, cfg.PaceBurst)),
		query.WithGroupCap(cfg.GroupCap),
	}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		facadeOpts = append(facadeOpts, query.WithCache(query.NewCache(redisClient, cfg.CacheTTL, log)))
		log.Info("query cache enabled", "ttl", cfg.CacheTTL)
	}
	facade := query.NewFacade(query.NewEngine(store), reg, log, m, facadeOpts...)

	trail := audit.NewInMemoryStore()
	sinks := []audit.Sink{trail}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.NewSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("kafka audit sink enabled", "topic", cfg.AuditTopic)
	}

	source := ecfr.NewClient(cfg.ECFRBaseURL)
	ingestService := ingest.NewService(source, store, audit.NewPublisher(sinks...), log, m,
		ingest.WithConcurrency(cfg.IngestConcurrency),
		ingest.WithTracer(otel.Tracer("regpulse/ingest")))

	router := httptransport.NewRouter(httptransport.Deps{
		Query:     queryhandler.New(facade, log),
		Admin:     ingesthandler.New(ingestService, trail, log),
		Validator: token.NewService(cfg.JWTSigningKey, "regpulse"),
		Logger:    log,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting regpulse", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
