// Command ingest runs the snapshot pipeline once and exits, for backfills
// and cron-style scheduling outside the server process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"regpulse/internal/audit"
	auditkafka "regpulse/internal/audit/kafka"
	"regpulse/internal/ecfr"
	"regpulse/internal/ingest"
	"regpulse/internal/metricstore"
	"regpulse/internal/platform/config"
	"regpulse/internal/platform/logger"
	"regpulse/internal/platform/metrics"
	"regpulse/internal/platform/postgres"
)

func main() {
	var (
		titlesFlag = flag.String("titles", "", "comma-separated CFR titles (default: 1-50 minus 35)")
		datesFlag  = flag.String("dates", "", "comma-separated snapshot dates YYYY-MM-DD (default: annual 2017-2025)")
		force      = flag.Bool("force", false, "re-process snapshots that already have records")
	)
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	req, err := buildRequest(*titlesFlag, *datesFlag, *force)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "REGPULSE_POSTGRES_DSN is required")
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := metricstore.NewPostgres(db)

	sinks := []audit.Sink{audit.NewInMemoryStore()}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.NewSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	service := ingest.NewService(
		ecfr.NewClient(cfg.ECFRBaseURL),
		store,
		audit.NewPublisher(sinks...),
		log,
		metrics.New(),
		ingest.WithConcurrency(cfg.IngestConcurrency),
		ingest.WithTracer(otel.Tracer("regpulse/ingest")),
	)

	runID := uuid.NewString()
	outcomes, err := service.Run(ctx, runID, req)
	if err != nil {
		log.Error("ingest run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}

	var persisted, skipped, failed int
	for _, out := range outcomes {
		switch out.State {
		case ingest.StatePersisted:
			persisted++
		case ingest.StateSkipped:
			skipped++
		case ingest.StateFailed:
			failed++
			log.Warn("unit failed",
				"title", out.Unit.Title,
				"date", out.Unit.Date.Format("2006-01-02"),
				"error", out.Err,
			)
		}
	}
	log.Info("ingest run complete",
		"run_id", runID,
		"persisted", persisted,
		"skipped", skipped,
		"failed", failed,
	)
	if persisted == 0 && failed > 0 {
		os.Exit(1)
	}
}

func buildRequest(titlesFlag, datesFlag string, force bool) (ingest.Request, error) {
	req := ingest.Request{Force: force, Actor: "cli"}

	if titlesFlag != "" {
		for _, part := range strings.Split(titlesFlag, ",") {
			title, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || title < 1 || title > 50 {
				return ingest.Request{}, fmt.Errorf("invalid title %q", part)
			}
			req.Titles = append(req.Titles, title)
		}
	}
	if datesFlag != "" {
		for _, part := range strings.Split(datesFlag, ",") {
			date, err := time.Parse("2006-01-02", strings.TrimSpace(part))
			if err != nil {
				return ingest.Request{}, fmt.Errorf("invalid date %q", part)
			}
			req.Dates = append(req.Dates, date.UTC())
		}
	}
	return req, nil
}
