package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/lacovidbot/covid-status-notifier/notifier"
	"go.uber.org/zap"
)

func main() {
	var (
		interval   = flag.Duration("interval", 15*time.Minute, "poll interval")
		runTimeout = flag.Duration("run-timeout", time.Minute, "per-run deadline")
		once       = flag.Bool("once", false, "run a single cycle then exit")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("error: config file location not specified")
	}

	c, err := notifier.LoadConfig(flag.Arg(0))
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	// Set up logger
	var logger *zap.Logger
	if c.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	db, err := notifier.NewDBConnection(c.MySQL)
	if err != nil {
		sugar.Fatalf("ingest: %v", err)
	}
	defer db.Close()

	state := notifier.NewRedisStateStore(c.Redis)
	defer state.Close()

	publisher := notifier.NewAMQPPublisher(c.AMQP, sugar)
	if err := publisher.Connect(); err != nil {
		sugar.Fatalf("ingest: %v", err)
	}
	defer publisher.Shutdown()

	fetcher := notifier.NewHTTPFetcher(c.Sources.HTTPTimeout)
	observations := notifier.NewMySQLObservationStore(db)

	counter := notifier.NewCounterPipeline(c.Sources, fetcher, state, observations, publisher, sugar)
	hospital := notifier.NewHospitalPipeline(c.Sources, fetcher, state, observations, publisher, sugar)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runOnce := func() {
		rctx, done := context.WithTimeout(ctx, *runTimeout)
		defer done()

		if err := counter.Run(rctx); err != nil {
			sugar.Errorf("ingest: counter: %s", err)
		}
		if err := hospital.Run(rctx); err != nil {
			sugar.Errorf("ingest: hospital: %s", err)
		}
	}

	sugar.Infof("ingest: started (interval: %s)", interval.String())
	runOnce()
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sugar.Info("ingest: shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
