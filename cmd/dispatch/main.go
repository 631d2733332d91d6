package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lacovidbot/covid-status-notifier/notifier"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("error: config file location not specified")
	}

	c, err := notifier.LoadConfig(os.Args[1])
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
		sugar.Fatalf("dispatch: %v", err)
	}
	defer db.Close()

	subscriber := notifier.NewSubscriber(c.AMQP, sugar)
	guard := notifier.NewMySQLDispatchStore(db)
	channel := notifier.NewWebhookNotifier(c.Notifier)
	pipeline := notifier.NewDispatchPipeline(guard, channel, sugar)
	dispatcher := notifier.NewDispatcher(subscriber, pipeline, sugar)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := dispatcher.Run(ctx); err != nil {
		sugar.Fatalf("dispatch: %s", err)
	}

	sugar.Info("dispatch: shutdown OK")
}
