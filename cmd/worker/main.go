package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thena-travel/flightdesk/config"
	"github.com/thena-travel/flightdesk/internal/bootstrap"
	"github.com/thena-travel/flightdesk/internal/email"
	"github.com/thena-travel/flightdesk/internal/kafka"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := bootstrap.NewLogger(cfg.Logging)

	if !cfg.Kafka.Enabled() {
		log.Fatal("worker requires kafka brokers in config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger)

	logger.WithField("topic", cfg.Kafka.BookingEventsTopic).Info("confirmation worker started")

	if err := consumer.Consume(ctx, sender.Send); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("consumer stopped")
	}
}
