package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thena-travel/flightdesk/config"
	"github.com/thena-travel/flightdesk/internal/auth"
	"github.com/thena-travel/flightdesk/internal/bootstrap"
	"github.com/thena-travel/flightdesk/internal/draft"
	"github.com/thena-travel/flightdesk/internal/gateway"
	"github.com/thena-travel/flightdesk/internal/kafka"
	"github.com/thena-travel/flightdesk/internal/pricing"
	"github.com/thena-travel/flightdesk/internal/validation"
	"github.com/thena-travel/flightdesk/internal/workflow"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store workflow.DraftStore
	if cfg.Redis.Addr != "" {
		store = draft.NewRedisStore(cfg.Redis, cfg.Workflow.DraftTTL())
	} else {
		logger.Warn("redis not configured, booking drafts held in memory")
		store = draft.NewMemoryStore()
	}

	calc := pricing.NewCalculator(logger)
	flightClient := gateway.NewFlightClient(cfg.BookingAPI.BaseURL, cfg.BookingAPI.Timeout(), logger)
	bookingClient := gateway.NewBookingClient(cfg.BookingAPI.BaseURL, cfg.BookingAPI.Timeout(), flightClient, calc, logger)
	authClient := auth.NewClient(cfg.Identity.URL, cfg.Identity.AnonKey, cfg.Identity.Timeout(), logger)

	opts := []workflow.Option{}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		opts = append(opts, workflow.WithPublisher(producer, cfg.Kafka.BookingEventsTopic))
	}

	controller := workflow.NewController(
		store,
		flightClient,
		bookingClient,
		validation.NewPassengerValidator(),
		logger,
		opts...,
	)

	if err := bootstrap.Run(ctx, cfg, controller, bookingClient, authClient, logger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
