package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/bizpanel/internal/config"
	"github.com/example/bizpanel/internal/email"
	"github.com/example/bizpanel/internal/infrastructure/kafka"
	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/example/bizpanel/internal/notification"
	"github.com/example/bizpanel/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] Invalid configuration: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[Notifier] KAFKA_BROKERS environment variable is required")
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] BizPanel - Sale Receipt Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Notifier] Topic: %s", cfg.SalesTopic)
	log.Printf("[Notifier] Group: %s", cfg.NotifierGroup)
	log.Printf("[Notifier] SMTP: %s:%s", cfg.SMTPHost, cfg.SMTPPort)
	log.Printf("[Notifier] From: %s", cfg.SMTPFrom)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName+"-notifier", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[Notifier] Failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("[Notifier] Telemetry shutdown error: %v", err)
		}
	}()

	// Client and product lookups
	db, err := store.Open(cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[Notifier] Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer db.Close()
	log.Printf("[Notifier] Connected to %s", cfg.StoreBackend)

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	handler := notification.NewHandler(emailSvc, store.NewDirectory(db, cfg.StoreBackend))

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.SalesTopic, cfg.NotifierGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
	<-done
}
