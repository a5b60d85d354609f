package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/bizpanel/internal/config"
	"github.com/example/bizpanel/internal/email"
	"github.com/example/bizpanel/internal/infrastructure/kinesis"
	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/example/bizpanel/internal/notification"
)

var notificationHandler *notification.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Notifier] Invalid configuration: %v", err)
	}

	db, err := store.Open(cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[Lambda Notifier] Failed to open %s store: %v", cfg.StoreBackend, err)
	}

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	notificationHandler = notification.NewHandler(emailSvc, store.NewDirectory(db, cfg.StoreBackend))

	log.Printf("[Lambda Notifier] Initialized successfully (SMTP: %s:%s)", cfg.SMTPHost, cfg.SMTPPort)
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Notifier] Received %d records", len(kinesisEvent.Records))

	var batchItemFailures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord) {
		batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range kinesisEvent.Records {
		env, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.Printf("[Lambda Notifier] Failed to convert record %s: %v", record.EventID, err)
			fail(record)
			continue
		}

		// Skip non-INSERT changes
		if env == nil {
			continue
		}

		log.Printf("[Lambda Notifier] Processing event: %s (type: %s)", env.ID, env.EventType)

		value, err := json.Marshal(env)
		if err != nil {
			log.Printf("[Lambda Notifier] Failed to marshal event %s: %v", env.ID, err)
			fail(record)
			continue
		}

		if err := notificationHandler.HandleEvent(ctx, []byte(env.AggregateID), value); err != nil {
			log.Printf("[Lambda Notifier] Failed to process event %s: %v", env.ID, err)
			fail(record)
		}
	}

	successCount := len(kinesisEvent.Records) - len(batchItemFailures)
	log.Printf("[Lambda Notifier] Processed %d/%d records successfully", successCount, len(kinesisEvent.Records))

	return events.KinesisEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func main() {
	lambda.Start(handler)
}
