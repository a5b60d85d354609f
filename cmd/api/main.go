package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/bizpanel/internal/api"
	"github.com/example/bizpanel/internal/api/middleware"
	"github.com/example/bizpanel/internal/audit"
	"github.com/example/bizpanel/internal/auth"
	"github.com/example/bizpanel/internal/command"
	"github.com/example/bizpanel/internal/config"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/infrastructure/kafka"
	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/example/bizpanel/internal/query"
	"github.com/example/bizpanel/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Invalid configuration: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] BizPanel - Sales Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Store: %s", cfg.StoreBackend)
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Audit sinks: %v", cfg.AuditSinks)
	log.Printf("[API] Event bus: %s", cfg.EventBus)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[API] Failed to set up telemetry: %v", err)
	}

	// Initialize database connection
	db, err := store.Open(cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[API] Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer db.Close()
	if err := store.Migrate(ctx, db, cfg.StoreBackend); err != nil {
		log.Fatalf("[API] Failed to migrate schema: %v", err)
	}
	log.Printf("[API] Connected to %s", cfg.StoreBackend)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	if cfg.AdminPassword != "" {
		hash, err := hasher.Hash(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("[API] Invalid ADMIN_PASSWORD: %v", err)
		}
		if err := store.Bootstrap(ctx, db, cfg.StoreBackend, cfg.AdminUsername, hash); err != nil {
			log.Fatalf("[API] Failed to bootstrap admin user: %v", err)
		}
	}

	// Initialize stores
	saleStore := store.NewSQLSaleStore(db, cfg.StoreBackend)
	directory := store.NewDirectory(db, cfg.StoreBackend)
	activityStore := store.NewActivityStore(db, cfg.StoreBackend)
	userStore := store.NewUserStore(db, cfg.StoreBackend)

	// Sale events go to Kafka, or to DynamoDB for the serverless notifier
	saleOpts := []sale.Option{sale.WithTxTimeout(cfg.SaleTxTimeout)}
	switch cfg.EventBus {
	case "kafka":
		salesProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.SalesTopic)
		defer salesProducer.Close()
		saleOpts = append(saleOpts, sale.WithPublisher(salesProducer))
		log.Printf("[API] Publishing sales to Kafka topic: %s", cfg.SalesTopic)
	case "dynamo":
		publisher := store.NewDynamoEventPublisher(dynamoClient(ctx), cfg.SaleEventsTable)
		saleOpts = append(saleOpts, sale.WithPublisher(publisher))
		log.Printf("[API] Publishing sales to DynamoDB table: %s", cfg.SaleEventsTable)
	default:
		log.Println("[API] Sale events are not published")
	}

	sinks, closeSinks := buildAuditSinks(ctx, cfg, activityStore)
	defer closeSinks()

	// Initialize domain services and handlers
	saleSvc := sale.NewService(saleStore, saleOpts...)
	cmdHandler := command.NewHandler(saleSvc, directory, audit.NewRecorder(sinks))
	queryHandler := query.NewHandler(saleStore, activityStore)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		limiter.Run(ctx)
	}()

	// Initialize API
	handlers := api.NewHandlers(cmdHandler, queryHandler)
	authHandlers := api.NewAuthHandlers(userStore, hasher, jwtService)
	router := api.NewRouter(handlers, authHandlers, api.RouterConfig{
		Tokens:      jwtService,
		RateLimiter: limiter,
	})

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: telemetry.Middleware(router),
	}

	go func() {
		log.Println("[API] ========================================")
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		log.Println("[API] ========================================")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Server shutdown error: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("[API] Telemetry shutdown error: %v", err)
	}

	wg.Wait()
}

// buildAuditSinks assembles the sinks named in AUDIT_SINKS. The returned
// func closes any producer opened for them.
func buildAuditSinks(ctx context.Context, cfg config.Config, activity *store.ActivityStore) (audit.Fanout, func()) {
	var (
		sinks   audit.Fanout
		closers []func() error
	)
	for _, name := range cfg.AuditSinks {
		switch name {
		case "sql":
			sinks = append(sinks, audit.NewSQLSink(activity))
		case "log":
			sinks = append(sinks, audit.LogSink{})
		case "kafka":
			producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
			closers = append(closers, producer.Close)
			sinks = append(sinks, audit.NewKafkaSink(producer))
		case "dynamo":
			sinks = append(sinks, audit.NewDynamoSink(dynamoClient(ctx), cfg.AuditDynamoTable))
			log.Printf("[API] Archiving activity to DynamoDB table: %s", cfg.AuditDynamoTable)
		}
	}
	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("[API] Error closing audit producer: %v", err)
			}
		}
	}
}

var (
	dynamoOnce   sync.Once
	dynamoShared *dynamodb.Client
)

// dynamoClient builds one client from the default AWS credential chain.
func dynamoClient(ctx context.Context) *dynamodb.Client {
	dynamoOnce.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[API] Failed to load AWS config: %v", err)
		}
		dynamoShared = dynamodb.NewFromConfig(awsCfg)
	})
	return dynamoShared
}
