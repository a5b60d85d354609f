package config

import (
	"testing"
	"time"

	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"HTTP_ADDR", "SHUTDOWN_TIMEOUT", "STORE_BACKEND", "DATABASE_URL", "SQLITE_PATH",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "BCRYPT_COST", "ADMIN_USERNAME", "ADMIN_PASSWORD",
	"KAFKA_BROKERS", "KAFKA_SALES_TOPIC", "KAFKA_AUDIT_TOPIC", "KAFKA_NOTIFIER_GROUP",
	"AUDIT_SINKS", "AUDIT_DYNAMO_TABLE", "EVENT_BUS", "SALE_EVENTS_TABLE", "SALE_TX_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
	"SMTP_HOST", "SMTP_PORT", "SMTP_FROM", "SMTP_USERNAME", "SMTP_PASSWORD",
}

func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, store.Postgres, c.StoreBackend)
	assert.Equal(t, 10*time.Second, c.SaleTxTimeout)
	assert.Equal(t, 5.0, c.RateLimitRPS)
	assert.Equal(t, 10, c.RateLimitBurst)
	assert.Equal(t, []string{"sql", "log"}, c.AuditSinks)
	assert.Empty(t, c.KafkaBrokers)
	assert.Equal(t, "none", c.EventBus)
	assert.Empty(t, c.OTLPEndpoint)
	assert.Equal(t, "1025", c.SMTPPort)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/panel.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUDIT_SINKS", "sql,kafka,dynamo")
	t.Setenv("SALE_TX_TIMEOUT", "1500ms")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, store.SQLite, c.StoreBackend)
	assert.Equal(t, "/tmp/panel.db", c.SQLitePath)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, "kafka", c.EventBus)
	assert.True(t, c.HasAuditSink("dynamo"))
	assert.False(t, c.HasAuditSink("log"))
	assert.Equal(t, 1500*time.Millisecond, c.SaleTxTimeout)
	assert.Equal(t, 0.5, c.RateLimitRPS)
	assert.Equal(t, 3, c.RateLimitBurst)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SALE_TX_TIMEOUT", "-3s")
	t.Setenv("RATE_LIMIT_BURST", "many")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.SaleTxTimeout)
	assert.Equal(t, 10, c.RateLimitBurst)
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateAPI(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{JWTSecret: secret, EventBus: "none", AuditSinks: []string{"sql", "log"}}, ""},
		{"dynamo bus", Config{JWTSecret: secret, EventBus: "dynamo"}, ""},
		{"kafka bus without brokers", Config{JWTSecret: secret, EventBus: "kafka"}, "EVENT_BUS is kafka but KAFKA_BROKERS is empty"},
		{"unknown bus", Config{JWTSecret: secret, EventBus: "sqs"}, `unknown event bus "sqs"`},
		{"missing secret", Config{}, "JWT_SECRET environment variable is required"},
		{"short secret", Config{JWTSecret: "short"}, "JWT_SECRET must be at least 32 characters long"},
		{"kafka without brokers", Config{JWTSecret: secret, EventBus: "none", AuditSinks: []string{"kafka"}}, "AUDIT_SINKS includes kafka but KAFKA_BROKERS is empty"},
		{"unknown sink", Config{JWTSecret: secret, EventBus: "none", AuditSinks: []string{"syslog"}}, `unknown audit sink "syslog"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateAPI()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
