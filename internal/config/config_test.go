package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.MaxSubmissions)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.MinInterval)
	assert.Equal(t, "tok_sim_", cfg.Payment.SimulatedTokenPrefix)
	assert.False(t, cfg.Payment.GatewayConfigured())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("ORDER_RATE_MIN_INTERVAL", "500ms")
	t.Setenv("FEATURE_ORDER_EVENTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Payment.GatewayConfigured())
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.MinInterval)
	assert.True(t, cfg.Features.EnableOrderEvents)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnenforceableRateLimit(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero max", "ORDER_RATE_MAX", "0"},
		{"negative max", "ORDER_RATE_MAX", "-1"},
		{"zero window", "ORDER_RATE_WINDOW", "0s"},
		{"negative interval", "ORDER_RATE_MIN_INTERVAL", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "shop", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=shop sslmode=disable", d.ConnectionString())
}
