package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS",
		"SERVICE_NAME", "JWT_SECRET",
		"FREE_SHIPPING_THRESHOLD_CENTS", "SHIPPING_FEE_CENTS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "aquastore-api", cfg.ServiceName)
	assert.Equal(t, int64(500000), cfg.FreeShippingThresholdCents)
	assert.Equal(t, int64(30000), cfg.ShippingFeeCents)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("FREE_SHIPPING_THRESHOLD_CENTS", "750000")
	t.Setenv("SHIPPING_FEE_CENTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(750000), cfg.FreeShippingThresholdCents)
	assert.Equal(t, int64(30000), cfg.ShippingFeeCents)
}
