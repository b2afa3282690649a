package redisstreams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{Stream: "queue:trace-upsert"}
	cfg.setDefaults()

	assert.Equal(t, "workers", cfg.ConsumerGroup)
	assert.NotEmpty(t, cfg.ConsumerID)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BlockDuration)
	assert.Equal(t, int64(3), cfg.MaxDeliveries)
	assert.Equal(t, 30*time.Second, cfg.ClaimMinIdle)
}

func TestConfig_SetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Stream:        "queue:eval-execution",
		ConsumerGroup: "eval-executors",
		ConsumerID:    "executor-1",
		BatchSize:     50,
		MaxDeliveries: 5,
	}
	cfg.setDefaults()

	assert.Equal(t, "eval-executors", cfg.ConsumerGroup)
	assert.Equal(t, "executor-1", cfg.ConsumerID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, int64(5), cfg.MaxDeliveries)
}

func TestIDTimestamp_ParsesMillisecondPrefix(t *testing.T) {
	ts := idTimestamp("1700000000000-0")
	assert.Equal(t, int64(1700000000000), ts.UnixMilli())
}

func TestIDTimestamp_FallsBackOnMalformedID(t *testing.T) {
	ts := idTimestamp("not-a-valid-id")
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
}
