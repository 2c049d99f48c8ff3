package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "syfooversiktsrv", cfg.Kafka.GroupID)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Jobs.ReaperInterval)
	assert.Equal(t, 61*24*time.Hour, cfg.Jobs.ReaperCaseEndCutoff)
	assert.Equal(t, 61*24*time.Hour, cfg.Jobs.ReaperModifiedCutoff)
	assert.Equal(t, 5, cfg.Jobs.PreloaderHour)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.BackfillInterval)
	assert.Empty(t, cfg.Redis.URL, "cache is opt-in")
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("ALLOWED_CLIENT_IDS", "syfomodiaperson,syfooversikt")
	t.Setenv("REAPER_CASE_END_CUTOFF", "720h")
	t.Setenv("PRELOADER_HOUR", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"syfomodiaperson", "syfooversikt"}, cfg.Server.AllowedClients)
	assert.Equal(t, 720*time.Hour, cfg.Jobs.ReaperCaseEndCutoff)
	assert.Equal(t, 3, cfg.Jobs.PreloaderHour)
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("BACKFILL_INTERVAL", "soon")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKFILL_INTERVAL")
}

func TestFromEnvRejectsBadPreloaderHour(t *testing.T) {
	for _, raw := range []string{"24", "-1", "noon"} {
		t.Setenv("PRELOADER_HOUR", raw)
		_, err := FromEnv()
		assert.Error(t, err, "hour %q", raw)
	}
}
