package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/matching"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.Equal(t, "fern-api", cfg.AppName)
		assert.Equal(t, "postgres", cfg.DatabaseDriver)
		assert.Equal(t, time.Hour, cfg.CacheTTL)
		assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "listings.scraped", cfg.KafkaInputTopic)

		mc, err := cfg.MatchingConfig()
		require.NoError(t, err)
		assert.Equal(t, matching.DefaultConfig(), mc)
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		t.Setenv("FUZZY_SCORE_THRESHOLD", "6")
		t.Setenv("MAPPER_SIZE_TOLERANCE_RATIO", "0.05")
		t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		mc, err := cfg.MatchingConfig()
		require.NoError(t, err)
		assert.Equal(t, 6, mc.Scoring.Threshold)
		assert.Equal(t, 0.05, mc.MapperSizeToleranceRatio)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	})

	t.Run("should read an env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("ALIAS_DATASET_PATH=/etc/fern/aliases.yaml\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("ALIAS_DATASET_PATH") })

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/etc/fern/aliases.yaml", cfg.AliasDatasetPath)
	})

	t.Run("should reject invalid matching settings", func(t *testing.T) {
		t.Setenv("PERMIT_PREFIX_DROP", "5")

		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorContains(t, err, "invalid matching config")
	})
}
