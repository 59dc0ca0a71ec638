package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

func TestNewLogger_DevHasNoSentryWriter(t *testing.T) {
	cfg := &config.Config{Environment: "dev", LogLevel: "debug"}

	_, writer := NewLogger(cfg)
	assert.Nil(t, writer)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	cfg := &config.Config{Environment: "dev", LogLevel: "shouting"}

	_, _ = NewLogger(cfg)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewLogger_ProdWithoutDSN(t *testing.T) {
	cfg := &config.Config{Environment: "prod", LogLevel: "info"}

	_, writer := NewLogger(cfg)
	assert.Nil(t, writer)
}

func TestNewJSON_CarriesReleaseFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	cfg := &config.Config{Version: "1.2.3", Environment: "prod"}

	logger := newJSON(&buf, cfg)
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "prod", entry["environment"])
	assert.Equal(t, "hello", entry["message"])
}
