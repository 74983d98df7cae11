package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Config{OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestFromZap_WithAttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core)).With(logger.String("component", "crawler"))

	log.Warn("fetch failed", logger.Error(errors.New("boom")), logger.Int("attempt", 1))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fetch failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "crawler", ctx["component"])
	assert.Equal(t, "boom", ctx["error"])
	assert.EqualValues(t, 1, ctx["attempt"])
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	t.Parallel()

	log := logger.NewNop()
	log.Info("ignored", logger.Bool("ok", true))
	assert.NoError(t, log.Sync())
}
