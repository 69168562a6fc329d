package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/exactsync/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithUserID(ctx, "user-7")
	ctx = obscontext.WithDivision(ctx, "123456")

	WithContext(ctx, base).Info("synced")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "user-7", fields["user_id"])
		assert.Equal(t, "123456", fields["division"])
		assert.NotContains(t, fields, "trace_id")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewInstallsGlobalLogger(t *testing.T) {
	previous := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(previous) })

	log, err := New(nil, Config{ServiceName: "exactsync", Level: "debug", Format: "Console"})
	require.NoError(t, err)
	assert.Same(t, log, zap.L())
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "console", normalizeFormat(" Console "))
	assert.Equal(t, "json", normalizeFormat(""))
	assert.Equal(t, "json", normalizeFormat("logfmt"))
}

func TestERPRejectionsLogAsWarnings(t *testing.T) {
	assert.True(t, isERPRejection(401, "auth_required"))
	assert.True(t, isERPRejection(401, "token_refresh_failed"))
	assert.True(t, isERPRejection(422, "item_not_found"))
	assert.False(t, isERPRejection(401, "unauthorized"))
	assert.False(t, isERPRejection(422, "validation_error"))
	assert.False(t, isERPRejection(502, "transport_error"))
}
