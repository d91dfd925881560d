package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/lexdesk/case-service/internal/config"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordTransfers("leave-start", 3)
	m.RecordTransfers("leave-start", 0)
	m.RecordReassignmentError("leave-start", "NO_SUBSTITUTE_AVAILABLE")
	m.RecordScanRun("ok")
	m.RecordRequest("/health/live", "GET", 200, 5*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.transfers.WithLabelValues("leave-start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reassignErrors.WithLabelValues("leave-start", "NO_SUBSTITUTE_AVAILABLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scanRuns.WithLabelValues("ok")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordTransfers("manual", 1)
	m.RecordError("/x", "GET", "NOT_FOUND")
	m.RecordScanRun("failed")
	assert.Nil(t, m.Registry())
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, config.AppConfig{Name: "case-service"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "debug", Format: "console"}, config.AppConfig{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
