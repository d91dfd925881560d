package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lexdesk/case-service/internal/config"
)

func TestRunAgainstInMemoryStorage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.Config{App: config.AppConfig{Name: "casedesk"}}

	assert.Equal(t, 0, run(cfg, zap.New(core)))

	finished := logs.FilterMessage("vacation scan finished").All()
	require.NotEmpty(t, finished)
	assert.EqualValues(t, 0, finished[len(finished)-1].ContextMap()["failed"])
}
