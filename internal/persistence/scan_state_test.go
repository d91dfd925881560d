package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdesk/case-service/internal/domain"
)

func TestMemoryScanStateLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 0, 5, 0, 0, time.UTC)
	state := NewMemoryScanState()
	state.now = func() time.Time { return now }

	release, ok, err := state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second run must wait for the first")

	require.NoError(t, release(ctx))
	release2, ok, err := state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// expired lock is taken over and the stale release leaves the new holder alone
	now = now.Add(2 * time.Minute)
	_, ok, err = state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, release2(ctx))
	_, ok, err = state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryScanStateSummary(t *testing.T) {
	ctx := context.Background()
	state := NewMemoryScanState()

	last, err := state.LastSummary(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	summary := &domain.ScanSummary{RunAt: time.Now()}
	require.NoError(t, state.SaveSummary(ctx, summary))
	last, err = state.LastSummary(ctx)
	require.NoError(t, err)
	assert.Same(t, summary, last)
}
