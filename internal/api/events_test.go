package api

import (
	"ats-analyzer/internal/cache"
	"ats-analyzer/internal/config"
	"ats-analyzer/internal/models"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvents(t *testing.T) *Events {
	t.Helper()
	c, err := cache.InitServer(context.Background(), config.RedisConfig{Address: testRedis.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return NewEvents(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, c, time.Minute)
}

func TestEvents_StatsRoundTrip(t *testing.T) {
	events := newTestEvents(t)
	ctx := context.Background()
	owner := t.Name()

	_, gen, ok := events.cachedStats(ctx, owner)
	require.False(t, ok)
	require.Zero(t, gen)

	events.storeStats(ctx, owner, gen, &models.DashboardStats{TotalAnalyses: 2, AverageScore: 70})

	stats, _, ok := events.cachedStats(ctx, owner)
	require.True(t, ok)
	assert.Equal(t, 2, stats.TotalAnalyses)
	assert.Equal(t, 70, stats.AverageScore)
}

func TestEvents_InvalidationDuringComputeDropsStaleWrite(t *testing.T) {
	events := newTestEvents(t)
	ctx := context.Background()
	owner := t.Name()

	// Arrange: odczyt generacji przed przeliczeniem statystyk
	_, gen, ok := events.cachedStats(ctx, owner)
	require.False(t, ok)

	// W trakcie przeliczania zapisuje się nowa analiza
	events.AnalysisSaved(ctx, &models.AnalysisRecord{ID: "a1", OwnerID: owner, ATSScore: 90})

	// Spóźniony zapis starych statystyk
	events.storeStats(ctx, owner, gen, &models.DashboardStats{TotalAnalyses: 0})

	// Sprawdź, czy stare statystyki nie są serwowane
	_, newGen, ok := events.cachedStats(ctx, owner)
	assert.False(t, ok)
	assert.Equal(t, gen+1, newGen)
}

func TestEvents_NoCacheIsNoop(t *testing.T) {
	events := NewEvents(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil, time.Minute)
	ctx := context.Background()

	_, gen, ok := events.cachedStats(ctx, "u1")
	assert.False(t, ok)
	assert.Equal(t, int64(-1), gen)

	events.storeStats(ctx, "u1", gen, &models.DashboardStats{})
	events.AnalysisDeleted(ctx, "u1", "a1")
}
