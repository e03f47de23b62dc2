package api

import (
	"ats-analyzer/internal/cache"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/models"
	"ats-analyzer/internal/websocket"
	"context"
	"log/slog"
	"time"
)

type Publisher interface {
	Publish(userID string, event websocket.Event)
}

// Events fans record changes out to connected clients and keeps the cached
// dashboard stats honest. Both collaborators are optional.
type Events struct {
	log      *slog.Logger
	hub      Publisher
	cache    StatsCache
	statsTTL time.Duration
}

func NewEvents(log *slog.Logger, hub Publisher, c StatsCache, statsTTL time.Duration) *Events {
	return &Events{
		log:      log.With(slog.String("component", "api.events")),
		hub:      hub,
		cache:    c,
		statsTTL: statsTTL,
	}
}

type analysisCompletedPayload struct {
	ID       string `json:"id"`
	ATSScore int    `json:"atsScore"`
}

type analysisDeletedPayload struct {
	ID string `json:"id"`
}

func (e *Events) AnalysisSaved(ctx context.Context, rec *models.AnalysisRecord) {
	e.invalidate(ctx, rec.OwnerID)
	if e.hub != nil {
		e.hub.Publish(rec.OwnerID, websocket.Event{
			Type:    websocket.EventAnalysisCompleted,
			Payload: analysisCompletedPayload{ID: rec.ID, ATSScore: rec.ATSScore},
		})
	}
}

func (e *Events) AnalysisDeleted(ctx context.Context, ownerID, id string) {
	e.invalidate(ctx, ownerID)
	if e.hub != nil {
		e.hub.Publish(ownerID, websocket.Event{
			Type:    websocket.EventAnalysisDeleted,
			Payload: analysisDeletedPayload{ID: id},
		})
	}
}

// cachedStats returns the cached aggregate for the owner's current
// generation. The generation is returned on a miss so the caller can store
// what it computes under it; -1 means the generation is unknown and nothing
// should be stored.
func (e *Events) cachedStats(ctx context.Context, ownerID string) (*models.DashboardStats, int64, bool) {
	if e.cache == nil {
		return nil, -1, false
	}
	gen, err := e.cache.Generation(ctx, cache.DashboardStatsGenKey(ownerID))
	if err != nil {
		e.log.Warn("stats cache read failed", sl.Err(err))
		return nil, -1, false
	}

	var stats models.DashboardStats
	found, err := e.cache.Get(ctx, cache.DashboardStatsKey(ownerID, gen), &stats)
	if err != nil {
		e.log.Warn("stats cache read failed", sl.Err(err))
		return nil, gen, false
	}
	if !found {
		return nil, gen, false
	}
	return &stats, gen, true
}

// storeStats writes stats computed after reading generation gen. A save or
// delete in the meantime has bumped the generation, so the write lands on a
// key that is no longer read.
func (e *Events) storeStats(ctx context.Context, ownerID string, gen int64, stats *models.DashboardStats) {
	if e.cache == nil || gen < 0 {
		return
	}
	if err := e.cache.Set(ctx, cache.DashboardStatsKey(ownerID, gen), stats, e.statsTTL); err != nil {
		e.log.Warn("stats cache write failed", sl.Err(err))
	}
}

func (e *Events) invalidate(ctx context.Context, ownerID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Bump(ctx, cache.DashboardStatsGenKey(ownerID)); err != nil {
		e.log.Warn("stats cache invalidation failed", slog.String("owner_id", ownerID), sl.Err(err))
	}
}
