// Package eventhandler contains the subscribers that react to domain events
// published by the command side.
package eventhandler

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOARD REFRESH
// ══════════════════════════════════════════════════════════════════════════════

// BoardCache is the slice of the leaderboard cache the refresher needs.
type BoardCache interface {
	UpdateEntry(ctx context.Context, challengeID int64, entry leaderboard.Entry) error
	Invalidate(ctx context.Context, challengeID int64) error
}

// BoardRefreshHandler folds each new personal best into the cached board,
// so a warmed board never keeps serving a beaten ranking until the next
// scheduled warmup.
type BoardRefreshHandler struct {
	cache BoardCache
	log   *logger.Logger
}

// NewBoardRefreshHandler creates a new BoardRefreshHandler.
func NewBoardRefreshHandler(cache BoardCache, log *logger.Logger) *BoardRefreshHandler {
	return &BoardRefreshHandler{
		cache: cache,
		log:   log.With(logger.Component("board_refresh")),
	}
}

// CanHandle reports interest in personal best events only.
func (h *BoardRefreshHandler) CanHandle(eventType shared.EventType) bool {
	return eventType == shared.EventPersonalBest
}

// Handle folds the improved entry into the cache. When the update fails the
// board is dropped instead, so reads fall back to storage rather than serve
// the stale ranking.
func (h *BoardRefreshHandler) Handle(ctx context.Context, event shared.Event) error {
	best, ok := event.(*shared.PersonalBestEvent)
	if !ok {
		return nil
	}

	entry := leaderboard.Entry{
		UserID:      best.UserID,
		ChallengeID: best.ChallengeID,
		Score:       best.Score,
		AchievedAt:  best.AchievedAt,
		SessionID:   best.SessionID,
	}

	if err := h.cache.UpdateEntry(ctx, best.ChallengeID, entry); err != nil {
		if dropErr := h.cache.Invalidate(ctx, best.ChallengeID); dropErr != nil {
			return fmt.Errorf("update cached board: %w", err)
		}
		h.log.Warn("cached board dropped after failed update",
			logger.ChallengeID(best.ChallengeID), logger.Err(err))
		return nil
	}

	h.log.Debug("cached board updated",
		logger.UserID(best.UserID),
		logger.ChallengeID(best.ChallengeID),
		logger.Score(best.Score),
	)
	return nil
}

// Ensure interface is implemented
var _ shared.EventHandler = (*BoardRefreshHandler)(nil)
