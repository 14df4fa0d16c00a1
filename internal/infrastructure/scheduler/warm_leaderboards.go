package scheduler

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// BoardWriter is the cache side of the warmup. Boards are replaced whole so
// cached viewer ranks stay consistent with the entries.
type BoardWriter interface {
	ReplaceBoard(ctx context.Context, challengeID int64, entries []leaderboard.Entry) error
}

// WarmLeaderboardsJob rebuilds every challenge's cached board from storage.
// Read traffic also warms boards on demand; this job keeps hot boards from
// expiring between reads and repairs any cache drift.
type WarmLeaderboardsJob struct {
	repo  leaderboard.Repository
	cache BoardWriter
	log   *logger.Logger
}

// NewWarmLeaderboardsJob creates the warmup job.
func NewWarmLeaderboardsJob(repo leaderboard.Repository, cache BoardWriter, log *logger.Logger) *WarmLeaderboardsJob {
	return &WarmLeaderboardsJob{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("warm_leaderboards")),
	}
}

// Name implements Job.
func (j *WarmLeaderboardsJob) Name() string { return "warm_leaderboards" }

// Run rebuilds all boards. A single failing board does not stop the rest;
// the job reports how many boards failed.
func (j *WarmLeaderboardsJob) Run(ctx context.Context) error {
	ids, err := j.repo.ChallengeIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list challenges: %w", err)
	}

	var failed int
	for _, id := range ids {
		if err := j.warmBoard(ctx, id); err != nil {
			failed++
			j.log.Warn("board warmup failed", logger.ChallengeID(id), logger.Err(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d boards failed to warm", failed, len(ids))
	}

	j.log.Debug("boards warmed", logger.Int("count", len(ids)))
	return nil
}

func (j *WarmLeaderboardsJob) warmBoard(ctx context.Context, challengeID int64) error {
	ranked, err := j.repo.TopN(ctx, challengeID, 0)
	if err != nil {
		return err
	}

	entries := make([]leaderboard.Entry, len(ranked))
	for i, r := range ranked {
		entries[i] = r.Entry
	}

	return j.cache.ReplaceBoard(ctx, challengeID, entries)
}
