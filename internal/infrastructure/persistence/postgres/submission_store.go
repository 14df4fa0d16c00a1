package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionStore runs the scored-submission write chain in one transaction:
// session row, ledger event, stats aggregate, leaderboard high-water mark,
// and achievement grants commit or roll back together.
type SubmissionStore struct {
	conn         *Connection
	ledger       *LedgerRepository
	stats        *StatsRepository
	leaderboard  *LeaderboardRepository
	achievements *AchievementRepository
}

// NewSubmissionStore creates a new SubmissionStore.
func NewSubmissionStore(
	conn *Connection,
	ledgerRepo *LedgerRepository,
	statsRepo *StatsRepository,
	leaderboardRepo *LeaderboardRepository,
	achievementRepo *AchievementRepository,
) *SubmissionStore {
	return &SubmissionStore{
		conn:         conn,
		ledger:       ledgerRepo,
		stats:        statsRepo,
		leaderboard:  leaderboardRepo,
		achievements: achievementRepo,
	}
}

// SubmitScored persists the submission and all derived state atomically.
func (s *SubmissionStore) SubmitScored(ctx context.Context, session *stats.PracticeSession, event *ledger.ActivityEvent) (*stats.SubmissionOutcome, error) {
	defs, err := s.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	defByID := make(map[int64]achievement.Definition, len(defs))
	for _, def := range defs {
		defByID[def.ID] = def
	}

	var outcome stats.SubmissionOutcome

	err = s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := s.stats.SaveSessionTx(ctx, tx, session); err != nil {
			return err
		}

		if err := s.ledger.AppendTx(ctx, tx, event); err != nil {
			return err
		}

		aggregate, err := s.stats.RecordScoreTx(ctx, tx, session.UserID, session.Score, session.SubmittedAt)
		if err != nil {
			return err
		}
		outcome.Stats = aggregate

		improved, previous, err := s.leaderboard.RecordScoreTx(ctx, tx, leaderboard.Entry{
			UserID:      session.UserID,
			ChallengeID: session.ChallengeID,
			Score:       session.Score,
			AchievedAt:  session.SubmittedAt,
			SessionID:   session.ID,
		})
		if err != nil {
			return err
		}
		outcome.LeaderboardImproved = improved
		outcome.PreviousBest = previous

		// Facts are gathered inside the transaction so the just-written
		// session counts toward practice milestones.
		facts, err := s.achievements.GetFactsTx(ctx, tx, session.UserID)
		if err != nil {
			return err
		}

		satisfied := achievement.Evaluate(defs, facts, nil)
		grants, err := s.achievements.GrantMissingTx(ctx, tx, session.UserID, satisfied)
		if err != nil {
			return err
		}

		outcome.Grants = grants
		outcome.GrantedDefs = make([]achievement.Definition, len(grants))
		for i, g := range grants {
			def, ok := defByID[g.AchievementID]
			if !ok {
				return fmt.Errorf("granted unknown achievement %d", g.AchievementID)
			}
			outcome.GrantedDefs[i] = def
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &outcome, nil
}

// Ensure interface is implemented
var _ stats.SubmissionStore = (*SubmissionStore)(nil)
