package stats

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
)

// SubmissionOutcome is everything a scored submission changed.
type SubmissionOutcome struct {
	// Stats is the user's aggregate after folding in the score.
	Stats *PracticeStats

	// LeaderboardImproved reports whether the submission beat the user's
	// stored best for the challenge.
	LeaderboardImproved bool

	// PreviousBest is the score the entry held before this submission,
	// zero on the first submission for the challenge.
	PreviousBest float64

	// Grants are the achievements newly earned by this submission, paired
	// index-for-index with GrantedDefs.
	Grants []achievement.Grant

	// GrantedDefs are the definitions of the newly earned achievements.
	GrantedDefs []achievement.Definition
}

// SubmissionStore persists a scored submission and all of its derived state
// in one atomic unit: either the session, ledger event, aggregate update,
// leaderboard mark, and any achievement grants all land, or none do.
type SubmissionStore interface {
	SubmitScored(ctx context.Context, session *PracticeSession, event *ledger.ActivityEvent) (*SubmissionOutcome, error)
}
