// Package leaderboard keeps per-challenge high-water marks. An entry moves
// only when a new submission strictly beats the stored score, so the
// timestamp always records the moment the best was achieved.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Entry is one user's best score on one challenge. SessionID references the
// practice session that produced the best, so the board can always point
// back at the winning submission.
type Entry struct {
	UserID      string
	ChallengeID int64
	Score       float64
	AchievedAt  time.Time
	SessionID   uuid.UUID
}

// RankedEntry is an entry with its 1-based position on the board.
type RankedEntry struct {
	Rank int
	Entry
}

// Rank orders entries by score descending, then AchievedAt ascending so
// that whoever reached a score first ranks ahead at a tie. Ranks are
// sequential and 1-based. The input slice is not modified.
func Rank(entries []Entry) []RankedEntry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].AchievedAt.Before(sorted[j].AchievedAt)
	})

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{Rank: i + 1, Entry: e}
	}
	return ranked
}

// Repository persists leaderboard entries.
type Repository interface {
	// RecordScore applies the high-water mark rule: the entry is created on
	// first submission and replaced only when score strictly exceeds the
	// stored score. It reports whether the board changed and the previous
	// best (zero on first submission). Concurrent submissions must converge
	// on the maximum.
	RecordScore(ctx context.Context, entry Entry) (improved bool, previous float64, err error)

	// TopN returns the board for a challenge ordered by rank, up to limit.
	TopN(ctx context.Context, challengeID int64, limit int) ([]RankedEntry, error)

	// UserRank returns the user's ranked entry for a challenge, or nil when
	// the user has no entry.
	UserRank(ctx context.Context, challengeID int64, userID string) (*RankedEntry, error)

	// ChallengeIDs lists the challenges that currently have entries.
	ChallengeIDs(ctx context.Context) ([]int64, error)
}
