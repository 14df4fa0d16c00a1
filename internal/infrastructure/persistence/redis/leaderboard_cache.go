package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache serves hot per-challenge rankings from Redis sorted sets.
//
// Architecture:
//   - Sorted set "leaderboard:rank:{challenge}" maps userID to a composite
//     score that encodes both the best score and when it was achieved
//   - Hash "leaderboard:info:{challenge}" maps userID to the entry JSON
//
// Rank lookups are O(log N) and range reads O(log N + M).
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	keyRank = "leaderboard:rank:"
	keyInfo = "leaderboard:info:"
)

// tieBreakHorizon is an instant far past any achievable timestamp. The
// composite score is score*1e12 + (horizon - achieved_at unix seconds), so
// at equal score the earlier achiever carries the larger composite. Scores
// are quantized to 0.01, which keeps any real score difference (>= 1e10
// after scaling) above the tie-break term (< 4e9), and the maximum
// composite (~1e14) inside float64's 53-bit integer range.
var tieBreakHorizon = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

const scoreScale = 1e12

func compositeScore(score float64, achievedAt time.Time) float64 {
	quantized := math.Round(score*100) / 100
	return quantized*scoreScale + float64(tieBreakHorizon-achievedAt.Unix())
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func rankKey(challengeID int64) string {
	return keyRank + strconv.FormatInt(challengeID, 10)
}

func infoKey(challengeID int64) string {
	return keyInfo + strconv.FormatInt(challengeID, 10)
}

// ─────────────────────────────────────────────────────────────────────────────
// Write operations
// ─────────────────────────────────────────────────────────────────────────────

// ReplaceBoard atomically rebuilds the cached board for a challenge from
// authoritative entries. Used by the warmup job and after cache misses.
func (l *LeaderboardCache) ReplaceBoard(ctx context.Context, challengeID int64, entries []leaderboard.Entry) error {
	rk := rankKey(challengeID)
	ik := infoKey(challengeID)

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, rk, ik)

	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
		}
		pipe.ZAdd(ctx, rk, redis.Z{
			Score:  compositeScore(entry.Score, entry.AchievedAt),
			Member: entry.UserID,
		})
		pipe.HSet(ctx, ik, entry.UserID, data)
	}

	pipe.Expire(ctx, rk, TTLLeaderboard)
	pipe.Expire(ctx, ik, TTLLeaderboard)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace cached board: %w", err)
	}
	return nil
}

// UpdateEntry folds a single improved entry into the cached board.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, challengeID int64, entry leaderboard.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	rk := rankKey(challengeID)
	ik := infoKey(challengeID)

	pipe := l.cache.Client().TxPipeline()
	pipe.ZAdd(ctx, rk, redis.Z{
		Score:  compositeScore(entry.Score, entry.AchievedAt),
		Member: entry.UserID,
	})
	pipe.HSet(ctx, ik, entry.UserID, data)
	pipe.Expire(ctx, rk, TTLLeaderboard)
	pipe.Expire(ctx, ik, TTLLeaderboard)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update cached entry: %w", err)
	}
	return nil
}

// Invalidate drops the cached board for a challenge.
func (l *LeaderboardCache) Invalidate(ctx context.Context, challengeID int64) error {
	return l.cache.Delete(ctx, rankKey(challengeID), infoKey(challengeID))
}

// ─────────────────────────────────────────────────────────────────────────────
// Read operations
// ─────────────────────────────────────────────────────────────────────────────

// TopN reads the cached board. A miss (expired or never warmed) returns
// ErrCacheMiss so callers fall back to PostgreSQL.
func (l *LeaderboardCache) TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error) {
	rk := rankKey(challengeID)

	exists, err := l.cache.Client().Exists(ctx, rk).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check cached board: %w", err)
	}
	if exists == 0 {
		return nil, ErrCacheMiss
	}

	userIDs, err := l.cache.Client().ZRevRange(ctx, rk, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached board: %w", err)
	}
	if len(userIDs) == 0 {
		return []leaderboard.RankedEntry{}, nil
	}

	raw, err := l.cache.Client().HMGet(ctx, infoKey(challengeID), userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached entries: %w", err)
	}

	ranked := make([]leaderboard.RankedEntry, 0, len(userIDs))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			// Info hash fell out of sync with the sorted set.
			return nil, ErrCacheMiss
		}
		var entry leaderboard.Entry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached entry: %w", err)
		}
		ranked = append(ranked, leaderboard.RankedEntry{Rank: i + 1, Entry: entry})
	}

	return ranked, nil
}

// UserRank reads one user's cached rank. Returns nil when the user has no
// entry on a warmed board, ErrCacheMiss when the board itself is absent.
func (l *LeaderboardCache) UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error) {
	rk := rankKey(challengeID)

	exists, err := l.cache.Client().Exists(ctx, rk).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check cached board: %w", err)
	}
	if exists == 0 {
		return nil, ErrCacheMiss
	}

	rank, err := l.cache.Client().ZRevRank(ctx, rk, userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached rank: %w", err)
	}

	data, err := l.cache.Client().HGet(ctx, infoKey(challengeID), userID).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached entry: %w", err)
	}

	var entry leaderboard.Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached entry: %w", err)
	}

	return &leaderboard.RankedEntry{Rank: int(rank) + 1, Entry: entry}, nil
}
