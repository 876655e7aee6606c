// Package leaderboard keeps a weekly ranking of accounts by summed sleep
// quality in a Redis sorted set. It is fed by session.completed events and is
// best effort: the ledger and sessions tables remain the source of truth.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/clock"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "leaderboard:quality"

	// DefaultTopN is the number of entries Top returns when asked for none.
	DefaultTopN = 10

	// MaxTopN bounds a single Top query.
	MaxTopN = 100

	// retention keeps last week's board readable for one more week.
	retention = 14 * 24 * time.Hour
)

// ErrNotRanked is returned by Rank when the account has no score this week.
var ErrNotRanked = fmt.Errorf("%w: account not ranked this week", domain.ErrNotFound)

// Client is the subset of *redis.Client the leaderboard uses.
type Client interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRevRank(ctx context.Context, key, member string) *redis.IntCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
}

// Entry is one account's position on the board. Rank is 1-based.
type Entry struct {
	AccountID uuid.UUID `json:"account_id"`
	Score     float64   `json:"score"`
	Rank      int64     `json:"rank"`
}

// Leaderboard reads and writes the weekly quality board.
type Leaderboard struct {
	client Client
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a Leaderboard over client. A nil clock means the real one.
func New(client Client, clk clock.Clock, logger *slog.Logger) *Leaderboard {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Leaderboard{
		client: client,
		clock:  clk,
		logger: logger.With(slog.String("component", "leaderboard")),
	}
}

// Week labels the ISO week containing t (in UTC), e.g. "2025-W10".
func Week(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekKey names the sorted set for the ISO week containing t.
func WeekKey(t time.Time) string {
	return keyPrefix + ":" + Week(t)
}

// CurrentWeek labels the week Top and Rank read from.
func (l *Leaderboard) CurrentWeek() string {
	return Week(l.clock.Now())
}

// Record adds score to the account's total for the week containing at.
func (l *Leaderboard) Record(ctx context.Context, accountID uuid.UUID, score float64, at time.Time) error {
	key := WeekKey(at)

	if err := l.client.ZIncrBy(ctx, key, score, accountID.String()).Err(); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	if err := l.client.ExpireAt(ctx, key, at.UTC().Add(retention)).Err(); err != nil {
		return fmt.Errorf("failed to set leaderboard expiry: %w", err)
	}
	return nil
}

// Top returns the n best accounts of the current week, best first.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > MaxTopN {
		n = MaxTopN
	}

	members, err := l.client.ZRevRangeWithScores(ctx, WeekKey(l.clock.Now()), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for i, z := range members {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			l.logger.Warn("skipping malformed leaderboard member", slog.String("member", member))
			continue
		}
		entries = append(entries, Entry{AccountID: id, Score: z.Score, Rank: int64(i) + 1})
	}
	return entries, nil
}

// Rank returns the account's position on the current week's board.
func (l *Leaderboard) Rank(ctx context.Context, accountID uuid.UUID) (*Entry, error) {
	key := WeekKey(l.clock.Now())
	member := accountID.String()

	rank, err := l.client.ZRevRank(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotRanked
		}
		return nil, fmt.Errorf("failed to read rank: %w", err)
	}

	score, err := l.client.ZScore(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotRanked
		}
		return nil, fmt.Errorf("failed to read score: %w", err)
	}

	return &Entry{AccountID: accountID, Score: score, Rank: rank + 1}, nil
}
