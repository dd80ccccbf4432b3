package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inboxpilot/mailextract/internal/extract"
)

const outcomeTTL = 24 * time.Hour

// OutcomeCache keeps the most recent extraction outcome per attachment so
// the read API can report run results without touching Postgres.
type OutcomeCache struct {
	cache *Cache
}

func NewOutcomeCache(cache *Cache) *OutcomeCache {
	return &OutcomeCache{cache: cache}
}

func outcomeKey(attachmentID int64) string {
	return fmt.Sprintf("extract:outcome:%d", attachmentID)
}

func (o *OutcomeCache) SetOutcome(ctx context.Context, attachmentID int64, outcome *extract.Outcome) error {
	return o.cache.Set(ctx, outcomeKey(attachmentID), outcome, outcomeTTL)
}

// GetOutcome returns (nil, nil) when no outcome has been published yet.
func (o *OutcomeCache) GetOutcome(ctx context.Context, attachmentID int64) (*extract.Outcome, error) {
	var out extract.Outcome
	err := o.cache.Get(ctx, outcomeKey(attachmentID), &out)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
