package cache

import (
	"context"
	"time"

	"galla/backend/internal/domain"
)

// SummaryCache holds computed day summaries. Every mutation of a day's books
// invalidates that day's entry.
type SummaryCache interface {
	Get(ctx context.Context, day string) (*domain.DaySummary, bool, error)
	Set(ctx context.Context, day string, value *domain.DaySummary, ttl time.Duration) error
	Invalidate(ctx context.Context, day string) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.DaySummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.DaySummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

func summaryKey(day string) string {
	return "galla:summary:" + day
}
