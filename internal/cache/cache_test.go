package cache

import (
	"context"
	"testing"
	"time"

	"galla/backend/internal/domain"
)

func TestNoopSummaryCacheAlwaysMisses(t *testing.T) {
	var c SummaryCache = NoopSummaryCache{}
	ctx := context.Background()

	if err := c.Set(ctx, "2026-03-14", &domain.DaySummary{Day: "2026-03-14"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "2026-03-14")
	if err != nil || ok || got != nil {
		t.Fatalf("expected miss, got %v %v %v", got, ok, err)
	}
	if err := c.Invalidate(ctx, "2026-03-14"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestSummaryKeyIsScopedByDay(t *testing.T) {
	if summaryKey("2026-03-14") == summaryKey("2026-03-15") {
		t.Fatalf("keys must differ per day")
	}
}
