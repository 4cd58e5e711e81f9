package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

func newsBatch(n int, base time.Time) []postgres.StockNews {
	rows := make([]postgres.StockNews, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, postgres.StockNews{
			URL:         fmt.Sprintf("https://news.example.com/%d", i),
			Title:       fmt.Sprintf("标题 %d", i),
			PublishTime: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return rows
}

// go test -v --run TestNewsRunCap
func TestNewsRunCap(t *testing.T) {
	store := postgres.NewMemoryStore()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	source := &fakeSource{
		news: func(ctx context.Context) ([]postgres.StockNews, error) {
			return newsBatch(25, now), nil
		},
	}

	c := NewNewsCollector(newTestDeps(store, source), 10, 7)
	res := c.Collect(context.Background())
	if !res.Success() {
		t.Fatalf("run failed: %+v", res)
	}

	got := store.AllNews()
	if len(got) != 10 {
		t.Fatalf("expected run capped at 10 items, got %d", len(got))
	}
	// The feed is most-recent-first; the cap keeps the head.
	if got[0].URL != "https://news.example.com/0" {
		t.Errorf("cap should keep the most recent items, got first %s", got[0].URL)
	}
}

// go test -v --run TestNewsReRunIsIdempotent
func TestNewsReRunIsIdempotent(t *testing.T) {
	store := postgres.NewMemoryStore()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	source := &fakeSource{
		news: func(ctx context.Context) ([]postgres.StockNews, error) {
			return newsBatch(5, now), nil
		},
	}

	c := NewNewsCollector(newTestDeps(store, source), 10, 7)
	c.Collect(context.Background())
	c.Collect(context.Background())

	if got, _ := store.CountNews(context.Background()); got != 5 {
		t.Errorf("re-collecting the same URLs must not duplicate: %d rows", got)
	}
}

// go test -v --run TestNewsRetentionCleanup
func TestNewsRetentionCleanup(t *testing.T) {
	store := postgres.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	rows := []postgres.StockNews{
		{URL: "https://news.example.com/fresh", PublishTime: now.AddDate(0, 0, -2)},
		{URL: "https://news.example.com/stale", PublishTime: now.AddDate(0, 0, -9)},
	}
	if err := store.UpsertNews(ctx, rows); err != nil {
		t.Fatal(err)
	}

	c := NewNewsCollector(newTestDeps(store, &fakeSource{}), 10, 7)
	deleted, err := c.Cleanup(ctx, now)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 purged item, got %d", deleted)
	}

	remaining := store.AllNews()
	if len(remaining) != 1 || remaining[0].URL != "https://news.example.com/fresh" {
		t.Errorf("wrong rows survived cleanup: %+v", remaining)
	}
}

// go test -v --run TestNewsStats
func TestNewsStats(t *testing.T) {
	store := postgres.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	if err := store.UpsertNews(ctx, newsBatch(3, now)); err != nil {
		t.Fatal(err)
	}

	c := NewNewsCollector(newTestDeps(store, &fakeSource{}), 10, 7)
	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected 3 stored items, got %d", stats.Total)
	}
}
