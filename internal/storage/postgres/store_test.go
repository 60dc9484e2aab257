package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"nitroScope/internal/model"
)

func testStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	dsn := os.Getenv("NITRO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("NITRO_TEST_PG_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Ping(ctx); err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store, ctx
}

func TestStoreInsertAndList(t *testing.T) {
	store, ctx := testStore(t)

	user := "0x" + uuid.NewString()[:8] + "00000000000000000000000000000000"
	older := model.ValuationReport{
		ID:               uuid.NewString(),
		GeneratedAt:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		User:             user,
		TotalDollarValue: 100,
	}
	newer := older
	newer.ID = uuid.NewString()
	newer.GeneratedAt = older.GeneratedAt.Add(time.Hour)
	newer.TotalDollarValue = 250

	if err := store.InsertReports(ctx, []model.ValuationReport{older, newer}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.ListReports(ctx, user, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[0].TotalDollarValue != 250 {
		t.Fatalf("expected newest first, got %+v", got[0])
	}

	limited, err := store.ListReports(ctx, user, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
}
