package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/memory"
)

func mustBalance(t *testing.T, repo ledger.SavingRepo, key core.YearMonth) decimal.Decimal {
	t.Helper()
	entry, ok, err := repo.GetSaving(context.Background(), key)
	if err != nil {
		t.Fatalf("get saving %s: %v", key, err)
	}
	if !ok {
		t.Fatalf("no saving entry for %s", key)
	}
	return entry.Amount
}

func assertNoEntry(t *testing.T, repo ledger.SavingRepo, key core.YearMonth) {
	t.Helper()
	entry, ok, err := repo.GetSaving(context.Background(), key)
	if err != nil {
		t.Fatalf("get saving %s: %v", key, err)
	}
	if ok {
		t.Fatalf("unexpected saving entry for %s: %s", key, entry.Amount)
	}
}

func TestPropagate_SeedsEmptyLedger(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	err := ledger.Propagate(context.Background(), core.YM(2025, 4), decimal.NewFromInt(100), store, now)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}

	// Every month from the delta's month through the current one carries
	// the cumulative balance.
	for _, key := range []core.YearMonth{core.YM(2025, 4), core.YM(2025, 5), core.YM(2025, 6)} {
		if got := mustBalance(t, store, key); !got.Equal(decimal.NewFromInt(100)) {
			t.Errorf("balance at %s = %s, want 100", key, got)
		}
	}
	assertNoEntry(t, store, core.YM(2025, 7))
	assertNoEntry(t, store, core.YM(2025, 3))
}

func TestPropagate_AddsToExistingChain(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := ledger.Propagate(ctx, core.YM(2025, 4), decimal.NewFromInt(100), store, now); err != nil {
		t.Fatalf("first propagate: %v", err)
	}
	if err := ledger.Propagate(ctx, core.YM(2025, 5), decimal.NewFromInt(50), store, now); err != nil {
		t.Fatalf("second propagate: %v", err)
	}

	if got := mustBalance(t, store, core.YM(2025, 4)); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("april = %s, want 100", got)
	}
	if got := mustBalance(t, store, core.YM(2025, 5)); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("may = %s, want 150", got)
	}
	if got := mustBalance(t, store, core.YM(2025, 6)); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("june = %s, want 150", got)
	}
}

func TestPropagate_SeedsGapFromPreviousMonth(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// Build history up to April only, then post a May delta with the
	// clock in July. May and June must be seeded from April's balance.
	if err := ledger.Propagate(ctx, core.YM(2025, 4), decimal.NewFromInt(200), store, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := ledger.Propagate(ctx, core.YM(2025, 5), decimal.NewFromInt(-50), store, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("propagate: %v", err)
	}

	if got := mustBalance(t, store, core.YM(2025, 5)); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("may = %s, want 150", got)
	}
	if got := mustBalance(t, store, core.YM(2025, 6)); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("june = %s, want 150", got)
	}
	if got := mustBalance(t, store, core.YM(2025, 7)); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("july = %s, want 150", got)
	}
}

func TestPropagate_CrossesYearBoundary(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	err := ledger.Propagate(context.Background(), core.YM(2025, 11), decimal.NewFromInt(300), store, now)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}

	for _, key := range []core.YearMonth{core.YM(2025, 11), core.YM(2025, 12), core.YM(2026, 1)} {
		if got := mustBalance(t, store, key); !got.Equal(decimal.NewFromInt(300)) {
			t.Errorf("balance at %s = %s, want 300", key, got)
		}
	}
	assertNoEntry(t, store, core.YM(2026, 2))
}

func TestPropagate_DeltaInCurrentMonthTouchesOnlyIt(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	err := ledger.Propagate(context.Background(), core.YM(2025, 6), decimal.NewFromInt(75), store, now)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if got := mustBalance(t, store, core.YM(2025, 6)); !got.Equal(decimal.NewFromInt(75)) {
		t.Errorf("june = %s, want 75", got)
	}
	assertNoEntry(t, store, core.YM(2025, 7))
}

func TestPropagate_FutureMonthIsNoop(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// A delta dated after the current month has no months to walk.
	err := ledger.Propagate(context.Background(), core.YM(2025, 9), decimal.NewFromInt(10), store, now)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	assertNoEntry(t, store, core.YM(2025, 9))
}

func TestPropagate_InvalidKey(t *testing.T) {
	store := memory.NewStore()
	err := ledger.Propagate(context.Background(), core.YM(2025, 13), decimal.NewFromInt(1), store, time.Now())
	if err == nil {
		t.Fatal("expected error for invalid month")
	}
}
