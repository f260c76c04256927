package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/memory"
	sheetmem "kakeibo/internal/sheets/memory"
)

func TestSyncWorker_HandleSyncMessage(t *testing.T) {
	store := memory.NewStore()
	writer := sheetmem.NewWriter()
	w := NewSyncWorker(store, writer)
	ctx := context.Background()

	key := core.YM(2025, 4)
	if err := store.StoreSaving(ctx, core.Saving{Key: key, Amount: decimal.NewFromInt(1200)}); err != nil {
		t.Fatal(err)
	}

	msg := amqp.NewBalanceSyncMessage(2025, 4)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle sync message: %v", err)
	}

	written, ok := writer.Balance(key)
	if !ok {
		t.Fatal("balance was not written")
	}
	if !written.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("written balance = %s, want 1200", written.Amount)
	}
}

func TestSyncWorker_HandleSyncMessageReadsCurrentBalance(t *testing.T) {
	store := memory.NewStore()
	writer := sheetmem.NewWriter()
	w := NewSyncWorker(store, writer)
	ctx := context.Background()

	key := core.YM(2025, 4)
	msg := amqp.NewBalanceSyncMessage(2025, 4)

	// The balance moved between publish and delivery; the handler must
	// export the value stored now, not the one at publish time.
	if err := store.StoreSaving(ctx, core.Saving{Key: key, Amount: decimal.NewFromInt(900)}); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle sync message: %v", err)
	}
	written, _ := writer.Balance(key)
	if !written.Amount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("written balance = %s, want 900", written.Amount)
	}
}

func TestSyncWorker_InvalidMonthIsDropped(t *testing.T) {
	w := NewSyncWorker(memory.NewStore(), sheetmem.NewWriter())

	msg := &amqp.BalanceSyncMessage{Year: 2025, Month: 13, Timestamp: time.Now()}
	// Dropping means returning nil so the message is acked, not requeued.
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Errorf("invalid month should be dropped without error, got %v", err)
	}
}

func TestSyncWorker_MissingEntryIsSkipped(t *testing.T) {
	writer := sheetmem.NewWriter()
	w := NewSyncWorker(memory.NewStore(), writer)

	msg := amqp.NewBalanceSyncMessage(2025, 4)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Errorf("missing ledger entry should be skipped without error, got %v", err)
	}
	if writer.Len() != 0 {
		t.Errorf("nothing should have been written, got %d rows", writer.Len())
	}
}

func TestSyncWorker_StartupSyncCheck(t *testing.T) {
	store := memory.NewStore()
	writer := sheetmem.NewWriter()
	w := NewSyncWorker(store, writer)
	ctx := context.Background()

	now := core.YM(2025, 6)
	if err := store.StoreSaving(ctx, core.Saving{Key: now, Amount: decimal.NewFromInt(777)}); err != nil {
		t.Fatal(err)
	}

	if err := w.StartupSyncCheck(ctx, now); err != nil {
		t.Fatalf("startup sync check: %v", err)
	}
	written, ok := writer.Balance(now)
	if !ok || !written.Amount.Equal(decimal.NewFromInt(777)) {
		t.Errorf("startup sync wrote %v (ok=%v), want 777", written.Amount, ok)
	}

	// No entry for the month is not an error.
	empty := NewSyncWorker(memory.NewStore(), sheetmem.NewWriter())
	if err := empty.StartupSyncCheck(ctx, now); err != nil {
		t.Errorf("startup check on empty ledger: %v", err)
	}
}
