// Package worker hosts the background processes: mirroring ledger
// balances to an external sheet and pre-materializing upcoming
// recurring records.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/sheets"
)

// SyncWorker mirrors ledger month balances to the configured sheet.
// It reads the current balance from the store at handling time, so a
// burst of messages for the same month collapses to the final value.
type SyncWorker struct {
	savings ledger.SavingRepo
	writer  sheets.BalanceWriter
}

func NewSyncWorker(savings ledger.SavingRepo, writer sheets.BalanceWriter) *SyncWorker {
	return &SyncWorker{
		savings: savings,
		writer:  writer,
	}
}

// HandleSyncMessage processes a single balance sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.BalanceSyncMessage) error {
	key := core.YM(msg.Year, msg.Month)
	if err := key.Validate(); err != nil {
		// A bad key will never become valid, drop it.
		slog.WarnContext(ctx, "Dropping sync message with invalid month",
			"year", msg.Year, "month", msg.Month, "error", err)
		return nil
	}

	saving, ok, err := w.savings.GetSaving(ctx, key)
	if err != nil {
		return fmt.Errorf("get saving %s: %w", key, err)
	}
	if !ok {
		slog.WarnContext(ctx, "No ledger entry for synced month, skipping",
			"year", msg.Year, "month", msg.Month)
		return nil
	}

	ref, err := w.writer.WriteBalance(ctx, saving)
	if err != nil {
		return fmt.Errorf("write balance %s: %w", key, err)
	}

	slog.InfoContext(ctx, "Successfully synced balance",
		"year", msg.Year,
		"month", msg.Month,
		"balance", saving.Amount.String(),
		"sheets_ref", ref)

	return nil
}

// StartupSyncCheck re-exports the current month's balance at worker
// startup to recover from messages missed during downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context, now core.YearMonth) error {
	saving, ok, err := w.savings.GetSaving(ctx, now)
	if err != nil {
		return fmt.Errorf("get saving for startup check: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "No ledger entry for current month on startup")
		return nil
	}

	ref, err := w.writer.WriteBalance(ctx, saving)
	if err != nil {
		return fmt.Errorf("startup balance sync: %w", err)
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"year", now.Year,
		"month", int(now.Month),
		"sheets_ref", ref)

	return nil
}
