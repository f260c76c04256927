package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// Propagate applies delta to the ledger entry at key and re-derives every
// later month's cumulative balance up to and including the month of now.
// Each stored entry already embeds all prior months' net effect, so a delta
// landing in month M must flow through every month after it.
//
// Months beyond now are left untouched: future balances are owned by the
// projection engine, not the ledger chain.
//
// The chain is not transactional. A repository error aborts immediately and
// months updated before the failure stay updated.
func Propagate(ctx context.Context, key core.YearMonth, delta decimal.Decimal, repo SavingRepo, now time.Time) error {
	if err := key.Validate(); err != nil {
		return err
	}
	cutoff := core.YMOf(now)
	for cursor := key; !cursor.After(cutoff); cursor = cursor.Next() {
		entry, ok, err := repo.GetSaving(ctx, cursor)
		if err != nil {
			return fmt.Errorf("get saving %s: %w", cursor, err)
		}
		if ok {
			entry.Amount = entry.Amount.Add(delta)
			if err := repo.UpdateSaving(ctx, entry); err != nil {
				return fmt.Errorf("update saving %s: %w", cursor, err)
			}
			continue
		}
		// No entry yet for this month: seed it from the previous month's
		// cumulative balance, or from the delta alone when there is no
		// history at all.
		prev, ok, err := repo.GetSaving(ctx, cursor.Prev())
		if err != nil {
			return fmt.Errorf("get saving %s: %w", cursor.Prev(), err)
		}
		fresh := core.Saving{Key: cursor, Amount: delta}
		if ok {
			fresh.Amount = prev.Amount.Add(delta)
		}
		if err := repo.StoreSaving(ctx, fresh); err != nil {
			return fmt.Errorf("store saving %s: %w", cursor, err)
		}
	}
	return nil
}
