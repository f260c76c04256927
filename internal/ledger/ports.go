// Package ledger maintains the cumulative per-month saving balance: it
// propagates income/outcome deltas forward through the ledger and
// reconciles user-declared balances via synthetic adjustment records.
package ledger

import (
	"context"
	"time"

	"kakeibo/internal/core"
)

// Ports for the injected stores. Every operation is fallible; lookups
// report absence with the ok flag rather than an error.
type (
	IncomeRepo interface {
		ListIncomes(ctx context.Context, start, end time.Time) ([]core.Income, error)
		GetIncome(ctx context.Context, id int64) (core.Income, bool, error)
		StoreIncome(ctx context.Context, in core.Income) (int64, error)
		UpdateIncome(ctx context.Context, in core.Income) error
		DeleteIncome(ctx context.Context, id int64) error
	}

	OutcomeRepo interface {
		ListOutcomes(ctx context.Context, start, end time.Time) ([]core.Outcome, error)
		GetOutcome(ctx context.Context, id int64) (core.Outcome, bool, error)
		StoreOutcome(ctx context.Context, out core.Outcome) (int64, error)
		UpdateOutcome(ctx context.Context, out core.Outcome) error
		DeleteOutcome(ctx context.Context, id int64) error
	}

	SavingRepo interface {
		GetSaving(ctx context.Context, key core.YearMonth) (core.Saving, bool, error)
		StoreSaving(ctx context.Context, s core.Saving) error
		UpdateSaving(ctx context.Context, s core.Saving) error
	}

	AdjustmentRepo interface {
		GetAdjustment(ctx context.Context, key core.YearMonth) (core.Adjustment, bool, error)
		StoreAdjustment(ctx context.Context, a core.Adjustment) error
		DeleteAdjustment(ctx context.Context, key core.YearMonth) error
	}
)
