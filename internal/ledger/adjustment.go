package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// AdjustmentName labels the synthetic income/outcome records backing
// manual balance corrections.
const AdjustmentName = "adjustment"

// CreateAdjustment reconciles a user-declared balance for (year, month)
// against the stored one by posting a synthetic income or outcome for the
// difference.
//
// The ordering is load-bearing: the stale synthetic record is deleted
// through the plain repo path first, WITHOUT reversing its ledger
// contribution. The current balance read afterwards still includes the old
// adjustment, so the new diff computed against that balance absorbs it.
// Reversing eagerly and then diffing would double-count the correction.
func CreateAdjustment(
	ctx context.Context,
	target decimal.Decimal,
	key core.YearMonth,
	incomes IncomeRepo,
	outcomes OutcomeRepo,
	savings SavingRepo,
	adjustments AdjustmentRepo,
	now time.Time,
) error {
	prior, ok, err := adjustments.GetAdjustment(ctx, key)
	if err != nil {
		return fmt.Errorf("get adjustment %s: %w", key, err)
	}
	if ok {
		if err := adjustments.DeleteAdjustment(ctx, key); err != nil {
			return fmt.Errorf("delete adjustment %s: %w", key, err)
		}
		switch prior.Kind {
		case core.AdjustmentIncome:
			if err := incomes.DeleteIncome(ctx, prior.RecordID); err != nil {
				return fmt.Errorf("delete adjustment income %d: %w", prior.RecordID, err)
			}
		case core.AdjustmentOutcome:
			if err := outcomes.DeleteOutcome(ctx, prior.RecordID); err != nil {
				return fmt.Errorf("delete adjustment outcome %d: %w", prior.RecordID, err)
			}
		}
	}

	_, closing, err := core.MonthBounds(key)
	if err != nil {
		return err
	}

	current := decimal.Zero
	if entry, ok, err := savings.GetSaving(ctx, key); err != nil {
		return fmt.Errorf("get saving %s: %w", key, err)
	} else if ok {
		current = entry.Amount
	}

	diff := target.Sub(current)
	if err := Propagate(ctx, key, diff, savings, now); err != nil {
		return fmt.Errorf("propagate adjustment: %w", err)
	}

	adjustment := core.Adjustment{Key: key, Amount: diff.Abs(), Date: closing}
	switch {
	case diff.IsPositive():
		income := core.Income{Name: AdjustmentName, Amount: diff, Date: closing}
		id, err := incomes.StoreIncome(ctx, income)
		if err != nil {
			return fmt.Errorf("store adjustment income: %w", err)
		}
		adjustment.Kind = core.AdjustmentIncome
		adjustment.RecordID = id
	case diff.IsNegative():
		outcome := core.Outcome{Name: AdjustmentName, Amount: diff.Neg(), Date: closing}
		id, err := outcomes.StoreOutcome(ctx, outcome)
		if err != nil {
			return fmt.Errorf("store adjustment outcome: %w", err)
		}
		adjustment.Kind = core.AdjustmentOutcome
		adjustment.RecordID = id
	default:
		// Declared balance already matches: nothing to post. A prior
		// adjustment, if any, stays deleted.
		return nil
	}

	if err := adjustments.StoreAdjustment(ctx, adjustment); err != nil {
		return fmt.Errorf("store adjustment %s: %w", key, err)
	}
	return nil
}
