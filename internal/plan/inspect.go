package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

type (
	// IncomeFactory produces the dated incomes a source contributes to
	// one month of the projection. Factories are pure functions of the
	// month; a failure aborts the whole projection.
	IncomeFactory func(ctx context.Context, ym core.YearMonth) ([]core.Income, error)

	// OutcomeFactory is the outcome-side counterpart of IncomeFactory.
	OutcomeFactory func(ctx context.Context, ym core.YearMonth) ([]core.Outcome, error)
)

// StatusKind classifies a projected running balance.
type StatusKind string

const (
	Surplus StatusKind = "surplus"
	Deficit StatusKind = "deficit"
)

// BalanceStatus carries the classification and the balance magnitude:
// the balance itself for a surplus, its negation for a deficit, so Amount
// is always non-negative.
type BalanceStatus struct {
	Kind   StatusKind
	Amount decimal.Decimal
}

// InspectResult is one day of the projected timeline: the records landing
// on that date and the running balance after applying them.
type InspectResult struct {
	Date     time.Time
	Status   BalanceStatus
	Incomes  []core.Income
	Outcomes []core.Outcome
}

// Inspect simulates the balance trajectory from startYM through endYM
// inclusive. Every factory is invoked for every month in the range; the
// collected records are grouped by exact date, the running balance is
// seeded from the ledger entry at startYM (zero if absent), and one
// result is produced per distinct active date in ascending order. Dates
// with no activity are omitted; the balance only moves on active dates,
// so the omission loses nothing.
func Inspect(
	ctx context.Context,
	startYM, endYM core.YearMonth,
	savings SavingReader,
	incomeFactories []IncomeFactory,
	outcomeFactories []OutcomeFactory,
) ([]InspectResult, error) {
	var incomes []core.Income
	var outcomes []core.Outcome
	for ym := startYM; !ym.After(endYM); ym = ym.Next() {
		for _, factory := range incomeFactories {
			batch, err := factory(ctx, ym)
			if err != nil {
				return nil, fmt.Errorf("income factory at %s: %w", ym, err)
			}
			incomes = append(incomes, batch...)
		}
		for _, factory := range outcomeFactories {
			batch, err := factory(ctx, ym)
			if err != nil {
				return nil, fmt.Errorf("outcome factory at %s: %w", ym, err)
			}
			outcomes = append(outcomes, batch...)
		}
	}

	type day struct {
		income   decimal.Decimal
		outcome  decimal.Decimal
		incomes  []core.Income
		outcomes []core.Outcome
	}
	days := make(map[time.Time]*day)
	at := func(date time.Time) *day {
		d, ok := days[date]
		if !ok {
			d = &day{income: decimal.Zero, outcome: decimal.Zero}
			days[date] = d
		}
		return d
	}
	for _, in := range incomes {
		d := at(in.Date)
		d.income = d.income.Add(in.Amount)
		d.incomes = append(d.incomes, in)
	}
	for _, out := range outcomes {
		d := at(out.Date)
		d.outcome = d.outcome.Add(out.Amount)
		d.outcomes = append(d.outcomes, out)
	}

	dates := make([]time.Time, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	balance := decimal.Zero
	if seed, ok, err := savings.GetSaving(ctx, startYM); err != nil {
		return nil, fmt.Errorf("get saving %s: %w", startYM, err)
	} else if ok {
		balance = seed.Amount
	}

	results := make([]InspectResult, 0, len(dates))
	for _, date := range dates {
		d := days[date]
		balance = balance.Add(d.income).Sub(d.outcome)
		status := BalanceStatus{Kind: Surplus, Amount: balance}
		if balance.IsNegative() {
			status = BalanceStatus{Kind: Deficit, Amount: balance.Neg()}
		}
		results = append(results, InspectResult{
			Date:     date,
			Status:   status,
			Incomes:  d.incomes,
			Outcomes: d.outcomes,
		})
	}
	return results, nil
}
