package plan

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"kakeibo/internal/core"
)

// Materializer lazily converts recurring templates into persisted, dated
// instances. First query for a (template, month) pair creates the
// instance; every later query returns the cached row unchanged. The
// repository owns persisted instances; templates are never mutated here.
type Materializer struct {
	jobs    PartTimeJobRepo
	monthly MonthlyOutcomeRepo

	// Collapses concurrent get-or-create calls for the same
	// (template, month) so the check-then-create sequence cannot race
	// itself into duplicates.
	group singleflight.Group
}

func NewMaterializer(jobs PartTimeJobRepo, monthly MonthlyOutcomeRepo) *Materializer {
	return &Materializer{jobs: jobs, monthly: monthly}
}

// JobIncomes materializes every part-time job visible in the month and
// returns the instances, creating missing ones with zero hours.
func (m *Materializer) JobIncomes(ctx context.Context, ym core.YearMonth) ([]core.PartTimeJobIncome, error) {
	opening, closing, err := core.MonthBounds(ym)
	if err != nil {
		return nil, err
	}
	jobs, err := m.jobs.ListPartTimeJobs(ctx, opening, closing)
	if err != nil {
		return nil, fmt.Errorf("list part-time jobs: %w", err)
	}
	incomes := make([]core.PartTimeJobIncome, 0, len(jobs))
	for _, job := range jobs {
		inc, err := m.JobIncome(ctx, job, ym)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, inc)
	}
	return incomes, nil
}

// JobIncome returns the materialized shift for one job and target month,
// creating it on first query. The instance is cached by the job id and
// the payment date's month, which for next-month timings differs from the
// target month.
func (m *Materializer) JobIncome(ctx context.Context, job core.PartTimeJob, ym core.YearMonth) (core.PartTimeJobIncome, error) {
	payDate, err := job.PaymentTiming.PaymentDate(ym)
	if err != nil {
		return core.PartTimeJobIncome{}, fmt.Errorf("job %q payment date: %w", job.Name, err)
	}
	payYM := core.YMOf(payDate)

	existing, ok, err := m.jobs.GetJobIncomeByMonth(ctx, job.ID, payYM)
	if err != nil {
		return core.PartTimeJobIncome{}, fmt.Errorf("get job income: %w", err)
	}
	if ok {
		return existing, nil
	}

	key := fmt.Sprintf("job/%d/%s", job.ID, payYM)
	v, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the flight lock: a concurrent caller may have
		// created the instance between our lookup and here.
		existing, ok, err := m.jobs.GetJobIncomeByMonth(ctx, job.ID, payYM)
		if err != nil {
			return nil, fmt.Errorf("get job income: %w", err)
		}
		if ok {
			return existing, nil
		}
		// Hours default to zero; the wage rate is resolved against the
		// shift month, not the payment month.
		wage := decimal.Zero
		if w, ok, err := m.jobs.GetHourlyWage(ctx, job.ID, ym); err != nil {
			return nil, fmt.Errorf("get hourly wage: %w", err)
		} else if ok {
			wage = w.Wage
		}
		inc := core.PartTimeJobIncome{
			JobID:       job.ID,
			Name:        job.Name,
			HourlyWage:  wage,
			Hours:       decimal.Zero,
			PaymentDate: payDate,
		}
		id, err := m.jobs.StoreJobIncome(ctx, inc)
		if err != nil {
			return nil, fmt.Errorf("store job income: %w", err)
		}
		inc.ID = id
		return inc, nil
	})
	if err != nil {
		return core.PartTimeJobIncome{}, err
	}
	return v.(core.PartTimeJobIncome), nil
}

// MonthlyOutcomes materializes every outcome template visible in the
// month and returns the instances.
func (m *Materializer) MonthlyOutcomes(ctx context.Context, ym core.YearMonth) ([]core.MonthlyOutcome, error) {
	opening, closing, err := core.MonthBounds(ym)
	if err != nil {
		return nil, err
	}
	templates, err := m.monthly.ListMonthlyOutcomeTemplates(ctx, opening, closing)
	if err != nil {
		return nil, fmt.Errorf("list monthly outcome templates: %w", err)
	}
	outs := make([]core.MonthlyOutcome, 0, len(templates))
	for _, tpl := range templates {
		out, err := m.MonthlyOutcome(ctx, tpl, ym)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// MonthlyOutcome returns the materialized instance for one template and
// month, creating it with the template's flat amount on first query.
func (m *Materializer) MonthlyOutcome(ctx context.Context, tpl core.MonthlyOutcomeTemplate, ym core.YearMonth) (core.MonthlyOutcome, error) {
	payDate, err := tpl.PaymentTiming.PaymentDate(ym)
	if err != nil {
		return core.MonthlyOutcome{}, fmt.Errorf("template %q payment date: %w", tpl.Name, err)
	}
	payYM := core.YMOf(payDate)

	existing, ok, err := m.monthly.GetMonthlyOutcomeByTemplate(ctx, tpl.ID, payYM)
	if err != nil {
		return core.MonthlyOutcome{}, fmt.Errorf("get monthly outcome: %w", err)
	}
	if ok {
		return existing, nil
	}

	key := fmt.Sprintf("monthly/%d/%s", tpl.ID, payYM)
	v, err, _ := m.group.Do(key, func() (any, error) {
		existing, ok, err := m.monthly.GetMonthlyOutcomeByTemplate(ctx, tpl.ID, payYM)
		if err != nil {
			return nil, fmt.Errorf("get monthly outcome: %w", err)
		}
		if ok {
			return existing, nil
		}
		out := core.MonthlyOutcome{
			TemplateID:  tpl.ID,
			Name:        tpl.Name,
			Amount:      tpl.Amount,
			PaymentDate: payDate,
		}
		id, err := m.monthly.StoreMonthlyOutcome(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("store monthly outcome: %w", err)
		}
		out.ID = id
		return out, nil
	})
	if err != nil {
		return core.MonthlyOutcome{}, err
	}
	return v.(core.MonthlyOutcome), nil
}
