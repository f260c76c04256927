// Package plan turns recurring income/outcome templates into dated,
// cached instances and projects future balance trajectories from them.
package plan

import (
	"context"
	"time"

	"kakeibo/internal/core"
)

type (
	// PartTimeJobRepo stores job templates, their wage-rate table, and
	// the materialized shift instances.
	PartTimeJobRepo interface {
		ListPartTimeJobs(ctx context.Context, start, end time.Time) ([]core.PartTimeJob, error)
		GetPartTimeJob(ctx context.Context, id int64) (core.PartTimeJob, bool, error)
		StorePartTimeJob(ctx context.Context, job core.PartTimeJob) (int64, error)
		UpdatePartTimeJob(ctx context.Context, job core.PartTimeJob) error

		// GetHourlyWage resolves the wage-rate row whose validity start
		// is the latest one at or before the given month.
		GetHourlyWage(ctx context.Context, jobID int64, ym core.YearMonth) (core.HourlyWage, bool, error)
		GetHourlyWageByStart(ctx context.Context, jobID int64, start core.YearMonth) (core.HourlyWage, bool, error)
		StoreHourlyWage(ctx context.Context, w core.HourlyWage) error
		UpdateHourlyWage(ctx context.Context, w core.HourlyWage) error

		GetJobIncome(ctx context.Context, id int64) (core.PartTimeJobIncome, bool, error)
		GetJobIncomeByMonth(ctx context.Context, jobID int64, ym core.YearMonth) (core.PartTimeJobIncome, bool, error)
		StoreJobIncome(ctx context.Context, inc core.PartTimeJobIncome) (int64, error)
		UpdateJobIncome(ctx context.Context, inc core.PartTimeJobIncome) error
	}

	// MonthlyOutcomeRepo stores outcome templates and their materialized
	// monthly instances.
	MonthlyOutcomeRepo interface {
		ListMonthlyOutcomeTemplates(ctx context.Context, start, end time.Time) ([]core.MonthlyOutcomeTemplate, error)
		StoreMonthlyOutcomeTemplate(ctx context.Context, tpl core.MonthlyOutcomeTemplate) (int64, error)
		UpdateMonthlyOutcomeTemplate(ctx context.Context, tpl core.MonthlyOutcomeTemplate) error

		GetMonthlyOutcome(ctx context.Context, id int64) (core.MonthlyOutcome, bool, error)
		GetMonthlyOutcomeByTemplate(ctx context.Context, templateID int64, ym core.YearMonth) (core.MonthlyOutcome, bool, error)
		StoreMonthlyOutcome(ctx context.Context, out core.MonthlyOutcome) (int64, error)
		UpdateMonthlyOutcome(ctx context.Context, out core.MonthlyOutcome) error
	}

	// TemporaryIncomeRepo lists one-off planned incomes.
	TemporaryIncomeRepo interface {
		ListTemporaryIncomes(ctx context.Context, start, end time.Time) ([]core.TemporaryIncome, error)
		StoreTemporaryIncome(ctx context.Context, ti core.TemporaryIncome) (int64, error)
	}

	// TemporaryOutcomeRepo stores one-off planned outcomes.
	TemporaryOutcomeRepo interface {
		ListTemporaryOutcomes(ctx context.Context, start, end time.Time) ([]core.TemporaryOutcome, error)
		GetTemporaryOutcome(ctx context.Context, id int64) (core.TemporaryOutcome, bool, error)
		StoreTemporaryOutcome(ctx context.Context, to core.TemporaryOutcome) (int64, error)
		UpdateTemporaryOutcome(ctx context.Context, to core.TemporaryOutcome) error
	}

	// SavingReader is the projection's read-only view of the ledger,
	// used to seed the running balance.
	SavingReader interface {
		GetSaving(ctx context.Context, key core.YearMonth) (core.Saving, bool, error)
	}
)
