package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// DefaultHorizonMonths is how far Inspect projects when the caller does
// not say otherwise: the start month plus two years.
const DefaultHorizonMonths = 24

// Service wires the materializer, the one-off record stores, and the
// ledger reader into the planning operations the API exposes.
type Service struct {
	materializer *Materializer
	jobs         PartTimeJobRepo
	monthly      MonthlyOutcomeRepo
	tempIncomes  TemporaryIncomeRepo
	tempOutcomes TemporaryOutcomeRepo
	savings      SavingReader
	horizon      int
}

func NewService(
	jobs PartTimeJobRepo,
	monthly MonthlyOutcomeRepo,
	tempIncomes TemporaryIncomeRepo,
	tempOutcomes TemporaryOutcomeRepo,
	savings SavingReader,
	horizonMonths int,
) *Service {
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}
	return &Service{
		materializer: NewMaterializer(jobs, monthly),
		jobs:         jobs,
		monthly:      monthly,
		tempIncomes:  tempIncomes,
		tempOutcomes: tempOutcomes,
		savings:      savings,
		horizon:      horizonMonths,
	}
}

// ListJobs returns the part-time jobs whose validity window overlaps the
// month.
func (s *Service) ListJobs(ctx context.Context, ym core.YearMonth) ([]core.PartTimeJob, error) {
	opening, closing, err := core.MonthBounds(ym)
	if err != nil {
		return nil, err
	}
	return s.jobs.ListPartTimeJobs(ctx, opening, closing)
}

// CreateJob validates and persists a new part-time job template.
func (s *Service) CreateJob(ctx context.Context, job core.PartTimeJob) (int64, error) {
	if job.Name == "" {
		return 0, core.ErrEmptyName
	}
	if err := validateTiming(job.PaymentTiming, true); err != nil {
		return 0, err
	}
	if job.StartDate.IsZero() {
		return 0, fmt.Errorf("job start date: %w", core.ErrInvalidDate)
	}
	id, err := s.jobs.StorePartTimeJob(ctx, job)
	if err != nil {
		return 0, fmt.Errorf("store part-time job: %w", err)
	}
	slog.InfoContext(ctx, "part-time job created", "id", id, "name", job.Name)
	return id, nil
}

// SetHourlyWage upserts a wage-rate row for a job, keyed by its validity
// start month.
func (s *Service) SetHourlyWage(ctx context.Context, jobID int64, wage decimal.Decimal, start core.YearMonth) error {
	if wage.IsNegative() {
		return core.ErrInvalidAmount
	}
	row := core.HourlyWage{JobID: jobID, Wage: wage, StartYM: start}
	if _, ok, err := s.jobs.GetHourlyWageByStart(ctx, jobID, start); err != nil {
		return fmt.Errorf("get hourly wage: %w", err)
	} else if ok {
		if err := s.jobs.UpdateHourlyWage(ctx, row); err != nil {
			return fmt.Errorf("update hourly wage: %w", err)
		}
		return nil
	}
	if err := s.jobs.StoreHourlyWage(ctx, row); err != nil {
		return fmt.Errorf("store hourly wage: %w", err)
	}
	return nil
}

// JobIncomes returns the month's materialized shifts, creating missing
// ones.
func (s *Service) JobIncomes(ctx context.Context, ym core.YearMonth) ([]core.PartTimeJobIncome, error) {
	return s.materializer.JobIncomes(ctx, ym)
}

// UpdateJobIncome replaces a materialized shift (hours worked, wage
// override, payment date). The originating template is untouched.
func (s *Service) UpdateJobIncome(ctx context.Context, inc core.PartTimeJobIncome) error {
	if _, ok, err := s.jobs.GetJobIncome(ctx, inc.ID); err != nil {
		return fmt.Errorf("get job income %d: %w", inc.ID, err)
	} else if !ok {
		return fmt.Errorf("job income %d: %w", inc.ID, core.ErrNotFound)
	}
	if err := s.jobs.UpdateJobIncome(ctx, inc); err != nil {
		return fmt.Errorf("update job income %d: %w", inc.ID, err)
	}
	return nil
}

// CreateMonthlyOutcomeTemplate validates and persists a recurring outcome
// template. Next-month timing rules are a job-only concept.
func (s *Service) CreateMonthlyOutcomeTemplate(ctx context.Context, tpl core.MonthlyOutcomeTemplate) (int64, error) {
	if tpl.Name == "" {
		return 0, core.ErrEmptyName
	}
	if tpl.Amount.IsNegative() {
		return 0, core.ErrInvalidAmount
	}
	if err := validateTiming(tpl.PaymentTiming, false); err != nil {
		return 0, err
	}
	if tpl.StartDate.IsZero() {
		return 0, fmt.Errorf("template start date: %w", core.ErrInvalidDate)
	}
	id, err := s.monthly.StoreMonthlyOutcomeTemplate(ctx, tpl)
	if err != nil {
		return 0, fmt.Errorf("store monthly outcome template: %w", err)
	}
	slog.InfoContext(ctx, "monthly outcome template created", "id", id, "name", tpl.Name)
	return id, nil
}

// ListMonthlyOutcomeTemplates returns the templates visible in the month.
func (s *Service) ListMonthlyOutcomeTemplates(ctx context.Context, ym core.YearMonth) ([]core.MonthlyOutcomeTemplate, error) {
	opening, closing, err := core.MonthBounds(ym)
	if err != nil {
		return nil, err
	}
	return s.monthly.ListMonthlyOutcomeTemplates(ctx, opening, closing)
}

// MonthlyOutcomes returns the month's materialized outcomes, creating
// missing ones.
func (s *Service) MonthlyOutcomes(ctx context.Context, ym core.YearMonth) ([]core.MonthlyOutcome, error) {
	return s.materializer.MonthlyOutcomes(ctx, ym)
}

// UpdateMonthlyOutcome replaces a materialized monthly outcome.
func (s *Service) UpdateMonthlyOutcome(ctx context.Context, out core.MonthlyOutcome) error {
	if _, ok, err := s.monthly.GetMonthlyOutcome(ctx, out.ID); err != nil {
		return fmt.Errorf("get monthly outcome %d: %w", out.ID, err)
	} else if !ok {
		return fmt.Errorf("monthly outcome %d: %w", out.ID, core.ErrNotFound)
	}
	if err := s.monthly.UpdateMonthlyOutcome(ctx, out); err != nil {
		return fmt.Errorf("update monthly outcome %d: %w", out.ID, err)
	}
	return nil
}

// CreateTemporaryOutcome persists a one-off planned outcome.
func (s *Service) CreateTemporaryOutcome(ctx context.Context, to core.TemporaryOutcome) (int64, error) {
	if to.Name == "" {
		return 0, core.ErrEmptyName
	}
	if to.Amount.IsNegative() {
		return 0, core.ErrInvalidAmount
	}
	id, err := s.tempOutcomes.StoreTemporaryOutcome(ctx, to)
	if err != nil {
		return 0, fmt.Errorf("store temporary outcome: %w", err)
	}
	return id, nil
}

// CreateTemporaryIncome persists a one-off planned income.
func (s *Service) CreateTemporaryIncome(ctx context.Context, ti core.TemporaryIncome) (int64, error) {
	if ti.Name == "" {
		return 0, core.ErrEmptyName
	}
	if ti.Amount.IsNegative() {
		return 0, core.ErrInvalidAmount
	}
	id, err := s.tempIncomes.StoreTemporaryIncome(ctx, ti)
	if err != nil {
		return 0, fmt.Errorf("store temporary income: %w", err)
	}
	return id, nil
}

// ListTemporaryOutcomes returns the one-off outcomes dated in the month.
func (s *Service) ListTemporaryOutcomes(ctx context.Context, ym core.YearMonth) ([]core.TemporaryOutcome, error) {
	opening, closing, err := core.MonthBounds(ym)
	if err != nil {
		return nil, err
	}
	return s.tempOutcomes.ListTemporaryOutcomes(ctx, opening, closing)
}

// Factories returns the projection sources this service contributes:
// materialized job incomes and one-off incomes on the income side,
// materialized monthly outcomes and one-off outcomes on the outcome side.
func (s *Service) Factories() ([]IncomeFactory, []OutcomeFactory) {
	incomeFactories := []IncomeFactory{
		func(ctx context.Context, ym core.YearMonth) ([]core.Income, error) {
			instances, err := s.materializer.JobIncomes(ctx, ym)
			if err != nil {
				return nil, err
			}
			incomes := make([]core.Income, len(instances))
			for i, inst := range instances {
				incomes[i] = inst.Income()
			}
			return incomes, nil
		},
		func(ctx context.Context, ym core.YearMonth) ([]core.Income, error) {
			opening, closing, err := core.MonthBounds(ym)
			if err != nil {
				return nil, err
			}
			temps, err := s.tempIncomes.ListTemporaryIncomes(ctx, opening, closing)
			if err != nil {
				return nil, fmt.Errorf("list temporary incomes: %w", err)
			}
			incomes := make([]core.Income, len(temps))
			for i, t := range temps {
				incomes[i] = t.Income()
			}
			return incomes, nil
		},
	}
	outcomeFactories := []OutcomeFactory{
		func(ctx context.Context, ym core.YearMonth) ([]core.Outcome, error) {
			instances, err := s.materializer.MonthlyOutcomes(ctx, ym)
			if err != nil {
				return nil, err
			}
			outs := make([]core.Outcome, len(instances))
			for i, inst := range instances {
				outs[i] = inst.Outcome()
			}
			return outs, nil
		},
		func(ctx context.Context, ym core.YearMonth) ([]core.Outcome, error) {
			opening, closing, err := core.MonthBounds(ym)
			if err != nil {
				return nil, err
			}
			temps, err := s.tempOutcomes.ListTemporaryOutcomes(ctx, opening, closing)
			if err != nil {
				return nil, fmt.Errorf("list temporary outcomes: %w", err)
			}
			outs := make([]core.Outcome, len(temps))
			for i, t := range temps {
				outs[i] = t.Outcome()
			}
			return outs, nil
		},
	}
	return incomeFactories, outcomeFactories
}

// Inspect projects the balance trajectory from startYM over the
// configured horizon.
func (s *Service) Inspect(ctx context.Context, startYM core.YearMonth) ([]InspectResult, error) {
	endYM := startYM
	for i := 0; i < s.horizon; i++ {
		endYM = endYM.Next()
	}
	incomeFactories, outcomeFactories := s.Factories()
	return Inspect(ctx, startYM, endYM, s.savings, incomeFactories, outcomeFactories)
}

func validateTiming(pt core.PaymentTiming, allowNextMonth bool) error {
	switch pt.Rule {
	case core.PayEnd:
		return nil
	case core.PayNextMonthEnd:
		if !allowNextMonth {
			return fmt.Errorf("timing rule %q is only valid for part-time jobs", pt.Rule)
		}
		return nil
	case core.PayMid, core.PayNextMonthMid:
		if pt.Rule == core.PayNextMonthMid && !allowNextMonth {
			return fmt.Errorf("timing rule %q is only valid for part-time jobs", pt.Rule)
		}
		if pt.Day < 1 || pt.Day > 31 {
			return fmt.Errorf("%w: timing day %d", core.ErrInvalidDate, pt.Day)
		}
		return nil
	default:
		return fmt.Errorf("unknown timing rule: %q", pt.Rule)
	}
}
