// Package memory is an in-process implementation of every repository
// port. It backs the default DATA_BACKEND and the package tests; nothing
// survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/plan"
)

// Store holds all collections behind one mutex. The ledger service adds
// its own serialization on top; this lock only keeps individual
// operations consistent.
type Store struct {
	mu     sync.Mutex
	nextID int64

	incomes     map[int64]core.Income
	outcomes    map[int64]core.Outcome
	savings     map[core.YearMonth]core.Saving
	adjustments map[core.YearMonth]core.Adjustment

	jobs        map[int64]core.PartTimeJob
	wages       []core.HourlyWage
	jobIncomes  map[int64]core.PartTimeJobIncome
	templates   map[int64]core.MonthlyOutcomeTemplate
	monthlyOuts map[int64]core.MonthlyOutcome
	tempIncomes map[int64]core.TemporaryIncome
	tempOuts    map[int64]core.TemporaryOutcome
}

var (
	_ ledger.IncomeRepo         = (*Store)(nil)
	_ ledger.OutcomeRepo        = (*Store)(nil)
	_ ledger.SavingRepo         = (*Store)(nil)
	_ ledger.AdjustmentRepo     = (*Store)(nil)
	_ plan.PartTimeJobRepo      = (*Store)(nil)
	_ plan.MonthlyOutcomeRepo   = (*Store)(nil)
	_ plan.TemporaryIncomeRepo  = (*Store)(nil)
	_ plan.TemporaryOutcomeRepo = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		incomes:     make(map[int64]core.Income),
		outcomes:    make(map[int64]core.Outcome),
		savings:     make(map[core.YearMonth]core.Saving),
		adjustments: make(map[core.YearMonth]core.Adjustment),
		jobs:        make(map[int64]core.PartTimeJob),
		jobIncomes:  make(map[int64]core.PartTimeJobIncome),
		templates:   make(map[int64]core.MonthlyOutcomeTemplate),
		monthlyOuts: make(map[int64]core.MonthlyOutcome),
		tempIncomes: make(map[int64]core.TemporaryIncome),
		tempOuts:    make(map[int64]core.TemporaryOutcome),
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// --- ledger.IncomeRepo

func (s *Store) ListIncomes(_ context.Context, start, end time.Time) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.Income
	for _, in := range s.incomes {
		if inRange(in.Date, start, end) {
			result = append(result, in)
		}
	}
	return result, nil
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.Income, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	return in, ok, nil
}

func (s *Store) StoreIncome(_ context.Context, in core.Income) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.allocID()
	s.incomes[in.ID] = in
	return in.ID, nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes[in.ID] = in
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.incomes, id)
	return nil
}

// --- ledger.OutcomeRepo

func (s *Store) ListOutcomes(_ context.Context, start, end time.Time) ([]core.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.Outcome
	for _, out := range s.outcomes {
		if inRange(out.Date, start, end) {
			result = append(result, out)
		}
	}
	return result, nil
}

func (s *Store) GetOutcome(_ context.Context, id int64) (core.Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outcomes[id]
	return out, ok, nil
}

func (s *Store) StoreOutcome(_ context.Context, out core.Outcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out.ID = s.allocID()
	s.outcomes[out.ID] = out
	return out.ID, nil
}

func (s *Store) UpdateOutcome(_ context.Context, out core.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[out.ID] = out
	return nil
}

func (s *Store) DeleteOutcome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outcomes, id)
	return nil
}

// --- ledger.SavingRepo

func (s *Store) GetSaving(_ context.Context, key core.YearMonth) (core.Saving, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.savings[key]
	return entry, ok, nil
}

func (s *Store) StoreSaving(_ context.Context, entry core.Saving) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savings[entry.Key] = entry
	return nil
}

func (s *Store) UpdateSaving(_ context.Context, entry core.Saving) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savings[entry.Key] = entry
	return nil
}

// --- ledger.AdjustmentRepo

func (s *Store) GetAdjustment(_ context.Context, key core.YearMonth) (core.Adjustment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.adjustments[key]
	return a, ok, nil
}

func (s *Store) StoreAdjustment(_ context.Context, a core.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments[a.Key] = a
	return nil
}

func (s *Store) DeleteAdjustment(_ context.Context, key core.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adjustments, key)
	return nil
}

// --- plan.PartTimeJobRepo

func (s *Store) ListPartTimeJobs(_ context.Context, start, end time.Time) ([]core.PartTimeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.PartTimeJob
	for _, job := range s.jobs {
		if job.VisibleIn(start, end) {
			result = append(result, job)
		}
	}
	return result, nil
}

func (s *Store) GetPartTimeJob(_ context.Context, id int64) (core.PartTimeJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok, nil
}

func (s *Store) StorePartTimeJob(_ context.Context, job core.PartTimeJob) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = s.allocID()
	s.jobs[job.ID] = job
	return job.ID, nil
}

func (s *Store) UpdatePartTimeJob(_ context.Context, job core.PartTimeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) GetHourlyWage(_ context.Context, jobID int64, ym core.YearMonth) (core.HourlyWage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best core.HourlyWage
	found := false
	for _, w := range s.wages {
		if w.JobID != jobID || w.StartYM.After(ym) {
			continue
		}
		if !found || w.StartYM.After(best.StartYM) {
			best = w
			found = true
		}
	}
	return best, found, nil
}

func (s *Store) GetHourlyWageByStart(_ context.Context, jobID int64, start core.YearMonth) (core.HourlyWage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wages {
		if w.JobID == jobID && w.StartYM == start {
			return w, true, nil
		}
	}
	return core.HourlyWage{}, false, nil
}

func (s *Store) StoreHourlyWage(_ context.Context, w core.HourlyWage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wages = append(s.wages, w)
	return nil
}

func (s *Store) UpdateHourlyWage(_ context.Context, w core.HourlyWage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.wages {
		if existing.JobID == w.JobID && existing.StartYM == w.StartYM {
			s.wages[i] = w
			return nil
		}
	}
	s.wages = append(s.wages, w)
	return nil
}

func (s *Store) GetJobIncome(_ context.Context, id int64) (core.PartTimeJobIncome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.jobIncomes[id]
	return inc, ok, nil
}

func (s *Store) GetJobIncomeByMonth(_ context.Context, jobID int64, ym core.YearMonth) (core.PartTimeJobIncome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inc := range s.jobIncomes {
		if inc.JobID == jobID && core.YMOf(inc.PaymentDate) == ym {
			return inc, true, nil
		}
	}
	return core.PartTimeJobIncome{}, false, nil
}

func (s *Store) StoreJobIncome(_ context.Context, inc core.PartTimeJobIncome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc.ID = s.allocID()
	s.jobIncomes[inc.ID] = inc
	return inc.ID, nil
}

func (s *Store) UpdateJobIncome(_ context.Context, inc core.PartTimeJobIncome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobIncomes[inc.ID] = inc
	return nil
}

// --- plan.MonthlyOutcomeRepo

func (s *Store) ListMonthlyOutcomeTemplates(_ context.Context, start, end time.Time) ([]core.MonthlyOutcomeTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.MonthlyOutcomeTemplate
	for _, tpl := range s.templates {
		if tpl.VisibleIn(start, end) {
			result = append(result, tpl)
		}
	}
	return result, nil
}

func (s *Store) StoreMonthlyOutcomeTemplate(_ context.Context, tpl core.MonthlyOutcomeTemplate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl.ID = s.allocID()
	s.templates[tpl.ID] = tpl
	return tpl.ID, nil
}

func (s *Store) UpdateMonthlyOutcomeTemplate(_ context.Context, tpl core.MonthlyOutcomeTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
	return nil
}

func (s *Store) GetMonthlyOutcome(_ context.Context, id int64) (core.MonthlyOutcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.monthlyOuts[id]
	return out, ok, nil
}

func (s *Store) GetMonthlyOutcomeByTemplate(_ context.Context, templateID int64, ym core.YearMonth) (core.MonthlyOutcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.monthlyOuts {
		if out.TemplateID == templateID && core.YMOf(out.PaymentDate) == ym {
			return out, true, nil
		}
	}
	return core.MonthlyOutcome{}, false, nil
}

func (s *Store) StoreMonthlyOutcome(_ context.Context, out core.MonthlyOutcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out.ID = s.allocID()
	s.monthlyOuts[out.ID] = out
	return out.ID, nil
}

func (s *Store) UpdateMonthlyOutcome(_ context.Context, out core.MonthlyOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthlyOuts[out.ID] = out
	return nil
}

// --- plan.TemporaryIncomeRepo

func (s *Store) ListTemporaryIncomes(_ context.Context, start, end time.Time) ([]core.TemporaryIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.TemporaryIncome
	for _, ti := range s.tempIncomes {
		if inRange(ti.Date, start, end) {
			result = append(result, ti)
		}
	}
	return result, nil
}

func (s *Store) StoreTemporaryIncome(_ context.Context, ti core.TemporaryIncome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti.ID = s.allocID()
	s.tempIncomes[ti.ID] = ti
	return ti.ID, nil
}

// --- plan.TemporaryOutcomeRepo

func (s *Store) ListTemporaryOutcomes(_ context.Context, start, end time.Time) ([]core.TemporaryOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []core.TemporaryOutcome
	for _, to := range s.tempOuts {
		if inRange(to.Date, start, end) {
			result = append(result, to)
		}
	}
	return result, nil
}

func (s *Store) GetTemporaryOutcome(_ context.Context, id int64) (core.TemporaryOutcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	to, ok := s.tempOuts[id]
	return to, ok, nil
}

func (s *Store) StoreTemporaryOutcome(_ context.Context, to core.TemporaryOutcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	to.ID = s.allocID()
	s.tempOuts[to.ID] = to
	return to.ID, nil
}

func (s *Store) UpdateTemporaryOutcome(_ context.Context, to core.TemporaryOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempOuts[to.ID] = to
	return nil
}
