// Package storage is the SQLite implementation of every repository port.
// Amounts are persisted as decimal text to keep them exact; dates as
// RFC 3339 UTC text, which compares correctly as a string.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/plan"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.IncomeRepo         = (*SQLiteRepository)(nil)
	_ ledger.OutcomeRepo        = (*SQLiteRepository)(nil)
	_ ledger.SavingRepo         = (*SQLiteRepository)(nil)
	_ ledger.AdjustmentRepo     = (*SQLiteRepository)(nil)
	_ plan.PartTimeJobRepo      = (*SQLiteRepository)(nil)
	_ plan.MonthlyOutcomeRepo   = (*SQLiteRepository)(nil)
	_ plan.TemporaryIncomeRepo  = (*SQLiteRepository)(nil)
	_ plan.TemporaryOutcomeRepo = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func fmtDate(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

// --- ledger.IncomeRepo

func (r *SQLiteRepository) ListIncomes(ctx context.Context, start, end time.Time) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, date FROM incomes WHERE date >= ? AND date <= ? ORDER BY date`,
		fmtDate(start), fmtDate(end))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var result []core.Income
	for rows.Next() {
		var (
			in           core.Income
			amount, date string
		)
		if err := rows.Scan(&in.ID, &in.Name, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if in.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, in)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, bool, error) {
	var (
		in           core.Income
		amount, date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, amount, date FROM incomes WHERE id = ?`, id).
		Scan(&in.ID, &in.Name, &amount, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, false, nil
	}
	if err != nil {
		return core.Income{}, false, fmt.Errorf("get income %d: %w", id, err)
	}
	if in.Amount, err = parseAmount(amount); err != nil {
		return core.Income{}, false, err
	}
	if in.Date, err = parseDate(date); err != nil {
		return core.Income{}, false, err
	}
	return in, true, nil
}

func (r *SQLiteRepository) StoreIncome(ctx context.Context, in core.Income) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (name, amount, date) VALUES (?, ?, ?)`,
		in.Name, in.Amount.String(), fmtDate(in.Date))
	if err != nil {
		return 0, fmt.Errorf("store income: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE incomes SET name = ?, amount = ?, date = ? WHERE id = ?`,
		in.Name, in.Amount.String(), fmtDate(in.Date), in.ID)
	if err != nil {
		return fmt.Errorf("update income %d: %w", in.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	return nil
}

// --- ledger.OutcomeRepo

func (r *SQLiteRepository) ListOutcomes(ctx context.Context, start, end time.Time) ([]core.Outcome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, date FROM outcomes WHERE date >= ? AND date <= ? ORDER BY date`,
		fmtDate(start), fmtDate(end))
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var result []core.Outcome
	for rows.Next() {
		var (
			out          core.Outcome
			amount, date string
		)
		if err := rows.Scan(&out.ID, &out.Name, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if out.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if out.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, out)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetOutcome(ctx context.Context, id int64) (core.Outcome, bool, error) {
	var (
		out          core.Outcome
		amount, date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, amount, date FROM outcomes WHERE id = ?`, id).
		Scan(&out.ID, &out.Name, &amount, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Outcome{}, false, nil
	}
	if err != nil {
		return core.Outcome{}, false, fmt.Errorf("get outcome %d: %w", id, err)
	}
	if out.Amount, err = parseAmount(amount); err != nil {
		return core.Outcome{}, false, err
	}
	if out.Date, err = parseDate(date); err != nil {
		return core.Outcome{}, false, err
	}
	return out, true, nil
}

func (r *SQLiteRepository) StoreOutcome(ctx context.Context, out core.Outcome) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO outcomes (name, amount, date) VALUES (?, ?, ?)`,
		out.Name, out.Amount.String(), fmtDate(out.Date))
	if err != nil {
		return 0, fmt.Errorf("store outcome: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateOutcome(ctx context.Context, out core.Outcome) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outcomes SET name = ?, amount = ?, date = ? WHERE id = ?`,
		out.Name, out.Amount.String(), fmtDate(out.Date), out.ID)
	if err != nil {
		return fmt.Errorf("update outcome %d: %w", out.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOutcome(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outcomes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete outcome %d: %w", id, err)
	}
	return nil
}

// --- ledger.SavingRepo

func (r *SQLiteRepository) GetSaving(ctx context.Context, key core.YearMonth) (core.Saving, bool, error) {
	var amount string
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM savings WHERE year = ? AND month = ?`,
		key.Year, int(key.Month)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Saving{}, false, nil
	}
	if err != nil {
		return core.Saving{}, false, fmt.Errorf("get saving %s: %w", key, err)
	}
	d, err := parseAmount(amount)
	if err != nil {
		return core.Saving{}, false, err
	}
	return core.Saving{Key: key, Amount: d}, true, nil
}

func (r *SQLiteRepository) StoreSaving(ctx context.Context, s core.Saving) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO savings (year, month, amount) VALUES (?, ?, ?)`,
		s.Key.Year, int(s.Key.Month), s.Amount.String())
	if err != nil {
		return fmt.Errorf("store saving %s: %w", s.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateSaving(ctx context.Context, s core.Saving) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE savings SET amount = ? WHERE year = ? AND month = ?`,
		s.Amount.String(), s.Key.Year, int(s.Key.Month))
	if err != nil {
		return fmt.Errorf("update saving %s: %w", s.Key, err)
	}
	return nil
}

// --- ledger.AdjustmentRepo

func (r *SQLiteRepository) GetAdjustment(ctx context.Context, key core.YearMonth) (core.Adjustment, bool, error) {
	var (
		a            core.Adjustment
		kind         string
		amount, date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT kind, record_id, amount, date FROM adjustments WHERE year = ? AND month = ?`,
		key.Year, int(key.Month)).Scan(&kind, &a.RecordID, &amount, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Adjustment{}, false, nil
	}
	if err != nil {
		return core.Adjustment{}, false, fmt.Errorf("get adjustment %s: %w", key, err)
	}
	a.Key = key
	a.Kind = core.AdjustmentKind(kind)
	if a.Amount, err = parseAmount(amount); err != nil {
		return core.Adjustment{}, false, err
	}
	if a.Date, err = parseDate(date); err != nil {
		return core.Adjustment{}, false, err
	}
	return a, true, nil
}

func (r *SQLiteRepository) StoreAdjustment(ctx context.Context, a core.Adjustment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO adjustments (year, month, kind, record_id, amount, date) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Key.Year, int(a.Key.Month), string(a.Kind), a.RecordID, a.Amount.String(), fmtDate(a.Date))
	if err != nil {
		return fmt.Errorf("store adjustment %s: %w", a.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAdjustment(ctx context.Context, key core.YearMonth) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM adjustments WHERE year = ? AND month = ?`, key.Year, int(key.Month))
	if err != nil {
		return fmt.Errorf("delete adjustment %s: %w", key, err)
	}
	return nil
}

// --- plan.PartTimeJobRepo

func scanJob(scan func(...any) error) (core.PartTimeJob, error) {
	var (
		job       core.PartTimeJob
		rule      string
		day       int
		startDate string
		endDate   sql.NullString
	)
	if err := scan(&job.ID, &job.Name, &rule, &day, &startDate, &endDate); err != nil {
		return core.PartTimeJob{}, fmt.Errorf("scan part-time job: %w", err)
	}
	job.PaymentTiming = core.PaymentTiming{Rule: core.TimingRule(rule), Day: day}
	var err error
	if job.StartDate, err = parseDate(startDate); err != nil {
		return core.PartTimeJob{}, err
	}
	if endDate.Valid {
		if job.EndDate, err = parseDate(endDate.String); err != nil {
			return core.PartTimeJob{}, err
		}
	}
	return job, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return fmtDate(t)
}

func (r *SQLiteRepository) ListPartTimeJobs(ctx context.Context, start, end time.Time) ([]core.PartTimeJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, timing_rule, timing_day, start_date, end_date
		 FROM part_time_jobs
		 WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY id`,
		fmtDate(end), fmtDate(start))
	if err != nil {
		return nil, fmt.Errorf("list part-time jobs: %w", err)
	}
	defer rows.Close()

	var result []core.PartTimeJob
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetPartTimeJob(ctx context.Context, id int64) (core.PartTimeJob, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, timing_rule, timing_day, start_date, end_date FROM part_time_jobs WHERE id = ?`, id)
	job, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PartTimeJob{}, false, nil
	}
	if err != nil {
		return core.PartTimeJob{}, false, err
	}
	return job, true, nil
}

func (r *SQLiteRepository) StorePartTimeJob(ctx context.Context, job core.PartTimeJob) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO part_time_jobs (name, timing_rule, timing_day, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		job.Name, string(job.PaymentTiming.Rule), job.PaymentTiming.Day, fmtDate(job.StartDate), nullableDate(job.EndDate))
	if err != nil {
		return 0, fmt.Errorf("store part-time job: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdatePartTimeJob(ctx context.Context, job core.PartTimeJob) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE part_time_jobs SET name = ?, timing_rule = ?, timing_day = ?, start_date = ?, end_date = ? WHERE id = ?`,
		job.Name, string(job.PaymentTiming.Rule), job.PaymentTiming.Day, fmtDate(job.StartDate), nullableDate(job.EndDate), job.ID)
	if err != nil {
		return fmt.Errorf("update part-time job %d: %w", job.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetHourlyWage(ctx context.Context, jobID int64, ym core.YearMonth) (core.HourlyWage, bool, error) {
	var (
		wage       string
		startYear  int
		startMonth int
	)
	// The applicable rate is the latest one starting at or before the
	// shift month.
	err := r.db.QueryRowContext(ctx,
		`SELECT wage, start_year, start_month FROM hourly_wages
		 WHERE job_id = ? AND (start_year < ? OR (start_year = ? AND start_month <= ?))
		 ORDER BY start_year DESC, start_month DESC LIMIT 1`,
		jobID, ym.Year, ym.Year, int(ym.Month)).Scan(&wage, &startYear, &startMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HourlyWage{}, false, nil
	}
	if err != nil {
		return core.HourlyWage{}, false, fmt.Errorf("get hourly wage: %w", err)
	}
	d, err := parseAmount(wage)
	if err != nil {
		return core.HourlyWage{}, false, err
	}
	return core.HourlyWage{JobID: jobID, Wage: d, StartYM: core.YM(startYear, startMonth)}, true, nil
}

func (r *SQLiteRepository) GetHourlyWageByStart(ctx context.Context, jobID int64, start core.YearMonth) (core.HourlyWage, bool, error) {
	var wage string
	err := r.db.QueryRowContext(ctx,
		`SELECT wage FROM hourly_wages WHERE job_id = ? AND start_year = ? AND start_month = ?`,
		jobID, start.Year, int(start.Month)).Scan(&wage)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HourlyWage{}, false, nil
	}
	if err != nil {
		return core.HourlyWage{}, false, fmt.Errorf("get hourly wage by start: %w", err)
	}
	d, err := parseAmount(wage)
	if err != nil {
		return core.HourlyWage{}, false, err
	}
	return core.HourlyWage{JobID: jobID, Wage: d, StartYM: start}, true, nil
}

func (r *SQLiteRepository) StoreHourlyWage(ctx context.Context, w core.HourlyWage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hourly_wages (job_id, wage, start_year, start_month) VALUES (?, ?, ?, ?)`,
		w.JobID, w.Wage.String(), w.StartYM.Year, int(w.StartYM.Month))
	if err != nil {
		return fmt.Errorf("store hourly wage: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateHourlyWage(ctx context.Context, w core.HourlyWage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE hourly_wages SET wage = ? WHERE job_id = ? AND start_year = ? AND start_month = ?`,
		w.Wage.String(), w.JobID, w.StartYM.Year, int(w.StartYM.Month))
	if err != nil {
		return fmt.Errorf("update hourly wage: %w", err)
	}
	return nil
}

func scanJobIncome(scan func(...any) error) (core.PartTimeJobIncome, error) {
	var (
		inc                 core.PartTimeJobIncome
		wage, hours, payDay string
	)
	if err := scan(&inc.ID, &inc.JobID, &inc.Name, &wage, &hours, &payDay); err != nil {
		return core.PartTimeJobIncome{}, fmt.Errorf("scan job income: %w", err)
	}
	var err error
	if inc.HourlyWage, err = parseAmount(wage); err != nil {
		return core.PartTimeJobIncome{}, err
	}
	if inc.Hours, err = parseAmount(hours); err != nil {
		return core.PartTimeJobIncome{}, err
	}
	if inc.PaymentDate, err = parseDate(payDay); err != nil {
		return core.PartTimeJobIncome{}, err
	}
	return inc, nil
}

func (r *SQLiteRepository) GetJobIncome(ctx context.Context, id int64) (core.PartTimeJobIncome, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, job_id, name, hourly_wage, hours, payment_date FROM part_time_job_incomes WHERE id = ?`, id)
	inc, err := scanJobIncome(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PartTimeJobIncome{}, false, nil
	}
	if err != nil {
		return core.PartTimeJobIncome{}, false, err
	}
	return inc, true, nil
}

func (r *SQLiteRepository) GetJobIncomeByMonth(ctx context.Context, jobID int64, ym core.YearMonth) (core.PartTimeJobIncome, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, job_id, name, hourly_wage, hours, payment_date
		 FROM part_time_job_incomes WHERE job_id = ? AND pay_year = ? AND pay_month = ?`,
		jobID, ym.Year, int(ym.Month))
	inc, err := scanJobIncome(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PartTimeJobIncome{}, false, nil
	}
	if err != nil {
		return core.PartTimeJobIncome{}, false, err
	}
	return inc, true, nil
}

func (r *SQLiteRepository) StoreJobIncome(ctx context.Context, inc core.PartTimeJobIncome) (int64, error) {
	payYM := core.YMOf(inc.PaymentDate)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO part_time_job_incomes (job_id, name, hourly_wage, hours, payment_date, pay_year, pay_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inc.JobID, inc.Name, inc.HourlyWage.String(), inc.Hours.String(), fmtDate(inc.PaymentDate), payYM.Year, int(payYM.Month))
	if err != nil {
		return 0, fmt.Errorf("store job income: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateJobIncome(ctx context.Context, inc core.PartTimeJobIncome) error {
	payYM := core.YMOf(inc.PaymentDate)
	_, err := r.db.ExecContext(ctx,
		`UPDATE part_time_job_incomes SET name = ?, hourly_wage = ?, hours = ?, payment_date = ?, pay_year = ?, pay_month = ?
		 WHERE id = ?`,
		inc.Name, inc.HourlyWage.String(), inc.Hours.String(), fmtDate(inc.PaymentDate), payYM.Year, int(payYM.Month), inc.ID)
	if err != nil {
		return fmt.Errorf("update job income %d: %w", inc.ID, err)
	}
	return nil
}

// --- plan.MonthlyOutcomeRepo

func (r *SQLiteRepository) ListMonthlyOutcomeTemplates(ctx context.Context, start, end time.Time) ([]core.MonthlyOutcomeTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, timing_rule, timing_day, start_date, end_date
		 FROM monthly_outcome_templates
		 WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY id`,
		fmtDate(end), fmtDate(start))
	if err != nil {
		return nil, fmt.Errorf("list monthly outcome templates: %w", err)
	}
	defer rows.Close()

	var result []core.MonthlyOutcomeTemplate
	for rows.Next() {
		var (
			tpl       core.MonthlyOutcomeTemplate
			amount    string
			rule      string
			day       int
			startDate string
			endDate   sql.NullString
		)
		if err := rows.Scan(&tpl.ID, &tpl.Name, &amount, &rule, &day, &startDate, &endDate); err != nil {
			return nil, fmt.Errorf("scan monthly outcome template: %w", err)
		}
		if tpl.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		tpl.PaymentTiming = core.PaymentTiming{Rule: core.TimingRule(rule), Day: day}
		if tpl.StartDate, err = parseDate(startDate); err != nil {
			return nil, err
		}
		if endDate.Valid {
			if tpl.EndDate, err = parseDate(endDate.String); err != nil {
				return nil, err
			}
		}
		result = append(result, tpl)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) StoreMonthlyOutcomeTemplate(ctx context.Context, tpl core.MonthlyOutcomeTemplate) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_outcome_templates (name, amount, timing_rule, timing_day, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tpl.Name, tpl.Amount.String(), string(tpl.PaymentTiming.Rule), tpl.PaymentTiming.Day,
		fmtDate(tpl.StartDate), nullableDate(tpl.EndDate))
	if err != nil {
		return 0, fmt.Errorf("store monthly outcome template: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateMonthlyOutcomeTemplate(ctx context.Context, tpl core.MonthlyOutcomeTemplate) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE monthly_outcome_templates SET name = ?, amount = ?, timing_rule = ?, timing_day = ?, start_date = ?, end_date = ?
		 WHERE id = ?`,
		tpl.Name, tpl.Amount.String(), string(tpl.PaymentTiming.Rule), tpl.PaymentTiming.Day,
		fmtDate(tpl.StartDate), nullableDate(tpl.EndDate), tpl.ID)
	if err != nil {
		return fmt.Errorf("update monthly outcome template %d: %w", tpl.ID, err)
	}
	return nil
}

func scanMonthlyOutcome(scan func(...any) error) (core.MonthlyOutcome, error) {
	var (
		out          core.MonthlyOutcome
		amount, date string
	)
	if err := scan(&out.ID, &out.TemplateID, &out.Name, &amount, &date); err != nil {
		return core.MonthlyOutcome{}, fmt.Errorf("scan monthly outcome: %w", err)
	}
	var err error
	if out.Amount, err = parseAmount(amount); err != nil {
		return core.MonthlyOutcome{}, err
	}
	if out.PaymentDate, err = parseDate(date); err != nil {
		return core.MonthlyOutcome{}, err
	}
	return out, nil
}

func (r *SQLiteRepository) GetMonthlyOutcome(ctx context.Context, id int64) (core.MonthlyOutcome, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, template_id, name, amount, payment_date FROM monthly_outcomes WHERE id = ?`, id)
	out, err := scanMonthlyOutcome(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyOutcome{}, false, nil
	}
	if err != nil {
		return core.MonthlyOutcome{}, false, err
	}
	return out, true, nil
}

func (r *SQLiteRepository) GetMonthlyOutcomeByTemplate(ctx context.Context, templateID int64, ym core.YearMonth) (core.MonthlyOutcome, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, template_id, name, amount, payment_date
		 FROM monthly_outcomes WHERE template_id = ? AND pay_year = ? AND pay_month = ?`,
		templateID, ym.Year, int(ym.Month))
	out, err := scanMonthlyOutcome(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyOutcome{}, false, nil
	}
	if err != nil {
		return core.MonthlyOutcome{}, false, err
	}
	return out, true, nil
}

func (r *SQLiteRepository) StoreMonthlyOutcome(ctx context.Context, out core.MonthlyOutcome) (int64, error) {
	payYM := core.YMOf(out.PaymentDate)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_outcomes (template_id, name, amount, payment_date, pay_year, pay_month)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		out.TemplateID, out.Name, out.Amount.String(), fmtDate(out.PaymentDate), payYM.Year, int(payYM.Month))
	if err != nil {
		return 0, fmt.Errorf("store monthly outcome: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateMonthlyOutcome(ctx context.Context, out core.MonthlyOutcome) error {
	payYM := core.YMOf(out.PaymentDate)
	_, err := r.db.ExecContext(ctx,
		`UPDATE monthly_outcomes SET name = ?, amount = ?, payment_date = ?, pay_year = ?, pay_month = ? WHERE id = ?`,
		out.Name, out.Amount.String(), fmtDate(out.PaymentDate), payYM.Year, int(payYM.Month), out.ID)
	if err != nil {
		return fmt.Errorf("update monthly outcome %d: %w", out.ID, err)
	}
	return nil
}

// --- plan.TemporaryIncomeRepo / plan.TemporaryOutcomeRepo

func (r *SQLiteRepository) ListTemporaryIncomes(ctx context.Context, start, end time.Time) ([]core.TemporaryIncome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, date FROM temporary_incomes WHERE date >= ? AND date <= ? ORDER BY date`,
		fmtDate(start), fmtDate(end))
	if err != nil {
		return nil, fmt.Errorf("list temporary incomes: %w", err)
	}
	defer rows.Close()

	var result []core.TemporaryIncome
	for rows.Next() {
		var (
			ti           core.TemporaryIncome
			amount, date string
		)
		if err := rows.Scan(&ti.ID, &ti.Name, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan temporary income: %w", err)
		}
		if ti.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if ti.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, ti)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) StoreTemporaryIncome(ctx context.Context, ti core.TemporaryIncome) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO temporary_incomes (name, amount, date) VALUES (?, ?, ?)`,
		ti.Name, ti.Amount.String(), fmtDate(ti.Date))
	if err != nil {
		return 0, fmt.Errorf("store temporary income: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListTemporaryOutcomes(ctx context.Context, start, end time.Time) ([]core.TemporaryOutcome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, date FROM temporary_outcomes WHERE date >= ? AND date <= ? ORDER BY date`,
		fmtDate(start), fmtDate(end))
	if err != nil {
		return nil, fmt.Errorf("list temporary outcomes: %w", err)
	}
	defer rows.Close()

	var result []core.TemporaryOutcome
	for rows.Next() {
		var (
			to           core.TemporaryOutcome
			amount, date string
		)
		if err := rows.Scan(&to.ID, &to.Name, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan temporary outcome: %w", err)
		}
		if to.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if to.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, to)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetTemporaryOutcome(ctx context.Context, id int64) (core.TemporaryOutcome, bool, error) {
	var (
		to           core.TemporaryOutcome
		amount, date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, amount, date FROM temporary_outcomes WHERE id = ?`, id).
		Scan(&to.ID, &to.Name, &amount, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TemporaryOutcome{}, false, nil
	}
	if err != nil {
		return core.TemporaryOutcome{}, false, fmt.Errorf("get temporary outcome %d: %w", id, err)
	}
	if to.Amount, err = parseAmount(amount); err != nil {
		return core.TemporaryOutcome{}, false, err
	}
	if to.Date, err = parseDate(date); err != nil {
		return core.TemporaryOutcome{}, false, err
	}
	return to, true, nil
}

func (r *SQLiteRepository) StoreTemporaryOutcome(ctx context.Context, to core.TemporaryOutcome) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO temporary_outcomes (name, amount, date) VALUES (?, ?, ?)`,
		to.Name, to.Amount.String(), fmtDate(to.Date))
	if err != nil {
		return 0, fmt.Errorf("store temporary outcome: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateTemporaryOutcome(ctx context.Context, to core.TemporaryOutcome) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE temporary_outcomes SET name = ?, amount = ?, date = ? WHERE id = ?`,
		to.Name, to.Amount.String(), fmtDate(to.Date), to.ID)
	if err != nil {
		return fmt.Errorf("update temporary outcome %d: %w", to.ID, err)
	}
	return nil
}
