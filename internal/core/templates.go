package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimingRule selects how a recurring template maps a target month to a
// concrete payment date.
type TimingRule string

const (
	// PayEnd pays on the last calendar day of the target month.
	PayEnd TimingRule = "end"
	// PayMid pays on a fixed day of the target month.
	PayMid TimingRule = "mid"
	// PayNextMonthEnd pays at the end of the month after the target
	// month. Used when wages land with a one-month lag; jobs only.
	PayNextMonthEnd TimingRule = "next_end"
	// PayNextMonthMid pays on a fixed day of the month after the target
	// month. Jobs only.
	PayNextMonthMid TimingRule = "next_mid"
)

// PaymentTiming is a timing rule plus the day-of-month for the Mid
// variants. Day is ignored for the End variants.
type PaymentTiming struct {
	Rule TimingRule
	Day  int
}

// PaymentDate resolves the timing rule against a target month. A Mid day
// the calendar does not contain (31 in a 30-day month) is an error, never
// clamped.
func (pt PaymentTiming) PaymentDate(ym YearMonth) (time.Time, error) {
	switch pt.Rule {
	case PayEnd:
		return EndOfMonth(ym)
	case PayMid:
		return NewDate(ym.Year, int(ym.Month), pt.Day)
	case PayNextMonthEnd:
		return EndOfMonth(ym.Next())
	case PayNextMonthMid:
		next := ym.Next()
		return NewDate(next.Year, int(next.Month), pt.Day)
	default:
		return time.Time{}, fmt.Errorf("unknown timing rule: %q", pt.Rule)
	}
}

type (
	// PartTimeJob is a recurring income template. The validity window
	// [StartDate, EndDate] bounds the months it produces shifts for;
	// a zero EndDate means open-ended.
	PartTimeJob struct {
		ID            int64
		Name          string
		PaymentTiming PaymentTiming
		StartDate     time.Time
		EndDate       time.Time
	}

	// HourlyWage is one row of a job's wage-rate table. The rate applies
	// from StartYM until a later row supersedes it.
	HourlyWage struct {
		JobID   int64
		Wage    decimal.Decimal
		StartYM YearMonth
	}

	// PartTimeJobIncome is the materialized instance of a job for one
	// payment month: cached by (JobID, payment year, payment month),
	// created lazily with zero hours on first query.
	PartTimeJobIncome struct {
		ID          int64
		JobID       int64
		Name        string
		HourlyWage  decimal.Decimal
		Hours       decimal.Decimal
		PaymentDate time.Time
	}

	// MonthlyOutcomeTemplate is a recurring outcome template with a flat
	// amount. Only the End and Mid timing rules apply.
	MonthlyOutcomeTemplate struct {
		ID            int64
		Name          string
		Amount        decimal.Decimal
		PaymentTiming PaymentTiming
		StartDate     time.Time
		EndDate       time.Time
	}

	// MonthlyOutcome is the materialized instance of an outcome template
	// for one month.
	MonthlyOutcome struct {
		ID          int64
		TemplateID  int64
		Name        string
		Amount      decimal.Decimal
		PaymentDate time.Time
	}

	// TemporaryIncome is a one-off planned income, included in
	// projections as-is.
	TemporaryIncome struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   time.Time
	}

	// TemporaryOutcome is a one-off planned outcome.
	TemporaryOutcome struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   time.Time
	}
)

// Income converts a materialized shift into a plain income record
// (wage x hours) dated at the payment date.
func (p PartTimeJobIncome) Income() Income {
	return Income{
		Name:   p.Name,
		Amount: p.HourlyWage.Mul(p.Hours),
		Date:   p.PaymentDate,
	}
}

// Outcome converts a materialized monthly outcome into a plain record.
func (m MonthlyOutcome) Outcome() Outcome {
	return Outcome{Name: m.Name, Amount: m.Amount, Date: m.PaymentDate}
}

// Income converts a one-off planned income into a plain record.
func (t TemporaryIncome) Income() Income {
	return Income{Name: t.Name, Amount: t.Amount, Date: t.Date}
}

// Outcome converts a one-off planned outcome into a plain record.
func (t TemporaryOutcome) Outcome() Outcome {
	return Outcome{Name: t.Name, Amount: t.Amount, Date: t.Date}
}

// VisibleIn reports whether the job's validity window overlaps the
// [rangeStart, rangeEnd] query range. A window ending exactly on
// rangeStart still overlaps.
func (j PartTimeJob) VisibleIn(rangeStart, rangeEnd time.Time) bool {
	return templateVisible(j.StartDate, j.EndDate, rangeStart, rangeEnd)
}

// VisibleIn reports whether the template's validity window overlaps the
// query range.
func (t MonthlyOutcomeTemplate) VisibleIn(rangeStart, rangeEnd time.Time) bool {
	return templateVisible(t.StartDate, t.EndDate, rangeStart, rangeEnd)
}

func templateVisible(start, end, rangeStart, rangeEnd time.Time) bool {
	if start.After(rangeEnd) {
		return false
	}
	return end.IsZero() || !end.Before(rangeStart)
}
