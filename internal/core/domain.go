package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyName     = errors.New("empty name")
	ErrNotFound      = errors.New("not found")
)

type (
	// Income is a dated credit record. ID is zero until the record has
	// been persisted. Records are value types; an edit is a replacement
	// carrying the same ID.
	Income struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   time.Time
	}

	// Outcome is a dated debit record, shaped exactly like Income; the
	// sign is conveyed by the record kind, so Amount stays non-negative.
	Outcome struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   time.Time
	}

	// Saving is the ledger entry for one calendar month. Amount is the
	// cumulative balance at the close of that month, not a per-month
	// delta: consecutive entries form a prefix sum over time.
	Saving struct {
		Key    YearMonth
		Amount decimal.Decimal
	}

	// AdjustmentKind tags which synthetic record an adjustment points at.
	AdjustmentKind string

	// Adjustment reconciles a user-declared balance with the computed
	// one. It always has a matching synthetic Income or Outcome record
	// with the same amount and date; at most one exists per month.
	Adjustment struct {
		Key      YearMonth
		Kind     AdjustmentKind
		RecordID int64
		Amount   decimal.Decimal // non-negative, sign implied by Kind
		Date     time.Time       // the month's closing instant
	}
)

const (
	AdjustmentIncome  AdjustmentKind = "income"
	AdjustmentOutcome AdjustmentKind = "outcome"
)

// NewIncome builds an unpersisted income record from validated parts.
func NewIncome(name string, amount decimal.Decimal, date time.Time) (Income, error) {
	if strings.TrimSpace(name) == "" {
		return Income{}, ErrEmptyName
	}
	if amount.IsNegative() {
		return Income{}, ErrInvalidAmount
	}
	if date.IsZero() {
		return Income{}, ErrInvalidDate
	}
	return Income{Name: name, Amount: amount, Date: date}, nil
}

// NewOutcome builds an unpersisted outcome record from validated parts.
func NewOutcome(name string, amount decimal.Decimal, date time.Time) (Outcome, error) {
	if strings.TrimSpace(name) == "" {
		return Outcome{}, ErrEmptyName
	}
	if amount.IsNegative() {
		return Outcome{}, ErrInvalidAmount
	}
	if date.IsZero() {
		return Outcome{}, ErrInvalidDate
	}
	return Outcome{Name: name, Amount: amount, Date: date}, nil
}
