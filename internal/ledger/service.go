package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// BalancePublisher notifies downstream consumers that a month's cumulative
// balance changed. Implemented by the AMQP client; nil disables publishing.
type BalancePublisher interface {
	PublishBalanceSync(ctx context.Context, key core.YearMonth) error
}

// Service orchestrates income/outcome mutations and keeps the saving
// ledger consistent with them. Every mutation that lands in month M
// propagates its delta forward through the ledger chain.
//
// The mutex serializes ledger-touching operations: overlapping
// propagation chains are read-modify-write sequences over the same keys,
// and the adjustment's delete/read/diff/propagate/store steps must not
// interleave.
type Service struct {
	incomes     IncomeRepo
	outcomes    OutcomeRepo
	savings     SavingRepo
	adjustments AdjustmentRepo
	publisher   BalancePublisher
	now         func() time.Time

	mu sync.Mutex
}

func NewService(incomes IncomeRepo, outcomes OutcomeRepo, savings SavingRepo, adjustments AdjustmentRepo, publisher BalancePublisher) *Service {
	return &Service{
		incomes:     incomes,
		outcomes:    outcomes,
		savings:     savings,
		adjustments: adjustments,
		publisher:   publisher,
		now:         time.Now,
	}
}

// WithClock fixes the service's notion of the current month. Tests use it
// to pin the propagation cutoff.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListIncomes returns the incomes dated within the given month.
func (s *Service) ListIncomes(ctx context.Context, key core.YearMonth) ([]core.Income, error) {
	opening, closing, err := core.MonthBounds(key)
	if err != nil {
		return nil, err
	}
	return s.incomes.ListIncomes(ctx, opening, closing)
}

// ListOutcomes returns the outcomes dated within the given month.
func (s *Service) ListOutcomes(ctx context.Context, key core.YearMonth) ([]core.Outcome, error) {
	opening, closing, err := core.MonthBounds(key)
	if err != nil {
		return nil, err
	}
	return s.outcomes.ListOutcomes(ctx, opening, closing)
}

// StoreIncome persists a new income and adds its amount to the ledger from
// the record's month onward.
func (s *Service) StoreIncome(ctx context.Context, in core.Income) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.incomes.StoreIncome(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("store income: %w", err)
	}
	key := core.YMOf(in.Date)
	if err := Propagate(ctx, key, in.Amount, s.savings, s.now()); err != nil {
		return id, fmt.Errorf("propagate income: %w", err)
	}
	slog.InfoContext(ctx, "income stored", "id", id, "name", in.Name, "amount", in.Amount, "month", key)
	s.publishBalanceSync(ctx, key)
	return id, nil
}

// UpdateIncome replaces an existing income and propagates the resulting
// ledger delta. An edit within the same month propagates the amount diff
// once; moving a record across months reverses it at the old month and
// re-applies it at the new one.
func (s *Service) UpdateIncome(ctx context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.incomes.GetIncome(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("get income %d: %w", in.ID, err)
	}
	if !ok {
		return fmt.Errorf("income %d: %w", in.ID, core.ErrNotFound)
	}
	if err := s.incomes.UpdateIncome(ctx, in); err != nil {
		return fmt.Errorf("update income %d: %w", in.ID, err)
	}

	oldKey, newKey := core.YMOf(prev.Date), core.YMOf(in.Date)
	if oldKey == newKey {
		diff := in.Amount.Sub(prev.Amount)
		if err := Propagate(ctx, newKey, diff, s.savings, s.now()); err != nil {
			return fmt.Errorf("propagate income diff: %w", err)
		}
		s.publishBalanceSync(ctx, newKey)
		return nil
	}
	if err := Propagate(ctx, oldKey, prev.Amount.Neg(), s.savings, s.now()); err != nil {
		return fmt.Errorf("reverse income at %s: %w", oldKey, err)
	}
	if err := Propagate(ctx, newKey, in.Amount, s.savings, s.now()); err != nil {
		return fmt.Errorf("apply income at %s: %w", newKey, err)
	}
	s.publishBalanceSync(ctx, oldKey)
	s.publishBalanceSync(ctx, newKey)
	return nil
}

// DeleteIncome removes an income and subtracts its amount from the ledger.
// Deleting an unknown id is a no-op.
func (s *Service) DeleteIncome(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.incomes.GetIncome(ctx, id)
	if err != nil {
		return fmt.Errorf("get income %d: %w", id, err)
	}
	if !ok {
		return nil
	}
	if err := s.incomes.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	key := core.YMOf(prev.Date)
	if err := Propagate(ctx, key, prev.Amount.Neg(), s.savings, s.now()); err != nil {
		return fmt.Errorf("reverse income: %w", err)
	}
	s.publishBalanceSync(ctx, key)
	return nil
}

// StoreOutcome persists a new outcome and subtracts its amount from the
// ledger from the record's month onward.
func (s *Service) StoreOutcome(ctx context.Context, out core.Outcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.outcomes.StoreOutcome(ctx, out)
	if err != nil {
		return 0, fmt.Errorf("store outcome: %w", err)
	}
	key := core.YMOf(out.Date)
	if err := Propagate(ctx, key, out.Amount.Neg(), s.savings, s.now()); err != nil {
		return id, fmt.Errorf("propagate outcome: %w", err)
	}
	slog.InfoContext(ctx, "outcome stored", "id", id, "name", out.Name, "amount", out.Amount, "month", key)
	s.publishBalanceSync(ctx, key)
	return id, nil
}

// UpdateOutcome mirrors UpdateIncome with negated ledger deltas.
func (s *Service) UpdateOutcome(ctx context.Context, out core.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.outcomes.GetOutcome(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("get outcome %d: %w", out.ID, err)
	}
	if !ok {
		return fmt.Errorf("outcome %d: %w", out.ID, core.ErrNotFound)
	}
	if err := s.outcomes.UpdateOutcome(ctx, out); err != nil {
		return fmt.Errorf("update outcome %d: %w", out.ID, err)
	}

	oldKey, newKey := core.YMOf(prev.Date), core.YMOf(out.Date)
	if oldKey == newKey {
		diff := prev.Amount.Sub(out.Amount)
		if err := Propagate(ctx, newKey, diff, s.savings, s.now()); err != nil {
			return fmt.Errorf("propagate outcome diff: %w", err)
		}
		s.publishBalanceSync(ctx, newKey)
		return nil
	}
	if err := Propagate(ctx, oldKey, prev.Amount, s.savings, s.now()); err != nil {
		return fmt.Errorf("reverse outcome at %s: %w", oldKey, err)
	}
	if err := Propagate(ctx, newKey, out.Amount.Neg(), s.savings, s.now()); err != nil {
		return fmt.Errorf("apply outcome at %s: %w", newKey, err)
	}
	s.publishBalanceSync(ctx, oldKey)
	s.publishBalanceSync(ctx, newKey)
	return nil
}

// DeleteOutcome removes an outcome and adds its amount back to the ledger.
func (s *Service) DeleteOutcome(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.outcomes.GetOutcome(ctx, id)
	if err != nil {
		return fmt.Errorf("get outcome %d: %w", id, err)
	}
	if !ok {
		return nil
	}
	if err := s.outcomes.DeleteOutcome(ctx, id); err != nil {
		return fmt.Errorf("delete outcome %d: %w", id, err)
	}
	key := core.YMOf(prev.Date)
	if err := Propagate(ctx, key, prev.Amount, s.savings, s.now()); err != nil {
		return fmt.Errorf("reverse outcome: %w", err)
	}
	s.publishBalanceSync(ctx, key)
	return nil
}

// Saving returns the cumulative balance stored for the month, zero when
// no entry exists yet.
func (s *Service) Saving(ctx context.Context, key core.YearMonth) (core.Saving, error) {
	entry, ok, err := s.savings.GetSaving(ctx, key)
	if err != nil {
		return core.Saving{}, fmt.Errorf("get saving %s: %w", key, err)
	}
	if !ok {
		return core.Saving{Key: key, Amount: decimal.Zero}, nil
	}
	return entry, nil
}

// CreateAdjustment reconciles the month's balance against target as one
// serialized unit.
func (s *Service) CreateAdjustment(ctx context.Context, target decimal.Decimal, key core.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := CreateAdjustment(ctx, target, key, s.incomes, s.outcomes, s.savings, s.adjustments, s.now()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "adjustment applied", "month", key, "target", target)
	s.publishBalanceSync(ctx, key)
	return nil
}

// publishBalanceSync is best-effort: the mutation already committed, so a
// publish failure is logged and swallowed.
func (s *Service) publishBalanceSync(ctx context.Context, key core.YearMonth) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBalanceSync(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to publish balance sync", "month", key, "error", err)
	}
}
