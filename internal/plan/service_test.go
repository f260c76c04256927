package plan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/memory"
	"kakeibo/internal/plan"
)

func newPlanService(store *memory.Store) *plan.Service {
	return plan.NewService(store, store, store, store, store, plan.DefaultHorizonMonths)
}

func TestService_CreateJobValidation(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		job     core.PartTimeJob
		wantErr error
	}{
		{
			name: "valid end-of-month job",
			job:  core.PartTimeJob{Name: "bar", PaymentTiming: core.PaymentTiming{Rule: core.PayEnd}, StartDate: start},
		},
		{
			name: "valid next-month mid job",
			job:  core.PartTimeJob{Name: "cafe", PaymentTiming: core.PaymentTiming{Rule: core.PayNextMonthMid, Day: 15}, StartDate: start},
		},
		{
			name:    "empty name",
			job:     core.PartTimeJob{PaymentTiming: core.PaymentTiming{Rule: core.PayEnd}, StartDate: start},
			wantErr: core.ErrEmptyName,
		},
		{
			name:    "missing start date",
			job:     core.PartTimeJob{Name: "bar", PaymentTiming: core.PaymentTiming{Rule: core.PayEnd}},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "mid day out of range",
			job:     core.PartTimeJob{Name: "bar", PaymentTiming: core.PaymentTiming{Rule: core.PayMid, Day: 32}, StartDate: start},
			wantErr: core.ErrInvalidDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.CreateJob(ctx, tt.job)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("create job: %v", err)
			}
			if id == 0 {
				t.Error("expected non-zero id")
			}
		})
	}

	if _, err := svc.CreateJob(ctx, core.PartTimeJob{
		Name:          "bad",
		PaymentTiming: core.PaymentTiming{Rule: "weekly"},
		StartDate:     start,
	}); err == nil {
		t.Error("unknown timing rule should be rejected")
	}
}

func TestService_CreateTemplateRejectsNextMonthRules(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, rule := range []core.TimingRule{core.PayNextMonthEnd, core.PayNextMonthMid} {
		_, err := svc.CreateMonthlyOutcomeTemplate(ctx, core.MonthlyOutcomeTemplate{
			Name:          "rent",
			Amount:        decimal.NewFromInt(650),
			PaymentTiming: core.PaymentTiming{Rule: rule, Day: 15},
			StartDate:     start,
		})
		if err == nil {
			t.Errorf("rule %q should be rejected for outcome templates", rule)
		}
	}

	id, err := svc.CreateMonthlyOutcomeTemplate(ctx, core.MonthlyOutcomeTemplate{
		Name:          "rent",
		Amount:        decimal.NewFromInt(650),
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     start,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}
}

func TestService_CreateTemplateRejectsNegativeAmount(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	_, err := svc.CreateMonthlyOutcomeTemplate(context.Background(), core.MonthlyOutcomeTemplate{
		Name:          "rent",
		Amount:        decimal.NewFromInt(-1),
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestService_SetHourlyWageUpserts(t *testing.T) {
	store := memory.NewStore()
	svc := newPlanService(store)
	ctx := context.Background()

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "bar",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	if err := svc.SetHourlyWage(ctx, job.ID, decimal.NewFromInt(12), core.YM(2025, 1)); err != nil {
		t.Fatalf("set wage: %v", err)
	}
	// Same start month again replaces the row instead of stacking a second
	// one.
	if err := svc.SetHourlyWage(ctx, job.ID, decimal.NewFromInt(13), core.YM(2025, 1)); err != nil {
		t.Fatalf("replace wage: %v", err)
	}

	w, ok, err := store.GetHourlyWage(ctx, job.ID, core.YM(2025, 6))
	if err != nil || !ok {
		t.Fatalf("wage lookup: ok=%v err=%v", ok, err)
	}
	if !w.Wage.Equal(decimal.NewFromInt(13)) {
		t.Errorf("wage = %s, want 13", w.Wage)
	}

	if err := svc.SetHourlyWage(ctx, job.ID, decimal.NewFromInt(-5), core.YM(2025, 1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative wage: err = %v, want ErrInvalidAmount", err)
	}
}

func TestService_UpdateJobIncomeUnknownID(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	err := svc.UpdateJobIncome(context.Background(), core.PartTimeJobIncome{ID: 99, Name: "ghost"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestService_UpdateMonthlyOutcomeUnknownID(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	err := svc.UpdateMonthlyOutcome(context.Background(), core.MonthlyOutcome{ID: 99, Name: "ghost"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestService_TemporaryRecordsValidation(t *testing.T) {
	svc := newPlanService(memory.NewStore())
	ctx := context.Background()
	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.CreateTemporaryOutcome(ctx, core.TemporaryOutcome{Amount: decimal.NewFromInt(10), Date: date}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("unnamed outcome: err = %v, want ErrEmptyName", err)
	}
	if _, err := svc.CreateTemporaryIncome(ctx, core.TemporaryIncome{Name: "x", Amount: decimal.NewFromInt(-1), Date: date}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative income: err = %v, want ErrInvalidAmount", err)
	}

	id, err := svc.CreateTemporaryOutcome(ctx, core.TemporaryOutcome{Name: "trip", Amount: decimal.NewFromInt(120), Date: date})
	if err != nil {
		t.Fatalf("create temporary outcome: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	outs, err := svc.ListTemporaryOutcomes(ctx, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("list temporary outcomes: %v", err)
	}
	if len(outs) != 1 || outs[0].Name != "trip" {
		t.Errorf("listed %+v, want the stored outcome", outs)
	}
}
