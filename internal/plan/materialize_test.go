package plan_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/memory"
	"kakeibo/internal/plan"
)

func storeJob(t *testing.T, store *memory.Store, job core.PartTimeJob) core.PartTimeJob {
	t.Helper()
	id, err := store.StorePartTimeJob(context.Background(), job)
	if err != nil {
		t.Fatalf("store job: %v", err)
	}
	job.ID = id
	return job
}

func storeTemplate(t *testing.T, store *memory.Store, tpl core.MonthlyOutcomeTemplate) core.MonthlyOutcomeTemplate {
	t.Helper()
	id, err := store.StoreMonthlyOutcomeTemplate(context.Background(), tpl)
	if err != nil {
		t.Fatalf("store template: %v", err)
	}
	tpl.ID = id
	return tpl
}

func TestMaterializer_JobIncomeCreatesOnce(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)
	ctx := context.Background()

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "bar",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err := store.StoreHourlyWage(ctx, core.HourlyWage{JobID: job.ID, Wage: decimal.NewFromInt(15), StartYM: core.YM(2025, 1)}); err != nil {
		t.Fatal(err)
	}

	first, err := m.JobIncome(ctx, job, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("first materialization: %v", err)
	}
	if first.ID == 0 {
		t.Error("expected persisted instance id")
	}
	if !first.HourlyWage.Equal(decimal.NewFromInt(15)) {
		t.Errorf("wage = %s, want 15", first.HourlyWage)
	}
	if !first.Hours.IsZero() {
		t.Errorf("hours = %s, want 0", first.Hours)
	}
	wantDate := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	if !first.PaymentDate.Equal(wantDate) {
		t.Errorf("payment date = %v, want %v", first.PaymentDate, wantDate)
	}

	// Second query returns the cached row, edits included.
	first.Hours = decimal.NewFromInt(10)
	if err := store.UpdateJobIncome(ctx, first); err != nil {
		t.Fatal(err)
	}
	second, err := m.JobIncome(ctx, job, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("second materialization: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second id = %d, want %d", second.ID, first.ID)
	}
	if !second.Hours.Equal(decimal.NewFromInt(10)) {
		t.Errorf("hours = %s, want the edited 10", second.Hours)
	}
}

func TestMaterializer_NextMonthTimingCachesByPaymentMonth(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)
	ctx := context.Background()

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "warehouse",
		PaymentTiming: core.PaymentTiming{Rule: core.PayNextMonthEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	inc, err := m.JobIncome(ctx, job, core.YM(2025, 12))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	wantDate := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if !inc.PaymentDate.Equal(wantDate) {
		t.Errorf("payment date = %v, want %v", inc.PaymentDate, wantDate)
	}

	// The cache key is the payment month, not the shift month.
	cached, ok, err := store.GetJobIncomeByMonth(ctx, job.ID, core.YM(2026, 1))
	if err != nil || !ok {
		t.Fatalf("instance not cached under payment month: ok=%v err=%v", ok, err)
	}
	if cached.ID != inc.ID {
		t.Errorf("cached id = %d, want %d", cached.ID, inc.ID)
	}
}

func TestMaterializer_WageResolvedAgainstShiftMonth(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)
	ctx := context.Background()

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "cafe",
		PaymentTiming: core.PaymentTiming{Rule: core.PayNextMonthEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	// Rate raise takes effect in May. A April shift paid in May must still
	// use the April rate.
	if err := store.StoreHourlyWage(ctx, core.HourlyWage{JobID: job.ID, Wage: decimal.NewFromInt(12), StartYM: core.YM(2025, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreHourlyWage(ctx, core.HourlyWage{JobID: job.ID, Wage: decimal.NewFromInt(14), StartYM: core.YM(2025, 5)}); err != nil {
		t.Fatal(err)
	}

	inc, err := m.JobIncome(ctx, job, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !inc.HourlyWage.Equal(decimal.NewFromInt(12)) {
		t.Errorf("wage = %s, want the April rate 12", inc.HourlyWage)
	}
}

func TestMaterializer_NoWageDefaultsToZero(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "tutoring",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	inc, err := m.JobIncome(context.Background(), job, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !inc.HourlyWage.IsZero() {
		t.Errorf("wage = %s, want 0 when no rate is set", inc.HourlyWage)
	}
}

func TestMaterializer_InvalidMidDayFails(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)

	job := storeJob(t, store, core.PartTimeJob{
		Name:          "kiosk",
		PaymentTiming: core.PaymentTiming{Rule: core.PayMid, Day: 31},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := m.JobIncome(context.Background(), job, core.YM(2025, 4)); err == nil {
		t.Error("day 31 in a 30-day month should fail, not clamp")
	}
}

func TestMaterializer_JobIncomesSkipsInvisibleJobs(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)
	ctx := context.Background()

	storeJob(t, store, core.PartTimeJob{
		Name:          "active",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	storeJob(t, store, core.PartTimeJob{
		Name:          "ended",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	storeJob(t, store, core.PartTimeJob{
		Name:          "not yet",
		PaymentTiming: core.PaymentTiming{Rule: core.PayEnd},
		StartDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})

	incomes, err := m.JobIncomes(ctx, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("materialize month: %v", err)
	}
	if len(incomes) != 1 {
		t.Fatalf("got %d instances, want 1", len(incomes))
	}
	if incomes[0].Name != "active" {
		t.Errorf("materialized %q, want %q", incomes[0].Name, "active")
	}
}

func TestMaterializer_MonthlyOutcomeCopiesTemplateAmount(t *testing.T) {
	store := memory.NewStore()
	m := plan.NewMaterializer(store, store)
	ctx := context.Background()

	tpl := storeTemplate(t, store, core.MonthlyOutcomeTemplate{
		Name:          "rent",
		Amount:        decimal.NewFromInt(650),
		PaymentTiming: core.PaymentTiming{Rule: core.PayMid, Day: 5},
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	out, err := m.MonthlyOutcome(ctx, tpl, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !out.Amount.Equal(decimal.NewFromInt(650)) {
		t.Errorf("amount = %s, want 650", out.Amount)
	}
	wantDate := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
	if !out.PaymentDate.Equal(wantDate) {
		t.Errorf("payment date = %v, want %v", out.PaymentDate, wantDate)
	}

	// An edited instance survives re-materialization; the template amount
	// only applies on creation.
	out.Amount = decimal.NewFromInt(700)
	if err := store.UpdateMonthlyOutcome(ctx, out); err != nil {
		t.Fatal(err)
	}
	again, err := m.MonthlyOutcome(ctx, tpl, core.YM(2025, 4))
	if err != nil {
		t.Fatalf("re-materialize: %v", err)
	}
	if again.ID != out.ID {
		t.Errorf("id = %d, want cached %d", again.ID, out.ID)
	}
	if !again.Amount.Equal(decimal.NewFromInt(700)) {
		t.Errorf("amount = %s, want edited 700", again.Amount)
	}
}
