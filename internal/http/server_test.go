package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/ledger"
	"kakeibo/internal/memory"
	"kakeibo/internal/plan"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ledgerSvc := ledger.NewService(store, store, store, store, nil).
		WithClock(func() time.Time { return now })
	planSvc := plan.NewService(store, store, store, store, store, 3)
	s := NewServer(":0", ledgerSvc, planSvc)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, store
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestCreateIncome(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/incomes",
		`{"name": "salary", "amount": "1200.50", "date": "2025-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == 0 {
		t.Error("expected non-zero id")
	}
	if resp.Name != "salary" || resp.Amount != "1200.5" || resp.Date != "2025-06-01" {
		t.Errorf("response = %+v", resp)
	}

	// The ledger picked up the income.
	rec = doRequest(s, http.MethodGet, "/api/saving?year=2025&month=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("saving status = %d", rec.Code)
	}
	var saving savingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saving); err != nil {
		t.Fatal(err)
	}
	if saving.Balance != "1200.5" {
		t.Errorf("balance = %s, want 1200.5", saving.Balance)
	}
}

func TestCreateIncomeValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed json", `{"name": `, http.StatusBadRequest},
		{"unknown field", `{"name": "x", "amount": "1", "date": "2025-06-01", "extra": true}`, http.StatusBadRequest},
		{"negative amount", `{"name": "x", "amount": "-5", "date": "2025-06-01"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"name": "x", "amount": "abc", "date": "2025-06-01"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"name": "x", "amount": "5", "date": "2025-06-31"}`, http.StatusUnprocessableEntity},
		{"empty name", `{"name": "", "amount": "5", "date": "2025-06-01"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/incomes", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestUpdateIncomeNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/incomes/999",
		`{"name": "ghost", "amount": "1", "date": "2025-06-01"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteIncomeReversesBalance(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/incomes",
		`{"name": "salary", "amount": "1000", "date": "2025-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(s, http.MethodDelete, fmt.Sprintf("/api/incomes/%d", created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/saving?year=2025&month=6", "")
	var saving savingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saving); err != nil {
		t.Fatal(err)
	}
	if saving.Balance != "0" {
		t.Errorf("balance = %s, want 0", saving.Balance)
	}
}

func TestAdjustSaving(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/saving",
		`{"year": 2025, "month": 6, "balance": "850"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saving savingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saving); err != nil {
		t.Fatal(err)
	}
	if saving.Year != 2025 || saving.Month != 6 || saving.Balance != "850" {
		t.Errorf("response = %+v", saving)
	}

	// The correction shows up as a synthetic income record.
	rec = doRequest(s, http.MethodGet, "/api/incomes?year=2025&month=6", "")
	var incomes []recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &incomes); err != nil {
		t.Fatal(err)
	}
	if len(incomes) != 1 || incomes[0].Name != "adjustment" {
		t.Errorf("incomes = %+v, want one adjustment record", incomes)
	}
}

func TestAdjustSavingNegativeTarget(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/saving",
		`{"year": 2025, "month": 6, "balance": "-120"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saving savingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saving); err != nil {
		t.Fatal(err)
	}
	if saving.Balance != "-120" {
		t.Errorf("balance = %s, want -120", saving.Balance)
	}
}

func TestAdjustSavingInvalidMonth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPut, "/api/saving",
		`{"year": 2025, "month": 13, "balance": "0"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/jobs",
		`{"name": "bar", "timing_rule": "end", "start_date": "2025-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create job status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var job jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.TimingRule != "end" || job.EndDate != "" {
		t.Errorf("job = %+v", job)
	}

	rec = doRequest(s, http.MethodPut, fmt.Sprintf("/api/jobs/%d/wage", job.ID),
		`{"wage": "15", "start_year": 2025, "start_month": 1}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set wage status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Listing materializes the month's shift with the configured rate and
	// zero hours.
	rec = doRequest(s, http.MethodGet, "/api/job-incomes?year=2025&month=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list job incomes status = %d", rec.Code)
	}
	var incs []jobIncomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &incs); err != nil {
		t.Fatal(err)
	}
	if len(incs) != 1 {
		t.Fatalf("got %d job incomes, want 1", len(incs))
	}
	if incs[0].HourlyWage != "15" || incs[0].Hours != "0" || incs[0].PaymentDate != "2025-06-30" {
		t.Errorf("job income = %+v", incs[0])
	}

	rec = doRequest(s, http.MethodPut, fmt.Sprintf("/api/job-incomes/%d", incs[0].ID),
		fmt.Sprintf(`{"job_id": %d, "name": "bar", "hourly_wage": "15", "hours": "8", "payment_date": "2025-06-30"}`, job.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("update job income status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated jobIncomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Amount != "120" {
		t.Errorf("amount = %s, want 120", updated.Amount)
	}
}

func TestCreateJobValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": "", "timing_rule": "end", "start_date": "2025-01-01"}`},
		{"missing start date", `{"name": "bar", "timing_rule": "end"}`},
		{"bad start date", `{"name": "bar", "timing_rule": "end", "start_date": "01/01/2025"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/jobs", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateMonthlyTemplateRejectsNextMonthRule(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/monthly-templates",
		`{"name": "rent", "amount": "650", "timing_rule": "next_end", "start_date": "2025-01-01"}`)
	if rec.Code != http.StatusInternalServerError && rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want an error status", rec.Code)
	}
	if rec.Code == http.StatusCreated {
		t.Error("next_end must not be accepted for outcome templates")
	}
}

func TestMonthlyTemplateLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/monthly-templates",
		`{"name": "rent", "amount": "650", "timing_rule": "mid", "timing_day": 5, "start_date": "2025-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var tpl templateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tpl); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(s, http.MethodGet, "/api/monthly-outcomes?year=2025&month=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list monthly outcomes status = %d", rec.Code)
	}
	var outs []monthlyOutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &outs); err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outs))
	}
	if outs[0].Amount != "650" || outs[0].PaymentDate != "2025-06-05" || outs[0].TemplateID != tpl.ID {
		t.Errorf("outcome = %+v", outs[0])
	}

	rec = doRequest(s, http.MethodPut, fmt.Sprintf("/api/monthly-outcomes/%d", outs[0].ID),
		fmt.Sprintf(`{"template_id": %d, "name": "rent", "amount": "700", "payment_date": "2025-06-05"}`, tpl.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("update outcome status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Re-listing returns the edited instance, not a fresh copy.
	rec = doRequest(s, http.MethodGet, "/api/monthly-outcomes?year=2025&month=6", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &outs); err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Amount != "700" {
		t.Errorf("outcomes after edit = %+v", outs)
	}
}

func TestInspectEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/monthly-templates",
		`{"name": "rent", "amount": "650", "timing_rule": "mid", "timing_day": 1, "start_date": "2025-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template status = %d", rec.Code)
	}
	rec = doRequest(s, http.MethodPost, "/api/temporary-incomes",
		`{"name": "refund", "amount": "300", "date": "2025-07-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create temporary income status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/inspect?year=2025&month=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("inspect status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var entries []inspectEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	// Horizon 3 covers June through September: four rent dates plus the
	// July refund.
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date < entries[i-1].Date {
			t.Errorf("entries out of order: %s before %s", entries[i-1].Date, entries[i].Date)
		}
	}
	last := entries[len(entries)-1]
	// 4*650 out, 300 in: 2300 under water.
	if last.Status != "deficit" || last.Balance != "2300" {
		t.Errorf("final entry = %+v, want deficit 2300", last)
	}
}

func TestParseYearMonthRejectsGarbage(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/incomes?year=abc&month=6", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/api/incomes?year=2025&month=13", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/incomes/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = doRequest(s, http.MethodDelete, "/api/incomes/0", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be rejected")
	}
	// A different client has its own budget.
	if !rl.allow("10.0.0.2") {
		t.Error("fresh client should be allowed")
	}
}

func TestMutatingRequestsAreRateLimited(t *testing.T) {
	s, _ := newTestServer(t)

	var last int
	for i := 0; i < 70; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/incomes", strings.NewReader(`{"name": "x", "amount": "1", "date": "2025-06-01"}`))
		req.Header.Set("X-Forwarded-For", "10.1.2.3")
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/incomes", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
