package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/plan"
)

type jobPayload struct {
	Name       string `json:"name"`
	TimingRule string `json:"timing_rule"`
	TimingDay  int    `json:"timing_day"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type jobResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TimingRule string `json:"timing_rule"`
	TimingDay  int    `json:"timing_day,omitempty"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
}

type jobIncomeResponse struct {
	ID          int64  `json:"id"`
	JobID       int64  `json:"job_id"`
	Name        string `json:"name"`
	HourlyWage  string `json:"hourly_wage"`
	Hours       string `json:"hours"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date"`
}

type templatePayload struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	TimingRule string `json:"timing_rule"`
	TimingDay  int    `json:"timing_day"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type templateResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	TimingRule string `json:"timing_rule"`
	TimingDay  int    `json:"timing_day,omitempty"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
}

type monthlyOutcomeResponse struct {
	ID          int64  `json:"id"`
	TemplateID  int64  `json:"template_id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date"`
}

type inspectEntry struct {
	Date     string           `json:"date"`
	Status   string           `json:"status"`
	Balance  string           `json:"balance"`
	Incomes  []recordResponse `json:"incomes,omitempty"`
	Outcomes []recordResponse `json:"outcomes,omitempty"`
}

func newJobResponse(job core.PartTimeJob) jobResponse {
	resp := jobResponse{
		ID:         job.ID,
		Name:       job.Name,
		TimingRule: string(job.PaymentTiming.Rule),
		TimingDay:  job.PaymentTiming.Day,
		StartDate:  job.StartDate.Format("2006-01-02"),
	}
	if !job.EndDate.IsZero() {
		resp.EndDate = job.EndDate.Format("2006-01-02")
	}
	return resp
}

func newJobIncomeResponse(inc core.PartTimeJobIncome) jobIncomeResponse {
	return jobIncomeResponse{
		ID:          inc.ID,
		JobID:       inc.JobID,
		Name:        inc.Name,
		HourlyWage:  inc.HourlyWage.String(),
		Hours:       inc.Hours.String(),
		Amount:      inc.Income().Amount.String(),
		PaymentDate: inc.PaymentDate.Format("2006-01-02"),
	}
}

func newTemplateResponse(tpl core.MonthlyOutcomeTemplate) templateResponse {
	resp := templateResponse{
		ID:         tpl.ID,
		Name:       tpl.Name,
		Amount:     tpl.Amount.String(),
		TimingRule: string(tpl.PaymentTiming.Rule),
		TimingDay:  tpl.PaymentTiming.Day,
		StartDate:  tpl.StartDate.Format("2006-01-02"),
	}
	if !tpl.EndDate.IsZero() {
		resp.EndDate = tpl.EndDate.Format("2006-01-02")
	}
	return resp
}

func newMonthlyOutcomeResponse(out core.MonthlyOutcome) monthlyOutcomeResponse {
	return monthlyOutcomeResponse{
		ID:          out.ID,
		TemplateID:  out.TemplateID,
		Name:        out.Name,
		Amount:      out.Amount.String(),
		PaymentDate: out.PaymentDate.Format("2006-01-02"),
	}
}

func parseValidityWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := core.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	var end time.Time
	if endStr != "" {
		end, err = core.ParseDate(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	jobs, err := s.planSvc.ListJobs(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List jobs failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]jobResponse, len(jobs))
	for i, job := range jobs {
		resp[i] = newJobResponse(job)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var payload jobPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start, end, err := parseValidityWindow(payload.StartDate, payload.EndDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	job := core.PartTimeJob{
		Name:          sanitizeInput(payload.Name),
		PaymentTiming: core.PaymentTiming{Rule: core.TimingRule(payload.TimingRule), Day: payload.TimingDay},
		StartDate:     start,
		EndDate:       end,
	}
	id, err := s.planSvc.CreateJob(r.Context(), job)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		slog.ErrorContext(r.Context(), "Create job failed", "error", err, "name", job.Name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	job.ID = id
	writeJSON(w, http.StatusCreated, newJobResponse(job))
}

func (s *Server) handleSetWage(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Wage       string `json:"wage"`
		StartYear  int    `json:"start_year"`
		StartMonth int    `json:"start_month"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	wage, err := core.ParseAmount(payload.Wage)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	start := core.YM(payload.StartYear, payload.StartMonth)
	if err := start.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.planSvc.SetHourlyWage(r.Context(), jobID, wage, start); err != nil {
		slog.ErrorContext(r.Context(), "Set wage failed", "error", err, "job_id", jobID)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListJobIncomes(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	incs, err := s.planSvc.JobIncomes(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List job incomes failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]jobIncomeResponse, len(incs))
	for i, inc := range incs {
		resp[i] = newJobIncomeResponse(inc)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateJobIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		JobID       int64  `json:"job_id"`
		Name        string `json:"name"`
		HourlyWage  string `json:"hourly_wage"`
		Hours       string `json:"hours"`
		PaymentDate string `json:"payment_date"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	wage, err := core.ParseAmount(payload.HourlyWage)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	hours, err := core.ParseAmount(payload.Hours)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	date, err := core.ParseDate(payload.PaymentDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	inc := core.PartTimeJobIncome{
		ID:          id,
		JobID:       payload.JobID,
		Name:        sanitizeInput(payload.Name),
		HourlyWage:  wage,
		Hours:       hours,
		PaymentDate: date,
	}
	if err := s.planSvc.UpdateJobIncome(r.Context(), inc); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Update job income failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobIncomeResponse(inc))
}

func (s *Server) handleListMonthlyTemplates(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tpls, err := s.planSvc.ListMonthlyOutcomeTemplates(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List monthly templates failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]templateResponse, len(tpls))
	for i, tpl := range tpls {
		resp[i] = newTemplateResponse(tpl)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateMonthlyTemplate(w http.ResponseWriter, r *http.Request) {
	var payload templatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := core.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	start, end, err := parseValidityWindow(payload.StartDate, payload.EndDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	tpl := core.MonthlyOutcomeTemplate{
		Name:          sanitizeInput(payload.Name),
		Amount:        amount,
		PaymentTiming: core.PaymentTiming{Rule: core.TimingRule(payload.TimingRule), Day: payload.TimingDay},
		StartDate:     start,
		EndDate:       end,
	}
	id, err := s.planSvc.CreateMonthlyOutcomeTemplate(r.Context(), tpl)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		slog.ErrorContext(r.Context(), "Create monthly template failed", "error", err, "name", tpl.Name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	tpl.ID = id
	writeJSON(w, http.StatusCreated, newTemplateResponse(tpl))
}

func (s *Server) handleListMonthlyOutcomes(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outs, err := s.planSvc.MonthlyOutcomes(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List monthly outcomes failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]monthlyOutcomeResponse, len(outs))
	for i, out := range outs {
		resp[i] = newMonthlyOutcomeResponse(out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMonthlyOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		TemplateID  int64  `json:"template_id"`
		Name        string `json:"name"`
		Amount      string `json:"amount"`
		PaymentDate string `json:"payment_date"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := core.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	date, err := core.ParseDate(payload.PaymentDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	out := core.MonthlyOutcome{
		ID:          id,
		TemplateID:  payload.TemplateID,
		Name:        sanitizeInput(payload.Name),
		Amount:      amount,
		PaymentDate: date,
	}
	if err := s.planSvc.UpdateMonthlyOutcome(r.Context(), out); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Update monthly outcome failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newMonthlyOutcomeResponse(out))
}

func (s *Server) handleListTemporaryOutcomes(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	temps, err := s.planSvc.ListTemporaryOutcomes(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List temporary outcomes failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]recordResponse, len(temps))
	for i, t := range temps {
		resp[i] = outcomeResponse(t.Outcome())
		resp[i].ID = t.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTemporaryOutcome(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name, amount, date, err := payload.parse()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	to := core.TemporaryOutcome{Name: name, Amount: amount, Date: date}
	id, err := s.planSvc.CreateTemporaryOutcome(r.Context(), to)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		slog.ErrorContext(r.Context(), "Create temporary outcome failed", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	to.ID = id
	resp := outcomeResponse(to.Outcome())
	resp.ID = id
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreateTemporaryIncome(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name, amount, date, err := payload.parse()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	ti := core.TemporaryIncome{Name: name, Amount: amount, Date: date}
	id, err := s.planSvc.CreateTemporaryIncome(r.Context(), ti)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		slog.ErrorContext(r.Context(), "Create temporary income failed", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ti.ID = id
	resp := incomeResponse(ti.Income())
	resp.ID = id
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results, err := s.planSvc.Inspect(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "Inspect failed", "error", err, "start", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newInspectResponse(results))
}

func newInspectResponse(results []plan.InspectResult) []inspectEntry {
	entries := make([]inspectEntry, len(results))
	for i, res := range results {
		entry := inspectEntry{
			Date:    res.Date.Format("2006-01-02"),
			Status:  string(res.Status.Kind),
			Balance: res.Status.Amount.String(),
		}
		for _, in := range res.Incomes {
			entry.Incomes = append(entry.Incomes, incomeResponse(in))
		}
		for _, out := range res.Outcomes {
			entry.Outcomes = append(entry.Outcomes, outcomeResponse(out))
		}
		entries[i] = entry
	}
	return entries
}
