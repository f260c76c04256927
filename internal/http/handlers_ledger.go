package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// recordPayload is the request body shared by income and outcome
// mutations. Amount is a decimal string, Date is YYYY-MM-DD.
type recordPayload struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

type recordResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

type savingResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Balance string `json:"balance"`
}

func incomeResponse(in core.Income) recordResponse {
	return recordResponse{
		ID:     in.ID,
		Name:   in.Name,
		Amount: in.Amount.String(),
		Date:   in.Date.Format("2006-01-02"),
	}
}

func outcomeResponse(out core.Outcome) recordResponse {
	return recordResponse{
		ID:     out.ID,
		Name:   out.Name,
		Amount: out.Amount.String(),
		Date:   out.Date.Format("2006-01-02"),
	}
}

func (p recordPayload) parse() (string, decimal.Decimal, time.Time, error) {
	name := sanitizeInput(p.Name)
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return "", decimal.Zero, time.Time{}, err
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return "", decimal.Zero, time.Time{}, err
	}
	return name, amount, date, nil
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	incomes, err := s.ledgerSvc.ListIncomes(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List incomes failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]recordResponse, len(incomes))
	for i, in := range incomes {
		resp[i] = incomeResponse(in)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
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
	income, err := core.NewIncome(name, amount, date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	id, err := s.ledgerSvc.StoreIncome(r.Context(), income)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create income failed", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	income.ID = id
	writeJSON(w, http.StatusCreated, incomeResponse(income))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
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
	income, err := core.NewIncome(name, amount, date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	income.ID = id
	if err := s.ledgerSvc.UpdateIncome(r.Context(), income); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Update income failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, incomeResponse(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledgerSvc.DeleteIncome(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete income failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOutcomes(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outcomes, err := s.ledgerSvc.ListOutcomes(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "List outcomes failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]recordResponse, len(outcomes))
	for i, out := range outcomes {
		resp[i] = outcomeResponse(out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateOutcome(w http.ResponseWriter, r *http.Request) {
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
	outcome, err := core.NewOutcome(name, amount, date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	id, err := s.ledgerSvc.StoreOutcome(r.Context(), outcome)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create outcome failed", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	outcome.ID = id
	writeJSON(w, http.StatusCreated, outcomeResponse(outcome))
}

func (s *Server) handleUpdateOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
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
	outcome, err := core.NewOutcome(name, amount, date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	outcome.ID = id
	if err := s.ledgerSvc.UpdateOutcome(r.Context(), outcome); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Update outcome failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse(outcome))
}

func (s *Server) handleDeleteOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledgerSvc.DeleteOutcome(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete outcome failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSaving(w http.ResponseWriter, r *http.Request) {
	key, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	saving, err := s.ledgerSvc.Saving(r.Context(), key)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get saving failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, savingResponse{
		Year:    saving.Key.Year,
		Month:   int(saving.Key.Month),
		Balance: saving.Amount.String(),
	})
}

// handleAdjustSaving reconciles a month's balance against a declared
// target. The declared value may be negative.
func (s *Server) handleAdjustSaving(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Year    int    `json:"year"`
		Month   int    `json:"month"`
		Balance string `json:"balance"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key := core.YM(payload.Year, payload.Month)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	target, err := parseSignedAmount(payload.Balance)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.ledgerSvc.CreateAdjustment(r.Context(), target, key); err != nil {
		slog.ErrorContext(r.Context(), "Adjustment failed", "error", err, "month", key)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	saving, err := s.ledgerSvc.Saving(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, savingResponse{
		Year:    saving.Key.Year,
		Month:   int(saving.Key.Month),
		Balance: saving.Amount.String(),
	})
}
