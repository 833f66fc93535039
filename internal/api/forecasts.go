package api

import (
	"encoding/json"
	"net/http"

	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/model"
)

// listExpenseForecasts handles GET /api/v1/expense-forecast?company_id=.
func (s *Server) listExpenseForecasts(w http.ResponseWriter, r *http.Request) {
	forecasts, err := s.svc.ListForecasts(r.Context(), model.ForecastExpense, r.URL.Query().Get("company_id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	out := make([]expenseForecastResponse, 0, len(forecasts))
	for i := range forecasts {
		out = append(out, toExpenseForecastResponse(&forecasts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"forecasts": out, "count": len(out)})
}

// createExpenseForecast handles POST /api/v1/expense-forecast?company_id=.
func (s *Server) createExpenseForecast(w http.ResponseWriter, r *http.Request) {
	var req expenseForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	forecast, err := s.svc.CreateExpenseForecast(r.Context(), engine.ExpenseForecastInput{
		Month:         req.Month,
		CompanyID:     r.URL.Query().Get("company_id"),
		CategoryLabel: req.CategoryLabel,
		Description:   req.Description,
		AccountName:   req.AccountName,
		Amount:        req.Amount,
		Certainty:     req.Certainty,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseForecastResponse(forecast))
}

// updateExpenseForecast handles PUT /api/v1/expense-forecast/{id}.
func (s *Server) updateExpenseForecast(w http.ResponseWriter, r *http.Request) {
	var req expenseForecastPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	forecast, err := s.svc.UpdateExpenseForecast(r.Context(), r.PathValue("id"), engine.ExpenseForecastPatch{
		CategoryLabel: req.CategoryLabel,
		Description:   req.Description,
		AccountName:   req.AccountName,
		Amount:        req.Amount,
		Certainty:     req.Certainty,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseForecastResponse(forecast))
}

// deleteExpenseForecast handles DELETE /api/v1/expense-forecast/{id}.
func (s *Server) deleteExpenseForecast(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpenseForecast(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
