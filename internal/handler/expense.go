package handler

import (
	"net/http"

	"github.com/pkordes/wanderlust/backend/internal/service"
)

// ListExpenses handles GET /trips/{tripID}/expenses and returns the running
// total, the ordered list and the per-category breakdown.
func (s *Server) ListExpenses(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	sum, err := s.svc.Expenses.Summary(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseSummaryToResponse(sum))
}

// CreateExpense handles POST /trips/{tripID}/expenses.
func (s *Server) CreateExpense(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.ExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	id, err := s.svc.Expenses.Create(r.Context(), session(r), tripID, in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// GetExpense handles GET /trips/{tripID}/expenses/{expenseID}.
func (s *Server) GetExpense(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "expenseID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.Get(r.Context(), session(r), ids[0], ids[1])
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseToResponse(e))
}

// UpdateExpense handles PATCH /trips/{tripID}/expenses/{expenseID}.
func (s *Server) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "expenseID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.ExpenseUpdate
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Expenses.Update(r.Context(), session(r), ids[0], ids[1], in); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteExpense handles DELETE /trips/{tripID}/expenses/{expenseID}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "expenseID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	removed, err := s.svc.Expenses.Delete(r.Context(), session(r), ids[0], ids[1])
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Removed: removed})
}
