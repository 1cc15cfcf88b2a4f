package http

import (
	"net/http"

	"fintrack/internal/core"
)

const defaultActivityLimit = 50

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txs, err := s.ledger.Transactions.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, txs)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNew()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}

	tx, err := s.ledger.Transactions.Add(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, tx)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	budgets, err := s.ledger.Budgets.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, budgets)
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.toNew()
	if err := in.Validate(); err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}

	b, err := s.ledger.Budgets.Add(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := req.toPatch()
	if err := patch.Validate(); err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}

	b, err := s.ledger.Budgets.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.ledger.Budgets.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeDone(w, "Budget deleted")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user core.User) {
	overview, err := s.ledger.Dashboard.Overview(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, overview)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request, user core.User) {
	feed, err := s.ledger.Activity.List(r.Context(), user.ID, limitParam(r, defaultActivityLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, feed)
}
