package http

import (
	"fmt"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/log"
)

type obligationRequest struct {
	Name   string     `json:"name"`
	Amount amountText `json:"amount"`
	DueDay int        `json:"due_day"`
}

// toggleRequest sets the paid flag. An absent flag flips the current state.
type toggleRequest struct {
	Paid *bool `json:"paid"`
}

type goalRequest struct {
	Name   string     `json:"name"`
	Target amountText `json:"target"`
}

func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	obligations, err := s.ledger.ListObligations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]obligationView, 0, len(obligations))
	for _, o := range obligations {
		out = append(out, toObligationView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.ledger.CreateObligation(r.Context(), sanitizeInput(req.Name), amount, req.DueDay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.committed(r.Context(), log.OpCreate, nil)
	writeJSON(w, http.StatusCreated, toObligationView(o))
}

func (s *Server) handleToggleObligation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req toggleRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	paid := false
	if req.Paid != nil {
		paid = *req.Paid
	} else {
		current, err := s.findObligation(r, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		paid = !current.Paid
	}

	receipt, err := s.ledger.ToggleObligation(r.Context(), id, paid)
	s.respondReceipt(w, r, log.OpUpdate, http.StatusOK, receipt, err)
}

func (s *Server) findObligation(r *http.Request, id int64) (core.Obligation, error) {
	obligations, err := s.ledger.ListObligations(r.Context())
	if err != nil {
		return core.Obligation{}, err
	}
	for _, o := range obligations {
		if o.ID == id {
			return o, nil
		}
	}
	return core.Obligation{}, fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
}

func (s *Server) handleDeleteObligation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteObligation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.committed(r.Context(), log.OpDelete, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.ledger.NewMonthRollover(r.Context())
	s.respondReceipt(w, r, log.OpRollover, http.StatusOK, receipt, err)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalView(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := req.Target.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.ledger.CreateGoal(r.Context(), sanitizeInput(req.Name), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.committed(r.Context(), log.OpCreate, nil)
	writeJSON(w, http.StatusCreated, toGoalView(g.Progress()))
}

func (s *Server) handleFundGoal(w http.ResponseWriter, r *http.Request) {
	s.handleGoalMove(w, r, true)
}

func (s *Server) handleWithdrawGoal(w http.ResponseWriter, r *http.Request) {
	s.handleGoalMove(w, r, false)
}

func (s *Server) handleGoalMove(w http.ResponseWriter, r *http.Request, fund bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if fund {
		receipt, err := s.ledger.FundGoal(r.Context(), id, amount)
		s.respondReceipt(w, r, log.OpUpdate, http.StatusOK, receipt, err)
		return
	}
	receipt, err := s.ledger.WithdrawGoal(r.Context(), id, amount)
	s.respondReceipt(w, r, log.OpUpdate, http.StatusOK, receipt, err)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	receipt, err := s.ledger.DeleteGoal(r.Context(), id)
	s.respondReceipt(w, r, log.OpDelete, http.StatusOK, receipt, err)
}
