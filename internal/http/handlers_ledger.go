package http

import (
	"net/http"
	"strconv"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/services"
)

type transactionRequest struct {
	Account     string     `json:"account"`
	Amount      amountText `json:"amount"`
	Direction   string     `json:"direction"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

type incomeRequest struct {
	Account        string     `json:"account"`
	Amount         amountText `json:"amount"`
	Description    string     `json:"description"`
	ApplyDeduction bool       `json:"apply_deduction"`
	Date           string     `json:"date"`
}

type amountRequest struct {
	Amount amountText `json:"amount"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotView(snap))
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.Accounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := core.ParseAccountKind(req.Account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	direction, err := core.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.ledger.RecordTransaction(r.Context(), services.TransactionRequest{
		Account:     account,
		Amount:      amount,
		Direction:   direction,
		Description: sanitizeInput(req.Description),
		Date:        date,
	})
	s.respondReceipt(w, r, log.OpRecord, http.StatusCreated, receipt, err)
}

func (s *Server) handleRecordIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := core.ParseAccountKind(req.Account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gross, err := req.Amount.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.ledger.RecordIncome(r.Context(), services.IncomeRequest{
		Account:        account,
		Gross:          gross,
		Description:    sanitizeInput(req.Description),
		ApplyDeduction: req.ApplyDeduction,
		Date:           date,
	})
	s.respondReceipt(w, r, log.OpRecord, http.StatusCreated, receipt, err)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
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
	receipt, err := s.ledger.Transfer(r.Context(), amount)
	s.respondReceipt(w, r, log.OpTransfer, http.StatusCreated, receipt, err)
}

// handleListMovements serves the journal, newest first. Without a month the
// most recent entries are returned up to the default history limit.
func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.MovementFilter{Month: strings.TrimSpace(q.Get("month"))}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, badRequest("invalid limit %q", v))
			return
		}
		filter.Limit = n
	}

	ms, err := s.ledger.Movements(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementViews(ms))
}

func (s *Server) handleMovementMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.MovementMonths(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if months == nil {
		months = []string{}
	}
	writeJSON(w, http.StatusOK, months)
}

func (s *Server) handleReverseMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	receipt, err := s.ledger.ReverseMovement(r.Context(), id)
	s.respondReceipt(w, r, log.OpReverse, http.StatusOK, receipt, err)
}

func (s *Server) handleWeeklyExpenses(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.WeeklyExpenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]dailyTotalView, 0, len(totals))
	for _, t := range totals {
		out = append(out, dailyTotalView{Date: t.Date.String(), Total: core.FormatAmount(t.Total)})
	}
	writeJSON(w, http.StatusOK, out)
}

// respondReceipt finishes a mutating request.
func (s *Server) respondReceipt(w http.ResponseWriter, r *http.Request, op string, status int, receipt *services.Receipt, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.committed(r.Context(), op, receipt)
	writeJSON(w, status, toReceiptView(receipt))
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
