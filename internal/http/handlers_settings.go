package http

import (
	"bytes"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/log"
)

type settingsRequest struct {
	VaultName       string     `json:"vault_name"`
	OperationalName string     `json:"operational_name"`
	DeductionRate   amountText `json:"deduction_rate"`
	AlertThreshold  amountText `json:"alert_threshold"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.ledger.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(settings))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := parseRate("deduction rate", req.DeductionRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	threshold, err := parseRate("alert threshold", req.AlertThreshold)
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.ledger.UpdateSettings(r.Context(), core.Settings{
		VaultName:       sanitizeInput(req.VaultName),
		OperationalName: sanitizeInput(req.OperationalName),
		DeductionRate:   rate,
		AlertThreshold:  threshold,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.committed(r.Context(), log.OpUpdate, receipt)

	settings, err := s.ledger.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(settings))
}

// handleExportCSV streams the whole journal, newest first. The CSV is built
// in memory first so a storage failure still yields a JSON error.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ledger.AllMovements(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, ms); err != nil {
		writeError(w, r, err)
		return
	}

	name := export.FileName(core.DateOf(s.now()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	log.FromContext(r.Context()).InfoContext(r.Context(), "Journal exported",
		log.FieldOperation, log.OpExport,
		"rows", len(ms))
}
