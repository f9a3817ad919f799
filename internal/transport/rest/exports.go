package rest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.exporter.GetExports(r.Context())
	if err != nil {
		log.Printf("[HTTP] getExports error: %v", err)
		ErrorInternal(w, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) exportRosterCSV(w http.ResponseWriter, r *http.Request) {
	data, fileName := h.exporter.RosterCSV(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := w.Write(data); err != nil {
		log.Printf("[HTTP] write csv export: %v", err)
	}
}

func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	data, fileName, err := h.exporter.BackupJSON(r.Context())
	if err != nil {
		log.Printf("[HTTP] backup export error: %v", err)
		ErrorInternal(w, "failed to build backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := w.Write(data); err != nil {
		log.Printf("[HTTP] write backup export: %v", err)
	}
}

type startExportRequest struct {
	Fields []string `json:"fields"`
}

func (h *Handler) startRosterExport(w http.ResponseWriter, r *http.Request) {
	var req startExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	exportID, err := h.exporter.StartRosterExport(r.Context(), req.Fields)
	if err != nil {
		respondError(w, err)
		return
	}

	SuccessAccepted(w, "Экспорт поставлен в очередь", map[string]interface{}{
		"export_id": exportID,
	})
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.exporter.GetExport(r.Context(), chi.URLParam(r, "export_id"))
	if err != nil {
		ErrorNotFound(w, "export not found")
		return
	}

	Success(w, "", export)
}
