package rest

import (
	"io"
	"log"
	"net/http"
)

// importCSV accepts either a raw CSV body or a multipart form with a "file"
// field, matching what the import form posts.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(r.Body)

	if err := r.ParseMultipartForm(10 << 20); err == nil {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			ErrorBadRequest(w, "file is required")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.importer.ImportCSV(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Импорт завершён", result)
}

func (h *Handler) csvTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="students_template.csv"`)

	if _, err := w.Write(h.importer.CSVTemplate()); err != nil {
		log.Printf("[HTTP] write csv template: %v", err)
	}
}

func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		ErrorBadRequest(w, "failed to read body")
		return
	}

	if err := h.importer.ImportBackup(r.Context(), data); err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Данные восстановлены из резервной копии", nil)
}

func (h *Handler) clearData(w http.ResponseWriter, r *http.Request) {
	h.importer.ClearData(r.Context())
	Success(w, "Все данные удалены", nil)
}
