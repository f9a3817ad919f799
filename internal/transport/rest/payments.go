package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	Success(w, "", h.payments.List(r.URL.Query().Get("student_id")))
}

type recordPaymentRequest struct {
	StudentID string          `json:"studentId"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	payment, err := h.payments.Record(r.Context(), req.StudentID, req.Amount, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	SuccessCreated(w, "Платёж зачислен", payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.Delete(r.Context(), chi.URLParam(r, "payment_id")); err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Платёж удалён", nil)
}
