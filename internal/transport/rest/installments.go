package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type addInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"dueDate"`
}

func (h *Handler) addInstallment(w http.ResponseWriter, r *http.Request) {
	var req addInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	inst, err := h.installments.Add(r.Context(), chi.URLParam(r, "student_id"), req.Amount, req.DueDate)
	if err != nil {
		respondError(w, err)
		return
	}

	SuccessCreated(w, "Платёж рассрочки добавлен", inst)
}

func (h *Handler) removeInstallment(w http.ResponseWriter, r *http.Request) {
	err := h.installments.Remove(r.Context(), chi.URLParam(r, "student_id"), chi.URLParam(r, "installment_id"))
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Платёж рассрочки удалён", nil)
}

type setPaidRequest struct {
	Paid bool `json:"paid"`
}

func (h *Handler) setInstallmentPaid(w http.ResponseWriter, r *http.Request) {
	var req setPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	inst, err := h.installments.SetPaid(r.Context(), chi.URLParam(r, "student_id"), chi.URLParam(r, "installment_id"), req.Paid)
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Статус платежа обновлён", inst)
}

type amendAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) amendInstallmentAmount(w http.ResponseWriter, r *http.Request) {
	var req amendAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	inst, err := h.installments.AmendAmount(r.Context(), chi.URLParam(r, "student_id"), chi.URLParam(r, "installment_id"), req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Сумма платежа обновлена", inst)
}

func (h *Handler) previewSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	total, err := decimal.NewFromString(q.Get("total"))
	if err != nil {
		ErrorBadRequest(w, "total must be a number")
		return
	}

	months, err := strconv.Atoi(q.Get("months"))
	if err != nil {
		ErrorBadRequest(w, "months must be an integer")
		return
	}

	specs, err := h.installments.PreviewSchedule(total, months, q.Get("firstDate"))
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "", specs)
}
