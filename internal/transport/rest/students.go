package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/service"
)

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Status: r.URL.Query().Get("status"),
		SortBy: r.URL.Query().Get("sort"),
	}

	Success(w, "", h.students.List(opts))
}

func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	var in service.CreateStudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	student, err := h.students.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	SuccessCreated(w, "Ученик добавлен", student)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	Success(w, "", h.students.Summary())
}

func (h *Handler) monthlyExpectations(w http.ResponseWriter, r *http.Request) {
	Success(w, "", h.students.MonthlyExpectations())
}

func (h *Handler) getStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.Get(chi.URLParam(r, "student_id"))
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "", student)
}

func (h *Handler) updateStudent(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateStudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	student, err := h.students.Update(r.Context(), chi.URLParam(r, "student_id"), in)
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Данные ученика обновлены", student)
}

func (h *Handler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.students.Delete(r.Context(), chi.URLParam(r, "student_id")); err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Ученик удалён", nil)
}

func (h *Handler) toggleInitialPayment(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.ToggleInitialPayment(r.Context(), chi.URLParam(r, "student_id"))
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Статус первоначального взноса изменён", student)
}

type setInitialPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) setInitialPayment(w http.ResponseWriter, r *http.Request) {
	var req setInitialPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	student, err := h.students.SetInitialPayment(r.Context(), chi.URLParam(r, "student_id"), req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	Success(w, "Первоначальный взнос обновлён", student)
}

func (h *Handler) listStudentPayments(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	if _, err := h.students.Get(studentID); err != nil {
		respondError(w, err)
		return
	}

	Success(w, "", h.payments.List(studentID))
}
