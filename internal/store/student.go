package store

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// NewInstallment describes an installment supplied at student creation.
type NewInstallment struct {
	Amount  decimal.Decimal
	DueDate domain.Date
}

// NewStudent carries the fields needed to create a student.
type NewStudent struct {
	Name           string
	Phone          string
	Tariff         domain.Tariff
	InitialPayment decimal.Decimal
	TotalAmount    decimal.Decimal
	Installments   []NewInstallment
}

// AddStudent creates a student with a normalized name, a zero running paid
// amount and the supplied installments, all unpaid.
func (s *Store) AddStudent(in NewStudent) (domain.Student, error) {
	if in.InitialPayment.IsNegative() {
		return domain.Student{}, ErrNegativeAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student := domain.Student{
		ID:             s.newID(),
		Name:           domain.NormalizeName(in.Name),
		Phone:          in.Phone,
		Tariff:         in.Tariff,
		TotalAmount:    in.TotalAmount,
		PaidAmount:     decimal.Zero,
		InitialPayment: in.InitialPayment,
		Installments:   make([]domain.Installment, 0, len(in.Installments)),
	}
	for _, inst := range in.Installments {
		student.Installments = append(student.Installments, domain.Installment{
			ID:      s.newID(),
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
		})
	}

	s.students = append(s.students, student)
	s.appendLog(domain.ActionStudentAdded,
		fmt.Sprintf("%s - Тариф: %s, Сумма: %s ₽", student.Name, student.Tariff.DisplayName(), student.TotalAmount))
	return student.Clone(), nil
}

// StudentUpdate lists the fields UpdateStudent may merge; nil fields stay
// untouched.
type StudentUpdate struct {
	Name        *string
	Phone       *string
	Tariff      *domain.Tariff
	TotalAmount *decimal.Decimal
	PaidAmount  *decimal.Decimal
}

// UpdateStudent merges the supplied fields into the record and logs the
// changed field names with their new values. TotalAmount is set as given,
// with no reconciliation against the installment sum.
func (s *Store) UpdateStudent(id string, upd StudentUpdate) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(id)
	if err != nil {
		return domain.Student{}, err
	}

	var changes []string
	if upd.Name != nil {
		student.Name = domain.NormalizeName(*upd.Name)
		changes = append(changes, "имя: "+student.Name)
	}
	if upd.Phone != nil {
		student.Phone = *upd.Phone
		changes = append(changes, "телефон: "+student.Phone)
	}
	if upd.Tariff != nil {
		student.Tariff = *upd.Tariff
		changes = append(changes, "тариф: "+student.Tariff.DisplayName())
	}
	if upd.TotalAmount != nil {
		student.TotalAmount = *upd.TotalAmount
		changes = append(changes, "общая сумма: "+student.TotalAmount.String()+" ₽")
	}
	if upd.PaidAmount != nil {
		student.PaidAmount = *upd.PaidAmount
		changes = append(changes, "оплачено: "+student.PaidAmount.String()+" ₽")
	}

	if len(changes) > 0 {
		s.appendLog(domain.ActionStudentEdited,
			fmt.Sprintf("%s - %s", student.Name, strings.Join(changes, ", ")))
	}
	return student.Clone(), nil
}

// DeleteStudent removes the student and every payment record referencing it.
func (s *Store) DeleteStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.students {
		if s.students[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrStudentNotFound
	}

	student := s.students[idx]
	s.students = append(s.students[:idx], s.students[idx+1:]...)

	kept := s.payments[:0]
	for _, p := range s.payments {
		if p.StudentID != id {
			kept = append(kept, p)
		}
	}
	s.payments = kept

	s.appendLog(domain.ActionStudentDeleted,
		fmt.Sprintf("%s - Тариф: %s", student.Name, student.Tariff.DisplayName()))
	return nil
}

// ToggleInitialPayment flips the reservation-fee paid flag, keeping the paid
// date present exactly when the flag is set.
func (s *Store) ToggleInitialPayment(id string) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(id)
	if err != nil {
		return domain.Student{}, err
	}

	student.InitialPaymentPaid = !student.InitialPaymentPaid
	if student.InitialPaymentPaid {
		now := s.now()
		student.InitialPaymentDate = &now
		s.appendLog(domain.ActionStudentEdited,
			fmt.Sprintf("%s - первоначальный взнос оплачен (%s ₽)", student.Name, student.InitialPayment))
	} else {
		student.InitialPaymentDate = nil
		s.appendLog(domain.ActionStudentEdited,
			fmt.Sprintf("%s - снята отметка об оплате первоначального взноса", student.Name))
	}
	return student.Clone(), nil
}

// SetInitialPayment changes the reservation fee and shifts the student's
// total by the same delta in one operation.
func (s *Store) SetInitialPayment(id string, amount decimal.Decimal) (domain.Student, error) {
	if amount.IsNegative() {
		return domain.Student{}, ErrNegativeAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(id)
	if err != nil {
		return domain.Student{}, err
	}

	delta := amount.Sub(student.InitialPayment)
	student.InitialPayment = amount
	student.TotalAmount = student.TotalAmount.Add(delta)

	s.appendLog(domain.ActionStudentEdited,
		fmt.Sprintf("%s - первоначальный взнос: %s ₽, общая сумма: %s ₽",
			student.Name, student.InitialPayment, student.TotalAmount))
	return student.Clone(), nil
}

// ImportStudents appends a batch of imported students. Each starts with zero
// installments and a zero running paid amount; one log entry covers the
// whole batch.
func (s *Store) ImportStudents(batch []NewStudent) []domain.Student {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Student, 0, len(batch))
	for _, in := range batch {
		student := domain.Student{
			ID:             s.newID(),
			Name:           domain.NormalizeName(in.Name),
			Phone:          in.Phone,
			Tariff:         in.Tariff,
			TotalAmount:    in.TotalAmount,
			PaidAmount:     decimal.Zero,
			InitialPayment: in.InitialPayment,
			Installments:   []domain.Installment{},
		}
		s.students = append(s.students, student)
		out = append(out, student.Clone())
	}

	if len(out) > 0 {
		s.appendLog(domain.ActionStudentsImported,
			fmt.Sprintf("Добавлено учеников: %d", len(out)))
	}
	return out
}
