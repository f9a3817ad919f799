package store

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// RecordPayment appends a free-form payment and raises the student's running
// paid counter by its amount.
func (s *Store) RecordPayment(studentID string, amount decimal.Decimal, note string) (domain.Payment, error) {
	if !amount.IsPositive() {
		return domain.Payment{}, ErrNonPositiveAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(studentID)
	if err != nil {
		return domain.Payment{}, err
	}

	payment := domain.Payment{
		ID:        s.newID(),
		StudentID: studentID,
		Amount:    amount,
		Date:      s.now(),
		Note:      note,
	}
	s.payments = append(s.payments, payment)
	student.PaidAmount = student.PaidAmount.Add(amount)

	details := fmt.Sprintf("%s - %s ₽", student.Name, amount)
	if note != "" {
		details += ". Примечание: " + note
	}
	s.appendLog(domain.ActionPaymentAdded, details)
	return payment, nil
}

// DeletePayment removes a payment record and reverses its effect on the
// owning student's running paid counter. The counter is not floored at zero.
func (s *Store) DeletePayment(paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.payments {
		if s.payments[i].ID == paymentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrPaymentNotFound
	}

	payment := s.payments[idx]
	s.payments = append(s.payments[:idx], s.payments[idx+1:]...)

	name := payment.StudentID
	if student, err := s.findStudent(payment.StudentID); err == nil {
		student.PaidAmount = student.PaidAmount.Sub(payment.Amount)
		name = student.Name
	}

	s.appendLog(domain.ActionPaymentDeleted,
		fmt.Sprintf("%s - %s ₽", name, payment.Amount))
	return nil
}
