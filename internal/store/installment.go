package store

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// AddInstallment appends an unpaid installment to the student's schedule and
// raises the student's total by its amount.
func (s *Store) AddInstallment(studentID string, amount decimal.Decimal, dueDate domain.Date) (domain.Installment, error) {
	if !amount.IsPositive() {
		return domain.Installment{}, ErrNonPositiveAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(studentID)
	if err != nil {
		return domain.Installment{}, err
	}

	inst := domain.Installment{
		ID:      s.newID(),
		Amount:  amount,
		DueDate: dueDate,
	}
	student.Installments = append(student.Installments, inst)
	student.TotalAmount = student.TotalAmount.Add(amount)

	s.appendLog(domain.ActionInstallmentAdded,
		fmt.Sprintf("%s - %s ₽", student.Name, inst.Amount))
	return inst, nil
}

// RemoveInstallment deletes an unpaid installment and lowers the student's
// total by its amount. Removing a paid installment is a silent no-op: state
// stays untouched and nothing is logged.
func (s *Store) RemoveInstallment(studentID, installmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(studentID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range student.Installments {
		if student.Installments[i].ID == installmentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrInstallmentNotFound
	}
	if student.Installments[idx].IsPaid {
		return nil
	}

	removed := student.Installments[idx]
	student.Installments = append(student.Installments[:idx], student.Installments[idx+1:]...)
	student.TotalAmount = student.TotalAmount.Sub(removed.Amount)

	s.appendLog(domain.ActionInstallmentDeleted,
		fmt.Sprintf("%s - %s ₽", student.Name, removed.Amount))
	return nil
}

// SetInstallmentPaid sets the paid flag. Moving to paid stamps the paid date
// with the current time; moving back clears it. A log entry is written only
// when the flag actually changes.
func (s *Store) SetInstallmentPaid(studentID, installmentID string, paid bool) (domain.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(studentID)
	if err != nil {
		return domain.Installment{}, err
	}
	inst := student.Installment(installmentID)
	if inst == nil {
		return domain.Installment{}, ErrInstallmentNotFound
	}

	if inst.IsPaid == paid {
		return *inst, nil
	}

	inst.IsPaid = paid
	if paid {
		now := s.now()
		inst.PaidDate = &now
		s.appendLog(domain.ActionInstallmentPaid,
			fmt.Sprintf("%s - %s ₽", student.Name, inst.Amount))
	} else {
		inst.PaidDate = nil
		s.appendLog(domain.ActionInstallmentUnpaid,
			fmt.Sprintf("%s - %s ₽", student.Name, inst.Amount))
	}
	return *inst, nil
}

// AmendInstallmentAmount changes an installment's amount and shifts the
// student's total by the delta as a single operation, so the two can never
// drift apart.
func (s *Store) AmendInstallmentAmount(studentID, installmentID string, amount decimal.Decimal) (domain.Installment, error) {
	if amount.IsNegative() {
		return domain.Installment{}, ErrNegativeAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.findStudent(studentID)
	if err != nil {
		return domain.Installment{}, err
	}
	inst := student.Installment(installmentID)
	if inst == nil {
		return domain.Installment{}, ErrInstallmentNotFound
	}

	delta := amount.Sub(inst.Amount)
	old := inst.Amount
	inst.Amount = amount
	student.TotalAmount = student.TotalAmount.Add(delta)

	s.appendLog(domain.ActionStudentEdited,
		fmt.Sprintf("%s - сумма платежа рассрочки: %s ₽ → %s ₽, общая сумма: %s ₽",
			student.Name, old, inst.Amount, student.TotalAmount))
	return *inst, nil
}
