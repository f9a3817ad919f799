// Package store holds the live state of the payment tracker: students with
// their installment schedules, free-form payment records and the activity
// log. All mutations go through Store methods, execute atomically with
// respect to readers and append one activity-log entry each.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrNegativeAmount      = errors.New("amount must not be negative")
)

type Store struct {
	mu       sync.RWMutex
	students []domain.Student
	payments []domain.Payment
	logs     []domain.LogEntry // newest first

	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load replaces all collections with previously persisted state. Meant for
// startup only; no log entry is written.
func (s *Store) Load(students []domain.Student, payments []domain.Payment, logs []domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = students
	s.payments = payments
	s.logs = logs
}

// appendLog prepends an entry so logs stay newest-first. Callers must hold mu.
func (s *Store) appendLog(action, details string) {
	entry := domain.LogEntry{
		ID:        s.newID(),
		Timestamp: s.now(),
		Action:    action,
		Details:   details,
	}
	s.logs = append([]domain.LogEntry{entry}, s.logs...)
}

func (s *Store) findStudent(id string) (*domain.Student, error) {
	for i := range s.students {
		if s.students[i].ID == id {
			return &s.students[i], nil
		}
	}
	return nil, ErrStudentNotFound
}

// Students returns a deep copy of the student collection.
func (s *Store) Students() []domain.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Student, 0, len(s.students))
	for i := range s.students {
		out = append(out, s.students[i].Clone())
	}
	return out
}

func (s *Store) Student(id string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, err := s.findStudent(id)
	if err != nil {
		return domain.Student{}, err
	}
	return student.Clone(), nil
}

// Payments returns a copy of all payment records.
func (s *Store) Payments() []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

// PaymentsForStudent returns the payment records owned by one student.
func (s *Store) PaymentsForStudent(studentID string) []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out
}

// Logs returns activity-log entries newest-first. A non-empty query filters
// by case-insensitive substring match on action and details.
func (s *Store) Logs(query string) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.LogEntry, 0, len(s.logs))
	for _, entry := range s.logs {
		if query != "" &&
			!strings.Contains(strings.ToLower(entry.Action), query) &&
			!strings.Contains(strings.ToLower(entry.Details), query) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Snapshot returns deep copies of all three collections, for persistence
// mirroring and full backups.
func (s *Store) Snapshot() ([]domain.Student, []domain.Payment, []domain.LogEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	students := make([]domain.Student, 0, len(s.students))
	for i := range s.students {
		students = append(students, s.students[i].Clone())
	}
	payments := make([]domain.Payment, len(s.payments))
	copy(payments, s.payments)
	logs := make([]domain.LogEntry, len(s.logs))
	copy(logs, s.logs)
	return students, payments, logs
}

// Summary aggregates collection-wide figures using derived paid amounts.
type Summary struct {
	Students       int             `json:"students"`
	FullyPaid      int             `json:"fullyPaid"`
	WithDebt       int             `json:"withDebt"`
	TotalDebt      decimal.Decimal `json:"totalDebt"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{
		Students:       len(s.students),
		TotalDebt:      decimal.Zero,
		TotalCollected: decimal.Zero,
	}
	for i := range s.students {
		student := &s.students[i]
		sum.TotalDebt = sum.TotalDebt.Add(student.Debt())
		sum.TotalCollected = sum.TotalCollected.Add(student.PaidTotal())
		if student.FullyPaid() {
			sum.FullyPaid++
		} else {
			sum.WithDebt++
		}
	}
	return sum
}

// MonthExpectation is the amount still expected in one calendar month.
type MonthExpectation struct {
	Month  string          `json:"month"` // "2006-01"
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyExpectations groups outstanding amounts by month: unpaid initial
// payments fall into the current month, unpaid installments into their due
// month. Sorted by month ascending.
func (s *Store) MonthlyExpectations() []MonthExpectation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := map[string]decimal.Decimal{}
	currentMonth := s.now().Format("2006-01")
	for i := range s.students {
		student := &s.students[i]
		if !student.InitialPaymentPaid && student.InitialPayment.IsPositive() {
			byMonth[currentMonth] = byMonth[currentMonth].Add(student.InitialPayment)
		}
		for _, inst := range student.Installments {
			if inst.IsPaid {
				continue
			}
			month := inst.DueDate.Format("2006-01")
			byMonth[month] = byMonth[month].Add(inst.Amount)
		}
	}

	out := make([]MonthExpectation, 0, len(byMonth))
	for month, amount := range byMonth {
		out = append(out, MonthExpectation{Month: month, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// ReplaceAll swaps in a full backup wholesale and records the import.
func (s *Store) ReplaceAll(students []domain.Student, payments []domain.Payment, logs []domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = students
	s.payments = payments
	s.logs = logs
	s.appendLog(domain.ActionDataImported, "Восстановлен backup системы")
}

// ClearAll removes every student and payment record. The activity log is
// kept and receives the clear entry.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = nil
	s.payments = nil
	s.appendLog(domain.ActionDataCleared, "Удалены все ученики и платежи")
}

// NoteExport records a data export in the activity log.
func (s *Store) NoteExport(details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLog(domain.ActionDataExported, details)
}
