package domain

import "time"

// Action vocabulary for the activity log. Entries keep the Russian wording
// the presentation layer shows verbatim.
const (
	ActionStudentAdded       = "Добавлен ученик"
	ActionStudentEdited      = "Изменен ученик"
	ActionStudentDeleted     = "Удален ученик"
	ActionPaymentAdded       = "Добавлен платеж"
	ActionPaymentDeleted     = "Удален платеж"
	ActionInstallmentPaid    = "Отмечен платеж рассрочки"
	ActionInstallmentUnpaid  = "Снята отметка с платежа"
	ActionInstallmentAdded   = "Добавлена рассрочка"
	ActionInstallmentDeleted = "Удалена рассрочка"
	ActionStudentsImported   = "Импортированы ученики"
	ActionDataImported       = "Импортированы данные"
	ActionDataExported       = "Экспортированы данные"
	ActionDataCleared        = "Очищены все данные"
)

// LogEntry is one append-only audit record. Entries are never mutated or
// deleted except by a full data clear.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	User      string    `json:"user,omitempty"`
}
