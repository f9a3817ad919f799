package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a free-form payment recorded against a student's running
// balance, not tied to any installment.
type Payment struct {
	ID        string          `json:"id"`
	StudentID string          `json:"studentId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Note      string          `json:"note"`
}
