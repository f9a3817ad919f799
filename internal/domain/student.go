package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts serialize as JSON numbers to keep the backup format stable
	decimal.MarshalJSONWithoutQuotes = true
}

// Installment is one scheduled portion of a student's tuition.
type Installment struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  Date            `json:"dueDate"`
	IsPaid   bool            `json:"isPaid"`
	PaidDate *time.Time      `json:"paidDate,omitempty"`
}

type Student struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`

	// PaidAmount is the running counter of free-form payments recorded
	// against the student. Debt math never reads it; see PaidTotal.
	PaidAmount decimal.Decimal `json:"paidAmount"`

	Installments []Installment `json:"installments"`
	Tariff       Tariff        `json:"tariff"`

	InitialPayment     decimal.Decimal `json:"initialPayment"`
	InitialPaymentPaid bool            `json:"initialPaymentPaid"`
	InitialPaymentDate *time.Time      `json:"initialPaymentDate,omitempty"`
}

// InstallmentsTotal sums every installment amount regardless of paid state.
func (s *Student) InstallmentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range s.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// PaidTotal derives how much the student has actually paid: the reservation
// fee when marked paid plus the sum of paid installments. This is the single
// source of truth for debt and collection figures.
func (s *Student) PaidTotal() decimal.Decimal {
	paid := decimal.Zero
	if s.InitialPaymentPaid {
		paid = paid.Add(s.InitialPayment)
	}
	for _, inst := range s.Installments {
		if inst.IsPaid {
			paid = paid.Add(inst.Amount)
		}
	}
	return paid
}

func (s *Student) Debt() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidTotal())
}

func (s *Student) FullyPaid() bool {
	return s.Debt().LessThanOrEqual(decimal.Zero)
}

// Installment returns a pointer into the student's installment list, or nil.
func (s *Student) Installment(id string) *Installment {
	for i := range s.Installments {
		if s.Installments[i].ID == id {
			return &s.Installments[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand out to readers.
func (s *Student) Clone() Student {
	out := *s
	out.Installments = make([]Installment, len(s.Installments))
	copy(out.Installments, s.Installments)
	for i := range out.Installments {
		if pd := out.Installments[i].PaidDate; pd != nil {
			v := *pd
			out.Installments[i].PaidDate = &v
		}
	}
	if s.InitialPaymentDate != nil {
		v := *s.InitialPaymentDate
		out.InitialPaymentDate = &v
	}
	return out
}

// NormalizeName upper-cases the first letter of every space-separated word
// and lower-cases the rest. Unicode-aware, so Cyrillic names work.
func NormalizeName(name string) string {
	words := strings.Split(strings.TrimSpace(name), " ")
	for i, word := range words {
		runes := []rune(word)
		if len(runes) == 0 {
			continue
		}
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
