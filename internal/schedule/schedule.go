// Package schedule builds amortized payment schedules.
package schedule

import (
	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// Spec describes one generated installment before it gets an identifier.
type Spec struct {
	Amount  decimal.Decimal
	DueDate domain.Date
}

// Generate splits total into months equal installments due at calendar-month
// increments starting at start. Each installment is total/months rounded to
// the cent; the last one absorbs the rounding remainder so the amounts sum
// to total exactly. Returns nil when the inputs cannot form a schedule.
func Generate(total decimal.Decimal, months int, start domain.Date) []Spec {
	if months <= 0 || !total.IsPositive() || start.IsZero() {
		return nil
	}

	monthly := total.DivRound(decimal.NewFromInt(int64(months)), 2)
	last := total.Sub(monthly.Mul(decimal.NewFromInt(int64(months - 1))))

	specs := make([]Spec, 0, months)
	for i := 0; i < months; i++ {
		amount := monthly
		if i == months-1 {
			amount = last
		}
		specs = append(specs, Spec{
			Amount:  amount,
			DueDate: start.AddMonths(i),
		})
	}
	return specs
}
