package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

type PaymentService struct {
	store     *store.Store
	persister Persister
	ws        *clients.WebSocketClient
}

func NewPaymentService(st *store.Store, persister Persister, ws *clients.WebSocketClient) *PaymentService {
	return &PaymentService{
		store:     st,
		persister: persister,
		ws:        ws,
	}
}

func (s *PaymentService) changed(ctx context.Context) {
	mirror(ctx, s.store, s.persister)
	_ = s.ws.NotifyChanged(ctx, "payments")
	_ = s.ws.NotifyChanged(ctx, "students")
	_ = s.ws.NotifyChanged(ctx, "logs")
}

func (s *PaymentService) Record(ctx context.Context, studentID string, amount decimal.Decimal, note string) (domain.Payment, error) {
	if !amount.IsPositive() {
		return domain.Payment{}, invalid("amount", "сумма платежа должна быть больше нуля")
	}

	payment, err := s.store.RecordPayment(studentID, amount, note)
	if err != nil {
		return domain.Payment{}, err
	}
	s.changed(ctx)
	return payment, nil
}

func (s *PaymentService) Delete(ctx context.Context, paymentID string) error {
	if err := s.store.DeletePayment(paymentID); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// List returns all payment records, or those of one student when studentID
// is non-empty.
func (s *PaymentService) List(studentID string) []domain.Payment {
	if studentID != "" {
		return s.store.PaymentsForStudent(studentID)
	}
	return s.store.Payments()
}
