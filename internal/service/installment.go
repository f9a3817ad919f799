package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/schedule"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

type InstallmentService struct {
	store     *store.Store
	persister Persister
	ws        *clients.WebSocketClient
}

func NewInstallmentService(st *store.Store, persister Persister, ws *clients.WebSocketClient) *InstallmentService {
	return &InstallmentService{
		store:     st,
		persister: persister,
		ws:        ws,
	}
}

func (s *InstallmentService) changed(ctx context.Context) {
	mirror(ctx, s.store, s.persister)
	_ = s.ws.NotifyChanged(ctx, "students")
	_ = s.ws.NotifyChanged(ctx, "logs")
}

func (s *InstallmentService) Add(ctx context.Context, studentID string, amount decimal.Decimal, dueDate string) (domain.Installment, error) {
	if !amount.IsPositive() {
		return domain.Installment{}, invalid("amount", "сумма платежа должна быть больше нуля")
	}
	due, err := domain.ParseDate(dueDate)
	if err != nil {
		return domain.Installment{}, invalid("dueDate", "неверная дата платежа")
	}

	inst, err := s.store.AddInstallment(studentID, amount, due)
	if err != nil {
		return domain.Installment{}, err
	}
	s.changed(ctx)
	return inst, nil
}

func (s *InstallmentService) Remove(ctx context.Context, studentID, installmentID string) error {
	if err := s.store.RemoveInstallment(studentID, installmentID); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *InstallmentService) SetPaid(ctx context.Context, studentID, installmentID string, paid bool) (domain.Installment, error) {
	inst, err := s.store.SetInstallmentPaid(studentID, installmentID, paid)
	if err != nil {
		return domain.Installment{}, err
	}
	s.changed(ctx)
	return inst, nil
}

func (s *InstallmentService) AmendAmount(ctx context.Context, studentID, installmentID string, amount decimal.Decimal) (domain.Installment, error) {
	if amount.IsNegative() {
		return domain.Installment{}, invalid("amount", "сумма платежа не может быть отрицательной")
	}

	inst, err := s.store.AmendInstallmentAmount(studentID, installmentID, amount)
	if err != nil {
		return domain.Installment{}, err
	}
	s.changed(ctx)
	return inst, nil
}

// PreviewSchedule generates the amortized schedule for the given parameters
// without touching any state, so the caller can show it before submitting.
func (s *InstallmentService) PreviewSchedule(total decimal.Decimal, months int, firstDate string) ([]schedule.Spec, error) {
	start, err := domain.ParseDate(firstDate)
	if err != nil {
		return nil, invalid("firstDate", "неверная дата первого платежа")
	}
	specs := schedule.Generate(total, months, start)
	if len(specs) == 0 {
		return nil, invalid("schedule", "не удалось построить график платежей")
	}
	return specs, nil
}
