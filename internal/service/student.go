package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/schedule"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

type StudentService struct {
	store     *store.Store
	persister Persister
	ws        *clients.WebSocketClient
}

func NewStudentService(st *store.Store, persister Persister, ws *clients.WebSocketClient) *StudentService {
	return &StudentService{
		store:     st,
		persister: persister,
		ws:        ws,
	}
}

func (s *StudentService) changed(ctx context.Context, collections ...string) {
	mirror(ctx, s.store, s.persister)
	for _, c := range collections {
		_ = s.ws.NotifyChanged(ctx, c)
	}
	_ = s.ws.NotifyChanged(ctx, "logs")
}

// InstallmentInput is one manually entered installment.
type InstallmentInput struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"dueDate"`
}

// ScheduleInput asks for an auto-generated amortized schedule.
type ScheduleInput struct {
	Total     decimal.Decimal `json:"total"`
	Months    int             `json:"months"`
	FirstDate string          `json:"firstDate"`
}

type CreateStudentInput struct {
	Name           string             `json:"name"`
	Phone          string             `json:"phone"`
	Tariff         string             `json:"tariff"`
	InitialPayment decimal.Decimal    `json:"initialPayment"`
	Installments   []InstallmentInput `json:"installments"`
	Schedule       *ScheduleInput     `json:"schedule"`
}

// Create validates the input, resolves the installment schedule (manual list
// or auto-generated) and adds the student. The nominal total is seeded as
// initial payment plus installment sum so later delta-based edits keep it
// consistent.
func (s *StudentService) Create(ctx context.Context, in CreateStudentInput) (domain.Student, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Student{}, invalid("name", "имя обязательно")
	}
	tariff := domain.Tariff(in.Tariff)
	if !tariff.Known() {
		return domain.Student{}, invalid("tariff", "неизвестный тариф")
	}
	if in.InitialPayment.IsNegative() {
		return domain.Student{}, invalid("initialPayment", "первоначальный взнос не может быть отрицательным")
	}

	var installments []store.NewInstallment
	total := decimal.Zero

	switch {
	case in.Schedule != nil:
		start, err := domain.ParseDate(in.Schedule.FirstDate)
		if err != nil {
			return domain.Student{}, invalid("schedule.firstDate", "неверная дата первого платежа")
		}
		specs := schedule.Generate(in.Schedule.Total, in.Schedule.Months, start)
		if len(specs) == 0 {
			return domain.Student{}, invalid("schedule", "не удалось построить график платежей")
		}
		for _, spec := range specs {
			installments = append(installments, store.NewInstallment{Amount: spec.Amount, DueDate: spec.DueDate})
		}
		total = in.Schedule.Total
	default:
		for i, inst := range in.Installments {
			if !inst.Amount.IsPositive() {
				return domain.Student{}, invalid("installments", "сумма платежа должна быть больше нуля")
			}
			due, err := domain.ParseDate(inst.DueDate)
			if err != nil {
				return domain.Student{}, invalid("installments", "неверная дата платежа")
			}
			installments = append(installments, store.NewInstallment{Amount: inst.Amount, DueDate: due})
			total = total.Add(in.Installments[i].Amount)
		}
	}

	student, err := s.store.AddStudent(store.NewStudent{
		Name:           in.Name,
		Phone:          in.Phone,
		Tariff:         tariff,
		InitialPayment: in.InitialPayment,
		TotalAmount:    in.InitialPayment.Add(total),
		Installments:   installments,
	})
	if err != nil {
		return domain.Student{}, err
	}

	s.changed(ctx, "students")
	return student, nil
}

type UpdateStudentInput struct {
	Name        *string          `json:"name"`
	Phone       *string          `json:"phone"`
	Tariff      *string          `json:"tariff"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	PaidAmount  *decimal.Decimal `json:"paidAmount"`
}

func (s *StudentService) Update(ctx context.Context, id string, in UpdateStudentInput) (domain.Student, error) {
	upd := store.StudentUpdate{
		Phone:       in.Phone,
		TotalAmount: in.TotalAmount,
		PaidAmount:  in.PaidAmount,
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return domain.Student{}, invalid("name", "имя не может быть пустым")
		}
		upd.Name = in.Name
	}
	if in.Tariff != nil {
		tariff := domain.Tariff(*in.Tariff)
		if !tariff.Known() {
			return domain.Student{}, invalid("tariff", "неизвестный тариф")
		}
		upd.Tariff = &tariff
	}

	student, err := s.store.UpdateStudent(id, upd)
	if err != nil {
		return domain.Student{}, err
	}

	s.changed(ctx, "students")
	return student, nil
}

func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteStudent(id); err != nil {
		return err
	}
	s.changed(ctx, "students", "payments")
	return nil
}

func (s *StudentService) ToggleInitialPayment(ctx context.Context, id string) (domain.Student, error) {
	student, err := s.store.ToggleInitialPayment(id)
	if err != nil {
		return domain.Student{}, err
	}
	s.changed(ctx, "students")
	return student, nil
}

func (s *StudentService) SetInitialPayment(ctx context.Context, id string, amount decimal.Decimal) (domain.Student, error) {
	student, err := s.store.SetInitialPayment(id, amount)
	if err != nil {
		return domain.Student{}, err
	}
	s.changed(ctx, "students")
	return student, nil
}

func (s *StudentService) Get(id string) (domain.Student, error) {
	return s.store.Student(id)
}

// ListOptions filter and order the roster view. Status is "all", "debt" or
// "paid"; SortBy is "name" or "debt".
type ListOptions struct {
	Status string
	SortBy string
}

func (s *StudentService) List(opts ListOptions) []domain.Student {
	students := s.store.Students()

	if opts.Status == "debt" || opts.Status == "paid" {
		filtered := students[:0]
		for _, student := range students {
			paid := student.FullyPaid()
			if (opts.Status == "paid") == paid {
				filtered = append(filtered, student)
			}
		}
		students = filtered
	}

	switch opts.SortBy {
	case "debt":
		sort.SliceStable(students, func(i, j int) bool {
			return students[i].Debt().GreaterThan(students[j].Debt())
		})
	default:
		sort.SliceStable(students, func(i, j int) bool {
			return students[i].Name < students[j].Name
		})
	}
	return students
}

func (s *StudentService) Summary() store.Summary {
	return s.store.Summary()
}

func (s *StudentService) MonthlyExpectations() []store.MonthExpectation {
	return s.store.MonthlyExpectations()
}
