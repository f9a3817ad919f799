package rest

import (
	"context"
	"io"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/schedule"
	"github.com/kcattaeva-hash/Oplata/internal/service"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

type StudentOperations interface {
	Create(ctx context.Context, in service.CreateStudentInput) (domain.Student, error)
	Update(ctx context.Context, id string, in service.UpdateStudentInput) (domain.Student, error)
	Delete(ctx context.Context, id string) error
	ToggleInitialPayment(ctx context.Context, id string) (domain.Student, error)
	SetInitialPayment(ctx context.Context, id string, amount decimal.Decimal) (domain.Student, error)
	Get(id string) (domain.Student, error)
	List(opts service.ListOptions) []domain.Student
	Summary() store.Summary
	MonthlyExpectations() []store.MonthExpectation
}

type InstallmentOperations interface {
	Add(ctx context.Context, studentID string, amount decimal.Decimal, dueDate string) (domain.Installment, error)
	Remove(ctx context.Context, studentID, installmentID string) error
	SetPaid(ctx context.Context, studentID, installmentID string, paid bool) (domain.Installment, error)
	AmendAmount(ctx context.Context, studentID, installmentID string, amount decimal.Decimal) (domain.Installment, error)
	PreviewSchedule(total decimal.Decimal, months int, firstDate string) ([]schedule.Spec, error)
}

type PaymentOperations interface {
	Record(ctx context.Context, studentID string, amount decimal.Decimal, note string) (domain.Payment, error)
	Delete(ctx context.Context, paymentID string) error
	List(studentID string) []domain.Payment
}

type Importer interface {
	ImportCSV(ctx context.Context, r io.Reader) (service.ImportResult, error)
	CSVTemplate() []byte
	ImportBackup(ctx context.Context, data []byte) error
	ClearData(ctx context.Context)
}

type Exporter interface {
	RosterCSV(ctx context.Context) ([]byte, string)
	BackupJSON(ctx context.Context) ([]byte, string, error)
	StartRosterExport(ctx context.Context, selected []string) (string, error)
	GetExports(ctx context.Context) ([]interface{}, error)
	GetExport(ctx context.Context, exportID string) (interface{}, error)
}

type LogReader interface {
	List(query string) []domain.LogEntry
}

type Handler struct {
	students     StudentOperations
	installments InstallmentOperations
	payments     PaymentOperations
	importer     Importer
	exporter     Exporter
	logs         LogReader
}

func NewHandler(
	students StudentOperations,
	installments InstallmentOperations,
	payments PaymentOperations,
	importer Importer,
	exporter Exporter,
	logs LogReader,
) *Handler {
	return &Handler{
		students:     students,
		installments: installments,
		payments:     payments,
		importer:     importer,
		exporter:     exporter,
		logs:         logs,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Route("/students", func(r chi.Router) {
		r.Get("/", h.listStudents)
		r.Post("/", h.createStudent)
		r.Get("/summary", h.summary)
		r.Get("/expected", h.monthlyExpectations)

		r.Route("/{student_id}", func(r chi.Router) {
			r.Get("/", h.getStudent)
			r.Patch("/", h.updateStudent)
			r.Delete("/", h.deleteStudent)
			r.Post("/initial-payment/toggle", h.toggleInitialPayment)
			r.Put("/initial-payment", h.setInitialPayment)
			r.Get("/payments", h.listStudentPayments)

			r.Route("/installments", func(r chi.Router) {
				r.Post("/", h.addInstallment)
				r.Delete("/{installment_id}", h.removeInstallment)
				r.Post("/{installment_id}/paid", h.setInstallmentPaid)
				r.Put("/{installment_id}/amount", h.amendInstallmentAmount)
			})
		})
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/", h.recordPayment)
		r.Delete("/{payment_id}", h.deletePayment)
	})

	r.Get("/logs", h.listLogs)
	r.Get("/schedule/preview", h.previewSchedule)

	r.Route("/import", func(r chi.Router) {
		r.Post("/csv", h.importCSV)
		r.Get("/template", h.csvTemplate)
		r.Post("/backup", h.importBackup)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/csv", h.exportRosterCSV)
		r.Get("/backup", h.exportBackup)
		r.Post("/students", h.startRosterExport)
		r.Get("/{export_id}", h.getExport)
	})

	r.Delete("/data", h.clearData)

	return r
}
