package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// newTestStore returns a store with a fixed clock and sequential IDs so
// assertions stay deterministic.
func newTestStore() *Store {
	seq := 0
	return &Store{
		now: func() time.Time {
			return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		},
		newID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addTestStudent(t *testing.T, st *Store) domain.Student {
	t.Helper()
	student, err := st.AddStudent(NewStudent{
		Name:           "иван иванов",
		Phone:          "+79990001122",
		Tariff:         domain.TariffGroup,
		InitialPayment: amount("1000"),
		TotalAmount:    amount("7000"),
		Installments: []NewInstallment{
			{Amount: amount("2000"), DueDate: date(t, "2026-04-01")},
			{Amount: amount("2000"), DueDate: date(t, "2026-05-01")},
			{Amount: amount("2000"), DueDate: date(t, "2026-06-01")},
		},
	})
	require.NoError(t, err)
	return student
}

func TestAddStudent(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	assert.Equal(t, "Иван Иванов", student.Name)
	assert.True(t, student.TotalAmount.Equal(amount("7000")))
	assert.True(t, student.PaidAmount.IsZero())
	require.Len(t, student.Installments, 3)
	for _, inst := range student.Installments {
		assert.False(t, inst.IsPaid)
		assert.Nil(t, inst.PaidDate)
	}

	logs := st.Logs("")
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionStudentAdded, logs[0].Action)
	assert.Contains(t, logs[0].Details, "Иван Иванов")
	assert.Contains(t, logs[0].Details, "Групповой")
}

func TestAddStudent_NegativeInitialPayment(t *testing.T) {
	st := newTestStore()
	_, err := st.AddStudent(NewStudent{
		Name:           "Анна",
		InitialPayment: amount("-100"),
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestUpdateStudent_MergesAndLogsChangedFields(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	name := "пётр сидоров"
	tariff := domain.TariffIndividual
	updated, err := st.UpdateStudent(student.ID, StudentUpdate{
		Name:   &name,
		Tariff: &tariff,
	})
	require.NoError(t, err)

	assert.Equal(t, "Пётр Сидоров", updated.Name)
	assert.Equal(t, domain.TariffIndividual, updated.Tariff)
	assert.Equal(t, student.Phone, updated.Phone)

	logs := st.Logs("")
	assert.Equal(t, domain.ActionStudentEdited, logs[0].Action)
	assert.Contains(t, logs[0].Details, "имя: Пётр Сидоров")
	assert.Contains(t, logs[0].Details, "тариф: ВИП")
}

func TestUpdateStudent_NoChangesNoLog(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)
	before := len(st.Logs(""))

	_, err := st.UpdateStudent(student.ID, StudentUpdate{})
	require.NoError(t, err)
	assert.Len(t, st.Logs(""), before)
}

func TestUpdateStudent_NotFound(t *testing.T) {
	st := newTestStore()
	_, err := st.UpdateStudent("missing", StudentUpdate{})
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestDeleteStudent_CascadesPayments(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)
	other, err := st.AddStudent(NewStudent{Name: "Анна", Tariff: domain.TariffGroup})
	require.NoError(t, err)

	_, err = st.RecordPayment(student.ID, amount("500"), "")
	require.NoError(t, err)
	_, err = st.RecordPayment(other.ID, amount("300"), "")
	require.NoError(t, err)

	require.NoError(t, st.DeleteStudent(student.ID))

	_, err = st.Student(student.ID)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	payments := st.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, other.ID, payments[0].StudentID)
}

func TestToggleInitialPayment_RoundTrip(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	toggled, err := st.ToggleInitialPayment(student.ID)
	require.NoError(t, err)
	assert.True(t, toggled.InitialPaymentPaid)
	require.NotNil(t, toggled.InitialPaymentDate)

	back, err := st.ToggleInitialPayment(student.ID)
	require.NoError(t, err)
	assert.False(t, back.InitialPaymentPaid)
	assert.Nil(t, back.InitialPaymentDate)
}

func TestSetInitialPayment_ShiftsTotal(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	updated, err := st.SetInitialPayment(student.ID, amount("2500"))
	require.NoError(t, err)

	// initial went 1000 -> 2500, so the total moves by the same +1500
	assert.True(t, updated.InitialPayment.Equal(amount("2500")))
	assert.True(t, updated.TotalAmount.Equal(amount("8500")), "got %s", updated.TotalAmount)
}

func TestSetInitialPayment_Negative(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	_, err := st.SetInitialPayment(student.ID, amount("-1"))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestDerivedPaidAndDebt(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	// initial 1000 paid + first installment 2000 paid = 3000 of 7000
	_, err := st.ToggleInitialPayment(student.ID)
	require.NoError(t, err)
	_, err = st.SetInstallmentPaid(student.ID, student.Installments[0].ID, true)
	require.NoError(t, err)

	got, err := st.Student(student.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidTotal().Equal(amount("3000")))
	assert.True(t, got.Debt().Equal(amount("4000")))
	assert.False(t, got.FullyPaid())
}

func TestSummary(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	paidUp, err := st.AddStudent(NewStudent{
		Name:        "Анна Полностью",
		Tariff:      domain.TariffIndividual,
		TotalAmount: amount("3000"),
		Installments: []NewInstallment{
			{Amount: amount("3000"), DueDate: date(t, "2026-04-01")},
		},
	})
	require.NoError(t, err)
	_, err = st.SetInstallmentPaid(paidUp.ID, paidUp.Installments[0].ID, true)
	require.NoError(t, err)

	sum := st.Summary()
	assert.Equal(t, 2, sum.Students)
	assert.Equal(t, 1, sum.FullyPaid)
	assert.Equal(t, 1, sum.WithDebt)
	assert.True(t, sum.TotalDebt.Equal(amount("7000")), "got %s", sum.TotalDebt)
	assert.True(t, sum.TotalCollected.Equal(amount("3000")))

	_ = student
}

func TestMonthlyExpectations(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)

	// one installment paid drops out of its month
	_, err := st.SetInstallmentPaid(student.ID, student.Installments[0].ID, true)
	require.NoError(t, err)

	months := st.MonthlyExpectations()
	require.Len(t, months, 3)

	// unpaid initial payment lands in the clock's current month
	assert.Equal(t, "2026-03", months[0].Month)
	assert.True(t, months[0].Amount.Equal(amount("1000")))
	assert.Equal(t, "2026-05", months[1].Month)
	assert.True(t, months[1].Amount.Equal(amount("2000")))
	assert.Equal(t, "2026-06", months[2].Month)
	assert.True(t, months[2].Amount.Equal(amount("2000")))
}

func TestLogs_NewestFirstAndQuery(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)
	_, err := st.RecordPayment(student.ID, amount("500"), "наличные")
	require.NoError(t, err)

	logs := st.Logs("")
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ActionPaymentAdded, logs[0].Action)
	assert.Equal(t, domain.ActionStudentAdded, logs[1].Action)

	filtered := st.Logs("наличные")
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.ActionPaymentAdded, filtered[0].Action)

	assert.Empty(t, st.Logs("чего нет"))
}

func TestReplaceAll_LogsRestore(t *testing.T) {
	st := newTestStore()
	addTestStudent(t, st)

	st.ReplaceAll([]domain.Student{{ID: "x", Name: "Новый"}}, nil, nil)

	students := st.Students()
	require.Len(t, students, 1)
	assert.Equal(t, "Новый", students[0].Name)

	logs := st.Logs("")
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionDataImported, logs[0].Action)
}

func TestClearAll_KeepsLogs(t *testing.T) {
	st := newTestStore()
	student := addTestStudent(t, st)
	_, err := st.RecordPayment(student.ID, amount("500"), "")
	require.NoError(t, err)
	before := len(st.Logs(""))

	st.ClearAll()

	assert.Empty(t, st.Students())
	assert.Empty(t, st.Payments())

	logs := st.Logs("")
	require.Len(t, logs, before+1)
	assert.Equal(t, domain.ActionDataCleared, logs[0].Action)
}

func TestImportStudents_BatchLog(t *testing.T) {
	st := newTestStore()
	out := st.ImportStudents([]NewStudent{
		{Name: "иван иванов", Tariff: domain.TariffGroup, TotalAmount: amount("5000")},
		{Name: "петров илья", Tariff: domain.TariffIndividual, TotalAmount: amount("50000")},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Иван Иванов", out[0].Name)
	assert.Empty(t, out[0].Installments)

	logs := st.Logs("")
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionStudentsImported, logs[0].Action)
	assert.Contains(t, logs[0].Details, "Добавлено учеников: 2")
}

func TestImportStudents_EmptyBatchNoLog(t *testing.T) {
	st := newTestStore()
	assert.Empty(t, st.ImportStudents(nil))
	assert.Empty(t, st.Logs(""))
}

func TestStudents_ReturnsCopies(t *testing.T) {
	st := newTestStore()
	addTestStudent(t, st)

	students := st.Students()
	students[0].Name = "Изменено"
	students[0].Installments[0].IsPaid = true

	fresh := st.Students()
	assert.Equal(t, "Иван Иванов", fresh[0].Name)
	assert.False(t, fresh[0].Installments[0].IsPaid)
}
