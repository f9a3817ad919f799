package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcattaeva-hash/Oplata/internal/store"
)

func newInstallmentService() (*InstallmentService, *store.Store, *fakePersister) {
	st := store.New()
	p := &fakePersister{}
	return NewInstallmentService(st, p, nil), st, p
}

func seedStudent(t *testing.T, st *store.Store) string {
	t.Helper()
	student, err := st.AddStudent(store.NewStudent{
		Name:        "Анна",
		Tariff:      "group",
		TotalAmount: amount("4000"),
		Installments: []store.NewInstallment{
			{Amount: amount("4000"), DueDate: mustDate(t, "2026-04-01")},
		},
	})
	require.NoError(t, err)
	return student.ID
}

func TestInstallmentService_Add(t *testing.T) {
	svc, st, p := newInstallmentService()
	ctx := context.Background()
	studentID := seedStudent(t, st)

	inst, err := svc.Add(ctx, studentID, amount("1500"), "2026-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", inst.DueDate.String())

	got, err := st.Student(studentID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(amount("5500")))
	assert.Len(t, p.students, 1)
}

func TestInstallmentService_AddValidation(t *testing.T) {
	svc, st, _ := newInstallmentService()
	ctx := context.Background()
	studentID := seedStudent(t, st)

	var ve *ValidationError
	_, err := svc.Add(ctx, studentID, amount("0"), "2026-05-01")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)

	_, err = svc.Add(ctx, studentID, amount("100"), "05/01/2026")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "dueDate", ve.Field)

	_, err = svc.Add(ctx, "missing", amount("100"), "2026-05-01")
	assert.ErrorIs(t, err, store.ErrStudentNotFound)
}

func TestInstallmentService_AmendValidation(t *testing.T) {
	svc, st, _ := newInstallmentService()
	ctx := context.Background()
	studentID := seedStudent(t, st)

	got, err := st.Student(studentID)
	require.NoError(t, err)

	var ve *ValidationError
	_, err = svc.AmendAmount(ctx, studentID, got.Installments[0].ID, amount("-1"))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)
}

func TestInstallmentService_PreviewSchedule(t *testing.T) {
	svc, _, p := newInstallmentService()

	specs, err := svc.PreviewSchedule(amount("10000"), 3, "2026-01-15")
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.True(t, specs[2].Amount.Equal(amount("3333.34")))

	// preview never touches state
	assert.Zero(t, p.saves)

	var ve *ValidationError
	_, err = svc.PreviewSchedule(amount("10000"), 3, "плохая-дата")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "firstDate", ve.Field)

	_, err = svc.PreviewSchedule(amount("0"), 3, "2026-01-15")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "schedule", ve.Field)
}

func TestPaymentService_RecordAndDelete(t *testing.T) {
	st := store.New()
	p := &fakePersister{}
	svc := NewPaymentService(st, p, nil)
	ctx := context.Background()
	studentID := seedStudent(t, st)

	payment, err := svc.Record(ctx, studentID, amount("2500"), "перевод")
	require.NoError(t, err)
	assert.Len(t, p.payments, 1)

	require.Len(t, svc.List(studentID), 1)
	require.Len(t, svc.List(""), 1)
	assert.Empty(t, svc.List("other"))

	require.NoError(t, svc.Delete(ctx, payment.ID))
	assert.Empty(t, p.payments)

	var ve *ValidationError
	_, err = svc.Record(ctx, studentID, amount("0"), "")
	require.ErrorAs(t, err, &ve)

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), store.ErrPaymentNotFound)
}
