package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

func newImportService() (*ImportService, *store.Store, *fakePersister) {
	st := store.New()
	p := &fakePersister{}
	return NewImportService(st, p, nil), st, p
}

func TestImportCSV(t *testing.T) {
	svc, st, _ := newImportService()

	csv := strings.Join([]string{
		"Имя,Тариф,Сумма,Телефон,Первоначальный взнос",
		"иван иванов,Групповой,50000,+7 900 123-45-67,5000",
		"Петров Илья,ВИП,50000,,",
		`"Мария Петрова","Эксперт",60000`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Imported, 3)

	assert.Equal(t, "Иван Иванов", result.Imported[0].Name)
	assert.Equal(t, domain.TariffGroup, result.Imported[0].Tariff)
	assert.True(t, result.Imported[0].InitialPayment.Equal(amount("5000")))
	assert.Equal(t, "+7 900 123-45-67", result.Imported[0].Phone)

	assert.Equal(t, domain.TariffIndividual, result.Imported[1].Tariff)
	assert.True(t, result.Imported[1].InitialPayment.IsZero())

	assert.Equal(t, "Мария Петрова", result.Imported[2].Name)
	assert.Equal(t, domain.TariffMiniGroup, result.Imported[2].Tariff)

	// imported students start with an empty schedule
	for _, student := range result.Imported {
		assert.Empty(t, student.Installments)
		assert.True(t, student.PaidAmount.IsZero())
	}

	logs := st.Logs("")
	require.NotEmpty(t, logs)
	assert.Equal(t, domain.ActionStudentsImported, logs[0].Action)
}

func TestImportCSV_PartialSuccess(t *testing.T) {
	svc, _, _ := newImportService()

	csv := strings.Join([]string{
		"Имя,Тариф,Сумма",
		"Анна,Групповой,5000",
		"только-имя",
		",Групповой,5000",
		"Борис,,5000",
		"Вера,Групповой,не-число",
		"Глеб,Групповой,5000,+79990001122,-5",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "Анна", result.Imported[0].Name)

	require.Len(t, result.Errors, 5)
	assert.Equal(t, "Строка 3: недостаточно данных", result.Errors[0])
	assert.Equal(t, "Строка 4: отсутствует имя", result.Errors[1])
	assert.Equal(t, "Строка 5: отсутствует тариф", result.Errors[2])
	assert.Equal(t, "Строка 6: неверная сумма", result.Errors[3])
	assert.Equal(t, "Строка 7: неверный первоначальный взнос", result.Errors[4])
}

func TestImportCSV_SkipsBlankLines(t *testing.T) {
	svc, _, _ := newImportService()

	csv := "Имя,Тариф,Сумма\n\nАнна,Групповой,5000\n\n"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Empty(t, result.Errors)
}

func TestCSVTemplate_ParsesThroughImport(t *testing.T) {
	svc, _, _ := newImportService()

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(string(svc.CSVTemplate())))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Imported, 3)
	assert.Equal(t, domain.TariffGroup, result.Imported[0].Tariff)
	assert.Equal(t, domain.TariffIndividual, result.Imported[1].Tariff)
	assert.Equal(t, domain.TariffMiniGroup, result.Imported[2].Tariff)
}

func TestImportBackup_AllOrNothing(t *testing.T) {
	svc, st, _ := newImportService()
	ctx := context.Background()

	st.ImportStudents([]store.NewStudent{{Name: "Старый", Tariff: domain.TariffGroup, TotalAmount: amount("100")}})

	var ve *ValidationError
	err := svc.ImportBackup(ctx, []byte("{broken"))
	require.ErrorAs(t, err, &ve)

	err = svc.ImportBackup(ctx, []byte(`{"payments": [], "logs": []}`))
	require.ErrorAs(t, err, &ve)

	// failed imports leave existing state alone
	students := st.Students()
	require.Len(t, students, 1)
	assert.Equal(t, "Старый", students[0].Name)
}

func TestImportBackup_ReplacesState(t *testing.T) {
	svc, st, p := newImportService()
	ctx := context.Background()

	backup := `{
		"students": [{"id": "s1", "name": "Анна", "totalAmount": 5000, "paidAmount": 0, "installments": [], "tariff": "group", "initialPayment": 0, "initialPaymentPaid": false}],
		"payments": [],
		"logs": [],
		"exportDate": "2026-01-01T00:00:00Z"
	}`
	require.NoError(t, svc.ImportBackup(ctx, []byte(backup)))

	students := st.Students()
	require.Len(t, students, 1)
	assert.Equal(t, "Анна", students[0].Name)
	assert.True(t, students[0].TotalAmount.Equal(amount("5000")))

	logs := st.Logs("")
	require.NotEmpty(t, logs)
	assert.Equal(t, domain.ActionDataImported, logs[0].Action)

	assert.Len(t, p.students, 1)
}

func TestClearData(t *testing.T) {
	svc, st, p := newImportService()
	ctx := context.Background()

	st.ImportStudents([]store.NewStudent{{Name: "Анна", Tariff: domain.TariffGroup, TotalAmount: amount("100")}})

	svc.ClearData(ctx)

	assert.Empty(t, st.Students())
	assert.Empty(t, st.Payments())
	assert.NotEmpty(t, st.Logs(""))

	// the mirror saved the emptied collections, not a stale copy
	assert.Empty(t, p.students)
	assert.NotEmpty(t, p.logs)
}
