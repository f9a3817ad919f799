package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

type ImportService struct {
	store     *store.Store
	persister Persister
	ws        *clients.WebSocketClient
}

func NewImportService(st *store.Store, persister Persister, ws *clients.WebSocketClient) *ImportService {
	return &ImportService{
		store:     st,
		persister: persister,
		ws:        ws,
	}
}

func (s *ImportService) changed(ctx context.Context) {
	mirror(ctx, s.store, s.persister)
	_ = s.ws.NotifyChanged(ctx, "students")
	_ = s.ws.NotifyChanged(ctx, "payments")
	_ = s.ws.NotifyChanged(ctx, "logs")
}

// ImportResult reports a partial-success CSV import: valid rows imported,
// one error message per skipped row.
type ImportResult struct {
	Imported []domain.Student `json:"imported"`
	Errors   []string         `json:"errors"`
}

// ImportCSV reads rows of "name, tariff-label, total amount, phone?,
// initial payment?". The header line is skipped, malformed rows are skipped
// individually and reported, tariff labels are fuzzy-matched to the
// canonical set. Imported students start with zero installments and a zero
// paid amount.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult
	var batch []store.NewStudent

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 || line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
		}

		if len(parts) < 3 {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d: недостаточно данных", lineNo))
			continue
		}

		name := parts[0]
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d: отсутствует имя", lineNo))
			continue
		}
		tariffLabel := parts[1]
		if tariffLabel == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d: отсутствует тариф", lineNo))
			continue
		}
		total, err := decimal.NewFromString(parts[2])
		if err != nil || !total.IsPositive() {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d: неверная сумма", lineNo))
			continue
		}

		row := store.NewStudent{
			Name:        name,
			Tariff:      domain.NormalizeTariff(tariffLabel),
			TotalAmount: total,
		}
		if len(parts) > 3 {
			row.Phone = parts[3]
		}
		if len(parts) > 4 && parts[4] != "" {
			initial, err := decimal.NewFromString(parts[4])
			if err != nil || initial.IsNegative() {
				result.Errors = append(result.Errors, fmt.Sprintf("Строка %d: неверный первоначальный взнос", lineNo))
				continue
			}
			row.InitialPayment = initial
		}

		batch = append(batch, row)
	}
	if err := scanner.Err(); err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}

	result.Imported = s.store.ImportStudents(batch)
	if len(result.Imported) > 0 {
		s.changed(ctx)
	}
	return result, nil
}

// CSVTemplate is the downloadable example document for the import format.
func (s *ImportService) CSVTemplate() []byte {
	return []byte(`Имя,Тариф,Сумма,Телефон,Первоначальный взнос
Иван Иванов,Групповой,50000,+7 900 123-45-67,5000
Мария Петрова,ВИП,80000,+7 900 987-65-43,10000
Алексей Сидоров,Эксперт,60000,+7 900 555-55-55,6000
`)
}

// Backup is the full-backup document shape.
type Backup struct {
	Students   []domain.Student  `json:"students"`
	Payments   []domain.Payment  `json:"payments"`
	Logs       []domain.LogEntry `json:"logs"`
	ExportDate string            `json:"exportDate"`
}

// ImportBackup replaces the three collections wholesale. All-or-nothing: an
// unparseable document leaves the state untouched.
func (s *ImportService) ImportBackup(ctx context.Context, data []byte) error {
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return invalid("backup", "не удалось прочитать файл backup")
	}
	if backup.Students == nil {
		return invalid("backup", "файл не содержит данных об учениках")
	}

	s.store.ReplaceAll(backup.Students, backup.Payments, backup.Logs)
	s.changed(ctx)
	return nil
}

// ClearData removes every student and payment record. The activity log
// survives with a record of the clear.
func (s *ImportService) ClearData(ctx context.Context) {
	s.store.ClearAll()
	s.changed(ctx)
}
