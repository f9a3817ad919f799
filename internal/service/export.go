package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportStatus tracks one asynchronous roster export.
type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	Fields   []string  `json:"fields"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Created  time.Time `json:"created_at"`
}

// StatusCache is the slice of the redis client the export pipeline needs to
// keep per-export progress records.
type StatusCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type ExportService struct {
	store     *store.Store
	persister Persister
	redis     StatusCache
	storage   *clients.StorageClient
	s3        *clients.S3Client
	ws        *clients.WebSocketClient
}

func NewExportService(
	st *store.Store,
	persister Persister,
	redis StatusCache,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
) *ExportService {
	return &ExportService{
		store:     st,
		persister: persister,
		redis:     redis,
		storage:   storage,
		s3:        s3,
		ws:        ws,
	}
}

func (s *ExportService) noteExport(ctx context.Context, details string) {
	s.store.NoteExport(details)
	mirror(ctx, s.store, s.persister)
	_ = s.ws.NotifyChanged(ctx, "logs")
}

// RosterCSV renders the student roster in the fixed CSV format. Paid and
// debt columns are derived from ledger state.
func (s *ExportService) RosterCSV(ctx context.Context) ([]byte, string) {
	students := s.store.Students()

	var b strings.Builder
	b.WriteString("Имя,Телефон,Тариф,Общая сумма,Оплачено,Задолженность,Статус\n")
	for i := range students {
		student := &students[i]
		paid := student.PaidTotal()
		debt := student.Debt()
		status := "Долг"
		if student.FullyPaid() {
			status = "Оплачено"
		}
		fmt.Fprintf(&b, "%q,%s,%q,%s,%s,%s,%s\n",
			student.Name,
			student.Phone,
			student.Tariff.DisplayName(),
			student.TotalAmount,
			paid,
			debt,
			status,
		)
	}

	fileName := fmt.Sprintf("students-%s.csv", time.Now().Format("2006-01-02"))
	s.noteExport(ctx, fmt.Sprintf("Экспортировано учеников: %d (CSV)", len(students)))
	return []byte(b.String()), fileName
}

// BackupJSON renders the full-backup document with all three collections.
func (s *ExportService) BackupJSON(ctx context.Context) ([]byte, string, error) {
	students, payments, logs := s.store.Snapshot()
	backup := Backup{
		Students:   students,
		Payments:   payments,
		Logs:       logs,
		ExportDate: time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal backup: %w", err)
	}

	fileName := fmt.Sprintf("payment-system-backup-%s.json", time.Now().Format("2006-01-02"))
	s.noteExport(ctx, "Создан полный backup системы")
	return data, fileName, nil
}

type RosterColumn struct {
	Header string
	Value  func(st *domain.Student) any
}

var rosterColumns = map[string]RosterColumn{
	"name": {
		Header: "Имя",
		Value:  func(st *domain.Student) any { return st.Name },
	},
	"phone": {
		Header: "Телефон",
		Value:  func(st *domain.Student) any { return st.Phone },
	},
	"tariff": {
		Header: "Тариф",
		Value:  func(st *domain.Student) any { return st.Tariff.DisplayName() },
	},
	"total_amount": {
		Header: "Общая сумма",
		Value:  func(st *domain.Student) any { return st.TotalAmount.InexactFloat64() },
	},
	"paid_amount": {
		Header: "Оплачено",
		Value:  func(st *domain.Student) any { return st.PaidTotal().InexactFloat64() },
	},
	"debt_amount": {
		Header: "Задолженность",
		Value:  func(st *domain.Student) any { return st.Debt().InexactFloat64() },
	},
	"status": {
		Header: "Статус",
		Value: func(st *domain.Student) any {
			if st.FullyPaid() {
				return "Оплачено"
			}
			return "Долг"
		},
	},
	"initial_payment": {
		Header: "Первоначальный взнос",
		Value:  func(st *domain.Student) any { return st.InitialPayment.InexactFloat64() },
	},
	"initial_payment_paid": {
		Header: "Взнос оплачен",
		Value:  func(st *domain.Student) any { return st.InitialPaymentPaid },
	},
	"installments_count": {
		Header: "Платежей в графике",
		Value:  func(st *domain.Student) any { return len(st.Installments) },
	},
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}

	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartRosterExport kicks off an asynchronous XLSX export of the roster with
// the selected columns and returns an export id the caller can poll.
func (s *ExportService) StartRosterExport(ctx context.Context, selected []string) (string, error) {
	if len(selected) == 0 {
		selected = []string{"name", "tariff", "total_amount", "paid_amount", "debt_amount", "status"}
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	status := &ExportStatus{
		Key:      exportID,
		Type:     "students",
		Fields:   selected,
		Progress: 0,
		Created:  time.Now(),
	}
	_ = s.saveExportStatus(ctx, status)

	go s.runRosterExport(context.Background(), status)

	return exportID, nil
}

func (s *ExportService) runRosterExport(ctx context.Context, status *ExportStatus) {
	var cols []RosterColumn
	for _, key := range status.Fields {
		col, ok := rosterColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		_ = s.ws.NotifyExportFailed(ctx, status.Key, "нет ни одной известной колонки")
		return
	}

	students := s.store.Students()

	f := excelize.NewFile()
	sheet := "Ученики"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(students)
	for i := range students {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(&students[i]))
		}

		if total > 0 && ((i+1)%500 == 0 || i == total-1) {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
			// reserve 100% for when the file URL is ready
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = s.saveExportStatus(ctx, status)
			_ = s.ws.NotifyExportProgress(ctx, status.Key, progress, "generating")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		_ = s.ws.NotifyExportFailed(ctx, status.Key, "не удалось сформировать файл")
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("students_%s.xlsx", time.Now().Format("20060102_150405"))

	var url string
	if s.s3 != nil {
		key, err := s.s3.Upload(ctx, fileName, xlsxContentType, data)
		if err != nil {
			_ = s.ws.NotifyExportFailed(ctx, status.Key, "не удалось загрузить файл")
			return
		}
		url, err = s.s3.GetTemporaryURL(ctx, key, 48*time.Hour)
		if err != nil {
			_ = s.ws.NotifyExportFailed(ctx, status.Key, "не удалось получить ссылку на файл")
			return
		}
	} else {
		saved, err := s.storage.Save(ctx, fileName, data)
		if err != nil {
			_ = s.ws.NotifyExportFailed(ctx, status.Key, "не удалось сохранить файл")
			return
		}
		url = s.storage.GetURL(saved)
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveExportStatus(ctx, status)
	_ = s.ws.NotifyExportProgress(ctx, status.Key, 100, "ready")
	_ = s.ws.NotifyExportComplete(ctx, status.Key, url, fileName)

	s.noteExport(ctx, fmt.Sprintf("Экспортировано учеников: %d (XLSX)", total))
}

// GetExports lists known async exports, newest first.
func (s *ExportService) GetExports(ctx context.Context) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var exports []interface{}
	for _, status := range statuses {
		exports = append(exports, exportMap(status))
	}
	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	ok, err := s.redis.Exists(ctx, exportID)
	if err != nil {
		return nil, fmt.Errorf("failed to check export status: %w", err)
	}
	if !ok {
		return nil, errors.New("export not found")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}

	return exportMap(status), nil
}

func exportMap(status ExportStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"fields":     status.Fields,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"created_at": humanizeRuAgo(status.Created),
	}
}

func humanizeRuAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "только что"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "только что"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d %s назад", minutes, ruPlural(minutes, "минута", "минуты", "минут"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s назад", hours, ruPlural(hours, "час", "часа", "часов"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d %s назад", days, ruPlural(days, "день", "дня", "дней"))
	}
	return t.Format("02.01.2006 15:04")
}

func ruPlural(n int, one, few, many string) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return many
	}
	n = n % 10
	switch n {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
