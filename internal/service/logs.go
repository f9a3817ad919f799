package service

import (
	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

// LogService reads the activity log. The log is display-only: nothing here
// mutates or replays entries.
type LogService struct {
	store *store.Store
}

func NewLogService(st *store.Store) *LogService {
	return &LogService{store: st}
}

// List returns entries newest-first, filtered by the optional search query.
func (s *LogService) List(query string) []domain.LogEntry {
	return s.store.Logs(query)
}
