package service

import (
	"context"
	"log"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
	"github.com/kcattaeva-hash/Oplata/internal/store"
)

// Persister mirrors the in-memory collections into a persistent backend on
// a whole-collection basis. Load-at-start returns exactly what was last
// saved; saves always write the true current state, including empty
// collections.
type Persister interface {
	LoadAll(ctx context.Context) ([]domain.Student, []domain.Payment, []domain.LogEntry, error)
	SaveStudents(ctx context.Context, students []domain.Student) error
	SavePayments(ctx context.Context, payments []domain.Payment) error
	SaveLogs(ctx context.Context, logs []domain.LogEntry) error
}

// mirror saves all three collections after a state change. Persistence is
// best-effort: failures are logged and swallowed, the in-memory state stays
// authoritative.
func mirror(ctx context.Context, st *store.Store, p Persister) {
	if p == nil {
		return
	}
	students, payments, logs := st.Snapshot()
	if err := p.SaveStudents(ctx, students); err != nil {
		log.Printf("[PERSIST] save students: %v", err)
	}
	if err := p.SavePayments(ctx, payments); err != nil {
		log.Printf("[PERSIST] save payments: %v", err)
	}
	if err := p.SaveLogs(ctx, logs); err != nil {
		log.Printf("[PERSIST] save logs: %v", err)
	}
}
