package drafts

import (
	"context"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager serves drafts to the transports: writes go through the
// debouncing Autosaver, reads see the newest input even before it is saved.
type Manager struct {
	*Autosaver
	store *Store
}

func NewManager(store *Store, delay time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		Autosaver: NewAutosaver(store, delay, logger),
		store:     store,
	}
}

// Restore returns the company's pending draft if one is scheduled, the
// stored draft otherwise, or ErrNotFound.
func (m *Manager) Restore(ctx context.Context, companyID uuid.UUID) (*models.WorkLogDraft, error) {
	if d, ok := m.PendingDraft(companyID); ok {
		return &d, nil
	}
	return m.store.Restore(ctx, companyID)
}

// Close writes pending drafts and closes the store.
func (m *Manager) Close(ctx context.Context) error {
	m.Flush(ctx)
	return m.store.Close()
}
