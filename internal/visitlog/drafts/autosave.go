package drafts

import (
	"context"
	"sync"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDelay is how long input must be idle before a draft is saved.
const DefaultDelay = 2 * time.Second

// Saver is the persistence the Autosaver writes to.
type Saver interface {
	Save(ctx context.Context, draft models.WorkLogDraft) error
	Clear(ctx context.Context, companyID uuid.UUID) error
}

type pending struct {
	timer  *time.Timer
	draft  models.WorkLogDraft
	saving bool
}

// Autosaver debounces draft saves per company: each Touch restarts the
// company's timer and only the latest draft is written when it fires.
type Autosaver struct {
	saver  Saver
	delay  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*pending
	// inflight is closed when the company's running Save returns.
	inflight map[uuid.UUID]chan struct{}
}

// NewAutosaver creates an Autosaver that writes to saver after delay of
// inactivity.
func NewAutosaver(saver Saver, delay time.Duration, logger *zap.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Autosaver{
		saver:    saver,
		delay:    delay,
		logger:   logger.Named("draft_autosaver"),
		pending:  make(map[uuid.UUID]*pending),
		inflight: make(map[uuid.UUID]chan struct{}),
	}
}

// Touch records new form input for the draft's company.
func (a *Autosaver) Touch(draft models.WorkLogDraft) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := draft.CompanyID
	if p, ok := a.pending[id]; ok {
		p.timer.Stop()
	}
	p := &pending{draft: draft}
	p.timer = time.AfterFunc(a.delay, func() { a.fire(id, p) })
	a.pending[id] = p
}

// Pending reports whether a save is scheduled or running for the company.
func (a *Autosaver) Pending(companyID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[companyID]
	return ok
}

// PendingDraft returns the draft scheduled for the company, including one
// whose Save has not returned yet.
func (a *Autosaver) PendingDraft(companyID uuid.UUID) (models.WorkLogDraft, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[companyID]
	if !ok {
		return models.WorkLogDraft{}, false
	}
	return p.draft, true
}

// Cancel drops any scheduled save for the company without writing it. A
// save that is already running is left to finish.
func (a *Autosaver) Cancel(companyID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[companyID]; ok && !p.saving {
		p.timer.Stop()
		delete(a.pending, companyID)
	}
}

// Discard cancels any scheduled save, waits for a running one and clears
// the stored draft. It is called once the work log has been submitted.
func (a *Autosaver) Discard(ctx context.Context, companyID uuid.UUID) error {
	a.Cancel(companyID)
	if err := a.wait(ctx, companyID); err != nil {
		return err
	}
	return a.saver.Clear(ctx, companyID)
}

// Flush writes every scheduled draft now and waits for running saves.
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	scheduled := make(map[uuid.UUID]*pending, len(a.pending))
	for id, p := range a.pending {
		scheduled[id] = p
	}
	a.mu.Unlock()

	for id, p := range scheduled {
		a.run(ctx, id, p)
	}

	a.mu.Lock()
	running := make([]uuid.UUID, 0, len(a.inflight))
	for id := range a.inflight {
		running = append(running, id)
	}
	a.mu.Unlock()
	for _, id := range running {
		if err := a.wait(ctx, id); err != nil {
			return
		}
	}
}

func (a *Autosaver) fire(id uuid.UUID, p *pending) {
	a.run(context.Background(), id, p)
}

// run saves p unless it was superseded or cancelled. Saves for one company
// never overlap, so a later draft cannot be overwritten by an earlier one.
func (a *Autosaver) run(ctx context.Context, id uuid.UUID, p *pending) {
	done, ok := a.claim(id, p)
	if !ok {
		return
	}
	a.save(ctx, p.draft)

	a.mu.Lock()
	delete(a.inflight, id)
	if a.pending[id] == p {
		delete(a.pending, id)
	}
	a.mu.Unlock()
	close(done)
}

func (a *Autosaver) claim(id uuid.UUID, p *pending) (chan struct{}, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		if a.pending[id] != p || p.saving {
			return nil, false
		}
		busy, ok := a.inflight[id]
		if !ok {
			break
		}
		a.mu.Unlock()
		<-busy
		a.mu.Lock()
	}
	p.timer.Stop()
	p.saving = true
	done := make(chan struct{})
	a.inflight[id] = done
	return done, true
}

func (a *Autosaver) wait(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	done, ok := a.inflight[id]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Autosaver) save(ctx context.Context, draft models.WorkLogDraft) {
	if err := a.saver.Save(ctx, draft); err != nil {
		a.logger.Error("Failed to save draft",
			zap.Error(err),
			zap.String("company_id", draft.CompanyID.String()),
		)
	}
}
