package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSaver struct {
	mu      sync.Mutex
	saved   []models.WorkLogDraft
	cleared []uuid.UUID
	err     error
	signal  chan struct{}
}

func newRecordingSaver() *recordingSaver {
	return &recordingSaver{signal: make(chan struct{}, 16)}
}

func (r *recordingSaver) Save(_ context.Context, d models.WorkLogDraft) error {
	r.mu.Lock()
	r.saved = append(r.saved, d)
	r.mu.Unlock()
	r.signal <- struct{}{}
	return r.err
}

func (r *recordingSaver) Clear(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, id)
	return nil
}

func (r *recordingSaver) snapshot() []models.WorkLogDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.WorkLogDraft(nil), r.saved...)
}

func waitSave(t *testing.T, r *recordingSaver) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("draft was not saved")
	}
}

func TestAutosaver_Debounce(t *testing.T) {
	saver := newRecordingSaver()
	a := NewAutosaver(saver, 50*time.Millisecond, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id, VisitPurpose: "I"})
	a.Touch(models.WorkLogDraft{CompanyID: id, VisitPurpose: "In"})
	a.Touch(models.WorkLogDraft{CompanyID: id, VisitPurpose: "Intro"})
	assert.True(t, a.Pending(id))

	waitSave(t, saver)
	// Give a superseded timer the chance to misfire.
	time.Sleep(100 * time.Millisecond)

	saved := saver.snapshot()
	require.Len(t, saved, 1)
	assert.Equal(t, "Intro", saved[0].VisitPurpose)
	assert.False(t, a.Pending(id))
}

func TestAutosaver_PerCompany(t *testing.T) {
	saver := newRecordingSaver()
	a := NewAutosaver(saver, 20*time.Millisecond, zaptest.NewLogger(t))

	a.Touch(models.WorkLogDraft{CompanyID: uuid.New()})
	a.Touch(models.WorkLogDraft{CompanyID: uuid.New()})

	waitSave(t, saver)
	waitSave(t, saver)
	assert.Len(t, saver.snapshot(), 2)
}

func TestAutosaver_CancelAndDiscard(t *testing.T) {
	saver := newRecordingSaver()
	a := NewAutosaver(saver, 20*time.Millisecond, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id})
	a.Cancel(id)
	assert.False(t, a.Pending(id))

	a.Touch(models.WorkLogDraft{CompanyID: id})
	require.NoError(t, a.Discard(context.Background(), id))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, saver.snapshot())
	assert.Equal(t, []uuid.UUID{id}, saver.cleared)
}

func TestAutosaver_Flush(t *testing.T) {
	saver := newRecordingSaver()
	a := NewAutosaver(saver, time.Hour, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id, NextAction: "call back"})
	a.Flush(context.Background())

	saved := saver.snapshot()
	require.Len(t, saved, 1)
	assert.Equal(t, "call back", saved[0].NextAction)
	assert.False(t, a.Pending(id))
}

func TestAutosaver_SaveErrorIsLogged(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	saver := newRecordingSaver()
	saver.err = errors.New("disk full")
	a := NewAutosaver(saver, time.Hour, zap.New(core))

	a.Touch(models.WorkLogDraft{CompanyID: uuid.New()})
	a.Flush(context.Background())

	assert.Equal(t, 1, recorded.FilterMessage("Failed to save draft").Len())
}

func TestAutosaver_WithStore(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	a := NewAutosaver(store, time.Hour, zaptest.NewLogger(t))
	id := uuid.New()
	a.Touch(models.WorkLogDraft{CompanyID: id, VisitPurpose: "Survey"})
	a.Flush(context.Background())

	draft, err := store.Restore(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Survey", draft.VisitPurpose)
}

// gatedStore holds each Save until release is closed.
type gatedStore struct {
	*Store
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) Save(ctx context.Context, d models.WorkLogDraft) error {
	g.started <- struct{}{}
	<-g.release
	return g.Store.Save(ctx, d)
}

func newGatedStore(t *testing.T) *gatedStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &gatedStore{Store: store, started: make(chan struct{}, 4), release: make(chan struct{})}
}

func waitStarted(t *testing.T, g *gatedStore) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("save did not start")
	}
}

func TestAutosaver_DiscardWaitsForRunningSave(t *testing.T) {
	gated := newGatedStore(t)
	a := NewAutosaver(gated, 10*time.Millisecond, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id, VisitPurpose: "Renewal"})
	waitStarted(t, gated)

	d, ok := a.PendingDraft(id)
	require.True(t, ok, "draft must stay visible while it is being saved")
	assert.Equal(t, "Renewal", d.VisitPurpose)

	discarded := make(chan error, 1)
	go func() { discarded <- a.Discard(context.Background(), id) }()

	select {
	case <-discarded:
		t.Fatal("discard returned before the running save")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	select {
	case err := <-discarded:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("discard did not return")
	}

	_, err := gated.Restore(context.Background(), id)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.False(t, a.Pending(id))
}

func TestAutosaver_DiscardHonoursContext(t *testing.T) {
	gated := newGatedStore(t)
	a := NewAutosaver(gated, 10*time.Millisecond, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id})
	waitStarted(t, gated)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Discard(ctx, id), context.DeadlineExceeded)

	close(gated.release)
	a.Flush(context.Background())
	assert.False(t, a.Pending(id))
}

func TestAutosaver_LaterDraftWaitsForRunningSave(t *testing.T) {
	gated := newGatedStore(t)
	a := NewAutosaver(gated, 10*time.Millisecond, zaptest.NewLogger(t))
	id := uuid.New()

	a.Touch(models.WorkLogDraft{CompanyID: id, NextAction: "first"})
	waitStarted(t, gated)
	a.Touch(models.WorkLogDraft{CompanyID: id, NextAction: "second"})

	d, ok := a.PendingDraft(id)
	require.True(t, ok)
	assert.Equal(t, "second", d.NextAction)

	close(gated.release)
	waitStarted(t, gated)
	a.Flush(context.Background())

	stored, err := gated.Restore(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.NextAction)
	assert.False(t, a.Pending(id))
}
