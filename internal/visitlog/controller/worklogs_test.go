package controller

import (
	"context"
	"testing"
	"time"

	"github.com/gartstein/visitlog/internal/pkg/utils"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeDrafts struct {
	discarded []uuid.UUID
}

func (f *fakeDrafts) Discard(_ context.Context, id uuid.UUID) error {
	f.discarded = append(f.discarded, id)
	return nil
}

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func companyRepo(company *models.Company) *MockRepository {
	return &MockRepository{
		getCompany: func(_ context.Context, id uuid.UUID) (*models.Company, error) {
			if company == nil || id != company.ID {
				return nil, e.ErrNotFound
			}
			c := *company
			return &c, nil
		},
	}
}

func TestWorkLogService_CreateWorkLog(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Acme", Region: "Seoul"}

	valid := func() *models.WorkLog {
		return &models.WorkLog{
			CompanyID:         company.ID,
			VisitDate:         models.NewDate(2024, time.March, 15),
			VisitPurpose:      "Quarterly review",
			DiscussionContent: "Renewal terms",
		}
	}

	t.Run("stores the log and clears the draft", func(t *testing.T) {
		repo := companyRepo(company)
		var stored *models.WorkLog
		repo.createWorkLog = func(_ context.Context, w *models.WorkLog) error {
			stored = w
			return nil
		}
		drafts := &fakeDrafts{}
		producer := &MockProducer{}
		svc := NewWorkLogService(repo, producer, drafts, zaptest.NewLogger(t)).WithClock(clock)

		log, err := svc.CreateWorkLog(context.Background(), valid())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, log.ID)
		assert.Same(t, log, stored)
		assert.Equal(t, []uuid.UUID{company.ID}, drafts.discarded)
		assert.Equal(t, []events.EventType{events.WorkLogCreated}, producer.types())
	})

	t.Run("visit date after today", func(t *testing.T) {
		svc := NewWorkLogService(companyRepo(company), &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)
		w := valid()
		w.VisitDate = models.NewDate(2024, time.March, 16)

		_, err := svc.CreateWorkLog(context.Background(), w)

		var verr *e.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("visit_date"))
	})

	t.Run("follow-up on the visit date", func(t *testing.T) {
		svc := NewWorkLogService(companyRepo(company), &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)
		w := valid()
		w.FollowUpDate = utils.Ptr(w.VisitDate)

		_, err := svc.CreateWorkLog(context.Background(), w)

		var verr *e.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("follow_up_date"))
	})

	t.Run("unknown company", func(t *testing.T) {
		svc := NewWorkLogService(companyRepo(nil), &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)

		_, err := svc.CreateWorkLog(context.Background(), valid())

		assert.ErrorIs(t, err, e.ErrNotFound)
	})

	t.Run("missing company ID", func(t *testing.T) {
		svc := NewWorkLogService(&MockRepository{}, &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)
		w := valid()
		w.CompanyID = uuid.Nil

		_, err := svc.CreateWorkLog(context.Background(), w)

		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})
}

func TestWorkLogService_UpdateWorkLog(t *testing.T) {
	current := models.WorkLog{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		VisitDate:         models.NewDate(2024, time.March, 1),
		VisitPurpose:      "Demo",
		DiscussionContent: "Pricing",
		FollowUpDate:      utils.Ptr(models.NewDate(2024, time.March, 10)),
	}

	newRepo := func(updated *models.WorkLog) *MockRepository {
		return &MockRepository{
			getWorkLog: func(_ context.Context, id uuid.UUID) (*models.WorkLog, error) {
				if id != current.ID {
					return nil, e.ErrNotFound
				}
				if updated.ID != uuid.Nil {
					w := *updated
					return &w, nil
				}
				w := current
				return &w, nil
			},
			updateWorkLog: func(_ context.Context, w *models.WorkLog) error {
				*updated = *w
				return nil
			},
		}
	}

	t.Run("merged record is written", func(t *testing.T) {
		var updated models.WorkLog
		producer := &MockProducer{}
		svc := NewWorkLogService(newRepo(&updated), producer, nil, zaptest.NewLogger(t)).WithClock(clock)

		got, err := svc.UpdateWorkLog(context.Background(), &models.WorkLogUpdate{
			ID:            current.ID,
			NextAction:    utils.Ptr("Send quote"),
			ClearFollowUp: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Send quote", got.NextAction)
		assert.Equal(t, "Pricing", got.DiscussionContent)
		assert.Nil(t, got.FollowUpDate)
		assert.Equal(t, []events.EventType{events.WorkLogUpdated}, producer.types())
	})

	t.Run("moving the visit past the follow-up is rejected", func(t *testing.T) {
		var updated models.WorkLog
		svc := NewWorkLogService(newRepo(&updated), &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)

		_, err := svc.UpdateWorkLog(context.Background(), &models.WorkLogUpdate{
			ID:        current.ID,
			VisitDate: utils.Ptr(models.NewDate(2024, time.March, 12)),
		})

		assert.ErrorIs(t, err, e.ErrInvalidInput)
		assert.Equal(t, uuid.Nil, updated.ID, "nothing must be written")
	})

	t.Run("not found", func(t *testing.T) {
		var updated models.WorkLog
		svc := NewWorkLogService(newRepo(&updated), &MockProducer{}, nil, zaptest.NewLogger(t)).WithClock(clock)

		_, err := svc.UpdateWorkLog(context.Background(), &models.WorkLogUpdate{ID: uuid.New()})

		assert.ErrorIs(t, err, e.ErrNotFound)
	})
}

func TestWorkLogService_DeleteWorkLog(t *testing.T) {
	log := &models.WorkLog{ID: uuid.New(), CompanyID: uuid.New()}
	deleted := false
	repo := &MockRepository{
		getWorkLog: func(_ context.Context, _ uuid.UUID) (*models.WorkLog, error) {
			return log, nil
		},
		deleteWorkLog: func(_ context.Context, id uuid.UUID) error {
			deleted = id == log.ID
			return nil
		},
	}
	producer := &MockProducer{}
	svc := NewWorkLogService(repo, producer, nil, zaptest.NewLogger(t))

	require.NoError(t, svc.DeleteWorkLog(context.Background(), log.ID))
	assert.True(t, deleted)
	require.Len(t, producer.producedEvents, 1)
	assert.Equal(t, log.CompanyID, producer.producedEvents[0].CompanyID)
}

func TestWorkLogService_ListByCompany(t *testing.T) {
	company := &models.Company{ID: uuid.New()}
	repo := companyRepo(company)
	repo.listWorkLogsByCompany = func(_ context.Context, id uuid.UUID) ([]models.WorkLog, error) {
		return []models.WorkLog{{CompanyID: id}}, nil
	}
	svc := NewWorkLogService(repo, &MockProducer{}, nil, zaptest.NewLogger(t))

	logs, err := svc.ListByCompany(context.Background(), company.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = svc.ListByCompany(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}
