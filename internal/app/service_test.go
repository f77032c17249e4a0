package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/access"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/scoring"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MockStore) GetEvent(id int64) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockStore) ListActiveEvents() ([]models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockStore) UpdateEventLock(id int64, locked bool, by *string, at *time.Time) error {
	args := m.Called(id, locked, by, at)
	return args.Error(0)
}

func (m *MockStore) ListCriteria(eventID int64) ([]models.Criterion, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Criterion), args.Error(1)
}

func (m *MockStore) ListParticipants(eventID int64) ([]models.Participant, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockStore) ListCategoryParticipants(eventID int64, category string) ([]models.Participant, error) {
	return nil, nil
}

func (m *MockStore) ListMarks(f store.MarkFilter) ([]models.Mark, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Mark), args.Error(1)
}

func (m *MockStore) UpsertMarks(rows []models.Mark) error {
	args := m.Called(rows)
	return args.Error(0)
}

func (m *MockStore) GetJudge(id int64) (*models.Judge, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Judge), args.Error(1)
}

func (m *MockStore) ListJudges() ([]models.Judge, error) {
	return nil, nil
}

func (m *MockStore) GetAdminUser(username string) (*models.AdminUser, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *MockStore) FetchJudgeActivity(eventID int64) ([]store.JudgeActivity, error) {
	return nil, nil
}

func newTestService(markStore store.MarkStore) *Service {
	cfg := &Config{}
	cfg.Server.Port = ":0"
	cfg.Sessions.TokenHeader = "Authorization"
	cfg.Sessions.TTLHours = 12

	return &Service{
		Config:   cfg,
		Store:    markStore,
		Sessions: NewMemorySessions(),
		Engine:   scoring.NewEngine(scoring.TieShareRank, ""),
	}
}

func lockedEvent() *models.Event {
	by := "alice"
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &models.Event{ID: 1, Name: "Gala", Rounds: 2, IsActive: true, IsLocked: true, LockedBy: &by, LockedAt: &at}
}

func openEvent() *models.Event {
	return &models.Event{ID: 1, Name: "Gala", Rounds: 2, IsActive: true}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a session", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetAdminUser", "alice").
			Return(&models.AdminUser{Username: "alice", PasswordHash: "hunter2", EventAccess: `["1"]`}, nil).Once()

		svc := newTestService(st)
		token, sess, err := svc.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, []string{"1"}, sess.EventAccess)

		stored, err := svc.Sessions.Get(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "alice", stored.Username)

		st.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetAdminUser", "alice").
			Return(&models.AdminUser{Username: "alice", PasswordHash: "hunter2"}, nil).Once()

		svc := newTestService(st)
		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetAdminUser", "mallory").Return(nil, store.ErrNotFound).Once()

		svc := newTestService(st)
		_, _, err := svc.Login(ctx, "mallory", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_IdentityFromRequest(t *testing.T) {
	svc := newTestService(new(MockStore))

	t.Run("no token resolves to anonymous", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/events", nil)
		id := svc.IdentityFromRequest(r)
		assert.Equal(t, access.Unauthenticated, id.Kind)
	})

	t.Run("unknown token resolves to anonymous", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/events", nil)
		r.Header.Set("Authorization", "Bearer sk-lsktt-deadbeef")
		id := svc.IdentityFromRequest(r)
		assert.Equal(t, access.Unauthenticated, id.Kind)
	})

	t.Run("live session resolves to its identity", func(t *testing.T) {
		token, err := svc.Sessions.Create(context.Background(), &Session{
			Username:    "alice",
			EventAccess: []string{"1"},
			CreatedTime: time.Now().UTC(),
		})
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/api/v1/events", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		id := svc.IdentityFromRequest(r)
		assert.Equal(t, access.EventAdmin, id.Kind)
		assert.True(t, id.CanManage(1))
	})
}

func TestService_SaveMarks(t *testing.T) {
	judge := &models.Judge{ID: 5, Name: "Judge"}
	criteria := []models.Criterion{{ID: 1, EventID: 1, CriteriaName: "Technique", MaxMarks: 10}}
	participants := []models.Participant{{ID: 101, EventID: 1, Name: "Ann", TeamID: "t1", SoloMarking: true}}

	input := []MarkInput{{ParticipantID: 101, CriteriaID: 1, RoundNumber: 1, MarksObtained: 7}}

	t.Run("locked event blocks before any write", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(lockedEvent(), nil).Once()

		svc := newTestService(st)
		err := svc.SaveMarks(access.ForAdmin("alice", true, nil), 1, 5, input)

		var denied *access.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, access.ReasonLocked, denied.Reason)
		st.AssertNotCalled(t, "UpsertMarks", mock.Anything)
	})

	t.Run("valid batch reaches the store with the judge attached", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("GetJudge", int64(5)).Return(judge, nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()
		st.On("UpsertMarks", mock.MatchedBy(func(rows []models.Mark) bool {
			return len(rows) == 1 && rows[0].JudgeID == 5 && rows[0].MarksObtained == 7
		})).Return(nil).Once()

		svc := newTestService(st)
		err := svc.SaveMarks(access.Anonymous(), 1, 5, input)
		require.NoError(t, err)

		st.AssertExpectations(t)
	})

	t.Run("mark above criterion max never reaches the store", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("GetJudge", int64(5)).Return(judge, nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()

		svc := newTestService(st)
		err := svc.SaveMarks(access.Anonymous(), 1, 5, []MarkInput{
			{ParticipantID: 101, CriteriaID: 1, RoundNumber: 1, MarksObtained: 11},
		})
		assert.ErrorIs(t, err, ErrValidation)
		st.AssertNotCalled(t, "UpsertMarks", mock.Anything)
	})

	t.Run("round beyond event rounds rejected", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("GetJudge", int64(5)).Return(judge, nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()

		svc := newTestService(st)
		err := svc.SaveMarks(access.Anonymous(), 1, 5, []MarkInput{
			{ParticipantID: 101, CriteriaID: 1, RoundNumber: 3, MarksObtained: 5},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("participant from another event rejected", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("GetJudge", int64(5)).Return(judge, nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()

		svc := newTestService(st)
		err := svc.SaveMarks(access.Anonymous(), 1, 5, []MarkInput{
			{ParticipantID: 999, CriteriaID: 1, RoundNumber: 1, MarksObtained: 5},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_ToggleLock(t *testing.T) {
	admin := access.ForAdmin("alice", false, []string{"1"})

	t.Run("locking an unlocked event writes and verifies", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("UpdateEventLock", int64(1), true, mock.Anything, mock.Anything).Return(nil).Once()
		st.On("GetEvent", int64(1)).Return(lockedEvent(), nil).Once()

		svc := newTestService(st)
		ev, changed, err := svc.ToggleLock(admin, 1, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, ev.IsLocked)

		st.AssertExpectations(t)
	})

	t.Run("locking a locked event is a no-op", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(lockedEvent(), nil).Once()

		svc := newTestService(st)
		ev, changed, err := svc.ToggleLock(access.ForAdmin("root", true, nil), 1, true)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.True(t, ev.IsLocked)
		st.AssertNotCalled(t, "UpdateEventLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-manager denied", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()

		svc := newTestService(st)
		_, _, err := svc.ToggleLock(access.ForAdmin("bob", false, []string{"2"}), 1, true)

		var denied *access.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, access.ReasonUnauthorized, denied.Reason)
	})

	t.Run("store failure surfaces as its own error", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("UpdateEventLock", int64(1), true, mock.Anything, mock.Anything).
			Return(store.ErrNoRowsAffected).Once()

		svc := newTestService(st)
		_, _, err := svc.ToggleLock(admin, 1, true)
		assert.ErrorIs(t, err, store.ErrNoRowsAffected)
	})
}

func TestService_EventSheet(t *testing.T) {
	criteria := []models.Criterion{
		{ID: 1, EventID: 1, CriteriaName: "Technique", MaxMarks: 10},
		{ID: 2, EventID: 1, CriteriaName: "Presentation", MaxMarks: 5},
	}
	participants := []models.Participant{
		{ID: 101, EventID: 1, Name: "Ann", TeamID: "t1", SoloMarking: true},
		{ID: 102, EventID: 1, Name: "Ben", TeamID: "t2", SoloMarking: true},
	}
	marks := []models.Mark{
		{EventID: 1, ParticipantID: 101, CriteriaID: 1, RoundNumber: 1, MarksObtained: 7, JudgeID: 1},
		{EventID: 1, ParticipantID: 101, CriteriaID: 1, RoundNumber: 2, MarksObtained: 8, JudgeID: 1},
		{EventID: 1, ParticipantID: 102, CriteriaID: 1, RoundNumber: 1, MarksObtained: 9, JudgeID: 1},
	}

	t.Run("totals and ranks computed across rounds", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()
		st.On("ListMarks", store.MarkFilter{EventID: 1}).Return(marks, nil).Once()

		svc := newTestService(st)
		sheet, err := svc.EventSheet(access.Anonymous(), 1)
		require.NoError(t, err)

		assert.Equal(t, 15, sheet.TotalPossiblePerRound)
		require.Len(t, sheet.Categories, 1)

		teams := sheet.Categories[0].Teams
		require.Len(t, teams, 2)
		assert.Equal(t, "t1", teams[0].TeamID)
		assert.Equal(t, 15, teams[0].TotalMarks)
		assert.Equal(t, 1, teams[0].Rank)
		assert.Equal(t, 9, teams[1].TotalMarks)
		assert.Equal(t, 2, teams[1].Rank)
	})

	t.Run("marks load failure degrades to zero totals", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(openEvent(), nil).Once()
		st.On("ListCriteria", int64(1)).Return(criteria, nil).Once()
		st.On("ListParticipants", int64(1)).Return(participants, nil).Once()
		st.On("ListMarks", store.MarkFilter{EventID: 1}).Return(nil, assert.AnError).Once()

		svc := newTestService(st)
		sheet, err := svc.EventSheet(access.Anonymous(), 1)
		require.NoError(t, err, "a failed marks read must not take down the sheet")

		for _, team := range sheet.Categories[0].Teams {
			assert.Equal(t, 0, team.TotalMarks)
		}
	})

	t.Run("locked event blocks before dependent fetches", func(t *testing.T) {
		st := new(MockStore)
		st.On("GetEvent", int64(1)).Return(lockedEvent(), nil).Once()

		svc := newTestService(st)
		_, err := svc.EventSheet(access.Anonymous(), 1)

		var denied *access.DeniedError
		require.ErrorAs(t, err, &denied)
		st.AssertNotCalled(t, "ListCriteria", mock.Anything)
		st.AssertNotCalled(t, "ListParticipants", mock.Anything)
	})
}
