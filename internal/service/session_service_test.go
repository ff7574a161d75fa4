package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
)

type mockSessionRepo struct {
	sessions map[int64]*models.Session
	nextID   int64
	deleted  []int64
}

func newMockSessionRepo(sessions ...*models.Session) *mockSessionRepo {
	m := &mockSessionRepo{sessions: make(map[int64]*models.Session), nextID: 100}
	for _, s := range sessions {
		cp := *s
		m.sessions[s.ID] = &cp
	}
	return m
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	m.nextID++
	session.ID = m.nextID
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id int64) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ListByTutor(ctx context.Context, tutorEmail string) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range m.sessions {
		if s.TutorEmail == tutorEmail {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) ListUpcomingByTutor(ctx context.Context, tutorEmail string, after time.Time) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range m.sessions {
		if s.TutorEmail == tutorEmail && s.StartTime.After(after) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id int64) error {
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockInvalidator struct {
	courses []string
}

func (m *mockInvalidator) InvalidateCourse(ctx context.Context, course string) {
	m.courses = append(m.courses, course)
}

func futureSlot(offset, length time.Duration) (time.Time, time.Time) {
	start := time.Now().UTC().Add(offset).Truncate(time.Minute)
	return start, start.Add(length)
}

func TestSessionServiceCreate(t *testing.T) {
	repo := newMockSessionRepo()
	inv := &mockInvalidator{}
	svc := NewSessionService(repo, inv, validator.New(), zap.NewNop(), 4*time.Hour)

	start, end := futureSlot(24*time.Hour, time.Hour)
	session, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "comp1010",
		StartTime:  start,
		EndTime:    end,
	})
	require.NoError(t, err)
	assert.NotZero(t, session.ID)
	assert.False(t, session.Booked())
	assert.Equal(t, "COMP1010", session.CourseName)
	assert.Equal(t, []string{"COMP1010"}, inv.courses)
}

func TestSessionServiceCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewSessionService(newMockSessionRepo(), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	start, end := futureSlot(24*time.Hour, time.Hour)
	_, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "COMP1010",
		StartTime:  end,
		EndTime:    start,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end time")
}

func TestSessionServiceCreateRejectsTooLong(t *testing.T) {
	svc := NewSessionService(newMockSessionRepo(), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	start, end := futureSlot(24*time.Hour, 4*time.Hour+time.Minute)
	_, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "COMP1010",
		StartTime:  start,
		EndTime:    end,
	})
	require.Error(t, err)
}

func TestSessionServiceCreateRejectsOverlap(t *testing.T) {
	start, end := futureSlot(24*time.Hour, 2*time.Hour)
	existing := &models.Session{ID: 1, TutorEmail: "tutor@skolard.ca", CourseName: "COMP1010", StartTime: start, EndTime: end}
	svc := NewSessionService(newMockSessionRepo(existing), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	_, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "COMP1010",
		StartTime:  start.Add(time.Hour),
		EndTime:    end.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")
}

func TestSessionServiceCreateAllowsTouchingIntervals(t *testing.T) {
	start, end := futureSlot(24*time.Hour, time.Hour)
	existing := &models.Session{ID: 1, TutorEmail: "tutor@skolard.ca", CourseName: "COMP1010", StartTime: start, EndTime: end}
	svc := NewSessionService(newMockSessionRepo(existing), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	session, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "COMP1010",
		StartTime:  end,
		EndTime:    end.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotZero(t, session.ID)
}

func TestSessionServiceCreateIgnoresOtherTutors(t *testing.T) {
	start, end := futureSlot(24*time.Hour, time.Hour)
	existing := &models.Session{ID: 1, TutorEmail: "other@skolard.ca", CourseName: "COMP1010", StartTime: start, EndTime: end}
	svc := NewSessionService(newMockSessionRepo(existing), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	_, err := svc.Create(context.Background(), "tutor@skolard.ca", CreateSessionRequest{
		CourseName: "COMP1010",
		StartTime:  start,
		EndTime:    end,
	})
	require.NoError(t, err)
}

func TestSessionServiceDeleteOwnershipCheck(t *testing.T) {
	start, end := futureSlot(24*time.Hour, time.Hour)
	existing := &models.Session{ID: 1, TutorEmail: "tutor@skolard.ca", CourseName: "COMP1010", StartTime: start, EndTime: end}
	repo := newMockSessionRepo(existing)
	svc := NewSessionService(repo, nil, validator.New(), zap.NewNop(), 4*time.Hour)

	err := svc.Delete(context.Background(), "intruder@skolard.ca", 1)
	require.Error(t, err)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "tutor@skolard.ca", 1))
	assert.Equal(t, []int64{1}, repo.deleted)
}

func TestSessionServiceDeleteMissingSession(t *testing.T) {
	svc := NewSessionService(newMockSessionRepo(), nil, validator.New(), zap.NewNop(), 4*time.Hour)

	err := svc.Delete(context.Background(), "tutor@skolard.ca", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
