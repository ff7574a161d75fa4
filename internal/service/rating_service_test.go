package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type mockRatingRepo struct {
	requests map[string]*models.RatingRequest
	nextID   int
}

func newMockRatingRepo(requests ...*models.RatingRequest) *mockRatingRepo {
	m := &mockRatingRepo{requests: make(map[string]*models.RatingRequest)}
	for _, r := range requests {
		cp := *r
		m.requests[r.ID] = &cp
	}
	return m
}

func (m *mockRatingRepo) Create(ctx context.Context, req *models.RatingRequest) error {
	m.nextID++
	req.ID = fmt.Sprintf("rr-%d", m.nextID)
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockRatingRepo) FindByID(ctx context.Context, id string) (*models.RatingRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRatingRepo) ListPendingByStudent(ctx context.Context, studentEmail string) ([]*models.RatingRequest, error) {
	var out []*models.RatingRequest
	for _, r := range m.requests {
		if r.StudentEmail == studentEmail && r.Status == models.RatingPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRatingRepo) Complete(ctx context.Context, id string, rating *int, completedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = models.RatingCompleted
	r.Rating = rating
	r.CompletedAt = &completedAt
	return nil
}

type mockEndedLister struct {
	sessions []*models.Session
}

func (m *mockEndedLister) ListEndedUnrated(ctx context.Context, before time.Time) ([]*models.Session, error) {
	return m.sessions, nil
}

func pendingRequest(id, student string) *models.RatingRequest {
	return &models.RatingRequest{
		ID:           id,
		SessionID:    1,
		StudentEmail: student,
		TutorEmail:   "tutor@skolard.ca",
		CourseName:   "COMP1010",
		Status:       models.RatingPending,
	}
}

func TestRatingServiceGeneratePending(t *testing.T) {
	student := "student@skolard.ca"
	ended := openSession(1, "tutor@skolard.ca", "COMP1010", 1, 9)
	ended.StudentEmail = &student
	repo := newMockRatingRepo()
	svc := NewRatingService(repo, &mockEndedLister{sessions: []*models.Session{ended}}, zap.NewNop())

	created, err := svc.GeneratePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	pending, err := svc.Pending(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].SessionID)
	assert.Equal(t, "COMP1010", pending[0].CourseName)
}

func TestRatingServiceSubmit(t *testing.T) {
	repo := newMockRatingRepo(pendingRequest("rr-1", "student@skolard.ca"))
	svc := NewRatingService(repo, &mockEndedLister{}, zap.NewNop())

	req, err := svc.Submit(context.Background(), "student@skolard.ca", "rr-1", 4)
	require.NoError(t, err)
	assert.Equal(t, models.RatingCompleted, req.Status)
	require.NotNil(t, req.Rating)
	assert.Equal(t, 4, *req.Rating)
	assert.NotNil(t, req.CompletedAt)
}

func TestRatingServiceSubmitOutOfRange(t *testing.T) {
	svc := NewRatingService(newMockRatingRepo(), &mockEndedLister{}, zap.NewNop())

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), "student@skolard.ca", "rr-1", rating)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestRatingServiceSkipLeavesNoRating(t *testing.T) {
	repo := newMockRatingRepo(pendingRequest("rr-1", "student@skolard.ca"))
	svc := NewRatingService(repo, &mockEndedLister{}, zap.NewNop())

	req, err := svc.Skip(context.Background(), "student@skolard.ca", "rr-1")
	require.NoError(t, err)
	assert.Equal(t, models.RatingCompleted, req.Status)
	assert.Nil(t, req.Rating)
}

func TestRatingServiceCompleteIsTerminal(t *testing.T) {
	repo := newMockRatingRepo(pendingRequest("rr-1", "student@skolard.ca"))
	svc := NewRatingService(repo, &mockEndedLister{}, zap.NewNop())

	_, err := svc.Skip(context.Background(), "student@skolard.ca", "rr-1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "student@skolard.ca", "rr-1", 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRatingServiceCompleteOwnership(t *testing.T) {
	repo := newMockRatingRepo(pendingRequest("rr-1", "student@skolard.ca"))
	svc := NewRatingService(repo, &mockEndedLister{}, zap.NewNop())

	_, err := svc.Submit(context.Background(), "intruder@skolard.ca", "rr-1", 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRatingServiceCompleteUnknownRequest(t *testing.T) {
	svc := NewRatingService(newMockRatingRepo(), &mockEndedLister{}, zap.NewNop())

	_, err := svc.Skip(context.Background(), "student@skolard.ca", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
