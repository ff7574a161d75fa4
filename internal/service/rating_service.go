package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type ratingRepository interface {
	Create(ctx context.Context, req *models.RatingRequest) error
	FindByID(ctx context.Context, id string) (*models.RatingRequest, error)
	ListPendingByStudent(ctx context.Context, studentEmail string) ([]*models.RatingRequest, error)
	Complete(ctx context.Context, id string, rating *int, completedAt time.Time) error
}

type endedSessionLister interface {
	ListEndedUnrated(ctx context.Context, before time.Time) ([]*models.Session, error)
}

// RatingService drives the post-session rating request lifecycle: pending
// requests are answered with a rating or skipped, and never change after.
type RatingService struct {
	repo     ratingRepository
	sessions endedSessionLister
	logger   *zap.Logger
	now      func() time.Time
}

// NewRatingService constructs a RatingService.
func NewRatingService(repo ratingRepository, sessions endedSessionLister, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GeneratePending creates rating requests for booked sessions that have
// ended without one. Returns how many were created.
func (s *RatingService) GeneratePending(ctx context.Context) (int, error) {
	ended, err := s.sessions.ListEndedUnrated(ctx, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ended sessions")
	}

	created := 0
	for _, session := range ended {
		req := &models.RatingRequest{
			SessionID:    session.ID,
			StudentEmail: *session.StudentEmail,
			TutorEmail:   session.TutorEmail,
			CourseName:   session.CourseName,
			Status:       models.RatingPending,
		}
		if err := s.repo.Create(ctx, req); err != nil {
			s.logger.Warn("failed to create rating request", zap.Int64("session_id", session.ID), zap.Error(err))
			continue
		}
		created++
	}
	return created, nil
}

// Pending lists the student's unanswered rating requests.
func (s *RatingService) Pending(ctx context.Context, studentEmail string) ([]*models.RatingRequest, error) {
	reqs, err := s.repo.ListPendingByStudent(ctx, studentEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rating requests")
	}
	return reqs, nil
}

// Submit completes a request with a rating between 1 and 5.
func (s *RatingService) Submit(ctx context.Context, studentEmail, requestID string, rating int) (*models.RatingRequest, error) {
	if rating < 1 || rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	return s.complete(ctx, studentEmail, requestID, &rating)
}

// Skip completes a request without saving a rating.
func (s *RatingService) Skip(ctx context.Context, studentEmail, requestID string) (*models.RatingRequest, error) {
	return s.complete(ctx, studentEmail, requestID, nil)
}

func (s *RatingService) complete(ctx context.Context, studentEmail, requestID string, rating *int) (*models.RatingRequest, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rating request does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating request")
	}
	if !equalEmail(req.StudentEmail, studentEmail) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "rating request belongs to another student")
	}
	if req.Completed() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "rating request is already completed")
	}

	completedAt := s.now()
	if err := s.repo.Complete(ctx, requestID, rating, completedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete rating request")
	}

	req.Status = models.RatingCompleted
	req.Rating = rating
	req.CompletedAt = &completedAt
	return req, nil
}
