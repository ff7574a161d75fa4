package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id int64) (*models.Session, error)
	ListByTutor(ctx context.Context, tutorEmail string) ([]*models.Session, error)
	ListUpcomingByTutor(ctx context.Context, tutorEmail string, after time.Time) ([]*models.Session, error)
	Delete(ctx context.Context, id int64) error
}

type availabilityInvalidator interface {
	InvalidateCourse(ctx context.Context, course string)
}

// CreateSessionRequest is the payload for scheduling a new session.
type CreateSessionRequest struct {
	CourseName string    `json:"course_name" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

// SessionService lets tutors manage their offered sessions.
type SessionService struct {
	repo        sessionRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	maxDuration time.Duration
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger, maxDuration time.Duration) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDuration <= 0 {
		maxDuration = 4 * time.Hour
	}
	return &SessionService{
		repo:        repo,
		invalidator: invalidator,
		validator:   validate,
		logger:      logger,
		maxDuration: maxDuration,
	}
}

// Create schedules an unbooked session for the tutor. The interval must be
// well-formed, within the duration cap, and free of conflicts with the
// tutor's existing sessions. Sessions that merely touch do not conflict.
func (s *SessionService) Create(ctx context.Context, tutorEmail string, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session end time must be after start time")
	}
	if req.EndTime.Sub(req.StartTime) > s.maxDuration {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session may not exceed %s", s.maxDuration))
	}

	existing, err := s.repo.ListByTutor(ctx, tutorEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor sessions")
	}
	for _, other := range existing {
		if other.Overlaps(req.StartTime, req.EndTime) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session conflicts with existing session %d", other.ID))
		}
	}

	session := &models.Session{
		TutorEmail: tutorEmail,
		CourseName: models.NormalizeCourse(req.CourseName),
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateCourse(ctx, session.CourseName)
	}
	s.logger.Info("session created",
		zap.Int64("session_id", session.ID),
		zap.String("tutor", tutorEmail),
		zap.String("course", session.CourseName))
	return session, nil
}

// Delete removes one of the tutor's own sessions. A tutor cannot delete a
// session they do not own, even when holding a valid ID.
func (s *SessionService) Delete(ctx context.Context, tutorEmail string, sessionID int64) error {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "session does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !equalEmail(session.TutorEmail, tutorEmail) {
		return appErrors.Clone(appErrors.ErrValidation, "session does not belong to this tutor")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateCourse(ctx, session.CourseName)
	}
	s.logger.Info("session deleted", zap.Int64("session_id", sessionID), zap.String("tutor", tutorEmail))
	return nil
}

// Schedule returns the tutor's sessions, optionally only upcoming ones.
func (s *SessionService) Schedule(ctx context.Context, tutorEmail string, upcomingOnly bool) ([]*models.Session, error) {
	var (
		sessions []*models.Session
		err      error
	)
	if upcomingOnly {
		sessions, err = s.repo.ListUpcomingByTutor(ctx, tutorEmail, time.Now().UTC())
	} else {
		sessions, err = s.repo.ListByTutor(ctx, tutorEmail)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor schedule")
	}
	return sessions, nil
}
