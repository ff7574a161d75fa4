package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type tutorRepository interface {
	FindTutorByEmail(ctx context.Context, email string) (*models.Tutor, error)
	UpsertCourseGrade(ctx context.Context, grade models.CourseGrade) error
}

type ratingAggregator interface {
	AverageForTutorCourse(ctx context.Context, tutorEmail, course string) (float64, int, error)
}

// CourseGradeRequest records a tutor's transcript grade for a course.
type CourseGradeRequest struct {
	CourseName string `json:"course_name" validate:"required"`
	Grade      string `json:"grade" validate:"required,max=10"`
}

// TutorService exposes tutor profiles and transcript management.
type TutorService struct {
	repo      tutorRepository
	ratings   ratingAggregator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorService constructs a TutorService.
func NewTutorService(repo tutorRepository, ratings ratingAggregator, validate *validator.Validate, logger *zap.Logger) *TutorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{repo: repo, ratings: ratings, validator: validate, logger: logger}
}

// Profile loads a tutor together with their courses.
func (s *TutorService) Profile(ctx context.Context, email string) (*models.Tutor, error) {
	tutor, err := s.repo.FindTutorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return tutor, nil
}

// RecordCourseGrade saves or updates the tutor's grade for a course.
func (s *TutorService) RecordCourseGrade(ctx context.Context, tutorEmail string, req CourseGradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course grade payload")
	}
	grade := models.CourseGrade{
		TutorEmail: tutorEmail,
		CourseName: req.CourseName,
		Grade:      req.Grade,
	}
	if err := s.repo.UpsertCourseGrade(ctx, grade); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course grade")
	}
	return nil
}

// CourseRating returns the mean student rating a tutor earned for a course.
func (s *TutorService) CourseRating(ctx context.Context, tutorEmail, course string) (float64, int, error) {
	if models.NormalizeCourse(course) == "" {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "course name is required")
	}
	avg, count, err := s.ratings.AverageForTutorCourse(ctx, tutorEmail, course)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rating")
	}
	return avg, count, nil
}
