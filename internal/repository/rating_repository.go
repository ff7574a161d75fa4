package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

const ratingColumns = "id, session_id, student_email, tutor_email, course_name, status, rating, completed_at, created_at"

// RatingRepository manages persistence for rating requests.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs a RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create stores a pending rating request.
func (r *RatingRepository) Create(ctx context.Context, req *models.RatingRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RatingPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO rating_requests (id, session_id, student_email, tutor_email, course_name, status, rating, completed_at, created_at)
		VALUES (:id, :session_id, :student_email, :tutor_email, :course_name, :status, :rating, :completed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create rating request: %w", err)
	}
	return nil
}

// FindByID fetches a rating request.
func (r *RatingRepository) FindByID(ctx context.Context, id string) (*models.RatingRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM rating_requests WHERE id = $1", ratingColumns)
	var req models.RatingRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingByStudent returns a student's unanswered requests, oldest first.
func (r *RatingRepository) ListPendingByStudent(ctx context.Context, studentEmail string) ([]*models.RatingRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM rating_requests
		WHERE LOWER(student_email) = LOWER($1) AND status = 'PENDING' ORDER BY created_at, id`, ratingColumns)
	var reqs []*models.RatingRequest
	if err := r.db.SelectContext(ctx, &reqs, query, studentEmail); err != nil {
		return nil, fmt.Errorf("list pending rating requests: %w", err)
	}
	return reqs, nil
}

// Complete marks a request answered, optionally saving the rating.
func (r *RatingRepository) Complete(ctx context.Context, id string, rating *int, completedAt time.Time) error {
	const query = `UPDATE rating_requests SET status = 'COMPLETED', rating = $2, completed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, rating, completedAt); err != nil {
		return fmt.Errorf("complete rating request: %w", err)
	}
	return nil
}

// AverageForTutorCourse computes the mean submitted rating for a tutor/course pair.
func (r *RatingRepository) AverageForTutorCourse(ctx context.Context, tutorEmail, course string) (float64, int, error) {
	const query = `SELECT COALESCE(AVG(rating), 0), COUNT(rating) FROM rating_requests
		WHERE LOWER(tutor_email) = LOWER($1) AND course_name = $2 AND rating IS NOT NULL`
	var avg float64
	var count int
	row := r.db.QueryRowxContext(ctx, query, tutorEmail, models.NormalizeCourse(course))
	if err := row.Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, count, nil
}
