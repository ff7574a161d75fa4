package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

const sessionColumns = "id, tutor_email, student_email, course_name, start_time, end_time, created_at, updated_at"

// SessionRepository manages persistence for tutoring sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session and assigns its generated ID.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (tutor_email, student_email, course_name, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		session.TutorEmail,
		session.StudentEmail,
		session.CourseName,
		session.StartTime,
		session.EndTime,
		session.CreatedAt,
		session.UpdatedAt,
	).Scan(&session.ID); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID fetches a session by its numeric ID.
func (r *SessionRepository) FindByID(ctx context.Context, id int64) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByCourse returns all sessions for a course, oldest start first.
func (r *SessionRepository) ListByCourse(ctx context.Context, course string) ([]*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE UPPER(course_name) = $1 ORDER BY start_time, id", sessionColumns)
	var sessions []*models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, models.NormalizeCourse(course)); err != nil {
		return nil, fmt.Errorf("list sessions by course: %w", err)
	}
	return sessions, nil
}

// ListByTutor returns every session owned by the tutor.
func (r *SessionRepository) ListByTutor(ctx context.Context, tutorEmail string) ([]*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE LOWER(tutor_email) = LOWER($1) ORDER BY start_time, id", sessionColumns)
	var sessions []*models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, tutorEmail); err != nil {
		return nil, fmt.Errorf("list sessions by tutor: %w", err)
	}
	return sessions, nil
}

// ListUpcomingByTutor returns the tutor's sessions starting after the cutoff.
func (r *SessionRepository) ListUpcomingByTutor(ctx context.Context, tutorEmail string, after time.Time) ([]*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE LOWER(tutor_email) = LOWER($1) AND start_time > $2 ORDER BY start_time, id", sessionColumns)
	var sessions []*models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, tutorEmail, after); err != nil {
		return nil, fmt.Errorf("list upcoming sessions by tutor: %w", err)
	}
	return sessions, nil
}

// ListUpcomingByStudent returns a student's booked sessions starting after the cutoff.
func (r *SessionRepository) ListUpcomingByStudent(ctx context.Context, studentEmail string, after time.Time) ([]*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE LOWER(student_email) = LOWER($1) AND start_time > $2 ORDER BY start_time, id", sessionColumns)
	var sessions []*models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, studentEmail, after); err != nil {
		return nil, fmt.Errorf("list upcoming sessions by student: %w", err)
	}
	return sessions, nil
}

// ListEndedUnrated returns booked sessions that ended before the cutoff and
// have no rating request yet.
func (r *SessionRepository) ListEndedUnrated(ctx context.Context, before time.Time) ([]*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s
		WHERE s.student_email IS NOT NULL AND s.end_time < $1
		AND NOT EXISTS (SELECT 1 FROM rating_requests rr WHERE rr.session_id = s.id)
		ORDER BY s.end_time, s.id`, sessionColumnsPrefixed("s"))
	var sessions []*models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, before); err != nil {
		return nil, fmt.Errorf("list ended unrated sessions: %w", err)
	}
	return sessions, nil
}

// Update persists a mutated session (booking state only changes student_email).
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET student_email = :student_email, course_name = :course_name,
		start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionColumnsPrefixed(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.tutor_email, %[1]s.student_email, %[1]s.course_name, %[1]s.start_time, %[1]s.end_time, %[1]s.created_at, %[1]s.updated_at", alias)
}
