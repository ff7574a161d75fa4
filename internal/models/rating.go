package models

import "time"

// RatingRequestStatus tracks whether a student has responded to a request.
type RatingRequestStatus string

const (
	RatingPending   RatingRequestStatus = "PENDING"
	RatingCompleted RatingRequestStatus = "COMPLETED"
)

// RatingRequest asks a student to rate a finished session. A request moves
// from pending to completed exactly once, either with a rating (submitted)
// or without (skipped); completed requests never change again.
type RatingRequest struct {
	ID           string              `db:"id" json:"id"`
	SessionID    int64               `db:"session_id" json:"session_id"`
	StudentEmail string              `db:"student_email" json:"student_email"`
	TutorEmail   string              `db:"tutor_email" json:"tutor_email"`
	CourseName   string              `db:"course_name" json:"course_name"`
	Status       RatingRequestStatus `db:"status" json:"status"`
	Rating       *int                `db:"rating" json:"rating,omitempty"`
	CompletedAt  *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}

// Completed reports whether the request has been answered or skipped.
func (r *RatingRequest) Completed() bool {
	return r.Status == RatingCompleted
}
