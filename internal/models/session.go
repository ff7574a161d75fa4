package models

import (
	"strings"
	"time"

	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

// Session represents a bookable tutoring time slot owned by a tutor. A session
// is booked exactly when StudentEmail is non-nil.
type Session struct {
	ID           int64     `db:"id" json:"id"`
	TutorEmail   string    `db:"tutor_email" json:"tutor_email"`
	StudentEmail *string   `db:"student_email" json:"student_email,omitempty"`
	CourseName   string    `db:"course_name" json:"course_name"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Booked reports whether a student currently holds the session.
func (s *Session) Booked() bool {
	return s.StudentEmail != nil
}

// BookedBy reports whether the given student holds the session.
func (s *Session) BookedBy(studentEmail string) bool {
	return s.StudentEmail != nil && strings.EqualFold(*s.StudentEmail, studentEmail)
}

// Book assigns the session to a student. Booking an already-booked session is
// rejected regardless of who holds it.
func (s *Session) Book(studentEmail string) error {
	if s.Booked() {
		if s.BookedBy(studentEmail) {
			return appErrors.Clone(appErrors.ErrAlreadyBooked, "you have already booked this session")
		}
		return appErrors.Clone(appErrors.ErrAlreadyBooked, "session is already booked by another student")
	}
	email := studentEmail
	s.StudentEmail = &email
	return nil
}

// Unbook releases the session. Only the student who booked it may release it.
func (s *Session) Unbook(studentEmail string) error {
	if !s.Booked() {
		return appErrors.Clone(appErrors.ErrValidation, "session is not booked")
	}
	if !s.BookedBy(studentEmail) {
		return appErrors.Clone(appErrors.ErrValidation, "session is booked by a different student")
	}
	s.StudentEmail = nil
	return nil
}

// Duration returns the scheduled length of the session.
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Overlaps reports interval overlap with [start,end). Sessions that merely
// touch at an endpoint do not overlap.
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// WithinRange reports whether the session lies entirely inside [start,end],
// boundaries included.
func (s *Session) WithinRange(start, end time.Time) bool {
	return !s.StartTime.Before(start) && !s.EndTime.After(end)
}

// NormalizeCourse canonicalizes course names for case-insensitive matching.
func NormalizeCourse(course string) string {
	return strings.ToUpper(strings.TrimSpace(course))
}

// SessionFilter selects the ordering/narrowing applied to availability queries.
type SessionFilter string

const (
	FilterNone  SessionFilter = ""
	FilterTime  SessionFilter = "time"
	FilterRate  SessionFilter = "rate"
	FilterTutor SessionFilter = "tutor"
)

// AvailabilityQuery bundles the arguments of an availability search.
type AvailabilityQuery struct {
	CourseName   string
	StudentEmail string
	Filter       SessionFilter
	RangeStart   time.Time
	RangeEnd     time.Time
}
