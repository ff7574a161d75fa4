package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type mockBookingRepo struct {
	sessions map[int64]*models.Session
	updated  []*models.Session
}

func newMockBookingRepo(sessions ...*models.Session) *mockBookingRepo {
	m := &mockBookingRepo{sessions: make(map[int64]*models.Session)}
	for _, s := range sessions {
		cp := *s
		m.sessions[s.ID] = &cp
	}
	return m
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id int64) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) ListByCourse(ctx context.Context, course string) ([]*models.Session, error) {
	var out []*models.Session
	for id := int64(0); id <= 100; id++ {
		s, ok := m.sessions[id]
		if !ok || s.CourseName != course {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockBookingRepo) ListUpcomingByStudent(ctx context.Context, studentEmail string, after time.Time) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range m.sessions {
		if s.BookedBy(studentEmail) && s.StartTime.After(after) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, session *models.Session) error {
	cp := *session
	m.sessions[session.ID] = &cp
	m.updated = append(m.updated, &cp)
	return nil
}

type mockGradeRepo struct {
	grades map[string]string
}

func (m *mockGradeRepo) GradeForCourse(ctx context.Context, tutorEmail, course string) (string, error) {
	return m.grades[tutorEmail], nil
}

func newBookingService(repo *mockBookingRepo, grades map[string]string) *BookingService {
	svc := NewBookingService(repo, &mockGradeRepo{grades: grades}, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func slotAt(day, hour int) (time.Time, time.Time) {
	start := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour)
}

func openSession(id int64, tutor, course string, day, hour int) *models.Session {
	start, end := slotAt(day, hour)
	return &models.Session{ID: id, TutorEmail: tutor, CourseName: course, StartTime: start, EndTime: end}
}

func TestBookingServiceBookAndUnbook(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)

	booked, err := svc.Book(context.Background(), "student@skolard.ca", 1)
	require.NoError(t, err)
	require.NotNil(t, booked.StudentEmail)
	assert.Equal(t, "student@skolard.ca", *booked.StudentEmail)

	released, err := svc.Unbook(context.Background(), "student@skolard.ca", 1)
	require.NoError(t, err)
	assert.Nil(t, released.StudentEmail)
	assert.Len(t, repo.updated, 2)
}

func TestBookingServiceBookRejectsDoubleBooking(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)

	_, err := svc.Book(context.Background(), "first@skolard.ca", 1)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), "second@skolard.ca", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyBooked.Code, appErrors.FromError(err).Code)

	_, err = svc.Book(context.Background(), "first@skolard.ca", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already booked")
}

func TestBookingServiceBookUnknownSession(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), nil)

	_, err := svc.Book(context.Background(), "student@skolard.ca", 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceBookOwnSessionRejected(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)

	_, err := svc.Book(context.Background(), "tutor@skolard.ca", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own sessions")
}

func TestBookingServiceUnbookWrongStudent(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)

	_, err := svc.Book(context.Background(), "holder@skolard.ca", 1)
	require.NoError(t, err)

	_, err = svc.Unbook(context.Background(), "other@skolard.ca", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different student")
}

func TestBookingServiceUnbookUnbookedSession(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)

	_, err := svc.Unbook(context.Background(), "student@skolard.ca", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not booked")
}

func TestBookingServiceAvailableExclusions(t *testing.T) {
	booked := openSession(2, "b@skolard.ca", "COMP1010", 2, 11)
	holder := "someone@skolard.ca"
	booked.StudentEmail = &holder

	past := openSession(3, "c@skolard.ca", "COMP1010", 1, 9) // before the fixed clock
	ownTeaching := openSession(4, "student@skolard.ca", "COMP1010", 2, 13)
	otherCourse := openSession(5, "d@skolard.ca", "MATH1500", 2, 14)
	open := openSession(1, "a@skolard.ca", "COMP1010", 2, 10)

	repo := newMockBookingRepo(open, booked, past, ownTeaching, otherCourse)
	svc := newBookingService(repo, nil)

	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "comp1010",
		StudentEmail: "student@skolard.ca",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

func TestBookingServiceAvailableRequiresCourse(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), nil)

	_, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "   ",
		StudentEmail: "student@skolard.ca",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course name is required")
}

func TestBookingServiceAvailableTimeFilter(t *testing.T) {
	inRange := openSession(1, "a@skolard.ca", "COMP1010", 2, 10)
	outOfRange := openSession(2, "b@skolard.ca", "COMP1010", 3, 10)
	repo := newMockBookingRepo(inRange, outOfRange)
	svc := newBookingService(repo, nil)

	rangeStart := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterTime,
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

func TestBookingServiceAvailableTimeFilterBoundariesInclusive(t *testing.T) {
	exact := openSession(1, "a@skolard.ca", "COMP1010", 2, 10)
	repo := newMockBookingRepo(exact)
	svc := newBookingService(repo, nil)

	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterTime,
		RangeStart:   exact.StartTime,
		RangeEnd:     exact.EndTime,
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBookingServiceAvailableTimeFilterInvalidRange(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), nil)

	start, end := slotAt(2, 10)
	_, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterTime,
		RangeStart:   end,
		RangeEnd:     start,
	})
	require.Error(t, err)
}

func TestBookingServiceAvailableRateFilterAscending(t *testing.T) {
	strong := openSession(1, "strong@skolard.ca", "COMP1010", 2, 10)
	weak := openSession(2, "weak@skolard.ca", "COMP1010", 2, 11)
	middling := openSession(3, "mid@skolard.ca", "COMP1010", 2, 12)
	repo := newMockBookingRepo(strong, weak, middling)
	svc := newBookingService(repo, map[string]string{
		"strong@skolard.ca": "4.5",
		"weak@skolard.ca":   "2.0",
		"mid@skolard.ca":    "3.0",
	})

	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterRate,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int64(2), results[0].ID)
	assert.Equal(t, int64(3), results[1].ID)
	assert.Equal(t, int64(1), results[2].ID)
}

func TestBookingServiceAvailableRateFilterUnparsableGrade(t *testing.T) {
	letter := openSession(1, "letter@skolard.ca", "COMP1010", 2, 10)
	numeric := openSession(2, "numeric@skolard.ca", "COMP1010", 2, 11)
	repo := newMockBookingRepo(letter, numeric)
	svc := newBookingService(repo, map[string]string{
		"letter@skolard.ca":  "A+",
		"numeric@skolard.ca": "3.5",
	})

	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterRate,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	// "A+" parses to 0.0 and sorts first
	assert.Equal(t, int64(1), results[0].ID)
}

func TestBookingServiceAvailableTutorFilter(t *testing.T) {
	zed := openSession(1, "zed@skolard.ca", "COMP1010", 2, 10)
	amy := openSession(2, "amy@skolard.ca", "COMP1010", 2, 11)
	repo := newMockBookingRepo(zed, amy)
	svc := newBookingService(repo, nil)

	results, err := svc.Available(context.Background(), models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
		Filter:       models.FilterTutor,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "amy@skolard.ca", results[0].TutorEmail)
	assert.Equal(t, "zed@skolard.ca", results[1].TutorEmail)
}

func TestBookingServiceUpcoming(t *testing.T) {
	future := openSession(1, "tutor@skolard.ca", "COMP1010", 5, 10)
	holder := "student@skolard.ca"
	future.StudentEmail = &holder
	repo := newMockBookingRepo(future)
	svc := newBookingService(repo, nil)

	results, err := svc.Upcoming(context.Background(), "student@skolard.ca")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

func TestBookingServiceBookingRoundTrip(t *testing.T) {
	repo := newMockBookingRepo(openSession(1, "tutor@skolard.ca", "COMP1010", 2, 10))
	svc := newBookingService(repo, nil)
	query := models.AvailabilityQuery{
		CourseName:   "COMP1010",
		StudentEmail: "student@skolard.ca",
	}

	results, err := svc.Available(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = svc.Book(context.Background(), "student@skolard.ca", 1)
	require.NoError(t, err)

	results, err = svc.Available(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = svc.Unbook(context.Background(), "student@skolard.ca", 1)
	require.NoError(t, err)

	results, err = svc.Available(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Nil(t, results[0].StudentEmail)
}
