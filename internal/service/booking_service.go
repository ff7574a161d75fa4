package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/matching"
	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type bookingSessionRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Session, error)
	ListByCourse(ctx context.Context, course string) ([]*models.Session, error)
	ListUpcomingByStudent(ctx context.Context, studentEmail string, after time.Time) ([]*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
}

type gradeRepository interface {
	GradeForCourse(ctx context.Context, tutorEmail, course string) (string, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheLookupObserver interface {
	ObserveCacheLookup(hit bool)
}

// BookingService books and releases sessions and answers availability queries.
type BookingService struct {
	sessions bookingSessionRepository
	grades   gradeRepository
	cache    availabilityCache
	metrics  cacheLookupObserver
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// SetMetrics attaches an observer for availability cache lookups.
func (s *BookingService) SetMetrics(m cacheLookupObserver) {
	s.metrics = m
}

// NewBookingService constructs a BookingService. cache may be nil to disable
// availability caching.
func NewBookingService(sessions bookingSessionRepository, grades gradeRepository, cache availabilityCache, logger *zap.Logger, cacheTTL time.Duration) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &BookingService{
		sessions: sessions,
		grades:   grades,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Book assigns the session to the student. Already-booked sessions are
// rejected with a message that distinguishes the student's own booking from
// someone else's.
func (s *BookingService) Book(ctx context.Context, studentEmail string, sessionID int64) (*models.Session, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if equalEmail(session.TutorEmail, studentEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutors cannot book their own sessions")
	}

	if err := session.Book(studentEmail); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist booking")
	}

	s.InvalidateCourse(ctx, session.CourseName)
	s.logger.Info("session booked",
		zap.Int64("session_id", sessionID),
		zap.String("student", studentEmail),
		zap.String("course", session.CourseName))
	return session, nil
}

// Unbook releases the student's booking. The session itself rejects requests
// from anyone but the booking student.
func (s *BookingService) Unbook(ctx context.Context, studentEmail string, sessionID int64) (*models.Session, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Unbook(studentEmail); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist unbooking")
	}

	s.InvalidateCourse(ctx, session.CourseName)
	s.logger.Info("session unbooked", zap.Int64("session_id", sessionID), zap.String("student", studentEmail))
	return session, nil
}

// Upcoming returns the student's booked sessions that have not started yet.
func (s *BookingService) Upcoming(ctx context.Context, studentEmail string) ([]*models.Session, error) {
	sessions, err := s.sessions.ListUpcomingByStudent(ctx, studentEmail, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming sessions")
	}
	return sessions, nil
}

// Available returns the sessions the student could book for a course. Every
// result is unbooked, in the future, matches the course case-insensitively,
// and is not taught by the student themselves. The filter narrows or orders
// the result; without one, persistence order is kept.
func (s *BookingService) Available(ctx context.Context, q models.AvailabilityQuery) ([]*models.Session, error) {
	course := models.NormalizeCourse(q.CourseName)
	if course == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course name is required")
	}
	if q.Filter == models.FilterTime && !q.RangeEnd.After(q.RangeStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time range end must be after start")
	}

	key := s.cacheKey(course, q)
	if s.cache != nil {
		var cached []*models.Session
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.ObserveCacheLookup(err == nil)
		}
		if err == nil {
			return cached, nil
		}
	}

	all, err := s.sessions.ListByCourse(ctx, course)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course sessions")
	}

	now := s.now()
	candidates := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if session.Booked() {
			continue
		}
		if !session.StartTime.After(now) {
			continue
		}
		if equalEmail(session.TutorEmail, q.StudentEmail) {
			continue
		}
		candidates = append(candidates, session)
	}

	result, err := s.applyFilter(ctx, course, candidates, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache availability", zap.Error(err))
		}
	}
	return result, nil
}

// InvalidateCourse drops cached availability results for the course.
func (s *BookingService) InvalidateCourse(ctx context.Context, course string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("availability:%s:*", models.NormalizeCourse(course))
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("course", course), zap.Error(err))
	}
}

func (s *BookingService) applyFilter(ctx context.Context, course string, candidates []*models.Session, q models.AvailabilityQuery) ([]*models.Session, error) {
	switch q.Filter {
	case models.FilterTime:
		return matching.NewTimeList(candidates).FilterByStudentRange(q.RangeStart, q.RangeEnd), nil

	case models.FilterRate:
		grades := make(map[string]float64, len(candidates))
		for _, session := range candidates {
			tutor := strings.ToLower(session.TutorEmail)
			if _, ok := grades[tutor]; ok {
				continue
			}
			grade, err := s.grades.GradeForCourse(ctx, session.TutorEmail, course)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor grades")
			}
			grades[tutor] = matching.GradeValue(grade)
		}
		// ascending, unlike RatingList's descending order
		sort.SliceStable(candidates, func(i, j int) bool {
			return grades[strings.ToLower(candidates[i].TutorEmail)] < grades[strings.ToLower(candidates[j].TutorEmail)]
		})
		return candidates, nil

	case models.FilterTutor:
		sort.SliceStable(candidates, func(i, j int) bool {
			return strings.ToLower(candidates[i].TutorEmail) < strings.ToLower(candidates[j].TutorEmail)
		})
		return candidates, nil

	default:
		return candidates, nil
	}
}

func (s *BookingService) findSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "session does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *BookingService) cacheKey(course string, q models.AvailabilityQuery) string {
	rangePart := ""
	if q.Filter == models.FilterTime {
		rangePart = fmt.Sprintf(":%d-%d", q.RangeStart.Unix(), q.RangeEnd.Unix())
	}
	return fmt.Sprintf("availability:%s:%s:%s%s", course, strings.ToLower(q.StudentEmail), q.Filter, rangePart)
}

func equalEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
