package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/middleware"
	"github.com/skolard/skolard-api/internal/models"
	"github.com/skolard/skolard-api/internal/service"
)

type fakeTutorSessionStore struct {
	sessions map[int64]*models.Session
	nextID   int64
}

func newFakeTutorSessionStore(sessions ...*models.Session) *fakeTutorSessionStore {
	s := &fakeTutorSessionStore{sessions: make(map[int64]*models.Session), nextID: 10}
	for _, sess := range sessions {
		cp := *sess
		s.sessions[sess.ID] = &cp
	}
	return s
}

func (s *fakeTutorSessionStore) Create(ctx context.Context, session *models.Session) error {
	s.nextID++
	session.ID = s.nextID
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *fakeTutorSessionStore) FindByID(ctx context.Context, id int64) (*models.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeTutorSessionStore) ListByTutor(ctx context.Context, tutorEmail string) ([]*models.Session, error) {
	var out []*models.Session
	for _, sess := range s.sessions {
		if sess.TutorEmail == tutorEmail {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeTutorSessionStore) ListUpcomingByTutor(ctx context.Context, tutorEmail string, after time.Time) ([]*models.Session, error) {
	var out []*models.Session
	for _, sess := range s.sessions {
		if sess.TutorEmail == tutorEmail && sess.StartTime.After(after) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeTutorSessionStore) Delete(ctx context.Context, id int64) error {
	delete(s.sessions, id)
	return nil
}

func newSessionHandler(store *fakeTutorSessionStore) *SessionHandler {
	svc := service.NewSessionService(store, nil, nil, zap.NewNop(), 4*time.Hour)
	return NewSessionHandler(svc)
}

func tutorTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "tutor-1",
		Email:  "tutor@skolard.ca",
		Role:   models.RoleTutor,
	})
	return c, rec
}

func TestSessionHandlerCreate(t *testing.T) {
	store := newFakeTutorSessionStore()
	handler := newSessionHandler(store)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	c, rec := tutorTestContext(t, http.MethodPost, "/sessions", service.CreateSessionRequest{
		CourseName: "comp1010",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.sessions, 1)
}

func TestSessionHandlerCreateInvalidPayload(t *testing.T) {
	handler := newSessionHandler(newFakeTutorSessionStore())

	c, rec := tutorTestContext(t, http.MethodPost, "/sessions", gin.H{"course_name": "COMP1010"})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerDelete(t *testing.T) {
	start := time.Now().UTC().Add(48 * time.Hour)
	store := newFakeTutorSessionStore(&models.Session{
		ID:         1,
		TutorEmail: "tutor@skolard.ca",
		CourseName: "COMP1010",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	handler := newSessionHandler(store)

	c, rec := tutorTestContext(t, http.MethodDelete, "/sessions/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Delete(c)

	// Status-only responses are flushed when the request finishes; force the
	// flush so the recorder sees the code.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.sessions)
}

func TestSessionHandlerDeleteBadID(t *testing.T) {
	handler := newSessionHandler(newFakeTutorSessionStore())

	c, rec := tutorTestContext(t, http.MethodDelete, "/sessions/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerSchedule(t *testing.T) {
	start := time.Now().UTC().Add(48 * time.Hour)
	store := newFakeTutorSessionStore(&models.Session{
		ID:         1,
		TutorEmail: "tutor@skolard.ca",
		CourseName: "COMP1010",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	handler := newSessionHandler(store)

	c, rec := tutorTestContext(t, http.MethodGet, "/sessions?upcoming=true", nil)

	handler.Schedule(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
}
