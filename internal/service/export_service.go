package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
	"github.com/skolard/skolard-api/pkg/export"
	"github.com/skolard/skolard-api/pkg/jobs"
	"github.com/skolard/skolard-api/pkg/storage"
)

type exportSessionLister interface {
	ListUpcomingByTutor(ctx context.Context, tutorEmail string, after time.Time) ([]*models.Session, error)
}

// ExportService generates tutor schedule files on a background worker pool
// and hands out signed download links.
type ExportService struct {
	sessions exportSessionLister
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger

	queue *jobs.Queue

	mu      sync.RWMutex
	exports map[string]*models.ScheduleExport
}

// NewExportService constructs an ExportService and its queue; call Start
// before requesting exports.
func NewExportService(sessions exportSessionLister, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, workers, retries int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		sessions: sessions,
		store:    store,
		signer:   signer,
		logger:   logger,
		exports:  make(map[string]*models.ScheduleExport),
	}
	s.queue = jobs.NewQueue("schedule-exports", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request queues a schedule export for the tutor.
func (s *ExportService) Request(ctx context.Context, tutorEmail string, format export.Format) (*models.ScheduleExport, error) {
	if format != export.FormatCSV && format != export.FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	exp := &models.ScheduleExport{
		ID:         uuid.NewString(),
		TutorEmail: tutorEmail,
		Format:     string(format),
		Status:     models.ExportQueued,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.exports[exp.ID] = exp
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: exp.ID, Type: "schedule-export", Payload: tutorEmail}); err != nil {
		s.fail(exp.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.Get(exp.ID, tutorEmail)
}

// Get returns the export's current state, owner-checked.
func (s *ExportService) Get(id, tutorEmail string) (*models.ScheduleExport, error) {
	s.mu.RLock()
	exp, ok := s.exports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	if !equalEmail(exp.TutorEmail, tutorEmail) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export belongs to another tutor")
	}
	cp := *exp
	return &cp, nil
}

// OpenDownload validates a signed token and opens the export file.
func (s *ExportService) OpenDownload(token string) (*os.File, string, error) {
	exportID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	s.mu.RLock()
	exp, ok := s.exports[exportID]
	s.mu.RUnlock()
	if !ok || exp.Status != models.ExportCompleted {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, exp.Format, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	tutorEmail, _ := job.Payload.(string)

	s.mu.RLock()
	exp, ok := s.exports[job.ID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown export %s", job.ID)
	}

	sessions, err := s.sessions.ListUpcomingByTutor(ctx, tutorEmail, time.Now().UTC())
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	renderer := export.For(export.Format(exp.Format))
	table := export.Table{
		Title:   fmt.Sprintf("Upcoming schedule for %s", tutorEmail),
		Headers: []string{"Session", "Course", "Start", "End", "Student"},
	}
	for _, session := range sessions {
		student := ""
		if session.StudentEmail != nil {
			student = *session.StudentEmail
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", session.ID),
			session.CourseName,
			session.StartTime.Format(time.RFC3339),
			session.EndTime.Format(time.RFC3339),
			student,
		})
	}

	data, err := renderer.Render(table)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	relPath := fmt.Sprintf("%s/%s.%s", tutorEmail, job.ID, renderer.Extension())
	if _, err := s.store.Save(relPath, data); err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	exp.Status = models.ExportCompleted
	exp.FilePath = relPath
	exp.DownloadURL = fmt.Sprintf("/exports/download?token=%s", token)
	exp.ExpiresAt = &expiresAt
	exp.CompletedAt = &now
	s.mu.Unlock()

	s.logger.Info("schedule export completed", zap.String("export_id", job.ID), zap.String("tutor", tutorEmail))
	return nil
}

func (s *ExportService) fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.exports[id]; ok {
		exp.Status = models.ExportFailed
		exp.Error = err.Error()
	}
}
