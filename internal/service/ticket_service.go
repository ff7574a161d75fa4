package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type ticketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	ListByAuthor(ctx context.Context, authorEmail string) ([]*models.Ticket, error)
	ListOpen(ctx context.Context) ([]*models.Ticket, error)
	Close(ctx context.Context, id, closedBy string, closedAt time.Time) error
}

// CreateTicketRequest is the payload for filing a support ticket.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

// TicketService manages support tickets.
type TicketService struct {
	repo      ticketRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTicketService constructs a TicketService.
func NewTicketService(repo ticketRepository, validate *validator.Validate, logger *zap.Logger) *TicketService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{repo: repo, validator: validate, logger: logger}
}

// Create files a new open ticket for the user.
func (s *TicketService) Create(ctx context.Context, authorEmail string, req CreateTicketRequest) (*models.Ticket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	ticket := &models.Ticket{
		AuthorEmail: strings.ToLower(authorEmail),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      models.TicketOpen,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ticket")
	}
	return ticket, nil
}

// Mine lists the user's own tickets.
func (s *TicketService) Mine(ctx context.Context, authorEmail string) ([]*models.Ticket, error) {
	tickets, err := s.repo.ListByAuthor(ctx, authorEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tickets")
	}
	return tickets, nil
}

// Open lists every open ticket for support triage.
func (s *TicketService) Open(ctx context.Context) ([]*models.Ticket, error) {
	tickets, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open tickets")
	}
	return tickets, nil
}

// Close resolves an open ticket on behalf of a support user.
func (s *TicketService) Close(ctx context.Context, supportEmail, ticketID string) (*models.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "ticket does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}
	if ticket.Status == models.TicketClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "ticket is already closed")
	}

	closedAt := time.Now().UTC()
	if err := s.repo.Close(ctx, ticketID, supportEmail, closedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close ticket")
	}

	closedBy := strings.ToLower(supportEmail)
	ticket.Status = models.TicketClosed
	ticket.ClosedBy = &closedBy
	ticket.ClosedAt = &closedAt
	return ticket, nil
}
