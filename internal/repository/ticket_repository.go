package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

const ticketColumns = "id, author_email, title, description, status, closed_by, closed_at, created_at"

// TicketRepository manages persistence for support tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create stores a new open ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketOpen
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO tickets (id, author_email, title, description, status, closed_by, closed_at, created_at)
		VALUES (:id, :author_email, :title, :description, :status, :closed_by, :closed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

// FindByID fetches a ticket.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE id = $1", ticketColumns)
	var ticket models.Ticket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListByAuthor returns a user's tickets, newest first.
func (r *TicketRepository) ListByAuthor(ctx context.Context, authorEmail string) ([]*models.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE LOWER(author_email) = LOWER($1) ORDER BY created_at DESC, id", ticketColumns)
	var tickets []*models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, authorEmail); err != nil {
		return nil, fmt.Errorf("list tickets by author: %w", err)
	}
	return tickets, nil
}

// ListOpen returns every open ticket, oldest first, for support triage.
func (r *TicketRepository) ListOpen(ctx context.Context) ([]*models.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE status = 'OPEN' ORDER BY created_at, id", ticketColumns)
	var tickets []*models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query); err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}
	return tickets, nil
}

// Close marks a ticket resolved by the given support user.
func (r *TicketRepository) Close(ctx context.Context, id, closedBy string, closedAt time.Time) error {
	const query = `UPDATE tickets SET status = 'CLOSED', closed_by = $2, closed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, closedBy, closedAt); err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	return nil
}
