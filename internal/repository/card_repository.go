package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

// CardRepository manages persistence for stored payment cards and payments.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository constructs a CardRepository.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// CreateCard stores a validated card.
func (r *CardRepository) CreateCard(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO cards (id, owner_email, holder_name, last_four, exp_month, exp_year, created_at)
		VALUES (:id, :owner_email, :holder_name, :last_four, :exp_month, :exp_year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// FindCardByID fetches one card by ID.
func (r *CardRepository) FindCardByID(ctx context.Context, id string) (*models.Card, error) {
	const query = `SELECT id, owner_email, holder_name, last_four, exp_month, exp_year, created_at FROM cards WHERE id = $1`
	var card models.Card
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListCardsByOwner returns a user's stored cards, oldest first.
func (r *CardRepository) ListCardsByOwner(ctx context.Context, ownerEmail string) ([]*models.Card, error) {
	const query = `SELECT id, owner_email, holder_name, last_four, exp_month, exp_year, created_at FROM cards
		WHERE LOWER(owner_email) = LOWER($1) ORDER BY created_at, id`
	var cards []*models.Card
	if err := r.db.SelectContext(ctx, &cards, query, ownerEmail); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// CountCardsByOwner returns how many cards a user has stored.
func (r *CardRepository) CountCardsByOwner(ctx context.Context, ownerEmail string) (int, error) {
	const query = `SELECT COUNT(*) FROM cards WHERE LOWER(owner_email) = LOWER($1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, ownerEmail); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return count, nil
}

// DeleteCard removes a stored card by ID.
func (r *CardRepository) DeleteCard(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// CreatePayment records a completed charge.
func (r *CardRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO payments (id, session_id, student_email, tutor_email, card_id, amount, status, created_at)
		VALUES (:id, :session_id, :student_email, :tutor_email, :card_id, :amount, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListPaymentsByStudent returns a student's payments, newest first.
func (r *CardRepository) ListPaymentsByStudent(ctx context.Context, studentEmail string) ([]*models.Payment, error) {
	const query = `SELECT id, session_id, student_email, tutor_email, card_id, amount, status, created_at FROM payments
		WHERE LOWER(student_email) = LOWER($1) ORDER BY created_at DESC, id DESC`
	var payments []*models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentEmail); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// FindPaymentBySession returns the payment recorded for a session, if any.
func (r *CardRepository) FindPaymentBySession(ctx context.Context, sessionID int64) (*models.Payment, error) {
	const query = `SELECT id, session_id, student_email, tutor_email, card_id, amount, status, created_at FROM payments
		WHERE session_id = $1 AND status = 'COMPLETED' LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, sessionID); err != nil {
		return nil, err
	}
	return &payment, nil
}
