package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type cardRepository interface {
	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id string) (*models.Card, error)
	ListCardsByOwner(ctx context.Context, ownerEmail string) ([]*models.Card, error)
	CountCardsByOwner(ctx context.Context, ownerEmail string) (int, error)
	DeleteCard(ctx context.Context, id string) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByStudent(ctx context.Context, studentEmail string) ([]*models.Payment, error)
	FindPaymentBySession(ctx context.Context, sessionID int64) (*models.Payment, error)
}

type paymentSessionLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Session, error)
}

type paymentUserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AddCardRequest is the payload for storing a payment card.
type AddCardRequest struct {
	HolderName string `json:"holder_name" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
}

// PaymentService stores cards and records charges for booked sessions.
type PaymentService struct {
	cards     cardRepository
	sessions  paymentSessionLookup
	users     paymentUserLookup
	validator *validator.Validate
	logger    *zap.Logger
	maxCards  int
	now       func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(cards cardRepository, sessions paymentSessionLookup, users paymentUserLookup, validate *validator.Validate, logger *zap.Logger, maxCards int) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCards <= 0 {
		maxCards = 5
	}
	return &PaymentService{
		cards:     cards,
		sessions:  sessions,
		users:     users,
		validator: validate,
		logger:    logger,
		maxCards:  maxCards,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddCard validates and stores a card, keeping only its last four digits.
func (s *PaymentService) AddCard(ctx context.Context, ownerEmail string, req AddCardRequest) (*models.Card, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid card payload")
	}

	number := strings.ReplaceAll(strings.ReplaceAll(req.Number, " ", ""), "-", "")
	if !luhnValid(number) {
		return nil, appErrors.Clone(appErrors.ErrCardDeclined, "card number failed validation")
	}

	month, year, err := parseExpiry(req.Expiry)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrCardDeclined, err.Error())
	}
	if expired(month, year, s.now()) {
		return nil, appErrors.Clone(appErrors.ErrCardDeclined, "card is expired")
	}

	count, err := s.cards.CountCardsByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cards")
	}
	if count >= s.maxCards {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d stored cards allowed", s.maxCards))
	}

	card := &models.Card{
		OwnerEmail: strings.ToLower(ownerEmail),
		HolderName: strings.TrimSpace(req.HolderName),
		LastFour:   number[len(number)-4:],
		ExpMonth:   month,
		ExpYear:    year,
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store card")
	}
	return card, nil
}

// ListCards returns the user's stored cards.
func (s *PaymentService) ListCards(ctx context.Context, ownerEmail string) ([]*models.Card, error) {
	cards, err := s.cards.ListCardsByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cards")
	}
	return cards, nil
}

// RemoveCard deletes one of the user's own cards.
func (s *PaymentService) RemoveCard(ctx context.Context, ownerEmail, cardID string) error {
	card, err := s.cards.FindCardByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "card does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load card")
	}
	if !equalEmail(card.OwnerEmail, ownerEmail) {
		return appErrors.Clone(appErrors.ErrForbidden, "card belongs to another user")
	}
	if err := s.cards.DeleteCard(ctx, cardID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete card")
	}
	return nil
}

// Charge records a payment for a session the student has booked. The amount
// is the tutor's hourly rate times the session length.
func (s *PaymentService) Charge(ctx context.Context, studentEmail string, sessionID int64, cardID string) (*models.Payment, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "session does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !session.BookedBy(studentEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session is not booked by this student")
	}

	if _, err := s.cards.FindPaymentBySession(ctx, sessionID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session is already paid")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing payment")
	}

	card, err := s.cards.FindCardByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "card does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load card")
	}
	if !equalEmail(card.OwnerEmail, studentEmail) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "card belongs to another user")
	}
	if expired(card.ExpMonth, card.ExpYear, s.now()) {
		return nil, appErrors.Clone(appErrors.ErrCardDeclined, "card is expired")
	}

	tutor, err := s.users.FindByEmail(ctx, session.TutorEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	rate := 0.0
	if tutor.HourlyRate != nil {
		rate = *tutor.HourlyRate
	}
	amount := rate * session.Duration().Hours()

	payment := &models.Payment{
		SessionID:    sessionID,
		StudentEmail: strings.ToLower(studentEmail),
		TutorEmail:   strings.ToLower(session.TutorEmail),
		CardID:       card.ID,
		Amount:       amount,
		Status:       models.PaymentCompleted,
	}
	if err := s.cards.CreatePayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.logger.Info("session paid",
		zap.Int64("session_id", sessionID),
		zap.String("student", payment.StudentEmail),
		zap.Float64("amount", amount))
	return payment, nil
}

// Payments lists the student's payment history.
func (s *PaymentService) Payments(ctx context.Context, studentEmail string) ([]*models.Payment, error) {
	payments, err := s.cards.ListPaymentsByStudent(ctx, studentEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// luhnValid runs the Luhn checksum over a digit string.
func luhnValid(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry reads an "MM/YY" expiry string.
func parseExpiry(expiry string) (month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expiry must be in MM/YY format")
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid expiry month")
	}
	yy, err := strconv.Atoi(parts[1])
	if err != nil || yy < 0 || yy > 99 {
		return 0, 0, fmt.Errorf("invalid expiry year")
	}
	return month, 2000 + yy, nil
}

// expired reports whether the card expiry has passed; cards remain valid
// through the end of the expiry month.
func expired(month, year int, now time.Time) bool {
	endOfMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return !now.Before(endOfMonth)
}
