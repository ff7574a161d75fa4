package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skolard/skolard-api/internal/models"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Conversation(ctx context.Context, a, b string) ([]*models.Message, error)
	Inbox(ctx context.Context, email string) ([]*models.Message, error)
}

type messageUserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SendMessageRequest is the payload for sending a direct message.
type SendMessageRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	Body           string `json:"body" validate:"required,max=2000"`
}

// MessageService handles direct messages between students and tutors.
type MessageService struct {
	repo      messageRepository
	users     messageUserLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(repo messageRepository, users messageUserLookup, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, users: users, validator: validate, logger: logger}
}

// Send stores a message after checking the recipient exists.
func (s *MessageService) Send(ctx context.Context, senderEmail string, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if equalEmail(senderEmail, req.RecipientEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	if _, err := s.users.FindByEmail(ctx, req.RecipientEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recipient does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check recipient")
	}

	msg := &models.Message{
		SenderEmail:    strings.ToLower(senderEmail),
		RecipientEmail: strings.ToLower(req.RecipientEmail),
		Body:           strings.TrimSpace(req.Body),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// Conversation lists the messages exchanged with another user, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userEmail, otherEmail string) ([]*models.Message, error) {
	if strings.TrimSpace(otherEmail) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conversation partner is required")
	}
	msgs, err := s.repo.Conversation(ctx, userEmail, otherEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	return msgs, nil
}

// Inbox lists the messages addressed to the user, newest first.
func (s *MessageService) Inbox(ctx context.Context, userEmail string) ([]*models.Message, error) {
	msgs, err := s.repo.Inbox(ctx, userEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inbox")
	}
	return msgs, nil
}
