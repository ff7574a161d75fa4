package models

import "time"

// TicketStatus tracks a support ticket's lifecycle.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "OPEN"
	TicketClosed TicketStatus = "CLOSED"
)

// Ticket is a support request filed by a student or tutor.
type Ticket struct {
	ID          string       `db:"id" json:"id"`
	AuthorEmail string       `db:"author_email" json:"author_email"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TicketStatus `db:"status" json:"status"`
	ClosedBy    *string      `db:"closed_by" json:"closed_by,omitempty"`
	ClosedAt    *time.Time   `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
