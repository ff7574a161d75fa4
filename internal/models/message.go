package models

import "time"

// Message is a direct message between a student and a tutor.
type Message struct {
	ID             string    `db:"id" json:"id"`
	SenderEmail    string    `db:"sender_email" json:"sender_email"`
	RecipientEmail string    `db:"recipient_email" json:"recipient_email"`
	Body           string    `db:"body" json:"body"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
}
