package models

import "time"

// Card is a stored payment card. Only the last four digits are retained.
type Card struct {
	ID         string    `db:"id" json:"id"`
	OwnerEmail string    `db:"owner_email" json:"-"`
	HolderName string    `db:"holder_name" json:"holder_name"`
	LastFour   string    `db:"last_four" json:"last_four"`
	ExpMonth   int       `db:"exp_month" json:"exp_month"`
	ExpYear    int       `db:"exp_year" json:"exp_year"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PaymentStatus tracks the lifecycle of a recorded payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment records a charge for a booked session.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	SessionID    int64         `db:"session_id" json:"session_id"`
	StudentEmail string        `db:"student_email" json:"student_email"`
	TutorEmail   string        `db:"tutor_email" json:"tutor_email"`
	CardID       string        `db:"card_id" json:"card_id"`
	Amount       float64       `db:"amount" json:"amount"`
	Status       PaymentStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
