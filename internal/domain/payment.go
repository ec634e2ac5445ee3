package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// Decision reports whether s is a valid admin resolution.
func (s PaymentStatus) Decision() bool {
	return s.Terminal()
}

type Payment struct {
	ID           int64
	UserID       int64
	Amount       decimal.Decimal
	ReceiptPath  string
	TicketNumber int
	Status       PaymentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PaymentFilter struct {
	UserID *int64
	Status PaymentStatus
	Limit  int
}
