package domain

import (
	"strings"
	"time"
)

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "AVAILABLE"
	TicketStatusReserved  TicketStatus = "RESERVED"
	TicketStatusSold      TicketStatus = "SOLD"
)

// ParseTicketStatus maps a stored status onto the canonical set. Rows
// written by the old direct-reservation flow carry PENDING, which is the
// same awaiting-approval state as RESERVED.
func ParseTicketStatus(s string) TicketStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RESERVED", "PENDING":
		return TicketStatusReserved
	case "SOLD":
		return TicketStatusSold
	default:
		return TicketStatusAvailable
	}
}

type Ticket struct {
	Number     int
	OwnerID    *int64
	PaymentID  *int64
	Status     TicketStatus
	ReservedAt *time.Time
	UpdatedAt  time.Time
}

// Taken reports whether the ticket is out of the pool for new claims.
func (t Ticket) Taken() bool {
	return t.Status != TicketStatusAvailable
}

// Release returns the ticket to the pool.
func (t *Ticket) Release() {
	t.OwnerID = nil
	t.PaymentID = nil
	t.ReservedAt = nil
	t.Status = TicketStatusAvailable
}

// Consistent checks the row-level invariant between status and links.
func (t Ticket) Consistent() bool {
	if t.Status == TicketStatusAvailable {
		return t.OwnerID == nil && t.PaymentID == nil && t.ReservedAt == nil
	}
	return true
}

type Availability struct {
	Number int  `json:"number"`
	Exists bool `json:"exists"`
	Taken  bool `json:"taken"`
}

type BoardItem struct {
	Number int  `json:"number"`
	Taken  bool `json:"taken"`
}

type BoardPage struct {
	Items      []BoardItem `json:"items"`
	NextCursor *int        `json:"next_cursor"`
}
