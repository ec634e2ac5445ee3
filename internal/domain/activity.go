package domain

import "time"

type ActivityType string

const (
	ActivityPaymentSubmitted ActivityType = "payment_submitted"
	ActivityPaymentUpdated   ActivityType = "payment_updated"
	ActivityPaymentDeleted   ActivityType = "payment_deleted"
	ActivityPaymentApproved  ActivityType = "payment_approved"
	ActivityPaymentRejected  ActivityType = "payment_rejected"
	ActivityTicketsAssigned  ActivityType = "tickets_assigned"
	ActivityTicketRejected   ActivityType = "ticket_rejected"
)

// Activity is an entry in a member's history feed.
type Activity struct {
	UserID      int64          `json:"user_id"`
	Type        ActivityType   `json:"type"`
	Status      string         `json:"status"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Link        string         `json:"link,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
