package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller as supplied by the session layer.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// CanResolvePayments is the single authorization gate for admin-only
// workflow operations.
func CanResolvePayments(actor Actor) bool {
	return actor.IsAdmin && actor.UserID > 0
}

// Settings are the per-cycle toggles, loaded once per request.
type Settings struct {
	Cycle           int
	DrawDate        *time.Time
	SubmissionsOpen bool
	MinAmount       decimal.Decimal
}

func DefaultSettings() Settings {
	return Settings{Cycle: 1, SubmissionsOpen: true, MinAmount: decimal.Zero}
}

// Request carries everything a workflow operation needs to know about the
// caller's request besides its arguments.
type Request struct {
	Actor    Actor
	Settings Settings
}
