package reservation

import (
	"context"
	"errors"
	"slices"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/repository"
)

// Assignment describes one lock-check-write on a ticket. The write only
// happens when the locked row is in one of the Expected statuses.
type Assignment struct {
	OwnerID   *int64
	PaymentID *int64
	Status    domain.TicketStatus
	Expected  []domain.TicketStatus
}

func release(expected ...domain.TicketStatus) Assignment {
	return Assignment{Status: domain.TicketStatusAvailable, Expected: expected}
}

// assignTicket locks the ticket by number and applies a. A missing row is
// reported the same way as a taken one.
func (s *ReservationService) assignTicket(ctx context.Context, tx repository.Tx, number int, a Assignment) (*domain.Ticket, error) {
	ticket, err := tx.LockTicket(ctx, number)
	if errors.Is(err, domain.ErrTicketNotFound) {
		return nil, domain.ErrTicketUnavailable
	}
	if err != nil {
		return nil, err
	}
	return s.applyAssignment(ctx, tx, ticket, a)
}

// applyAssignment writes a to a ticket the caller already holds locked.
func (s *ReservationService) applyAssignment(ctx context.Context, tx repository.Tx, ticket *domain.Ticket, a Assignment) (*domain.Ticket, error) {
	if !slices.Contains(a.Expected, ticket.Status) {
		return nil, domain.ErrTicketUnavailable
	}

	if a.Status == domain.TicketStatusAvailable {
		ticket.Release()
	} else {
		ticket.OwnerID = a.OwnerID
		ticket.PaymentID = a.PaymentID
		if a.Status == domain.TicketStatusReserved || ticket.ReservedAt == nil {
			now := s.now().UTC()
			ticket.ReservedAt = &now
		}
		ticket.Status = a.Status
	}

	if err := tx.SaveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}
