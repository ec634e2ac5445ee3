package reservation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/repository"
	log "github.com/sirupsen/logrus"
)

func (s *ReservationService) ResolvePayment(ctx context.Context, req domain.Request, id int64, decision domain.PaymentStatus) (payment *domain.Payment, err error) {
	defer func(started time.Time) { observe("resolve", started, err) }(time.Now())
	if !domain.CanResolvePayments(req.Actor) {
		return nil, domain.ErrForbidden
	}
	if !decision.Decision() {
		return nil, domain.NewValidationError("status", "status must be APPROVED or REJECTED")
	}
	current, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.PaymentStatusPending {
		return nil, domain.ErrStatusLocked
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockPayment(ctx, id)
		if err != nil {
			return err
		}
		if locked.Status != domain.PaymentStatusPending {
			return domain.ErrStatusLocked
		}
		locked.Status = decision
		if err := tx.SavePayment(ctx, locked); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		ticket, err := tx.LockTicketByPayment(ctx, locked.ID)
		if errors.Is(err, domain.ErrTicketNotFound) {
			log.WithField("payment_id", locked.ID).Warn("resolved payment has no linked ticket")
			payment = locked
			return nil
		}
		if err != nil {
			return err
		}

		held := []domain.TicketStatus{domain.TicketStatusReserved, domain.TicketStatusSold}
		if decision == domain.PaymentStatusApproved {
			_, err = s.applyAssignment(ctx, tx, ticket, Assignment{
				OwnerID:   ticket.OwnerID,
				PaymentID: ticket.PaymentID,
				Status:    domain.TicketStatusSold,
				Expected:  held,
			})
		} else {
			_, err = s.applyAssignment(ctx, tx, ticket, release(held...))
		}
		if err != nil {
			return err
		}
		payment = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	activityType, title := domain.ActivityPaymentApproved, "Payment approved"
	description := fmt.Sprintf("Your payment of %s was approved. Ticket #%d is yours.", payment.Amount.StringFixed(2), payment.TicketNumber)
	if decision == domain.PaymentStatusRejected {
		activityType, title = domain.ActivityPaymentRejected, "Payment rejected"
		description = fmt.Sprintf("Your payment of %s was rejected and ticket #%d was released.", payment.Amount.StringFixed(2), payment.TicketNumber)
	}
	s.afterCommit(ctx, true, domain.Activity{
		UserID:      payment.UserID,
		Type:        activityType,
		Status:      string(payment.Status),
		Title:       title,
		Description: description,
		Link:        paymentLink(payment.ID),
		Meta:        paymentMeta(payment),
	})
	return payment, nil
}

// AssignTickets hands tickets straight to a member as SOLD, with no
// payment request. Either every number is assigned or none is.
func (s *ReservationService) AssignTickets(ctx context.Context, req domain.Request, userID int64, numbers []int) (assigned []domain.Ticket, err error) {
	defer func(started time.Time) { observe("assign", started, err) }(time.Now())
	if !domain.CanResolvePayments(req.Actor) {
		return nil, domain.ErrForbidden
	}
	if userID <= 0 {
		return nil, domain.NewValidationError("user_id", "user is required")
	}
	if len(numbers) == 0 {
		return nil, domain.NewValidationError("numbers", "at least one ticket number is required")
	}
	for _, n := range numbers {
		if err := s.limits.validateNumber("numbers", n); err != nil {
			return nil, err
		}
	}
	wanted := slices.Clone(numbers)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockTickets(ctx, wanted)
		if err != nil {
			return err
		}
		if len(locked) != len(wanted) {
			return domain.TicketUnavailable("numbers", firstMissing(wanted, locked))
		}

		owner := userID
		assigned = make([]domain.Ticket, 0, len(locked))
		for i := range locked {
			ticket, err := s.applyAssignment(ctx, tx, &locked[i], Assignment{
				OwnerID:  &owner,
				Status:   domain.TicketStatusSold,
				Expected: []domain.TicketStatus{domain.TicketStatusAvailable},
			})
			if errors.Is(err, domain.ErrTicketUnavailable) {
				return domain.TicketUnavailable("numbers", locked[i].Number)
			}
			if err != nil {
				return err
			}
			assigned = append(assigned, *ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, true, domain.Activity{
		UserID:      userID,
		Type:        domain.ActivityTicketsAssigned,
		Status:      string(domain.TicketStatusSold),
		Title:       "Tickets assigned",
		Description: fmt.Sprintf("An administrator assigned you ticket(s) %s.", joinNumbers(wanted)),
		Link:        "/tickets/mine",
		Meta:        map[string]any{"ticket_numbers": wanted, "assigned_by": req.Actor.UserID},
	})
	return assigned, nil
}

// RejectTicket forces a held ticket back to AVAILABLE. A pending payment
// on it is rejected in the same transaction.
func (s *ReservationService) RejectTicket(ctx context.Context, req domain.Request, number int) (ticket *domain.Ticket, err error) {
	defer func(started time.Time) { observe("reject_ticket", started, err) }(time.Now())
	if !domain.CanResolvePayments(req.Actor) {
		return nil, domain.ErrForbidden
	}
	if err := s.limits.validateNumber("ticket_number", number); err != nil {
		return nil, err
	}

	// Payment rows are always locked before ticket rows, so find the linked
	// payment first and confirm the link once both are held.
	snapshot, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	var (
		formerOwner *int64
		rejected    *domain.Payment
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var linked *domain.Payment
		if snapshot.PaymentID != nil {
			p, err := tx.LockPayment(ctx, *snapshot.PaymentID)
			if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
				return err
			}
			linked = p
		}

		locked, err := tx.LockTicket(ctx, number)
		if err != nil {
			return err
		}
		if !samePayment(locked.PaymentID, linked) {
			return domain.NewValidationError("ticket_number", "ticket changed while it was being rejected, try again")
		}
		if locked.Status == domain.TicketStatusAvailable {
			return domain.NewValidationError("ticket_number", "ticket is already available")
		}
		formerOwner = locked.OwnerID

		if linked != nil && linked.Status == domain.PaymentStatusPending {
			linked.Status = domain.PaymentStatusRejected
			if err := tx.SavePayment(ctx, linked); err != nil {
				return fmt.Errorf("save payment: %w", err)
			}
			rejected = linked
		}

		ticket, err = s.applyAssignment(ctx, tx, locked, release(domain.TicketStatusReserved, domain.TicketStatusSold))
		return err
	})
	if err != nil {
		return nil, err
	}

	var activities []domain.Activity
	if formerOwner != nil {
		meta := map[string]any{"ticket_number": number, "rejected_by": req.Actor.UserID}
		if rejected != nil {
			meta["payment_id"] = rejected.ID
			meta["amount"] = rejected.Amount.StringFixed(2)
		}
		activities = append(activities, domain.Activity{
			UserID:      *formerOwner,
			Type:        domain.ActivityTicketRejected,
			Status:      string(domain.TicketStatusAvailable),
			Title:       "Ticket revoked",
			Description: fmt.Sprintf("Ticket #%d was returned to the pool by an administrator.", number),
			Meta:        meta,
		})
	}
	s.afterCommit(ctx, true, activities...)
	return ticket, nil
}

func samePayment(ref *int64, payment *domain.Payment) bool {
	if ref == nil || payment == nil {
		return ref == nil && payment == nil
	}
	return *ref == payment.ID
}

func firstMissing(wanted []int, locked []domain.Ticket) int {
	found := make(map[int]struct{}, len(locked))
	for _, t := range locked {
		found[t.Number] = struct{}{}
	}
	for _, n := range wanted {
		if _, ok := found[n]; !ok {
			return n
		}
	}
	return 0
}

func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(parts, ", ")
}
