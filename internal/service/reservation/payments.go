package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/repository"
	log "github.com/sirupsen/logrus"
)

func (s *ReservationService) SubmitPayment(ctx context.Context, req domain.Request, input SubmitPaymentInput) (payment *domain.Payment, err error) {
	defer func(started time.Time) { observe("submit", started, err) }(time.Now())
	if err := requireMember(req.Actor); err != nil {
		return nil, err
	}
	if !req.Settings.SubmissionsOpen {
		return nil, domain.ErrSubmissionsClosed
	}
	if err := validateAmount(input.Amount, req.Settings.MinAmount); err != nil {
		return nil, err
	}
	if err := s.limits.validateNumber("ticket_number", input.TicketNumber); err != nil {
		return nil, err
	}
	if err := s.limits.validateReceipt(input.Receipt, true); err != nil {
		return nil, err
	}

	// Unlocked pre-check so an obviously taken number never costs an upload.
	current, err := s.tickets.GetByNumber(ctx, input.TicketNumber)
	if errors.Is(err, domain.ErrTicketNotFound) || (err == nil && current.Taken()) {
		return nil, domain.ErrTicketUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("check ticket %d: %w", input.TicketNumber, err)
	}

	path, err := s.receipts.Store(ctx, *input.Receipt)
	if err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	owner := req.Actor.UserID
	payment = &domain.Payment{
		UserID:       owner,
		Amount:       input.Amount,
		ReceiptPath:  path,
		TicketNumber: input.TicketNumber,
		Status:       domain.PaymentStatusPending,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		_, err := s.assignTicket(ctx, tx, input.TicketNumber, Assignment{
			OwnerID:   &owner,
			PaymentID: &payment.ID,
			Status:    domain.TicketStatusReserved,
			Expected:  []domain.TicketStatus{domain.TicketStatusAvailable},
		})
		return err
	})
	if err != nil {
		s.discardReceipt(ctx, path)
		if errors.Is(err, domain.ErrTicketUnavailable) {
			log.WithFields(log.Fields{"user_id": owner, "ticket": input.TicketNumber}).Info("ticket lost to a concurrent submission")
		}
		return nil, err
	}

	s.afterCommit(ctx, true, domain.Activity{
		UserID:      owner,
		Type:        domain.ActivityPaymentSubmitted,
		Status:      string(payment.Status),
		Title:       "Payment submitted",
		Description: fmt.Sprintf("Your payment of %s for ticket #%d is awaiting review.", payment.Amount.StringFixed(2), payment.TicketNumber),
		Link:        paymentLink(payment.ID),
		Meta:        paymentMeta(payment),
	})
	return payment, nil
}

func (s *ReservationService) UpdatePayment(ctx context.Context, req domain.Request, id int64, input UpdatePaymentInput) (payment *domain.Payment, err error) {
	defer func(started time.Time) { observe("update", started, err) }(time.Now())
	if _, err := s.ownedPending(ctx, req.Actor, id); err != nil {
		return nil, err
	}
	if !req.Settings.SubmissionsOpen {
		return nil, domain.ErrSubmissionsClosed
	}
	if err := validateAmount(input.Amount, req.Settings.MinAmount); err != nil {
		return nil, err
	}
	if err := s.limits.validateNumber("ticket_number", input.TicketNumber); err != nil {
		return nil, err
	}
	if err := s.limits.validateReceipt(input.Receipt, false); err != nil {
		return nil, err
	}

	var newPath string
	if input.Receipt != nil && input.Receipt.Body != nil {
		if newPath, err = s.receipts.Store(ctx, *input.Receipt); err != nil {
			return nil, fmt.Errorf("store receipt: %w", err)
		}
	}

	var (
		oldPath string
		moved   bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockPayment(ctx, id)
		if err != nil {
			return err
		}
		if locked.UserID != req.Actor.UserID {
			return domain.ErrForbidden
		}
		if locked.Status != domain.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}

		if locked.TicketNumber != input.TicketNumber {
			if err := s.moveReservation(ctx, tx, locked, input.TicketNumber); err != nil {
				return err
			}
			moved = true
		}

		locked.Amount = input.Amount
		locked.TicketNumber = input.TicketNumber
		if newPath != "" {
			oldPath = locked.ReceiptPath
			locked.ReceiptPath = newPath
		}
		if err := tx.SavePayment(ctx, locked); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		payment = locked
		return nil
	})
	if err != nil {
		s.discardReceipt(ctx, newPath)
		return nil, err
	}
	s.discardReceipt(ctx, oldPath)

	s.afterCommit(ctx, moved, domain.Activity{
		UserID:      payment.UserID,
		Type:        domain.ActivityPaymentUpdated,
		Status:      string(payment.Status),
		Title:       "Payment updated",
		Description: fmt.Sprintf("Your pending payment now requests ticket #%d for %s.", payment.TicketNumber, payment.Amount.StringFixed(2)),
		Link:        paymentLink(payment.ID),
		Meta:        paymentMeta(payment),
	})
	return payment, nil
}

// moveReservation releases the ticket held by payment and reserves target
// instead. Both rows are locked in ascending number order.
func (s *ReservationService) moveReservation(ctx context.Context, tx repository.Tx, payment *domain.Payment, target int) error {
	locked, err := tx.LockTickets(ctx, []int{payment.TicketNumber, target})
	if err != nil {
		return err
	}

	var oldTicket, newTicket *domain.Ticket
	for i := range locked {
		switch locked[i].Number {
		case payment.TicketNumber:
			oldTicket = &locked[i]
		case target:
			newTicket = &locked[i]
		}
	}
	if newTicket == nil {
		return domain.ErrTicketUnavailable
	}

	if oldTicket != nil && oldTicket.PaymentID != nil && *oldTicket.PaymentID == payment.ID {
		if _, err := s.applyAssignment(ctx, tx, oldTicket, release(domain.TicketStatusReserved)); err != nil {
			return err
		}
	}

	owner, paymentID := payment.UserID, payment.ID
	_, err = s.applyAssignment(ctx, tx, newTicket, Assignment{
		OwnerID:   &owner,
		PaymentID: &paymentID,
		Status:    domain.TicketStatusReserved,
		Expected:  []domain.TicketStatus{domain.TicketStatusAvailable},
	})
	return err
}

func (s *ReservationService) DeletePayment(ctx context.Context, req domain.Request, id int64) (err error) {
	defer func(started time.Time) { observe("delete", started, err) }(time.Now())
	if _, err := s.ownedPending(ctx, req.Actor, id); err != nil {
		return err
	}

	var deleted *domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockPayment(ctx, id)
		if err != nil {
			return err
		}
		if locked.UserID != req.Actor.UserID {
			return domain.ErrForbidden
		}
		if locked.Status != domain.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}

		ticket, err := tx.LockTicketByPayment(ctx, locked.ID)
		switch {
		case errors.Is(err, domain.ErrTicketNotFound):
			log.WithField("payment_id", locked.ID).Warn("pending payment has no linked ticket")
		case err != nil:
			return err
		default:
			if _, err := s.applyAssignment(ctx, tx, ticket, release(domain.TicketStatusReserved)); err != nil {
				return err
			}
		}

		if err := tx.DeletePayment(ctx, locked.ID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		deleted = locked
		return nil
	})
	if err != nil {
		return err
	}
	s.discardReceipt(ctx, deleted.ReceiptPath)

	s.afterCommit(ctx, true, domain.Activity{
		UserID:      deleted.UserID,
		Type:        domain.ActivityPaymentDeleted,
		Status:      "DELETED",
		Title:       "Payment withdrawn",
		Description: fmt.Sprintf("Your payment for ticket #%d was withdrawn and the ticket released.", deleted.TicketNumber),
		Meta:        paymentMeta(deleted),
	})
	return nil
}

func (s *ReservationService) GetPayment(ctx context.Context, req domain.Request, id int64) (*domain.Payment, error) {
	if err := requireMember(req.Actor); err != nil {
		return nil, err
	}
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != req.Actor.UserID && !domain.CanResolvePayments(req.Actor) {
		return nil, domain.ErrForbidden
	}
	return payment, nil
}

// ListPayments returns the caller's own payments, or every payment for an
// admin.
func (s *ReservationService) ListPayments(ctx context.Context, req domain.Request, status domain.PaymentStatus) ([]domain.Payment, error) {
	if err := requireMember(req.Actor); err != nil {
		return nil, err
	}
	filter := domain.PaymentFilter{Status: status}
	if !domain.CanResolvePayments(req.Actor) {
		userID := req.Actor.UserID
		filter.UserID = &userID
	}
	return s.payments.List(ctx, filter)
}

// ownedPending is the authorization and status gate for member edits. It
// runs before any transaction; the locked path checks again.
func (s *ReservationService) ownedPending(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, domain.ErrPaymentNotPending
	}
	return payment, nil
}

func paymentLink(id int64) string {
	return fmt.Sprintf("/payments/%d", id)
}

func paymentMeta(p *domain.Payment) map[string]any {
	return map[string]any{
		"payment_id":    p.ID,
		"amount":        p.Amount.StringFixed(2),
		"ticket_number": p.TicketNumber,
		"status":        string(p.Status),
	}
}
