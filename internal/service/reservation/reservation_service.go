// Package reservation couples payment requests to ticket state. Every
// mutation that touches both runs in one database transaction with the
// ticket row locked before it is inspected.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/metrics"
	"github.com/Domenick1991/equb/internal/repository"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ReservationUseCase interface {
	SubmitPayment(ctx context.Context, req domain.Request, input SubmitPaymentInput) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, req domain.Request, id int64, input UpdatePaymentInput) (*domain.Payment, error)
	DeletePayment(ctx context.Context, req domain.Request, id int64) error
	ResolvePayment(ctx context.Context, req domain.Request, id int64, decision domain.PaymentStatus) (*domain.Payment, error)
	AssignTickets(ctx context.Context, req domain.Request, userID int64, numbers []int) ([]domain.Ticket, error)
	RejectTicket(ctx context.Context, req domain.Request, number int) (*domain.Ticket, error)
	GetPayment(ctx context.Context, req domain.Request, id int64) (*domain.Payment, error)
	ListPayments(ctx context.Context, req domain.Request, status domain.PaymentStatus) ([]domain.Payment, error)
}

type ReceiptStore interface {
	Store(ctx context.Context, receipt domain.Receipt) (string, error)
	Delete(ctx context.Context, path string) error
}

// ActivitySink receives history feed entries after a successful commit.
type ActivitySink interface {
	Record(ctx context.Context, activity domain.Activity) error
}

type BoardInvalidator interface {
	InvalidateBoard(ctx context.Context) error
}

type Limits struct {
	PoolSize            int
	MaxReceiptBytes     int64
	AllowedReceiptTypes []string
}

type SubmitPaymentInput struct {
	Amount       decimal.Decimal
	TicketNumber int
	Receipt      *domain.Receipt
}

type UpdatePaymentInput struct {
	Amount       decimal.Decimal
	TicketNumber int
	Receipt      *domain.Receipt
}

type ReservationService struct {
	store    repository.Store
	tickets  repository.TicketRepository
	payments repository.PaymentRepository
	receipts ReceiptStore
	activity ActivitySink
	board    BoardInvalidator
	limits   Limits
	now      func() time.Time
}

type ReservationServiceOption func(*ReservationService)

func WithActivitySink(sink ActivitySink) ReservationServiceOption {
	return func(s *ReservationService) {
		s.activity = sink
	}
}

func WithBoardInvalidator(board BoardInvalidator) ReservationServiceOption {
	return func(s *ReservationService) {
		s.board = board
	}
}

func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

func NewReservationService(
	store repository.Store,
	tickets repository.TicketRepository,
	payments repository.PaymentRepository,
	receipts ReceiptStore,
	limits Limits,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		store:    store,
		tickets:  tickets,
		payments: payments,
		receipts: receipts,
		limits:   limits,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// afterCommit runs the best-effort side effects of a committed mutation.
// Failures are logged and never reach the caller.
func (s *ReservationService) afterCommit(ctx context.Context, boardChanged bool, activities ...domain.Activity) {
	ctx = context.WithoutCancel(ctx)

	if boardChanged && s.board != nil {
		if err := s.board.InvalidateBoard(ctx); err != nil {
			log.WithError(err).Warn("invalidate ticket board cache")
		}
	}
	if s.activity == nil {
		return
	}
	for _, a := range activities {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = s.now().UTC()
		}
		err := s.activity.Record(ctx, a)
		metrics.ActivityEvent("publish", err == nil)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"user_id": a.UserID, "type": a.Type}).Warn("record activity")
		}
	}
}

// discardReceipt deletes a stored receipt that no committed row points at.
// An orphaned file is acceptable, so failures are only logged.
func (s *ReservationService) discardReceipt(ctx context.Context, path string) {
	if path == "" {
		return
	}
	err := s.receipts.Delete(context.WithoutCancel(ctx), path)
	metrics.Compensation(err == nil)
	if err != nil {
		log.WithError(err).WithField("receipt", path).Warn("delete receipt")
	}
}

func observe(operation string, started time.Time, err error) {
	metrics.ObserveOperation(operation, outcome(err), started)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrTicketUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthenticated):
		return metrics.OutcomeForbidden
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrTicketNotFound):
		return metrics.OutcomeRejected
	}
	if _, ok := domain.AsValidation(err); ok {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

var _ ReservationUseCase = (*ReservationService)(nil)
