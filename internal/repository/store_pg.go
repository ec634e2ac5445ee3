package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the locked write path of the reservation workflow. Every Lock*
// method takes a FOR UPDATE row lock held until the transaction ends.
type Tx interface {
	LockTicket(ctx context.Context, number int) (*domain.Ticket, error)
	LockTicketByPayment(ctx context.Context, paymentID int64) (*domain.Ticket, error)
	LockTickets(ctx context.Context, numbers []int) ([]domain.Ticket, error)
	SaveTicket(ctx context.Context, ticket *domain.Ticket) error

	CreatePayment(ctx context.Context, payment *domain.Payment) error
	LockPayment(ctx context.Context, id int64) (*domain.Payment, error)
	SavePayment(ctx context.Context, payment *domain.Payment) error
	DeletePayment(ctx context.Context, id int64) error
}

type Store interface {
	// WithinTx runs fn in one transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) Store {
	return &PGStore{db: db}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockTicket(ctx context.Context, number int) (*domain.Ticket, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number=$1 FOR UPDATE`, number)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	return ticket, nil
}

func (t *pgTx) LockTicketByPayment(ctx context.Context, paymentID int64) (*domain.Ticket, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE payment_id=$1 FOR UPDATE`, paymentID)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	return ticket, nil
}

func (t *pgTx) LockTickets(ctx context.Context, numbers []int) ([]domain.Ticket, error) {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rows, err := t.tx.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number = ANY($1) ORDER BY number FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	return scanTickets(rows)
}

func (t *pgTx) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	err := t.tx.QueryRow(ctx, `UPDATE tickets SET owner_id=$1, payment_id=$2, status=$3, reserved_at=$4, updated_at=now()
		WHERE number=$5 RETURNING updated_at`,
		ticket.OwnerID, ticket.PaymentID, string(ticket.Status), ticket.ReservedAt, ticket.Number).
		Scan(&ticket.UpdatedAt)
	return notFound(err, domain.ErrTicketNotFound)
}

func (t *pgTx) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	return t.tx.QueryRow(ctx, `INSERT INTO payments (user_id, amount, receipt_path, ticket_number, status)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		payment.UserID, payment.Amount.String(), payment.ReceiptPath, payment.TicketNumber, string(payment.Status)).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (t *pgTx) LockPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, notFound(err, domain.ErrPaymentNotFound)
	}
	return payment, nil
}

func (t *pgTx) SavePayment(ctx context.Context, payment *domain.Payment) error {
	err := t.tx.QueryRow(ctx, `UPDATE payments SET amount=$1::numeric, receipt_path=$2, ticket_number=$3, status=$4, updated_at=now()
		WHERE id=$5 RETURNING updated_at`,
		payment.Amount.String(), payment.ReceiptPath, payment.TicketNumber, string(payment.Status), payment.ID).
		Scan(&payment.UpdatedAt)
	return notFound(err, domain.ErrPaymentNotFound)
}

func (t *pgTx) DeletePayment(ctx context.Context, id int64) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

var _ Store = (*PGStore)(nil)
var _ Tx = (*pgTx)(nil)
