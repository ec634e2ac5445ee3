package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const ticketColumns = `number, owner_id, payment_id, status, reserved_at, updated_at`

const paymentColumns = `id, user_id, amount::text, receipt_path, ticket_number, status, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t      domain.Ticket
		status string
	)
	if err := row.Scan(&t.Number, &t.OwnerID, &t.PaymentID, &status, &t.ReservedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.ParseTicketStatus(status)
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
		status string
	)
	if err := row.Scan(&p.ID, &p.UserID, &amount, &p.ReceiptPath, &p.TicketNumber, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("payment %d amount %q: %w", p.ID, amount, err)
	}
	p.Amount = d
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func notFound(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}
