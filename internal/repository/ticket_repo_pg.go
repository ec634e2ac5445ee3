package repository

import (
	"context"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository serves unlocked reads. Results may be stale; only the
// locked path in Tx is authoritative.
type TicketRepository interface {
	GetByNumber(ctx context.Context, number int) (*domain.Ticket, error)
	ListAfter(ctx context.Context, cursor, limit int) ([]domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Ticket, error)
	InitPool(ctx context.Context, size int) (int64, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

func (r *PGTicketRepository) GetByNumber(ctx context.Context, number int) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number=$1`, number)
	t, err := scanTicket(row)
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	return t, nil
}

func (r *PGTicketRepository) ListAfter(ctx context.Context, cursor, limit int) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number > $1 ORDER BY number LIMIT $2`, cursor, limit)
	if err != nil {
		return nil, err
	}
	return scanTickets(rows)
}

func (r *PGTicketRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE owner_id=$1 ORDER BY number`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanTickets(rows)
}

// InitPool creates tickets 1..size that do not exist yet and returns how
// many were inserted.
func (r *PGTicketRepository) InitPool(ctx context.Context, size int) (int64, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO tickets (number, status)
		SELECT n, 'AVAILABLE' FROM generate_series(1, $1::int) AS n
		ON CONFLICT (number) DO NOTHING`, size)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
