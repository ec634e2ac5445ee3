package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, notFound(err, domain.ErrPaymentNotFound)
	}
	return p, nil
}

func (r *PGPaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	query, args := buildPaymentList(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func buildPaymentList(filter domain.PaymentFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	return query, args
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
