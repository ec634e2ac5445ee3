package repository

import (
	"context"
	"encoding/json"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepository interface {
	Insert(ctx context.Context, activity domain.Activity) error
}

type PGActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) ActivityRepository {
	return &PGActivityRepository{db: db}
}

func (r *PGActivityRepository) Insert(ctx context.Context, a domain.Activity) error {
	var meta []byte
	if len(a.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(a.Meta); err != nil {
			return err
		}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO activities (user_id, type, status, title, description, link, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))`,
		a.UserID, string(a.Type), a.Status, a.Title, a.Description, a.Link, meta, nullTime(a))
	return err
}

func nullTime(a domain.Activity) any {
	if a.CreatedAt.IsZero() {
		return nil
	}
	return a.CreatedAt
}

var _ ActivityRepository = (*PGActivityRepository)(nil)
