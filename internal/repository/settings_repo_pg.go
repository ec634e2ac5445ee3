package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SettingsRepository interface {
	Current(ctx context.Context) (domain.Settings, error)
}

type PGSettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) SettingsRepository {
	return &PGSettingsRepository{db: db}
}

func (r *PGSettingsRepository) Current(ctx context.Context) (domain.Settings, error) {
	var (
		s         domain.Settings
		minAmount string
	)
	err := r.db.QueryRow(ctx, `SELECT cycle, draw_date, submissions_open, min_amount::text FROM settings WHERE id=1`).
		Scan(&s.Cycle, &s.DrawDate, &s.SubmissionsOpen, &minAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	if s.MinAmount, err = decimal.NewFromString(minAmount); err != nil {
		return domain.Settings{}, fmt.Errorf("settings min_amount %q: %w", minAmount, err)
	}
	return s, nil
}

var _ SettingsRepository = (*PGSettingsRepository)(nil)
