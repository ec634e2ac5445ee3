package repository

import (
	"errors"
	"testing"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewStore(pool))
	assert.NotNil(t, NewTicketRepository(pool))
	assert.NotNil(t, NewPaymentRepository(pool))
	assert.NotNil(t, NewSettingsRepository(pool))
	assert.NotNil(t, NewActivityRepository(pool))
}

func TestBuildPaymentList(t *testing.T) {
	userID := int64(7)

	query, args := buildPaymentList(domain.PaymentFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "LIMIT $1")
	assert.Equal(t, []any{100}, args)

	query, args = buildPaymentList(domain.PaymentFilter{UserID: &userID, Status: domain.PaymentStatusPending, Limit: 20})
	assert.Contains(t, query, "WHERE user_id=$1 AND status=$2")
	assert.Contains(t, query, "LIMIT $3")
	assert.Equal(t, []any{int64(7), "PENDING", 20}, args)
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, domain.ErrTicketNotFound), domain.ErrTicketNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, notFound(other, domain.ErrTicketNotFound))
}
