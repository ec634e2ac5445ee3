package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertWithRetry(t *testing.T) {
	calls := 0
	err := insertWithRetry(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("conn busy")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInsertWithRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := insertWithRetry(ctx, 5, func(context.Context) error {
		calls++
		return errors.New("conn busy")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
