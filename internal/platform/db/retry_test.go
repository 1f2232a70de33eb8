package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	MaxElapsed:      500 * time.Millisecond,
}

func TestRetryRecoversFromSerializationFailure(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("insert header: %w", &pgconn.PgError{Code: "40001"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	invalid := errors.New("unbalanced")
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(context.Context) error {
		calls++
		return invalid
	})
	require.ErrorIs(t, err, invalid)
	require.Equal(t, 1, calls)
}

func TestRetryDoesNotRetryUniqueViolation(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_journal_entries_number"}
	})
	require.True(t, IsUniqueViolation(err, "uq_journal_entries_number"))
	require.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	require.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	require.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsTransient(context.Canceled))
	require.False(t, IsTransient(errors.New("boom")))
	require.False(t, IsTransient(nil))
}

func TestIsUniqueViolationConstraintFilter(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_source_links"})
	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "uq_source_links"))
	require.False(t, IsUniqueViolation(err, "uq_journal_entries_number"))
}
