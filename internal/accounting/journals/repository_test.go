package journals

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

// header columns in selectEntry order
const (
	colReversalOf = 8
	colPostedBy   = 11
)

func TestHeaderDestScansNullPostedBy(t *testing.T) {
	m := pgtype.NewMap()
	var e JournalEntry
	var postedBy pgtype.Int8
	dest := headerDest(&e, &postedBy)
	require.Len(t, dest, 14)

	require.NoError(t, m.Scan(pgtype.Int8OID, pgtype.BinaryFormatCode, nil, dest[colPostedBy]))
	require.NoError(t, m.Scan(pgtype.Int8OID, pgtype.BinaryFormatCode, nil, dest[colReversalOf]))
	require.False(t, postedBy.Valid)
	require.Nil(t, e.ReversalOf)

	// a bare int64 target cannot hold the NULL a system posting stores
	var plain int64
	require.Error(t, m.Scan(pgtype.Int8OID, pgtype.BinaryFormatCode, nil, &plain))
}

func TestHeaderDestScansActor(t *testing.T) {
	m := pgtype.NewMap()
	var e JournalEntry
	var postedBy pgtype.Int8
	dest := headerDest(&e, &postedBy)

	require.NoError(t, m.Scan(pgtype.Int8OID, pgtype.TextFormatCode, []byte("42"), dest[colPostedBy]))
	require.True(t, postedBy.Valid)
	require.Equal(t, int64(42), postedBy.Int64)
}

func TestNullIntStoresZeroActorAsNull(t *testing.T) {
	require.Nil(t, nullInt(0))
	require.Equal(t, int64(7), nullInt(7))
}
