package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterSequence(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	name := testID(t)

	missing, err := GetCounter(ctx, db, name)
	require.NoError(t, err)
	assert.Nil(t, missing)

	for want := int64(1); want <= 3; want++ {
		value, err := NextCounterValue(ctx, db, name)
		require.NoError(t, err)
		assert.Equal(t, want, value)
	}

	// seeding an existing counter never rewinds it
	require.NoError(t, SeedCounter(ctx, db, name, 0))
	value, err := NextCounterValue(ctx, db, name)
	require.NoError(t, err)
	assert.Equal(t, int64(4), value)
}

func TestSeedCounterStartsSequence(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	name := testID(t)

	require.NoError(t, SeedCounter(ctx, db, name, 41))
	value, err := NextCounterValue(ctx, db, name)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
}
