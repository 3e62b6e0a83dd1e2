package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"sportsequip/internal/database/dbtest"
	"sportsequip/internal/repository"
)

func TestSeed_Idempotent(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	ctx := context.Background()

	require.NoError(t, seedAdmins(ctx, store, "admin123", zap.NewNop()))
	require.NoError(t, seedAdmins(ctx, store, "other", zap.NewNop()))

	admin, err := store.Admins.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")),
		"a second run keeps the first password")

	keeper, err := store.Admins.GetByUsername(ctx, "storekeeper")
	require.NoError(t, err)
	assert.True(t, keeper.Permissions.CanManageRequests)
	assert.False(t, keeper.Permissions.CanManageStudents)

	n, err := seedEquipment(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(catalog), n)

	n, err = seedEquipment(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, wipe(ctx, db))
	n, err = seedEquipment(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(catalog), n)
}
