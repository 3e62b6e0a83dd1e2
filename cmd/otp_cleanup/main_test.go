package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/database/dbtest"
	"sportsequip/internal/domain"
	"sportsequip/internal/repository"
)

func TestClearExpired(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, expires := range []time.Time{now.Add(-time.Minute), now.Add(time.Hour)} {
		st := &domain.Student{
			StudentNumber: []string{"OT001", "OT002"}[i],
			FirstName:     "Timur",
			LastName:      "Ospan",
			Email:         []string{"a@uni.edu", "b@uni.edu"}[i],
			PhoneNumber:   []string{"+77000000011", "+77000000012"}[i],
			Department:    "Physics",
			Year:          1,
			Semester:      1,
			IDCardImage:   "id-cards/x.png",
			IsActive:      true,
		}
		st.SetOTP("123456", expires)
		require.NoError(t, store.Students.Create(ctx, st))
	}

	n, err := clearExpired(ctx, db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = clearExpired(ctx, db, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
