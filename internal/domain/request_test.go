package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Overdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r := &Request{
		Status:     RequestBorrowed,
		BorrowDate: now.AddDate(0, 0, -5),
		ReturnDate: now.Add(-36 * time.Hour),
	}

	assert.True(t, r.IsOverdue(now))
	assert.Equal(t, 2, r.DaysOverdue(now))
	assert.Equal(t, RequestOverdue, r.DisplayStatus(now))

	r.Status = RequestReturned
	assert.False(t, r.IsOverdue(now))
	assert.Equal(t, RequestReturned, r.DisplayStatus(now))
}

func TestRequest_RequireStatus(t *testing.T) {
	r := &Request{Status: RequestApproved}

	err := r.RequireStatus(RequestPending)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestState)
	assert.Equal(t, "Request is not pending", err.Error())
	assert.NoError(t, r.RequireStatus(RequestApproved))
}

func TestCeilDays(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, CeilDays(start, start))
	assert.Equal(t, 1, CeilDays(start, start.Add(time.Hour)))
	assert.Equal(t, 3, CeilDays(start, start.Add(49*time.Hour)))
}

func TestRequest_JSONIncludesDerivedFields(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	r := Request{ID: 1, Status: RequestPending, BorrowDate: start, ReturnDate: start.Add(48 * time.Hour)}

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "pending", out["displayStatus"])
	assert.Equal(t, float64(2), out["duration"])
	assert.Equal(t, false, out["isOverdue"])
}

func TestNotification_Targeting(t *testing.T) {
	n := &Notification{IsActive: true}
	n.SetRecipients(RecipientSelector{Students: []int64{4}, Admins: []int64{9}})

	assert.True(t, n.AddressedTo(PrincipalStudent, 4))
	assert.False(t, n.AddressedTo(PrincipalStudent, 9))
	assert.True(t, n.AddressedTo(PrincipalAdmin, 9))

	n.SetRecipients(RecipientSelector{All: true})
	assert.True(t, n.AddressedTo(PrincipalStudent, 100))

	past := time.Now().Add(-time.Minute)
	n.ExpiresAt = &past
	assert.False(t, n.VisibleAt(time.Now()))
}
