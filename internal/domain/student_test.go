package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStudent_VerifyOTP(t *testing.T) {
	now := time.Now()

	t.Run("match verifies and clears", func(t *testing.T) {
		s := &Student{}
		s.SetOTP("123456", now.Add(5*time.Minute))

		assert.True(t, s.VerifyOTP("123456", now))
		assert.True(t, s.IsVerified)
		assert.False(t, s.HasOTP())
	})

	t.Run("mismatch keeps challenge", func(t *testing.T) {
		s := &Student{}
		s.SetOTP("123456", now.Add(5*time.Minute))

		assert.False(t, s.VerifyOTP("654321", now))
		assert.False(t, s.IsVerified)
		assert.True(t, s.HasOTP())
	})

	t.Run("expired clears", func(t *testing.T) {
		s := &Student{}
		s.SetOTP("123456", now.Add(-time.Second))

		assert.False(t, s.VerifyOTP("123456", now))
		assert.False(t, s.IsVerified)
		assert.False(t, s.HasOTP())
	})

	t.Run("no challenge", func(t *testing.T) {
		assert.False(t, (&Student{}).VerifyOTP("123456", now))
	})
}

func TestStudent_Normalize(t *testing.T) {
	s := &Student{StudentNumber: " cs2021a ", Email: " Jane@Uni.EDU "}
	s.Normalize()

	assert.Equal(t, "CS2021A", s.StudentNumber)
	assert.Equal(t, "jane@uni.edu", s.Email)
}

func TestAdmin_Can(t *testing.T) {
	limited := &Admin{Role: RoleAdmin, Permissions: Permissions{CanManageRequests: true}}
	assert.True(t, limited.Can(PermManageRequests))
	assert.False(t, limited.Can(PermManageEquipment))

	super := &Admin{Role: RoleSuperAdmin}
	assert.True(t, super.Can(PermSendNotifications))
}
