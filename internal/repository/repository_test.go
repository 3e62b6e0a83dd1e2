package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/database"
	"sportsequip/internal/database/dbtest"
	"sportsequip/internal/domain"
)

func seedStudent(t *testing.T, s *Store, number string) *domain.Student {
	t.Helper()
	st := &domain.Student{
		StudentNumber: number,
		FirstName:     "Test",
		LastName:      "Student",
		Email:         number + "@uni.edu",
		PhoneNumber:   "+1555" + number,
		Department:    "Physics",
		Year:          2,
		Semester:      3,
		IDCardImage:   "id-cards/x.png",
		IsActive:      true,
		IsVerified:    true,
	}
	require.NoError(t, s.Students.Create(context.Background(), st))
	return st
}

func seedEquipment(t *testing.T, s *Store, total int) *domain.Equipment {
	t.Helper()
	e := &domain.Equipment{
		Name:        "Football",
		Description: "Size 5 match ball",
		Category:    domain.CategoryFootball,
		Quantity:    domain.NewQuantity(total),
		IsActive:    true,
	}
	require.NoError(t, s.Equipment.Create(context.Background(), e))
	return e
}

func TestEquipment_BorrowGuardsStock(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	e := seedEquipment(t, s, 3)

	require.NoError(t, s.Equipment.Borrow(ctx, e.ID, 2, time.Now().UTC()))
	assert.ErrorIs(t, s.Equipment.Borrow(ctx, e.ID, 2, time.Now().UTC()), ErrConflict)

	got, err := s.Equipment.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity{Total: 3, Available: 1, Borrowed: 2}, got.Quantity)
	assert.Equal(t, 2, got.Usage.TotalBorrows)
	assert.True(t, got.Quantity.Consistent())
}

func TestEquipment_ReturnGuardsBorrowed(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	e := seedEquipment(t, s, 4)

	require.NoError(t, s.Equipment.Borrow(ctx, e.ID, 2, time.Now().UTC()))
	require.NoError(t, s.Equipment.Return(ctx, e.ID, 1, true, 3))
	assert.ErrorIs(t, s.Equipment.Return(ctx, e.ID, 2, false, 1), ErrConflict)

	got, err := s.Equipment.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity{Total: 4, Available: 2, Borrowed: 1, Damaged: 1}, got.Quantity)
	assert.Equal(t, 3, got.Usage.TotalDays)
}

func TestEquipment_ConcurrentBorrowNeverOversells(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	e := seedEquipment(t, s, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Equipment.Borrow(ctx, e.ID, 1, time.Now().UTC()); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := s.Equipment.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, got.Quantity.Available)
	assert.True(t, got.Quantity.Consistent())
}

func TestEquipment_ListFilters(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	seedEquipment(t, s, 2)
	racket := &domain.Equipment{
		Name: "Tennis Racket", Description: "Graphite", Category: domain.CategoryTennis,
		Brand: "Wilson", Quantity: domain.Quantity{Total: 1, Borrowed: 1}, IsActive: true, IsNewArrival: true,
	}
	require.NoError(t, s.Equipment.Create(ctx, racket))

	items, total, err := s.Equipment.List(ctx, EquipmentFilter{Search: "wilson"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, racket.ID, items[0].ID)

	_, total, err = s.Equipment.List(ctx, EquipmentFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = s.Equipment.List(ctx, EquipmentFilter{NewArrivals: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, s.Equipment.SoftDelete(ctx, racket.ID))
	_, total, err = s.Equipment.List(ctx, EquipmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRequest_TransitionIsCompareAndSwap(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S1")
	e := seedEquipment(t, s, 5)

	now := time.Now().UTC()
	req := &domain.Request{
		StudentID: st.ID, EquipmentID: e.ID, Quantity: 1,
		BorrowDate: now, ReturnDate: now.Add(48 * time.Hour),
		Status: domain.RequestPending, Purpose: "Practice", Location: "Field A", RequestDate: now,
		History: []domain.RequestHistory{domain.HistoryEntry(domain.ActionCreated, domain.StudentPrincipal(st), now, "Request created")},
	}
	require.NoError(t, s.Requests.Create(ctx, req))

	require.NoError(t, s.Requests.Transition(ctx, req.ID, domain.RequestPending, map[string]any{"status": domain.RequestApproved}))
	assert.ErrorIs(t, s.Requests.Transition(ctx, req.ID, domain.RequestPending, map[string]any{"status": domain.RequestRejected}), ErrConflict)

	got, err := s.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, got.Status)
	require.Len(t, got.History, 1)
	assert.Equal(t, domain.ActionCreated, got.History[0].Action)
	assert.Equal(t, st.ID, got.Student.ID)
}

func TestRequest_OpenPairIsUnique(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S2")
	e := seedEquipment(t, s, 5)

	now := time.Now().UTC()
	newReq := func() *domain.Request {
		return &domain.Request{
			StudentID: st.ID, EquipmentID: e.ID, Quantity: 1,
			BorrowDate: now, ReturnDate: now.Add(24 * time.Hour),
			Status: domain.RequestPending, Purpose: "Match", Location: "Gym", RequestDate: now,
		}
	}
	first := newReq()
	require.NoError(t, s.Requests.Create(ctx, first))

	open, err := s.Requests.HasOpen(ctx, st.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, open)

	err = s.Requests.Create(ctx, newReq())
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	require.NoError(t, s.Requests.Transition(ctx, first.ID, domain.RequestPending, map[string]any{"status": domain.RequestRejected}))
	assert.NoError(t, s.Requests.Create(ctx, newReq()))
}

func TestRequest_OverdueQuery(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S3")
	e := seedEquipment(t, s, 5)

	now := time.Now().UTC()
	late := &domain.Request{
		StudentID: st.ID, EquipmentID: e.ID, Quantity: 1,
		BorrowDate: now.Add(-72 * time.Hour), ReturnDate: now.Add(-24 * time.Hour),
		Status: domain.RequestBorrowed, Purpose: "Training", Location: "Track", RequestDate: now.Add(-96 * time.Hour),
	}
	require.NoError(t, s.Requests.Create(ctx, late))

	overdue, err := s.Requests.Overdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	items, total, err := s.Requests.List(ctx, RequestFilter{Status: domain.RequestOverdue, Now: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.RequestOverdue, items[0].DisplayStatus(now))
}

func TestStudent_IncrementStats(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S4")

	require.NoError(t, s.Students.IncrementStats(ctx, st.ID, StatsDelta{TotalRequests: 1}))
	require.NoError(t, s.Students.IncrementStats(ctx, st.ID, StatsDelta{TotalRequests: 1, ApprovedRequests: 1, TotalDaysBorrowed: 4}))

	got, err := s.Students.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Statistics.TotalRequests)
	assert.Equal(t, 1, got.Statistics.ApprovedRequests)
	assert.Equal(t, 4, got.Statistics.TotalDaysBorrowed)
}

func TestStudent_ClearExpiredOTPs(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S5")
	st.SetOTP("111111", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, s.Students.SaveOTP(ctx, st))

	n, err := s.Students.ClearExpiredOTPs(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Students.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.HasOTP())
}

func TestNotification_VisibilityAndReads(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	broadcast := &domain.Notification{Title: "All", Message: "Hi", Type: domain.NotificationInfo,
		Category: domain.CategoryGeneral, Priority: domain.PriorityMedium, SentAt: now, IsActive: true}
	broadcast.SetRecipients(domain.RecipientSelector{All: true})
	direct := &domain.Notification{Title: "You", Message: "Only you", Type: domain.NotificationRequestUpdate,
		Category: domain.CategoryRequest, Priority: domain.PriorityMedium, SentAt: now, IsActive: true}
	direct.SetRecipients(domain.RecipientSelector{Students: []int64{7}})
	require.NoError(t, s.Notifications.Create(ctx, broadcast))
	require.NoError(t, s.Notifications.Create(ctx, direct))

	seven := Audience{Kind: domain.PrincipalStudent, ID: 7}
	eight := Audience{Kind: domain.PrincipalStudent, ID: 8}
	admin7 := Audience{Kind: domain.PrincipalAdmin, ID: 7}

	count, err := s.Notifications.UnreadCount(ctx, seven, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = s.Notifications.UnreadCount(ctx, eight, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.Notifications.UnreadCount(ctx, admin7, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	inserted, err := s.Notifications.MarkRead(ctx, direct.ID, seven, now)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.Notifications.MarkRead(ctx, direct.ID, seven, now)
	require.NoError(t, err)
	assert.False(t, inserted)

	reads, err := s.Notifications.CountReads(ctx, direct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reads)

	items, read, total, err := s.Notifications.ListFor(ctx, seven, NotificationFilter{Now: now})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
	assert.True(t, read[direct.ID])
	assert.False(t, read[broadcast.ID])

	marked, err := s.Notifications.MarkAllRead(ctx, seven, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	count, err = s.Notifications.UnreadCount(ctx, seven, now)
	require.NoError(t, err)
	assert.Zero(t, count)

	stats, err := s.Notifications.StatsByType(ctx)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestStudent_ConsumeOTPIsSingleUse(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	ctx := context.Background()
	st := seedStudent(t, s, "S6")
	now := time.Now().UTC()
	st.SetOTP("424242", now.Add(5*time.Minute))
	require.NoError(t, s.Students.SaveOTP(ctx, st))

	ok, err := s.Students.ConsumeOTP(ctx, st.ID, "000000", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Students.ConsumeOTP(ctx, st.ID, "424242", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Students.ConsumeOTP(ctx, st.ID, "424242", now)
	require.NoError(t, err)
	assert.False(t, ok, "second use")

	got, err := s.Students.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.False(t, got.HasOTP())
	assert.NotNil(t, got.LastLogin)
}
