package student

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/database/dbtest"
	"sportsequip/internal/domain"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/repository"
)

type fakeFiles struct {
	removedPaths []string
	removed      int
}

func (f *fakeFiles) Save(fh *multipart.FileHeader, p upload.Purpose) (*upload.StoredFile, error) {
	return &upload.StoredFile{Purpose: p, Path: string(p) + "/" + fh.Filename}, nil
}

func (f *fakeFiles) Remove(files ...*upload.StoredFile) {
	for _, file := range files {
		if file != nil {
			f.removed++
		}
	}
}

func (f *fakeFiles) RemovePath(rel string) { f.removedPaths = append(f.removedPaths, rel) }

func newTestService(t *testing.T) (*Service, *repository.Store, *fakeFiles) {
	t.Helper()
	store := repository.NewStore(dbtest.Open(t))
	files := &fakeFiles{}
	return NewService(store, files), store, files
}

func seedStudent(t *testing.T, store *repository.Store, number, dept string, year int, verified bool) *domain.Student {
	t.Helper()
	s := &domain.Student{
		StudentNumber: number,
		FirstName:     "Dana",
		LastName:      number,
		Email:         number + "@uni.edu",
		PhoneNumber:   "+7" + number,
		Department:    dept,
		Year:          year,
		Semester:      1,
		IDCardImage:   "id-cards/" + number + ".png",
		IsVerified:    verified,
		IsActive:      true,
	}
	require.NoError(t, store.Students.Create(context.Background(), s))
	return s
}

var admin = &domain.Admin{ID: 1, Role: domain.RoleSuperAdmin}

func strPtr(s string) *string { return &s }

func TestList_Filters(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedStudent(t, store, "S100", "Physics", 1, true)
	seedStudent(t, store, "S200", "Physics", 2, false)
	seedStudent(t, store, "S300", "History", 2, true)

	res, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Students, 3)
	assert.Equal(t, 20, res.Pagination.Limit)

	res, err = svc.List(ctx, ListQuery{Department: "Physics", Year: 2})
	require.NoError(t, err)
	require.Len(t, res.Students, 1)
	assert.Equal(t, "S200", res.Students[0].StudentNumber)

	verified := true
	res, err = svc.List(ctx, ListQuery{Verified: &verified})
	require.NoError(t, err)
	assert.Len(t, res.Students, 2)

	res, err = svc.List(ctx, ListQuery{Search: "s30"})
	require.NoError(t, err)
	require.Len(t, res.Students, 1)
	assert.Equal(t, "History", res.Students[0].Department)
}

func TestGet_Access(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	a := seedStudent(t, store, "S100", "Physics", 1, true)
	b := seedStudent(t, store, "S200", "Physics", 1, true)

	got, err := svc.Get(ctx, domain.StudentPrincipal(a), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.Get(ctx, domain.StudentPrincipal(a), b.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Get(ctx, domain.AdminPrincipal(admin), b.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, domain.AdminPrincipal(admin), 999)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, store, files := newTestService(t)
	ctx := context.Background()
	st := seedStudent(t, store, "S100", "Physics", 1, true)
	other := seedStudent(t, store, "S200", "Physics", 1, true)

	_, err := svc.UpdateProfile(ctx, other, st.ID, ProfileUpdate{FirstName: strPtr("X")}, nil)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.UpdateProfile(ctx, st, st.ID, ProfileUpdate{FirstName: strPtr("  ")}, nil)
	require.ErrorIs(t, err, ErrEmptyName)

	year := 3
	got, err := svc.UpdateProfile(ctx, st, st.ID, ProfileUpdate{
		FirstName:        strPtr(" Aigerim "),
		Year:             &year,
		Address:          &domain.Address{City: "Almaty"},
		EmergencyContact: &domain.EmergencyContact{Name: "Mom", PhoneNumber: "+77001112233"},
	}, &multipart.FileHeader{Filename: "me.png"})
	require.NoError(t, err)
	assert.Equal(t, "Aigerim", got.FirstName)
	assert.Equal(t, "S100", got.LastName, "untouched fields stay")
	assert.Equal(t, 3, got.Year)
	assert.Equal(t, "Almaty", got.Address.City)
	assert.Equal(t, "Mom", got.EmergencyContact.Name)
	assert.Equal(t, "profiles/me.png", got.ProfileImage)
	assert.Empty(t, files.removedPaths, "no previous image to delete")

	got, err = svc.UpdateProfile(ctx, st, st.ID, ProfileUpdate{}, &multipart.FileHeader{Filename: "new.png"})
	require.NoError(t, err)
	assert.Equal(t, "profiles/new.png", got.ProfileImage)
	assert.Equal(t, []string{"profiles/me.png"}, files.removedPaths)
}

func TestVerifyDeactivateDepartments(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	st := seedStudent(t, store, "S100", "Physics", 1, false)
	seedStudent(t, store, "S200", "Chemistry", 1, true)
	seedStudent(t, store, "S300", "Physics", 1, true)

	got, err := svc.Verify(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	_, err = svc.Verify(ctx, 404)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	deps, err := svc.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chemistry", "Physics"}, deps)

	require.NoError(t, svc.Deactivate(ctx, st.ID))
	got, err = store.Students.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.ErrorIs(t, svc.Deactivate(ctx, 404), ErrStudentNotFound)
}

func TestRequestsAndStats(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	st := seedStudent(t, store, "S100", "Physics", 1, true)
	other := seedStudent(t, store, "S200", "Physics", 1, true)

	eq := &domain.Equipment{
		Name: "Ball", Description: "Ball", Category: domain.CategoryBasketball,
		Quantity: domain.NewQuantity(5), Images: []domain.Image{}, Tags: []string{}, IsActive: true,
	}
	require.NoError(t, store.Equipment.Create(ctx, eq))

	now := time.Now().UTC()
	for i, status := range []domain.RequestStatus{domain.RequestPending, domain.RequestReturned, domain.RequestRejected} {
		r := &domain.Request{
			StudentID: st.ID, EquipmentID: eq.ID, Quantity: i + 1,
			BorrowDate: now, ReturnDate: now.Add(48 * time.Hour), Status: status,
			Purpose: "Practice", Location: "Gym", RequestDate: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Requests.Create(ctx, r))
	}

	res, err := svc.Requests(ctx, domain.StudentPrincipal(st), st.ID, RequestsQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Requests, 3)

	res, err = svc.Requests(ctx, domain.StudentPrincipal(st), st.ID, RequestsQuery{Status: domain.RequestReturned})
	require.NoError(t, err)
	assert.Len(t, res.Requests, 1)

	_, err = svc.Requests(ctx, domain.StudentPrincipal(other), st.ID, RequestsQuery{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	stats, err := svc.Stats(ctx, domain.AdminPrincipal(admin), st.ID)
	require.NoError(t, err)
	assert.Equal(t, "S100", stats.Student.StudentNumber)
	assert.Len(t, stats.RequestStats, 3)
	require.Len(t, stats.EquipmentUsage, 1, "only approved, borrowed and returned requests count as usage")
	assert.Equal(t, domain.CategoryBasketball, stats.EquipmentUsage[0].Category)
	assert.Equal(t, int64(1), stats.EquipmentUsage[0].Requests)
	assert.Equal(t, int64(2), stats.EquipmentUsage[0].TotalQuantity)
	require.Len(t, stats.RecentActivity, 3)
	assert.Equal(t, domain.RequestRejected, stats.RecentActivity[0].Status)
}
