package student

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"sportsequip/internal/domain"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

const (
	defaultListLimit     = 20
	defaultRequestsLimit = 10
	recentActivityLimit  = 5
)

// FileStore is the part of the upload service profile edits need.
type FileStore interface {
	Save(fh *multipart.FileHeader, p upload.Purpose) (*upload.StoredFile, error)
	Remove(files ...*upload.StoredFile)
	RemovePath(rel string)
}

type Service struct {
	store *repository.Store
	files FileStore
	now   func() time.Time
}

func NewService(store *repository.Store, files FileStore) *Service {
	return &Service{store: store, files: files, now: func() time.Time { return time.Now().UTC() }}
}

// authorize lets admins see anyone and students only themselves.
func authorize(p *domain.Principal, id int64) error {
	if p.IsAdmin() {
		return nil
	}
	if p.IsStudent() && p.Student.ID == id {
		return nil
	}
	return ErrAccessDenied
}

func (s *Service) find(ctx context.Context, id int64) (*domain.Student, error) {
	st, err := s.store.Students.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	return st, err
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	filter := repository.StudentFilter{
		Search:     strings.TrimSpace(q.Search),
		Department: strings.TrimSpace(q.Department),
		Year:       q.Year,
		Verified:   q.Verified,
		Page:       repository.Page{Page: q.Page, Limit: q.Limit},
	}
	items, total, err := s.store.Students.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Student{}
	}
	pg := filter.Page.Resolve(defaultListLimit)
	return &ListResult{Students: items, Pagination: response.NewPagination(pg.Page, pg.Limit, total)}, nil
}

func (s *Service) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.Student, error) {
	if err := authorize(p, id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// UpdateProfile applies the student's own edits. A new profile image
// replaces the old file on disk once the row is saved.
func (s *Service) UpdateProfile(ctx context.Context, self *domain.Student, id int64, req ProfileUpdate, image *multipart.FileHeader) (*domain.Student, error) {
	if self == nil || self.ID != id {
		return nil, ErrAccessDenied
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	oldImage := current.ProfileImage
	var columns []string
	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		if v == "" {
			return nil, ErrEmptyName
		}
		current.FirstName = v
		columns = append(columns, "first_name")
	}
	if req.LastName != nil {
		current.LastName = strings.TrimSpace(*req.LastName)
		columns = append(columns, "last_name")
	}
	if req.Department != nil {
		v := strings.TrimSpace(*req.Department)
		if v == "" {
			return nil, ErrEmptyDepartment
		}
		current.Department = v
		columns = append(columns, "department")
	}
	if req.Year != nil {
		current.Year = *req.Year
		columns = append(columns, "year")
	}
	if req.Semester != nil {
		current.Semester = *req.Semester
		columns = append(columns, "semester")
	}
	if req.Address != nil {
		current.Address = *req.Address
		columns = append(columns, "address")
	}
	if req.EmergencyContact != nil {
		current.EmergencyContact = *req.EmergencyContact
		columns = append(columns, "emergency_contact")
	}

	var stored *upload.StoredFile
	if image != nil {
		if stored, err = s.files.Save(image, upload.PurposeProfile); err != nil {
			return nil, err
		}
		current.ProfileImage = stored.Path
		columns = append(columns, "profile_image")
	}

	if err := s.store.Students.SaveColumns(ctx, current, columns...); err != nil {
		s.files.Remove(stored)
		return nil, err
	}
	if stored != nil && oldImage != "" && oldImage != stored.Path {
		s.files.RemovePath(oldImage)
	}
	return s.find(ctx, id)
}

func (s *Service) Requests(ctx context.Context, p *domain.Principal, id int64, q RequestsQuery) (*RequestsResult, error) {
	if err := authorize(p, id); err != nil {
		return nil, err
	}
	filter := repository.RequestFilter{
		Status:    q.Status,
		StudentID: id,
		Now:       s.now(),
		Page:      repository.Page{Page: q.Page, Limit: q.Limit},
	}
	items, total, err := s.store.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Request{}
	}
	pg := filter.Page.Resolve(defaultRequestsLimit)
	return &RequestsResult{Requests: items, Pagination: response.NewPagination(pg.Page, pg.Limit, total)}, nil
}

func (s *Service) Stats(ctx context.Context, p *domain.Principal, id int64) (*Stats, error) {
	if err := authorize(p, id); err != nil {
		return nil, err
	}
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.store.Requests.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	usage, err := s.store.Requests.UsageByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Requests.Recent(ctx, id, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	out := &Stats{
		Student: Summary{
			ID:            st.ID,
			StudentNumber: st.StudentNumber,
			FullName:      st.FullName(),
			Department:    st.Department,
			Year:          st.Year,
			Semester:      st.Semester,
			IsVerified:    st.IsVerified,
			Statistics:    st.Statistics,
		},
		RequestStats:   byStatus,
		EquipmentUsage: usage,
		RecentActivity: recent,
	}
	if out.RequestStats == nil {
		out.RequestStats = []repository.StatusCount{}
	}
	if out.EquipmentUsage == nil {
		out.EquipmentUsage = []repository.CategoryUsage{}
	}
	if out.RecentActivity == nil {
		out.RecentActivity = []domain.Request{}
	}
	return out, nil
}

func (s *Service) Verify(ctx context.Context, id int64) (*domain.Student, error) {
	if err := s.store.Students.SetVerified(ctx, id, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.store.Students.SetActive(ctx, id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStudentNotFound
	}
	return err
}

func (s *Service) Departments(ctx context.Context) ([]string, error) {
	out, err := s.store.Students.Departments(ctx)
	if out == nil {
		out = []string{}
	}
	return out, err
}
