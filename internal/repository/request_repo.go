package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sportsequip/internal/domain"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

type RequestFilter struct {
	// Status may be domain.RequestOverdue, which filters on the derived
	// predicate instead of the column.
	Status      domain.RequestStatus
	StudentID   int64
	EquipmentID int64
	Now         time.Time
	Page
}

type StatusCount struct {
	Status domain.RequestStatus `json:"status"`
	Count  int64                `json:"count"`
}

type CategoryUsage struct {
	Category      domain.Category `json:"category"`
	Requests      int64           `json:"requests"`
	TotalQuantity int64           `json:"totalQuantity"`
}

// Create inserts the request together with its initial history rows.
func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	var req domain.Request
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Equipment").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC, id ASC") }).
		Preload("Extensions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&req, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// GetPlain loads the row without associations.
func (r *RequestRepository) GetPlain(ctx context.Context, id int64) (*domain.Request, error) {
	var req domain.Request
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// HasOpen reports whether the student already has a pending or approved
// request for the equipment.
func (r *RequestRepository) HasOpen(ctx context.Context, studentID, equipmentID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("student_id = ? AND equipment_id = ? AND status IN ?", studentID, equipmentID,
			[]domain.RequestStatus{domain.RequestPending, domain.RequestApproved}).
		Count(&count).Error
	return count > 0, err
}

// Transition applies updates only while the request is still in status
// from. ErrConflict means another writer moved it first.
func (r *RequestRepository) Transition(ctx context.Context, id int64, from domain.RequestStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *RequestRepository) AppendHistory(ctx context.Context, requestID int64, h domain.RequestHistory) error {
	h.RequestID = requestID
	return r.db.WithContext(ctx).Create(&h).Error
}

func (r *RequestRepository) AppendExtension(ctx context.Context, requestID int64, ext domain.RequestExtension) error {
	ext.RequestID = requestID
	return r.db.WithContext(ctx).Create(&ext).Error
}

func (r *RequestRepository) List(ctx context.Context, f RequestFilter) ([]domain.Request, int64, error) {
	f.Page = f.Page.normalize(10, maxPageLimit)

	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Request
	err := q.Preload("Student").
		Preload("Equipment").
		Order("request_date DESC").Order("id DESC").
		Limit(f.Limit).
		Offset(f.offset()).
		Find(&items).Error
	return items, total, err
}

func (r *RequestRepository) filtered(ctx context.Context, f RequestFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Request{})
	switch f.Status {
	case "":
	case domain.RequestOverdue:
		q = q.Where("status = ? AND return_date < ?", domain.RequestBorrowed, f.Now)
	default:
		q = q.Where("status = ?", f.Status)
	}
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.EquipmentID != 0 {
		q = q.Where("equipment_id = ?", f.EquipmentID)
	}
	return q
}

// Overdue lists borrowed requests whose return date is before now.
func (r *RequestRepository) Overdue(ctx context.Context, now time.Time) ([]domain.Request, error) {
	var items []domain.Request
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Equipment").
		Where("status = ? AND return_date < ?", domain.RequestBorrowed, now).
		Order("return_date ASC").
		Find(&items).Error
	return items, err
}

func (r *RequestRepository) CountOverdue(ctx context.Context, studentID int64, now time.Time) (int64, error) {
	var count int64
	err := r.filtered(ctx, RequestFilter{Status: domain.RequestOverdue, StudentID: studentID, Now: now}).
		Count(&count).Error
	return count, err
}

func (r *RequestRepository) Recent(ctx context.Context, studentID int64, limit int) ([]domain.Request, error) {
	var items []domain.Request
	err := r.filtered(ctx, RequestFilter{StudentID: studentID}).
		Preload("Student").
		Preload("Equipment").
		Order("request_date DESC").Order("id DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// CountByStatus groups requests by stored status, optionally for one
// student.
func (r *RequestRepository) CountByStatus(ctx context.Context, studentID int64) ([]StatusCount, error) {
	var out []StatusCount
	err := r.filtered(ctx, RequestFilter{StudentID: studentID}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&out).Error
	return out, err
}

// UsageByCategory sums a student's approved, borrowed and returned requests
// by equipment category.
func (r *RequestRepository) UsageByCategory(ctx context.Context, studentID int64) ([]CategoryUsage, error) {
	var out []CategoryUsage
	err := r.db.WithContext(ctx).
		Table("requests").
		Select("equipment.category AS category, COUNT(*) AS requests, COALESCE(SUM(requests.quantity), 0) AS total_quantity").
		Joins("JOIN equipment ON equipment.id = requests.equipment_id").
		Where("requests.student_id = ? AND requests.status IN ?", studentID,
			[]domain.RequestStatus{domain.RequestApproved, domain.RequestBorrowed, domain.RequestReturned}).
		Group("equipment.category").
		Order("requests DESC").
		Scan(&out).Error
	return out, err
}
