package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sportsequip/internal/domain"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

type StudentFilter struct {
	Search     string
	Department string
	Year       int
	Verified   *bool
	Page
}

// StatsDelta holds increments for the student statistics counters.
type StatsDelta struct {
	TotalRequests          int
	ApprovedRequests       int
	RejectedRequests       int
	TotalEquipmentBorrowed int
	TotalDaysBorrowed      int
}

func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	var s domain.Student
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *StudentRepository) GetByNumberAndPhone(ctx context.Context, number, phone string) (*domain.Student, error) {
	var s domain.Student
	err := r.db.WithContext(ctx).
		Where("student_number = ? AND phone_number = ?", domain.NormalizeStudentNumber(number), phone).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ExistsAny reports whether any student already uses the number, email or
// phone.
func (r *StudentRepository) ExistsAny(ctx context.Context, number, email, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("student_number = ? OR email = ? OR phone_number = ?", number, email, phone).
		Count(&count).Error
	return count > 0, err
}

// SaveOTP stores or clears the outstanding verification challenge.
func (r *StudentRepository) SaveOTP(ctx context.Context, s *domain.Student) error {
	return r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"otp_code":       s.OTPCode,
			"otp_expires_at": s.OTPExpiresAt,
		}).Error
}

// ConsumeOTP verifies the student and clears the challenge, but only while
// code is still the outstanding, unexpired one. It reports whether it did.
func (r *StudentRepository) ConsumeOTP(ctx context.Context, id int64, code string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("id = ? AND otp_code = ? AND otp_expires_at >= ?", id, code, at).
		Updates(map[string]any{
			"is_verified":    true,
			"otp_code":       nil,
			"otp_expires_at": nil,
			"last_login":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *StudentRepository) SetVerified(ctx context.Context, id int64, verified bool) error {
	return r.updateOne(ctx, id, map[string]any{"is_verified": verified})
}

func (r *StudentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.updateOne(ctx, id, map[string]any{"is_active": active})
}

// SaveColumns writes the named columns from s. Going through the struct
// keeps the json serializer on address and emergency_contact.
func (r *StudentRepository) SaveColumns(ctx context.Context, s *domain.Student, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(s).Select(columns).Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudentRepository) updateOne(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Student{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementStats adds delta to the counters in one statement.
func (r *StudentRepository) IncrementStats(ctx context.Context, id int64, d StatsDelta) error {
	updates := map[string]any{}
	add := func(column string, n int) {
		if n != 0 {
			updates[column] = gorm.Expr(column+" + ?", n)
		}
	}
	add("stat_total_requests", d.TotalRequests)
	add("stat_approved_requests", d.ApprovedRequests)
	add("stat_rejected_requests", d.RejectedRequests)
	add("stat_total_equipment_borrowed", d.TotalEquipmentBorrowed)
	add("stat_total_days_borrowed", d.TotalDaysBorrowed)
	if len(updates) == 0 {
		return nil
	}
	return r.updateOne(ctx, id, updates)
}

func (r *StudentRepository) List(ctx context.Context, f StudentFilter) ([]domain.Student, int64, error) {
	f.Page = f.Page.normalize(20, maxPageLimit)

	q := r.db.WithContext(ctx).Model(&domain.Student{})
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'
			OR LOWER(student_number) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, p, p, p, p)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.Year > 0 {
		q = q.Where("year = ?", f.Year)
	}
	if f.Verified != nil {
		q = q.Where("is_verified = ?", *f.Verified)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []domain.Student
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.offset()).
		Find(&students).Error
	return students, total, err
}

func (r *StudentRepository) Departments(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("is_active = ?", true).
		Distinct().
		Order("department").
		Pluck("department", &out).Error
	return out, err
}

// ClearExpiredOTPs drops challenges that expired before now.
func (r *StudentRepository) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("otp_expires_at IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]any{"otp_code": nil, "otp_expires_at": nil})
	return res.RowsAffected, res.Error
}
