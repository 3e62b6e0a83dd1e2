package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sportsequip/internal/domain"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

type EquipmentFilter struct {
	Category      domain.Category
	Search        string
	AvailableOnly bool
	NewArrivals   bool
	SortBy        string
	SortDesc      bool
	Page
}

var equipmentSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"category":  "category",
	"available": "qty_available",
}

type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int64           `json:"count"`
}

type EquipmentTotals struct {
	TotalItems     int64 `json:"totalItems"`
	TotalQuantity  int64 `json:"totalQuantity"`
	TotalAvailable int64 `json:"totalAvailable"`
	TotalBorrowed  int64 `json:"totalBorrowed"`
	TotalDamaged   int64 `json:"totalDamaged"`
}

type CategoryStats struct {
	Category       domain.Category `json:"category"`
	Count          int64           `json:"count"`
	TotalQuantity  int64           `json:"totalQuantity"`
	AvailableCount int64           `json:"availableQuantity"`
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var e domain.Equipment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// GetActive returns the item only when it has not been soft-deleted.
func (r *EquipmentRepository) GetActive(ctx context.Context, id int64) (*domain.Equipment, error) {
	var e domain.Equipment
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *EquipmentRepository) Save(ctx context.Context, e *domain.Equipment) error {
	return r.db.WithContext(ctx).Save(e).Error
}

var detailColumns = []string{
	"name", "description", "category", "subcategory", "brand", "model",
	"specifications", "images", "location", "tags", "barcode", "is_new_arrival", "updated_at",
}

// SaveDetails writes the descriptive columns only. Counters change through
// Borrow, Return and SetQuantity.
func (r *EquipmentRepository) SaveDetails(ctx context.Context, e *domain.Equipment) error {
	res := r.db.WithContext(ctx).Model(e).Select(detailColumns).Updates(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetQuantity replaces the counters while they still equal prev.
// ErrConflict means a borrow or return got there first.
func (r *EquipmentRepository) SetQuantity(ctx context.Context, id int64, prev, next domain.Quantity) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("id = ? AND qty_total = ? AND qty_available = ? AND qty_borrowed = ? AND qty_damaged = ?",
			id, prev.Total, prev.Available, prev.Borrowed, prev.Damaged).
		Updates(map[string]any{
			"qty_total":     next.Total,
			"qty_available": next.Available,
			"qty_borrowed":  next.Borrowed,
			"qty_damaged":   next.Damaged,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *EquipmentRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) List(ctx context.Context, f EquipmentFilter) ([]domain.Equipment, int64, error) {
	f.Page = f.Page.normalize(12, maxPageLimit)

	q := r.db.WithContext(ctx).Model(&domain.Equipment{}).Where("is_active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p, p)
	}
	if f.AvailableOnly {
		q = q.Where("qty_available > 0")
	}
	if f.NewArrivals {
		q = q.Where("is_new_arrival = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := equipmentSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	order := column + " ASC"
	if f.SortDesc {
		order = column + " DESC"
	}

	var items []domain.Equipment
	err := q.Order(order).Order("id DESC").
		Limit(f.Limit).
		Offset(f.offset()).
		Find(&items).Error
	return items, total, err
}

// Borrow moves qty units from available to borrowed in one guarded
// statement. ErrConflict means the item is inactive or short of stock.
func (r *EquipmentRepository) Borrow(ctx context.Context, id int64, qty int, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("id = ? AND is_active = ? AND qty_available >= ?", id, true, qty).
		Updates(map[string]any{
			"qty_available":       gorm.Expr("qty_available - ?", qty),
			"qty_borrowed":        gorm.Expr("qty_borrowed + ?", qty),
			"usage_total_borrows": gorm.Expr("usage_total_borrows + ?", qty),
			"usage_last_borrowed": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Return moves qty borrowed units back to available (or damaged) and adds
// the loan length to usage. ErrConflict means fewer than qty are borrowed.
func (r *EquipmentRepository) Return(ctx context.Context, id int64, qty int, damaged bool, days int) error {
	updates := map[string]any{
		"qty_borrowed":     gorm.Expr("qty_borrowed - ?", qty),
		"usage_total_days": gorm.Expr("usage_total_days + ?", days),
	}
	if damaged {
		updates["qty_damaged"] = gorm.Expr("qty_damaged + ?", qty)
	} else {
		updates["qty_available"] = gorm.Expr("qty_available + ?", qty)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("id = ? AND qty_borrowed >= ?", id, qty).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *EquipmentRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var out []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Select("category, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("category").
		Order("category").
		Scan(&out).Error
	return out, err
}

func (r *EquipmentRepository) Totals(ctx context.Context) (EquipmentTotals, error) {
	var t EquipmentTotals
	err := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Select(`COUNT(*) AS total_items,
			COALESCE(SUM(qty_total), 0) AS total_quantity,
			COALESCE(SUM(qty_available), 0) AS total_available,
			COALESCE(SUM(qty_borrowed), 0) AS total_borrowed,
			COALESCE(SUM(qty_damaged), 0) AS total_damaged`).
		Where("is_active = ?", true).
		Scan(&t).Error
	return t, err
}

func (r *EquipmentRepository) StatsByCategory(ctx context.Context) ([]CategoryStats, error) {
	var out []CategoryStats
	err := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Select(`category, COUNT(*) AS count,
			COALESCE(SUM(qty_total), 0) AS total_quantity,
			COALESCE(SUM(qty_available), 0) AS available_count`).
		Where("is_active = ?", true).
		Group("category").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}
