package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sportsequip/internal/domain"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Audience identifies the principal a notification query runs for.
type Audience struct {
	Kind domain.PrincipalKind
	ID   int64
}

type NotificationFilter struct {
	Type       domain.NotificationType
	Category   domain.NotificationCategory
	UnreadOnly bool
	Now        time.Time
	Page
}

type TypeStats struct {
	Type      domain.NotificationType `json:"type"`
	Count     int64                   `json:"count"`
	ReadCount int64                   `json:"readCount"`
}

type CategoryTotal struct {
	Category domain.NotificationCategory `json:"category"`
	Count    int64                       `json:"count"`
}

type PriorityTotal struct {
	Priority domain.NotificationPriority `json:"priority"`
	Count    int64                       `json:"count"`
}

// Create inserts the notification with its recipient rows.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Where("id = ? AND is_active = ?", id, true).
		First(&n).Error
	if err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *NotificationRepository) visibleTo(q *gorm.DB, a Audience, now time.Time) *gorm.DB {
	return q.
		Where("notifications.is_active = ?", true).
		Where("(notifications.expires_at IS NULL OR notifications.expires_at > ?)", now).
		Where(`(notifications.recipients_all = ? OR EXISTS (
			SELECT 1 FROM notification_recipients nr
			WHERE nr.notification_id = notifications.id AND nr.user_model = ? AND nr.user_id = ?))`,
			true, a.Kind.UserModel(), a.ID)
}

func unread(q *gorm.DB, a Audience) *gorm.DB {
	return q.Where(`NOT EXISTS (
		SELECT 1 FROM notification_reads rd
		WHERE rd.notification_id = notifications.id AND rd.user_model = ? AND rd.user_id = ?)`,
		a.Kind.UserModel(), a.ID)
}

// ListFor returns the page of notifications visible to a, and the ids among
// them that a has already read.
func (r *NotificationRepository) ListFor(ctx context.Context, a Audience, f NotificationFilter) ([]domain.Notification, map[int64]bool, int64, error) {
	f.Page = f.Page.normalize(20, maxPageLimit)

	q := r.visibleTo(r.db.WithContext(ctx).Model(&domain.Notification{}), a, f.Now)
	if f.Type != "" {
		q = q.Where("notifications.type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("notifications.category = ?", f.Category)
	}
	if f.UnreadOnly {
		q = unread(q, a)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, nil, 0, err
	}

	var items []domain.Notification
	err := q.Preload("Recipients").
		Order("notifications.sent_at DESC").Order("notifications.id DESC").
		Limit(f.Limit).
		Offset(f.offset()).
		Find(&items).Error
	if err != nil {
		return nil, nil, 0, err
	}

	read, err := r.readSet(ctx, a, items)
	if err != nil {
		return nil, nil, 0, err
	}
	return items, read, total, nil
}

func (r *NotificationRepository) readSet(ctx context.Context, a Audience, items []domain.Notification) (map[int64]bool, error) {
	read := make(map[int64]bool, len(items))
	if len(items) == 0 {
		return read, nil
	}
	ids := make([]int64, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}

	var readIDs []int64
	err := r.db.WithContext(ctx).
		Model(&domain.NotificationRead{}).
		Where("notification_id IN ? AND user_model = ? AND user_id = ?", ids, a.Kind.UserModel(), a.ID).
		Pluck("notification_id", &readIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range readIDs {
		read[id] = true
	}
	return read, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, a Audience, now time.Time) (int64, error) {
	var count int64
	q := unread(r.visibleTo(r.db.WithContext(ctx).Model(&domain.Notification{}), a, now), a)
	err := q.Count(&count).Error
	return count, err
}

// MarkRead records a read for a. Repeated calls leave a single row; the
// returned flag is true only when a row was inserted.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID int64, a Audience, at time.Time) (bool, error) {
	var exists int64
	err := r.db.WithContext(ctx).
		Model(&domain.NotificationRead{}).
		Where("notification_id = ? AND user_model = ? AND user_id = ?", notificationID, a.Kind.UserModel(), a.ID).
		Count(&exists).Error
	if err != nil {
		return false, err
	}
	if exists > 0 {
		return false, nil
	}

	row := domain.NotificationRead{
		NotificationID: notificationID,
		UserID:         a.ID,
		UserModel:      a.Kind.UserModel(),
		ReadAt:         at,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkAllRead marks every visible unread notification as read for a.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, a Audience, now time.Time) (int64, error) {
	var ids []int64
	q := unread(r.visibleTo(r.db.WithContext(ctx).Model(&domain.Notification{}), a, now), a)
	if err := q.Pluck("notifications.id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	rows := make([]domain.NotificationRead, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, domain.NotificationRead{
			NotificationID: id,
			UserID:         a.ID,
			UserModel:      a.Kind.UserModel(),
			ReadAt:         now,
		})
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) CountReads(ctx context.Context, notificationID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.NotificationRead{}).
		Where("notification_id = ?", notificationID).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
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

func (r *NotificationRepository) StatsByType(ctx context.Context) ([]TypeStats, error) {
	var out []TypeStats
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Select("type, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("type").
		Order("count DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}

	var reads []struct {
		Type  domain.NotificationType
		Count int64
	}
	err = r.db.WithContext(ctx).
		Table("notification_reads").
		Select("notifications.type AS type, COUNT(*) AS count").
		Joins("JOIN notifications ON notifications.id = notification_reads.notification_id").
		Where("notifications.is_active = ?", true).
		Group("notifications.type").
		Scan(&reads).Error
	if err != nil {
		return nil, err
	}

	byType := make(map[domain.NotificationType]int64, len(reads))
	for _, rc := range reads {
		byType[rc.Type] = rc.Count
	}
	for i := range out {
		out[i].ReadCount = byType[out[i].Type]
	}
	return out, nil
}

func (r *NotificationRepository) StatsByCategory(ctx context.Context) ([]CategoryTotal, error) {
	var out []CategoryTotal
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Select("category, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("category").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *NotificationRepository) StatsByPriority(ctx context.Context) ([]PriorityTotal, error) {
	var out []PriorityTotal
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Select("priority, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("priority").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}
