package notification

import (
	"encoding/json"
	"time"

	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

type ListQuery struct {
	Page       int                         `form:"page" binding:"omitempty,min=1"`
	Limit      int                         `form:"limit" binding:"omitempty,min=1,max=100"`
	Type       domain.NotificationType     `form:"type" binding:"omitempty,oneof=info success warning error new_equipment request_update system_alert"`
	Category   domain.NotificationCategory `form:"category" binding:"omitempty,oneof=general equipment request system maintenance"`
	UnreadOnly bool                        `form:"-"`
}

type CreateRequest struct {
	Title      string                      `json:"title" binding:"required,max=100"`
	Message    string                      `json:"message" binding:"required,max=500"`
	Type       domain.NotificationType     `json:"type" binding:"omitempty,oneof=info success warning error new_equipment request_update system_alert"`
	Category   domain.NotificationCategory `json:"category" binding:"omitempty,oneof=general equipment request system maintenance"`
	Priority   domain.NotificationPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Recipients *domain.RecipientSelector   `json:"recipients"`
	ActionURL  string                      `json:"actionUrl" binding:"omitempty,max=300"`
	ActionText string                      `json:"actionText" binding:"omitempty,max=50"`
	ExpiresAt  *time.Time                  `json:"expiresAt"`
	Tags       []string                    `json:"tags"`
}

// Item is a notification as seen by one principal.
type Item struct {
	domain.Notification
	IsRead bool
}

// MarshalJSON appends isRead to the notification's own encoding.
func (i Item) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(i.Notification)
	if err != nil {
		return nil, err
	}
	flag, _ := json.Marshal(i.IsRead)
	out := make([]byte, 0, len(base)+len(flag)+12)
	out = append(out, base[:len(base)-1]...)
	out = append(out, `,"isRead":`...)
	out = append(out, flag...)
	return append(out, '}'), nil
}

type ListResult struct {
	Notifications []Item              `json:"notifications"`
	Pagination    response.Pagination `json:"pagination"`
	UnreadCount   int64               `json:"unreadCount"`
}

type Stats struct {
	ByType     []repository.TypeStats     `json:"byType"`
	ByCategory []repository.CategoryTotal `json:"byCategory"`
	ByPriority []repository.PriorityTotal `json:"byPriority"`
}
