package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationInfo          NotificationType = "info"
	NotificationSuccess       NotificationType = "success"
	NotificationWarning       NotificationType = "warning"
	NotificationError         NotificationType = "error"
	NotificationNewEquipment  NotificationType = "new_equipment"
	NotificationRequestUpdate NotificationType = "request_update"
	NotificationSystemAlert   NotificationType = "system_alert"
)

type NotificationCategory string

const (
	CategoryGeneral     NotificationCategory = "general"
	CategoryEquipment   NotificationCategory = "equipment"
	CategoryRequest     NotificationCategory = "request"
	CategorySystem      NotificationCategory = "system"
	CategoryMaintenance NotificationCategory = "maintenance"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationRecipient addresses a notification to one account.
type NotificationRecipient struct {
	ID             int64  `gorm:"primaryKey"`
	NotificationID int64  `gorm:"not null;uniqueIndex:idx_notification_recipient"`
	UserModel      string `gorm:"size:10;not null;uniqueIndex:idx_notification_recipient"`
	UserID         int64  `gorm:"not null;uniqueIndex:idx_notification_recipient;index"`
}

// NotificationRead records that one account has read a notification.
type NotificationRead struct {
	ID             int64     `json:"-" gorm:"primaryKey"`
	NotificationID int64     `json:"-" gorm:"not null;uniqueIndex:idx_notification_read"`
	UserID         int64     `json:"user" gorm:"not null;uniqueIndex:idx_notification_read"`
	UserModel      string    `json:"userModel" gorm:"size:10;not null;uniqueIndex:idx_notification_read"`
	ReadAt         time.Time `json:"readAt" gorm:"not null"`
}

// RecipientSelector is the API form of the recipient rows.
type RecipientSelector struct {
	All      bool    `json:"all"`
	Students []int64 `json:"students"`
	Admins   []int64 `json:"admins"`
}

func (r RecipientSelector) Empty() bool {
	return !r.All && len(r.Students) == 0 && len(r.Admins) == 0
}

type Notification struct {
	ID            int64                   `json:"id" gorm:"primaryKey"`
	Title         string                  `json:"title" gorm:"size:100;not null"`
	Message       string                  `json:"message" gorm:"size:500;not null"`
	Type          NotificationType        `json:"type" gorm:"size:20;not null;index"`
	Category      NotificationCategory    `json:"category" gorm:"size:20;not null;index"`
	Priority      NotificationPriority    `json:"priority" gorm:"size:10;not null"`
	RecipientsAll bool                    `json:"-" gorm:"not null;index"`
	Recipients    []NotificationRecipient `json:"-" gorm:"foreignKey:NotificationID"`
	ReadBy        []NotificationRead      `json:"readBy,omitempty" gorm:"foreignKey:NotificationID"`
	ActionURL     string                  `json:"actionUrl,omitempty"`
	ActionText    string                  `json:"actionText,omitempty"`
	EquipmentID   *int64                  `json:"equipmentId,omitempty"`
	RequestID     *int64                  `json:"requestId,omitempty"`
	CreatedBy     *int64                  `json:"createdBy,omitempty"`
	Tags          []string                `json:"tags,omitempty" gorm:"type:text;serializer:json"`
	SentAt        time.Time               `json:"sentAt" gorm:"not null;index"`
	ExpiresAt     *time.Time              `json:"expiresAt,omitempty"`
	IsActive      bool                    `json:"isActive" gorm:"not null;index"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// SetRecipients replaces the recipient rows from a selector.
func (n *Notification) SetRecipients(sel RecipientSelector) {
	n.RecipientsAll = sel.All
	n.Recipients = n.Recipients[:0]
	for _, id := range sel.Students {
		n.Recipients = append(n.Recipients, NotificationRecipient{UserModel: PrincipalStudent.UserModel(), UserID: id})
	}
	for _, id := range sel.Admins {
		n.Recipients = append(n.Recipients, NotificationRecipient{UserModel: PrincipalAdmin.UserModel(), UserID: id})
	}
}

func (n *Notification) Selector() RecipientSelector {
	sel := RecipientSelector{All: n.RecipientsAll, Students: []int64{}, Admins: []int64{}}
	for _, r := range n.Recipients {
		switch r.UserModel {
		case PrincipalStudent.UserModel():
			sel.Students = append(sel.Students, r.UserID)
		case PrincipalAdmin.UserModel():
			sel.Admins = append(sel.Admins, r.UserID)
		}
	}
	return sel
}

// AddressedTo reports whether the notification targets the principal,
// ignoring activity and expiry.
func (n *Notification) AddressedTo(kind PrincipalKind, id int64) bool {
	if n.RecipientsAll {
		return true
	}
	model := kind.UserModel()
	for _, r := range n.Recipients {
		if r.UserModel == model && r.UserID == id {
			return true
		}
	}
	return false
}

// VisibleAt reports whether the notification is active and unexpired.
func (n *Notification) VisibleAt(now time.Time) bool {
	return n.IsActive && (n.ExpiresAt == nil || n.ExpiresAt.After(now))
}

func (n *Notification) ReadByUser(kind PrincipalKind, id int64) bool {
	model := kind.UserModel()
	for _, r := range n.ReadBy {
		if r.UserModel == model && r.UserID == id {
			return true
		}
	}
	return false
}

func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return json.Marshal(struct {
		plain
		Recipients RecipientSelector `json:"recipients"`
	}{
		plain:      plain(n),
		Recipients: n.Selector(),
	})
}

// RequestUpdateMessage is the student-facing text for a request transition.
func RequestUpdateMessage(status RequestStatus) string {
	switch status {
	case RequestApproved:
		return "Your equipment request has been approved!"
	case RequestRejected:
		return "Your equipment request has been rejected."
	case RequestBorrowed:
		return "Your equipment has been borrowed successfully."
	case RequestReturned:
		return "Your equipment has been returned successfully."
	}
	return "Your equipment request status has been updated."
}
