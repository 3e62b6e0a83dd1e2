package notification

import (
	"fmt"
	"time"

	"sportsequip/internal/domain"
)

// RequestUpdate is the notification a student receives when an admin moves
// one of their requests.
func RequestUpdate(req *domain.Request, status domain.RequestStatus, adminID int64, now time.Time) *domain.Notification {
	n := &domain.Notification{
		Title:      "Request " + status.Title(),
		Message:    domain.RequestUpdateMessage(status),
		Type:       domain.NotificationRequestUpdate,
		Category:   domain.CategoryRequest,
		Priority:   domain.PriorityMedium,
		ActionURL:  fmt.Sprintf("/requests/%d", req.ID),
		ActionText: "View Request",
		RequestID:  &req.ID,
		SentAt:     now,
		IsActive:   true,
	}
	if adminID != 0 {
		n.CreatedBy = &adminID
	}
	n.SetRecipients(domain.RecipientSelector{Students: []int64{req.StudentID}})
	return n
}

// NewEquipment announces a new arrival to everyone.
func NewEquipment(eq *domain.Equipment, adminID int64, now time.Time) *domain.Notification {
	n := &domain.Notification{
		Title:       "New Equipment Available!",
		Message:     fmt.Sprintf("New %s has been added to our inventory. Check it out now!", eq.Name),
		Type:        domain.NotificationNewEquipment,
		Category:    domain.CategoryEquipment,
		Priority:    domain.PriorityMedium,
		ActionURL:   fmt.Sprintf("/equipment/%d", eq.ID),
		ActionText:  "View Equipment",
		EquipmentID: &eq.ID,
		SentAt:      now,
		IsActive:    true,
	}
	if adminID != 0 {
		n.CreatedBy = &adminID
	}
	n.SetRecipients(domain.RecipientSelector{All: true})
	return n
}

// RequestExtended tells the student their return date moved.
func RequestExtended(req *domain.Request, until time.Time, adminID int64, now time.Time) *domain.Notification {
	n := RequestUpdate(req, req.Status, adminID, now)
	n.Title = "Request Extended"
	n.Message = fmt.Sprintf("Your equipment return date has been extended to %s.", until.Format("2006-01-02"))
	return n
}
