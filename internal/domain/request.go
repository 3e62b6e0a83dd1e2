package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestBorrowed RequestStatus = "borrowed"
	RequestReturned RequestStatus = "returned"

	// RequestOverdue is never stored. It is the display state of a borrowed
	// request past its return date.
	RequestOverdue RequestStatus = "overdue"
)

// StoredStatuses are the values the status column can hold.
var StoredStatuses = []RequestStatus{
	RequestPending, RequestApproved, RequestRejected, RequestBorrowed, RequestReturned,
}

func (s RequestStatus) Valid() bool {
	if s == RequestOverdue {
		return true
	}
	for _, st := range StoredStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Open reports whether the status blocks a second request for the same
// student and equipment.
func (s RequestStatus) Open() bool {
	return s == RequestPending || s == RequestApproved
}

func (s RequestStatus) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type HistoryAction string

const (
	ActionCreated  HistoryAction = "created"
	ActionApproved HistoryAction = "approved"
	ActionRejected HistoryAction = "rejected"
	ActionBorrowed HistoryAction = "borrowed"
	ActionReturned HistoryAction = "returned"
	ActionExtended HistoryAction = "extended"
)

type RequestHistory struct {
	ID        int64         `json:"id" gorm:"primaryKey"`
	RequestID int64         `json:"-" gorm:"not null;index"`
	Action    HistoryAction `json:"action" gorm:"size:20;not null"`
	Timestamp time.Time     `json:"timestamp" gorm:"not null"`
	ActorID   int64         `json:"performedBy"`
	ActorKind PrincipalKind `json:"performedByModel" gorm:"size:10"`
	Details   string        `json:"details,omitempty"`
}

type RequestExtension struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	RequestID     int64     `json:"-" gorm:"not null;index"`
	RequestedDate time.Time `json:"requestedDate" gorm:"not null"`
	ApprovedDate  time.Time `json:"approvedDate" gorm:"not null"`
	ApprovedBy    int64     `json:"approvedBy"`
	NewReturnDate time.Time `json:"newReturnDate" gorm:"not null"`
	Reason        string    `json:"reason,omitempty"`
}

type Request struct {
	ID                  int64              `json:"id" gorm:"primaryKey"`
	StudentID           int64              `json:"studentId" gorm:"not null;index"`
	EquipmentID         int64              `json:"equipmentId" gorm:"not null;index"`
	Quantity            int                `json:"quantity" gorm:"not null"`
	BorrowDate          time.Time          `json:"borrowDate" gorm:"not null"`
	ReturnDate          time.Time          `json:"returnDate" gorm:"not null;index"`
	ActualReturnDate    *time.Time         `json:"actualReturnDate,omitempty"`
	Status              RequestStatus      `json:"status" gorm:"size:20;not null;index"`
	Purpose             string             `json:"purpose" gorm:"size:200;not null"`
	Location            string             `json:"location" gorm:"size:200;not null"`
	SpecialRequirements string             `json:"specialRequirements,omitempty" gorm:"size:300"`
	IsUrgent            bool               `json:"isUrgent" gorm:"not null"`
	AdminNotes          string             `json:"adminNotes,omitempty"`
	StudentNotes        string             `json:"studentNotes,omitempty"`
	IsDamaged           bool               `json:"isDamaged" gorm:"not null"`
	ApprovedBy          *int64             `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time         `json:"approvedAt,omitempty"`
	RejectedBy          *int64             `json:"rejectedBy,omitempty"`
	RejectedAt          *time.Time         `json:"rejectedAt,omitempty"`
	RejectionReason     string             `json:"rejectionReason,omitempty" gorm:"size:200"`
	RequestDate         time.Time          `json:"requestDate" gorm:"not null;index"`
	History             []RequestHistory   `json:"history,omitempty" gorm:"foreignKey:RequestID"`
	Extensions          []RequestExtension `json:"extensions,omitempty" gorm:"foreignKey:RequestID"`
	Student             *Student           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Equipment           *Equipment         `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// NotInStatusError builds the error for a transition attempted from the
// wrong state.
func NotInStatusError(expected RequestStatus) error {
	return ErrRequestState.Withf(expected)
}

// RequireStatus fails unless the request is currently in expected.
func (r *Request) RequireStatus(expected RequestStatus) error {
	if r.Status != expected {
		return NotInStatusError(expected)
	}
	return nil
}

// IsOverdue is the derived overdue predicate.
func (r *Request) IsOverdue(now time.Time) bool {
	return r.Status == RequestBorrowed && now.After(r.ReturnDate)
}

func (r *Request) DaysOverdue(now time.Time) int {
	if !r.IsOverdue(now) {
		return 0
	}
	return CeilDays(r.ReturnDate, now)
}

func (r *Request) DisplayStatus(now time.Time) RequestStatus {
	if r.IsOverdue(now) {
		return RequestOverdue
	}
	return r.Status
}

// DurationDays is the length of the requested window in whole days.
func (r *Request) DurationDays() int {
	return CeilDays(r.BorrowDate, r.ReturnDate)
}

// CeilDays counts started days between from and to, never negative.
func CeilDays(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func HistoryEntry(action HistoryAction, actor *Principal, at time.Time, details string) RequestHistory {
	h := RequestHistory{Action: action, Timestamp: at, Details: details}
	if actor != nil {
		h.ActorID = actor.ID()
		h.ActorKind = actor.Kind
	}
	return h
}

func RejectedDetails(reason string) string {
	return "Request rejected: " + reason
}

func ReturnedDetails(damaged bool) string {
	if damaged {
		return "Equipment returned (damaged)"
	}
	return "Equipment returned"
}

func ExtendedDetails(until time.Time) string {
	return fmt.Sprintf("Request extended until %s", until.Format("2006-01-02"))
}

func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	now := time.Now()
	return json.Marshal(struct {
		plain
		DisplayStatus RequestStatus `json:"displayStatus"`
		IsOverdue     bool          `json:"isOverdue"`
		DaysOverdue   int           `json:"daysOverdue"`
		Duration      int           `json:"duration"`
	}{
		plain:         plain(r),
		DisplayStatus: r.DisplayStatus(now),
		IsOverdue:     r.IsOverdue(now),
		DaysOverdue:   r.DaysOverdue(now),
		Duration:      r.DurationDays(),
	})
}
