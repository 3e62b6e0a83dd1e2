package request

import (
	"bytes"
	"encoding/json"
	"time"

	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

// Date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates, which are
// read as UTC midnight.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidDate
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return ErrInvalidDate
}

type CreateRequest struct {
	EquipmentID         int64  `json:"equipmentId" binding:"required,gt=0"`
	Quantity            int    `json:"quantity" binding:"required,min=1"`
	BorrowDate          *Date  `json:"borrowDate" binding:"required"`
	ReturnDate          *Date  `json:"returnDate" binding:"required"`
	Purpose             string `json:"purpose" binding:"required,max=200"`
	Location            string `json:"location" binding:"required,max=200"`
	SpecialRequirements string `json:"specialRequirements" binding:"omitempty,max=300"`
	IsUrgent            bool   `json:"isUrgent"`
	StudentNotes        string `json:"studentNotes" binding:"omitempty,max=500"`
}

type ListQuery struct {
	Status      domain.RequestStatus `form:"status" binding:"omitempty,oneof=pending approved rejected borrowed returned overdue"`
	StudentID   int64                `form:"studentId" binding:"omitempty,gt=0"`
	EquipmentID int64                `form:"equipmentId" binding:"omitempty,gt=0"`
	Page        int                  `form:"page" binding:"omitempty,min=1"`
	Limit       int                  `form:"limit" binding:"omitempty,min=1,max=100"`
}

type ApproveRequest struct {
	AdminNotes string `json:"adminNotes" binding:"omitempty,max=500"`
}

type RejectRequest struct {
	Reason     string `json:"reason" binding:"max=200"`
	AdminNotes string `json:"adminNotes" binding:"omitempty,max=500"`
}

type ReturnRequest struct {
	IsDamaged  bool   `json:"isDamaged"`
	AdminNotes string `json:"adminNotes" binding:"omitempty,max=500"`
}

type ExtendRequest struct {
	NewReturnDate *Date  `json:"newReturnDate" binding:"required"`
	Reason        string `json:"reason" binding:"omitempty,max=200"`
}

type ListResult struct {
	Requests   []domain.Request    `json:"requests"`
	Pagination response.Pagination `json:"pagination"`
}

// Counts is the per-status breakdown of all requests. Overdue is a subset
// of Borrowed.
type Counts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Borrowed int64 `json:"borrowed"`
	Returned int64 `json:"returned"`
	Overdue  int64 `json:"overdue"`
}

func countsFrom(rows []repository.StatusCount, overdue int64) Counts {
	c := Counts{Overdue: overdue}
	for _, r := range rows {
		c.Total += r.Count
		switch r.Status {
		case domain.RequestPending:
			c.Pending = r.Count
		case domain.RequestApproved:
			c.Approved = r.Count
		case domain.RequestRejected:
			c.Rejected = r.Count
		case domain.RequestBorrowed:
			c.Borrowed = r.Count
		case domain.RequestReturned:
			c.Returned = r.Count
		}
	}
	return c
}

type Stats struct {
	Statistics      Counts           `json:"statistics"`
	RecentRequests  []domain.Request `json:"recentRequests"`
	OverdueRequests []domain.Request `json:"overdueRequests"`
}
