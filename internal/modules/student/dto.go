package student

import (
	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

type ListQuery struct {
	Search     string `form:"search" binding:"omitempty,max=100"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Year       int    `form:"year" binding:"omitempty,min=1,max=6"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Verified   *bool  `form:"-"`
}

type RequestsQuery struct {
	Status domain.RequestStatus `form:"status" binding:"omitempty,oneof=pending approved rejected borrowed returned overdue"`
	Page   int                  `form:"page" binding:"omitempty,min=1"`
	Limit  int                  `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
// In multipart bodies address and emergencyContact are JSON strings.
type ProfileUpdate struct {
	FirstName        *string                  `json:"firstName" form:"firstName" binding:"omitempty,max=50"`
	LastName         *string                  `json:"lastName" form:"lastName" binding:"omitempty,max=50"`
	Department       *string                  `json:"department" form:"department" binding:"omitempty,max=100"`
	Year             *int                     `json:"year" form:"year" binding:"omitempty,min=1,max=6"`
	Semester         *int                     `json:"semester" form:"semester" binding:"omitempty,min=1,max=8"`
	Address          *domain.Address          `json:"address" form:"-"`
	EmergencyContact *domain.EmergencyContact `json:"emergencyContact" form:"-"`
}

type ListResult struct {
	Students   []domain.Student    `json:"students"`
	Pagination response.Pagination `json:"pagination"`
}

type RequestsResult struct {
	Requests   []domain.Request    `json:"requests"`
	Pagination response.Pagination `json:"pagination"`
}

type Summary struct {
	ID            int64             `json:"id"`
	StudentNumber string            `json:"studentId"`
	FullName      string            `json:"fullName"`
	Department    string            `json:"department"`
	Year          int               `json:"year"`
	Semester      int               `json:"semester"`
	IsVerified    bool              `json:"isVerified"`
	Statistics    domain.Statistics `json:"statistics"`
}

type Stats struct {
	Student        Summary                    `json:"student"`
	RequestStats   []repository.StatusCount   `json:"requestStats"`
	EquipmentUsage []repository.CategoryUsage `json:"equipmentUsage"`
	RecentActivity []domain.Request           `json:"recentActivity"`
}
