package equipment

import (
	"encoding/json"

	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

type ListQuery struct {
	Category  domain.Category `form:"category"`
	Search    string          `form:"search" binding:"omitempty,max=100"`
	Page      int             `form:"page" binding:"omitempty,min=1"`
	Limit     int             `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string          `form:"sortBy" binding:"omitempty,oneof=createdAt name category available"`
	SortOrder string          `form:"sortOrder" binding:"omitempty,oneof=asc desc"`

	Available   bool `form:"-"`
	NewArrivals bool `form:"-"`
}

// QuantityInput accepts either a bare total or an object of counters.
type QuantityInput struct {
	Total     *int `json:"total"`
	Available *int `json:"available"`
	Borrowed  *int `json:"borrowed"`
	Damaged   *int `json:"damaged"`
}

func (q *QuantityInput) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*q = QuantityInput{Total: &n}
		return nil
	}
	type plain QuantityInput
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = QuantityInput(p)
	return nil
}

// apply overlays the provided counters on cur.
func (q *QuantityInput) apply(cur domain.Quantity) domain.Quantity {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cur.Total, q.Total)
	set(&cur.Available, q.Available)
	set(&cur.Borrowed, q.Borrowed)
	set(&cur.Damaged, q.Damaged)
	return cur
}

// Structured holds the fields a form body sends as JSON strings.
type Structured struct {
	Specifications *domain.Specifications `json:"specifications" form:"-"`
	Location       *domain.Location       `json:"location" form:"-"`
	Tags           []string               `json:"tags" form:"-"`
	Quantity       *QuantityInput         `json:"quantity" form:"-"`
}

// CreateRequest is bound from JSON or from a multipart form, where the
// structured fields arrive as JSON strings.
type CreateRequest struct {
	Name         string          `json:"name" form:"name" binding:"required,max=100"`
	Description  string          `json:"description" form:"description" binding:"required,max=500"`
	Category     domain.Category `json:"category" form:"category" binding:"required"`
	Subcategory  string          `json:"subcategory" form:"subcategory" binding:"omitempty,max=100"`
	Brand        string          `json:"brand" form:"brand" binding:"omitempty,max=100"`
	Model        string          `json:"model" form:"model" binding:"omitempty,max=100"`
	Barcode      string          `json:"barcode" form:"barcode" binding:"omitempty,max=64"`
	IsNewArrival bool            `json:"isNewArrival" form:"isNewArrival"`

	Structured
}

// UpdateRequest merges every non-nil field into the stored item.
type UpdateRequest struct {
	Name         *string          `json:"name" form:"name" binding:"omitempty,min=1,max=100"`
	Description  *string          `json:"description" form:"description" binding:"omitempty,min=1,max=500"`
	Category     *domain.Category `json:"category" form:"category"`
	Subcategory  *string          `json:"subcategory" form:"subcategory" binding:"omitempty,max=100"`
	Brand        *string          `json:"brand" form:"brand" binding:"omitempty,max=100"`
	Model        *string          `json:"model" form:"model" binding:"omitempty,max=100"`
	Barcode      *string          `json:"barcode" form:"barcode" binding:"omitempty,max=64"`
	IsNewArrival *bool            `json:"isNewArrival" form:"isNewArrival"`

	Structured
}

type ListResult struct {
	Equipment  []domain.Equipment  `json:"equipment"`
	Pagination response.Pagination `json:"pagination"`
}

type Stats struct {
	Overview   repository.EquipmentTotals `json:"overview"`
	ByCategory []repository.CategoryStats `json:"byCategory"`
}
