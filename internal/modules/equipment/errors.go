package equipment

import "sportsequip/internal/pkg/apperr"

var (
	ErrEquipmentNotFound = apperr.NotFound("Equipment not found")
	ErrInvalidCategory   = apperr.Validation("Valid category is required", apperr.FieldError{Field: "category", Message: "Valid category is required"})
	ErrInvalidCondition  = apperr.Validation("Invalid equipment condition", apperr.FieldError{Field: "specifications.condition", Message: "must be one of: New, Excellent, Good, Fair, Poor"})
	ErrTotalTooSmall     = apperr.Validation("Total quantity must be at least 1", apperr.FieldError{Field: "quantity.total", Message: "Total quantity must be at least 1"})
	ErrInvalidQuantity   = apperr.Validation("Invalid quantity", apperr.FieldError{Field: "quantity", Message: "must be a number or an object with total"})
)
