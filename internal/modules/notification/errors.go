package notification

import "sportsequip/internal/pkg/apperr"

var (
	ErrNotificationNotFound = apperr.NotFound("Notification not found")
	ErrInvalidRecipients    = apperr.Validation("Recipients must name at least one student or admin")
	ErrExpiresInPast        = apperr.Validation("Expiry date must be in the future")
)
