package domain

import "sportsequip/internal/pkg/apperr"

var ErrRequestState = apperr.Business("Request is not %s")
