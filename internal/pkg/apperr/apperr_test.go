package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusUnauthorized, KindAuthentication.Status())
	assert.Equal(t, http.StatusForbidden, KindAuthorization.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusBadRequest, KindBusinessRule.Status())
	assert.Equal(t, http.StatusBadRequest, KindUpload.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}

func TestDerivedErrorsMatchSentinel(t *testing.T) {
	sentinel := Business("Request is not %s")

	formatted := sentinel.Withf("pending")
	assert.Equal(t, "Request is not pending", formatted.Message)
	assert.ErrorIs(t, formatted, sentinel)

	wrapped := fmt.Errorf("approve: %w", formatted.Wrap(errors.New("boom")))
	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, KindBusinessRule, KindOf(wrapped))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
