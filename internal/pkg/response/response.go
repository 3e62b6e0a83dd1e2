package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sportsequip/internal/pkg/apperr"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

func SuccessMessage(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Envelope{Success: true, Message: message, Data: data})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Envelope{Success: false, Message: message})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Envelope{Success: false, Message: message})
}

// FromError maps err onto the error taxonomy. Unclassified errors are
// recorded on the context for the logging middleware and hidden from clients.
func FromError(c *gin.Context, err error) {
	ae, ok := asAppError(err)
	if !ok || ae.Kind == apperr.KindInternal {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Message: "Internal server error"})
		return
	}
	c.JSON(ae.Kind.Status(), Envelope{Success: false, Message: ae.Message, Errors: ae.Fields})
}

func asAppError(err error) (*apperr.Error, bool) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Pagination is the paging block returned by list endpoints.
type Pagination struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Count   int64 `json:"count"`
	Limit   int   `json:"limit"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, count int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((count + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Current: page,
		Total:   pages,
		Count:   count,
		Limit:   limit,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}
