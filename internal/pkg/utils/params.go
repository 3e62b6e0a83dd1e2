package utils

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sportsequip/internal/pkg/apperr"
)

var ErrInvalidID = apperr.Validation("Invalid id")

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// QueryBool treats "true" and "1" as true and anything else as false.
func QueryBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "true", "1":
		return true
	}
	return false
}

// QueryOptionalBool returns nil when the parameter is absent or unparsable.
func QueryOptionalBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &v
}

// JSONField decodes a form value holding JSON into dst. An empty value
// leaves dst untouched.
func JSONField(c *gin.Context, name string, dst any) error {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperr.Validation("Invalid request body", apperr.FieldError{Field: name, Message: "must be valid JSON"})
	}
	return nil
}

// SplitTags accepts a JSON list or a comma separated string.
func SplitTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	var out []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &out) == nil {
		return out
	}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
