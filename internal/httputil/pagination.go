package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseLimit safely parses and validates the limit query parameter.
// The default and maximum are caller-supplied so each endpoint can keep
// its own cap (event listing defaults to 100, profile listing caps at 100).
func ParseLimit(c *gin.Context, def, max int) (int, error) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(def))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > max {
		return 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", max)
	}

	return limit, nil
}
