package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentTraineeID reads the subject stored by the JWT middleware. MapClaims
// decodes numeric claims as float64, so both numeric and string forms are
// accepted.
func currentTraineeID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), true
		}
	case uint64:
		if v > 0 {
			return v, true
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
