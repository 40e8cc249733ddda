package middleware

// identity.go resolves who is calling for rate-limit keys.  JWTAuth stores
// the token subject under "user_id"; its JSON type depends on who minted
// the token, so every shape is normalised to a string.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns the authenticated subject, or "anon" when the request
// carries none.
func callerID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int, int64, uint64:
		return fmt.Sprint(v)
	}
	return "anon"
}
