package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user's id.  ok is false when the
// request did not pass through JWTAuth.
func UserID(c echo.Context) (id uint64, ok bool) {
	switch v := c.Get(ctxUserID).(type) {
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		return n, err == nil && n > 0
	case uint64:
		return v, v > 0
	}
	return 0, false
}

// Role returns the role claim of the caller, or "" when unauthenticated.
func Role(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}

// IsAdmin reports whether the caller carries the admin role.
func IsAdmin(c echo.Context) bool { return Role(c) == model.RoleAdmin }

// subject is the caller identity used in rate-limit keys: the user id,
// or "anon" for public routes.
func subject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
