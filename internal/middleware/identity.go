package middleware

// Helpers that read what JWTAuth stored.  Public routes carry no token,
// so callers fall back to "anon".

import (
    "github.com/labstack/echo/v4"
)

// Subject returns the authenticated staff user id or "anon".
func Subject(c echo.Context) string {
    if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Role returns the role claim or "".
func Role(c echo.Context) string {
    s, _ := c.Get(CtxRole).(string)
    return s
}

// CompanyScope returns the company a STAFF token is bound to.  ok is false
// for ADMIN tokens, which may act on any company.
func CompanyScope(c echo.Context) (companyID uint64, ok bool) {
    if Role(c) == RoleAdmin {
        return 0, false
    }
    id, _ := c.Get(CtxCompanyID).(uint64)
    return id, true
}
