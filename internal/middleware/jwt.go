package middleware // reusable echo middleware for the ticketing API

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID    = "user_id"
    CtxRole      = "role"
    CtxCompanyID = "company_id"
)

// JWTAuth verifies the Bearer staff token and stores its subject, role and
// company in the request context.  Tokens are issued by the operator auth
// service; the secret must match the one it signs with.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseStaffToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxUserID, claims.Subject)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxCompanyID, claims.CompanyID)
            return next(c)
        }
    }
}
