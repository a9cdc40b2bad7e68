package handler

import (
    "strconv"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/middleware"
)

func idParam(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func ticketParam(c echo.Context) (uuid.UUID, bool) {
    id, err := uuid.Parse(c.Param("id"))
    return id, err == nil
}

// companyFor resolves which company a staff request acts on.  STAFF tokens
// are pinned to their company; ADMIN may name any company.
func companyFor(c echo.Context, requested uint64) (uint64, error) {
    own, scoped := middleware.CompanyScope(c)
    if !scoped {
        return requested, nil
    }
    if requested != 0 && requested != own {
        return 0, errForbidden
    }
    return own, nil
}

// ensureCompany fails with errForbidden when a STAFF token reads or changes
// a record that belongs to another company.
func ensureCompany(c echo.Context, owner uint64) error {
    if own, scoped := middleware.CompanyScope(c); scoped && own != owner {
        return errForbidden
    }
    return nil
}
