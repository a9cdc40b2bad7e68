package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/handler"
    "github.com/iliyamo/bus-ticketing/internal/middleware"
)

// RegisterStaff registers the back-office endpoints under /v1.  All of
// them need a staff token with the STAFF or ADMIN role.  cache serves
// repeated seat plan reads; purge clears cached reads after a write.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string, cache, purge echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
        purge,
    )

    // ---- Seat plans ----
    g.POST("/seat-plans/preview", s.PreviewSeatPlan)
    g.POST("/seat-plans", s.CreateSeatPlan)
    g.GET("/seat-plans", s.ListSeatPlans)
    g.GET("/seat-plans/:id", s.GetSeatPlan, cache)
    g.PUT("/seat-plans/:id", s.UpdateSeatPlan)

    // ---- Buses ----
    g.POST("/buses", s.CreateBus)
    g.GET("/buses", s.ListBuses)
    g.GET("/buses/:id", s.GetBus)
    g.PUT("/buses/:id/layout", s.UpdateBusLayout)
    g.GET("/buses/:id/schedules", s.ListBusSchedules)

    // ---- Schedules ----
    g.POST("/schedules", s.CreateSchedule)
    g.PATCH("/schedules/:id/status", s.SetScheduleStatus)
    g.GET("/schedules/:id/tickets", s.ListScheduleTickets)
}
