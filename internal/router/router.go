package router // package router defines how HTTP routes are registered for the API

import (
    "database/sql"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/handler"
)

// RegisterRoutes registers the probes.  /healthz only says the process is
// up; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
    e.GET("/healthz", handler.Health)
    e.GET("/readyz", handler.Ready(db))
}

// RegisterPublic registers the endpoints passengers and counters use
// without a token.  cache wraps the read-mostly search; limit wraps every
// call that takes seats.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, b *handler.BookingHandler, cache, limit echo.MiddlewareFunc) {
    e.GET("/v1/schedules/search", p.SearchSchedules, cache)
    e.GET("/v1/schedules/:id", p.GetSchedule)
    e.GET("/v1/schedules/:id/seats", p.ListAvailableSeats)
    e.GET("/v1/schedules/:id/seat-map", p.SeatMap)

    e.POST("/v1/schedules/:id/holds", b.HoldSeats, limit)
    e.DELETE("/v1/schedules/:id/holds/:token", b.ReleaseHold)
    e.POST("/v1/schedules/:id/tickets", b.Book, limit)

    e.GET("/v1/tickets/:id", b.GetTicket)
    e.GET("/v1/tickets/:id/pdf", b.TicketPDF)
    e.POST("/v1/tickets/:id/cancel", b.CancelTicket, limit)
}
