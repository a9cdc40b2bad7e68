package model

import (
    "testing"
    "time"

    "github.com/google/uuid"
)

func TestCloneTicketCopiesPointers(t *testing.T) {
    email, nid, name := "karim@example.com", "1990", "A1"
    cancelled := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    boarding := uint64(7)
    src := &Ticket{
        ID:              uuid.New(),
        Passenger:       Passenger{Name: "Karim", Phone: "018", Email: &email, NID: &nid},
        Seats:           []TicketSeat{{Row: 0, Column: 0, SeatNumber: 1, SeatName: &name, Fare: 800}},
        BoardingPointID: &boarding,
        CancelledAt:     &cancelled,
    }

    out := CloneTicket(src)
    *out.Passenger.Email = "other@example.com"
    *out.Passenger.NID = "0000"
    *out.Seats[0].SeatName = "Z9"
    *out.BoardingPointID = 99
    *out.CancelledAt = cancelled.Add(time.Hour)

    if email != "karim@example.com" || nid != "1990" || name != "A1" {
        t.Fatalf("clone shares string pointers with the source: email=%s nid=%s seat=%s", email, nid, name)
    }
    if boarding != 7 || !cancelled.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
        t.Fatalf("clone shares boarding point or cancel time with the source")
    }
    if CloneTicket(nil) != nil {
        t.Fatalf("expected nil clone of nil ticket")
    }
}
