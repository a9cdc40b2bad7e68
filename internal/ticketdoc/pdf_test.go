package ticketdoc

import (
    "bytes"
    "testing"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

func TestETicketRendersPDF(t *testing.T) {
    name := "B2"
    tk := &model.Ticket{
        ID:           uuid.New(),
        TicketNumber: "TK-260301-ABCDEF",
        Status:       model.TicketConfirmed,
        Passenger:    model.Passenger{Name: "Rahim", Phone: "017"},
        Seats:        []model.TicketSeat{{SeatNumber: 6, SeatName: &name, Fare: 80000}},
        TotalFare:    80000,
        FinalAmount:  80000,
        BookingDate:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
    }
    dep := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
    out, filename, err := ETicket(tk, Trip{Schedule: &model.Schedule{DepartureTime: dep, ArrivalTime: dep.Add(6 * time.Hour)}, Route: "Dhaka - Sylhet"})
    if err != nil {
        t.Fatalf("render: %v", err)
    }
    if !bytes.HasPrefix(out, []byte("%PDF-")) {
        t.Fatalf("output is not a PDF")
    }
    if filename != "ETICKET_TK-260301-ABCDEF.pdf" {
        t.Fatalf("unexpected filename %q", filename)
    }
}

func TestMoney(t *testing.T) {
    cases := map[int64]string{0: "0.00", 5: "0.05", 80000: "800.00", 123456: "1234.56", -150: "-1.50"}
    for in, want := range cases {
        if got := Money(in); got != want {
            t.Fatalf("Money(%d) = %q, want %q", in, got, want)
        }
    }
}
