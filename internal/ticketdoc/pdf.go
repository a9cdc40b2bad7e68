// Package ticketdoc renders printable e-tickets.
package ticketdoc

import (
    "bytes"
    "fmt"
    "strings"

    "github.com/phpdave11/gofpdf"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// Trip is the schedule context printed on a ticket.  Route and BusNumber
// are optional.
type Trip struct {
    Schedule  *model.Schedule
    Route     string
    BusNumber string
}

// ETicket renders t as a one-page A4 PDF and returns the bytes with a
// suggested filename.
func ETicket(t *model.Ticket, trip Trip) ([]byte, string, error) {
    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetTitle("E-Ticket "+t.TicketNumber, false)
    pdf.AddPage()
    pdf.SetFont("Helvetica", "B", 18)
    pdf.Cell(0, 10, "E-TICKET")
    pdf.Ln(12)

    pdf.SetFont("Helvetica", "", 12)
    lines := []string{
        fmt.Sprintf("Ticket No      : %s", t.TicketNumber),
        fmt.Sprintf("Status         : %s", t.Status),
        fmt.Sprintf("Passenger      : %s", safe(t.Passenger.Name)),
        fmt.Sprintf("Phone          : %s", safe(t.Passenger.Phone)),
    }
    if s := trip.Schedule; s != nil {
        lines = append(lines,
            fmt.Sprintf("Route          : %s", safe(trip.Route)),
            fmt.Sprintf("Bus            : %s", safe(trip.BusNumber)),
            fmt.Sprintf("Departure      : %s UTC", s.DepartureTime.UTC().Format("2006-01-02 15:04")),
            fmt.Sprintf("Arrival        : %s UTC", s.ArrivalTime.UTC().Format("2006-01-02 15:04")),
        )
    }
    lines = append(lines, fmt.Sprintf("Booked at      : %s UTC", t.BookingDate.UTC().Format("2006-01-02 15:04")))
    for _, s := range lines {
        pdf.Cell(0, 7, s)
        pdf.Ln(7)
    }

    pdf.Ln(4)
    pdf.SetFont("Helvetica", "B", 12)
    pdf.CellFormat(40, 8, "Seat", "1", 0, "L", false, 0, "")
    pdf.CellFormat(40, 8, "Fare", "1", 1, "R", false, 0, "")
    pdf.SetFont("Helvetica", "", 12)
    for _, s := range t.Seats {
        label := model.SeatCell{SeatNumber: s.SeatNumber, SeatName: s.SeatName}.Label()
        pdf.CellFormat(40, 8, label, "1", 0, "L", false, 0, "")
        pdf.CellFormat(40, 8, Money(s.Fare), "1", 1, "R", false, 0, "")
    }
    pdf.Ln(4)
    for _, row := range [][2]string{
        {"Total", Money(t.TotalFare)},
        {"Discount", Money(t.DiscountAmount)},
        {"Payable", Money(t.FinalAmount)},
    } {
        pdf.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
        pdf.CellFormat(40, 7, row[1], "", 1, "R", false, 0, "")
    }

    pdf.Ln(6)
    pdf.SetFont("Helvetica", "I", 10)
    pdf.MultiCell(0, 6, "Please show this ticket when boarding. A cancelled ticket is not valid for travel.", "", "", false)

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, "", err
    }
    return buf.Bytes(), "ETICKET_" + t.TicketNumber + ".pdf", nil
}

// Money formats minor currency units with two decimals.
func Money(v int64) string {
    sign := ""
    if v < 0 {
        sign, v = "-", -v
    }
    return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func safe(s string) string {
    if strings.TrimSpace(s) == "" {
        return "-"
    }
    return s
}
