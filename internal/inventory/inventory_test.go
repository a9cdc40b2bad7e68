package inventory

import (
    "errors"
    "reflect"
    "testing"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

func testLayout(t *testing.T) model.SeatLayout {
    t.Helper()
    cells := []model.SeatCell{
        {Row: 0, Column: 0}, {Row: 0, Column: 1}, {Row: 0, Column: 2, IsAisle: true}, {Row: 0, Column: 3},
        {Row: 1, Column: 0}, {Row: 1, Column: 1, IsBroken: true}, {Row: 1, Column: 2, IsAisle: true}, {Row: 1, Column: 3},
        {Row: 2, Column: 0}, {Row: 2, Column: 1}, {Row: 2, Column: 2}, {Row: 2, Column: 3},
    }
    c, err := seatplan.Compile(seatplan.Description{Rows: 3, Columns: 4, AisleColumns: []int{2}, Cells: cells})
    if err != nil {
        t.Fatalf("compile: %v", err)
    }
    return c.Layout()
}

func TestInstantiateDropsAisles(t *testing.T) {
    layout := testLayout(t)
    seats := Instantiate(layout)
    if len(seats) != 10 {
        t.Fatalf("expected 10 seats, got %d", len(seats))
    }
    for _, s := range seats {
        if s.IsAisle {
            t.Fatalf("aisle cell (%d,%d) in inventory", s.Row, s.Column)
        }
        if s.Status != model.SeatAvailable || s.TicketID != nil || s.Fare != nil {
            t.Fatalf("seat (%d,%d) not in initial state: %+v", s.Row, s.Column, s)
        }
    }
    inv := New(seats, false)
    avail := inv.ListAvailable(time.Now())
    if len(avail) != 9 {
        t.Fatalf("expected 9 available (broken excluded), got %d", len(avail))
    }
    for _, s := range avail {
        if s.IsAisle || s.IsBroken {
            t.Fatalf("unexpected seat in available list: %+v", s)
        }
    }
}

func TestStatusOfUnknownSeat(t *testing.T) {
    inv := New(Instantiate(testLayout(t)), false)
    if _, err := inv.StatusOf(0, 2); !errors.Is(err, ErrSeatNotFound) {
        t.Fatalf("aisle lookup: expected ErrSeatNotFound, got %v", err)
    }
    if _, err := inv.StatusOf(9, 9); !errors.Is(err, ErrSeatNotFound) {
        t.Fatalf("out of range lookup: expected ErrSeatNotFound, got %v", err)
    }
    st, err := inv.StatusOf(0, 0)
    if err != nil || st != model.SeatAvailable {
        t.Fatalf("expected AVAILABLE, got %s %v", st, err)
    }
}

func TestMarkBookedAllOrNothing(t *testing.T) {
    inv := New(Instantiate(testLayout(t)), false)
    now := time.Now()
    t1 := uuid.New()
    if err := inv.MarkBooked([]model.Position{{Row: 0, Column: 1}}, t1, "", now); err != nil {
        t.Fatalf("book: %v", err)
    }
    err := inv.MarkBooked([]model.Position{{Row: 0, Column: 0}, {Row: 0, Column: 1}}, uuid.New(), "", now)
    var taken *SeatTakenError
    if !errors.As(err, &taken) || taken.Seat.Pos() != (model.Position{Row: 0, Column: 1}) {
        t.Fatalf("expected SeatTakenError on (0,1), got %v", err)
    }
    if st, _ := inv.StatusOf(0, 0); st != model.SeatAvailable {
        t.Fatalf("(0,0) changed on failed booking: %s", st)
    }
    if inv.BookedCount() != 1 {
        t.Fatalf("expected 1 booked seat, got %d", inv.BookedCount())
    }
    if err := inv.MarkBooked([]model.Position{{Row: 1, Column: 1}}, uuid.New(), "", now); !errors.Is(err, ErrSeatBroken) {
        t.Fatalf("expected ErrSeatBroken, got %v", err)
    }
    if err := inv.MarkBooked([]model.Position{{Row: 0, Column: 0}, {Row: 0, Column: 0}}, uuid.New(), "", now); !errors.Is(err, ErrDuplicateSeat) {
        t.Fatalf("expected ErrDuplicateSeat, got %v", err)
    }
}

func TestBookReleaseRestoresInitialState(t *testing.T) {
    layout := testLayout(t)
    initial := Instantiate(layout)
    inv := New(Instantiate(layout), false)
    id := uuid.New()
    req := []model.Position{{Row: 2, Column: 0}, {Row: 2, Column: 2}}
    if err := inv.MarkBooked(req, id, "", time.Now()); err != nil {
        t.Fatalf("book: %v", err)
    }
    freed := inv.ReleaseTicket(id)
    if len(freed) != 2 {
        t.Fatalf("expected 2 freed seats, got %d", len(freed))
    }
    if !reflect.DeepEqual(inv.Seats(), initial) {
        t.Fatalf("inventory differs from initial state after release")
    }
    if n := len(inv.ReleaseTicket(id)); n != 0 {
        t.Fatalf("second release freed %d seats", n)
    }
}

func TestHoldsBlockOthersUntilExpiry(t *testing.T) {
    inv := New(Instantiate(testLayout(t)), false)
    now := time.Now()
    req := []model.Position{{Row: 0, Column: 0}}
    if err := inv.Hold(req, "tok", now.Add(time.Minute), now); err != nil {
        t.Fatalf("hold: %v", err)
    }
    if taken := inv.FirstTaken(req, "", now); taken == nil {
        t.Fatalf("held seat reported free to a stranger")
    }
    if taken := inv.FirstTaken(req, "tok", now); taken != nil {
        t.Fatalf("held seat reported taken to its holder")
    }
    if taken := inv.FirstTaken(req, "", now.Add(2*time.Minute)); taken != nil {
        t.Fatalf("lapsed hold still blocks")
    }
    if err := inv.MarkBooked(req, uuid.New(), "other", now); !errors.Is(err, ErrSeatTaken) {
        t.Fatalf("expected ErrSeatTaken for foreign hold, got %v", err)
    }
    if err := inv.MarkBooked(req, uuid.New(), "tok", now); err != nil {
        t.Fatalf("holder booking: %v", err)
    }
    st, _ := inv.StatusOf(0, 0)
    if st != model.SeatBooked {
        t.Fatalf("expected BOOKED, got %s", st)
    }
    seat, _ := inv.Lookup(model.Position{Row: 0, Column: 0})
    if seat.HoldToken != nil || seat.HoldExpiresAt != nil {
        t.Fatalf("hold fields not cleared on booking")
    }
}

func TestReleaseHoldAndExpire(t *testing.T) {
    inv := New(Instantiate(testLayout(t)), false)
    now := time.Now()
    _ = inv.Hold([]model.Position{{Row: 0, Column: 0}, {Row: 0, Column: 1}}, "a", now.Add(time.Minute), now)
    _ = inv.Hold([]model.Position{{Row: 2, Column: 2}}, "b", now.Add(time.Second), now)
    if n := inv.ReleaseHold("a"); n != 2 {
        t.Fatalf("expected 2 released, got %d", n)
    }
    if n := inv.ExpireHolds(now.Add(time.Minute)); n != 1 {
        t.Fatalf("expected 1 expired, got %d", n)
    }
    if len(inv.ListAvailable(now)) != 9 {
        t.Fatalf("expected every in-service seat available")
    }
}

func TestCloseReleasesAndBlocks(t *testing.T) {
    inv := New(Instantiate(testLayout(t)), false)
    now := time.Now()
    _ = inv.MarkBooked([]model.Position{{Row: 0, Column: 0}}, uuid.New(), "", now)
    inv.Close()
    if inv.BookedCount() != 0 {
        t.Fatalf("close left booked seats")
    }
    if err := inv.MarkBooked([]model.Position{{Row: 0, Column: 1}}, uuid.New(), "", now); !errors.Is(err, ErrClosed) {
        t.Fatalf("expected ErrClosed, got %v", err)
    }
    if err := inv.Hold([]model.Position{{Row: 0, Column: 1}}, "x", now.Add(time.Minute), now); !errors.Is(err, ErrClosed) {
        t.Fatalf("expected ErrClosed for hold, got %v", err)
    }
    if len(inv.ListAvailable(now)) != 0 {
        t.Fatalf("closed inventory lists available seats")
    }
}
