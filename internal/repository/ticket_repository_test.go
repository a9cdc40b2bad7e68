package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

func newMock(t *testing.T) (*TicketRepo, *ScheduleRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewTicketRepo(db), NewScheduleRepo(db), mock
}

func sampleTicket() *model.Ticket {
    name := "A1"
    return &model.Ticket{
        ID:           uuid.New(),
        ScheduleID:   10,
        Passenger:    model.Passenger{Name: "Karim", Phone: "01811000000"},
        TicketNumber: "TK-260301-ABCDEF",
        Seats: []model.TicketSeat{
            {Row: 0, Column: 0, SeatNumber: 1, SeatName: &name, Fare: 800},
            {Row: 0, Column: 1, SeatNumber: 2, Fare: 800},
        },
        TotalFare:   1600,
        FinalAmount: 1600,
        Status:      model.TicketConfirmed,
        BookingDate: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
    }
}

func expectLock(mock sqlmock.Sqlmock, status string) {
    mock.ExpectQuery("SELECT status FROM schedules").WithArgs(10).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(status))
}

func TestTicketCreateBooksSeats(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()
    now := tk.BookingDate

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WithArgs(tk.ID, 10, 0, 0, "", now).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE schedule_seats").WithArgs(tk.ID, 10, 0, 1, "", now).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO ticket_seats").WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    if err := repo.Create(context.Background(), tk, "", now); err != nil {
        t.Fatalf("create: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCreateReportsTakenSeat(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT seat_number, seat_name, is_broken FROM schedule_seats").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number", "seat_name", "is_broken"}).AddRow(1, "A1", false))
    mock.ExpectRollback()

    err := repo.Create(context.Background(), tk, "", tk.BookingDate)
    var conflict *booking.SeatConflictError
    if !errors.As(err, &conflict) {
        t.Fatalf("expected SeatConflictError, got %v", err)
    }
    if conflict.Seat.Label() != "A1" {
        t.Fatalf("expected conflict on A1, got %s", conflict.Seat.Label())
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCreateRejectsBrokenAndMissingSeats(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT seat_number, seat_name, is_broken FROM schedule_seats").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number", "seat_name", "is_broken"}).AddRow(1, nil, true))
    mock.ExpectRollback()
    err := repo.Create(context.Background(), tk, "", tk.BookingDate)
    if !errors.Is(err, booking.ErrInvalidSeatRequest) || !errors.Is(err, inventory.ErrSeatBroken) {
        t.Fatalf("expected broken seat error, got %v", err)
    }

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT seat_number, seat_name, is_broken FROM schedule_seats").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number", "seat_name", "is_broken"}))
    mock.ExpectRollback()
    err = repo.Create(context.Background(), tk, "", tk.BookingDate)
    if !errors.Is(err, booking.ErrSeatNotFound) {
        t.Fatalf("expected ErrSeatNotFound, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCreateDuplicateNumber(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO tickets").WillReturnError(&mysql.MySQLError{
        Number:  1062,
        Message: "Duplicate entry 'TK-260301-ABCDEF' for key 'tickets.uq_tickets_number'",
    })
    mock.ExpectRollback()

    if err := repo.Create(context.Background(), tk, "", tk.BookingDate); !errors.Is(err, booking.ErrTicketNumberTaken) {
        t.Fatalf("expected ErrTicketNumberTaken, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCreateOnClosedSchedule(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleCancelled)
    mock.ExpectRollback()

    if err := repo.Create(context.Background(), tk, "", tk.BookingDate); !errors.Is(err, booking.ErrScheduleClosed) {
        t.Fatalf("expected ErrScheduleClosed, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCancel(t *testing.T) {
    repo, _, mock := newMock(t)
    id := uuid.New()
    at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

    mock.ExpectQuery("SELECT schedule_id FROM tickets").WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(10))
    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectQuery("SELECT status FROM tickets").WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.TicketConfirmed))
    mock.ExpectExec("UPDATE tickets SET status").WithArgs(model.TicketCancelled, at, id).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE ticket_seats SET active = NULL").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec("UPDATE schedule_seats SET status = 'AVAILABLE'").WithArgs(10, id).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    changed, err := repo.Cancel(context.Background(), id, at)
    if err != nil || !changed {
        t.Fatalf("cancel: changed=%v err=%v", changed, err)
    }

    mock.ExpectQuery("SELECT schedule_id FROM tickets").WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}).AddRow(10))
    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectQuery("SELECT status FROM tickets").WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.TicketCancelled))
    mock.ExpectRollback()

    changed, err = repo.Cancel(context.Background(), id, at)
    if err != nil || changed {
        t.Fatalf("second cancel: changed=%v err=%v", changed, err)
    }

    mock.ExpectQuery("SELECT schedule_id FROM tickets").WillReturnRows(sqlmock.NewRows([]string{"schedule_id"}))
    if _, err := repo.Cancel(context.Background(), uuid.New(), at); !errors.Is(err, booking.ErrTicketNotFound) {
        t.Fatalf("expected ErrTicketNotFound, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketGetByIDLoadsSeats(t *testing.T) {
    repo, _, mock := newMock(t)
    id := uuid.New()
    booked := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    cols := []string{"id", "schedule_id", "ticket_number", "passenger_name", "passenger_phone", "passenger_email", "passenger_nid",
        "total_fare", "discount", "discount_amount", "final_amount", "boarding_point_id", "dropping_point_id", "status", "booking_date", "cancelled_at"}
    mock.ExpectQuery("(?s)SELECT (.+) FROM tickets WHERE id").WithArgs(id).
        WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), 10, "TK-260301-ABCDEF", "Karim", "01811000000", nil, nil,
            1700, 100, 100, 1600, 3, nil, model.TicketConfirmed, booked, nil))
    mock.ExpectQuery("SELECT ticket_id, seat_row, seat_col, seat_number, seat_name, fare FROM ticket_seats").WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "seat_row", "seat_col", "seat_number", "seat_name", "fare"}).
            AddRow(id.String(), 0, 0, 1, "A1", 800).
            AddRow(id.String(), 2, 1, 7, nil, 900))

    tk, err := repo.GetByID(context.Background(), id)
    if err != nil {
        t.Fatalf("get: %v", err)
    }
    if len(tk.Seats) != 2 || tk.Seats[1].Fare != 900 || tk.Seats[1].SeatName != nil {
        t.Fatalf("unexpected seats: %+v", tk.Seats)
    }
    if tk.BoardingPointID == nil || *tk.BoardingPointID != 3 || tk.DroppingPointID != nil {
        t.Fatalf("unexpected stoppages: %v %v", tk.BoardingPointID, tk.DroppingPointID)
    }
    if tk.Passenger.Email != nil || tk.CancelledAt != nil {
        t.Fatalf("expected nil optional fields")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketCreateNamesCollidingSoldSeat(t *testing.T) {
    repo, _, mock := newMock(t)
    tk := sampleTicket()

    mock.ExpectBegin()
    expectLock(mock, model.ScheduleScheduled)
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE schedule_seats").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO ticket_seats").WillReturnError(&mysql.MySQLError{
        Number:  1062,
        Message: "Duplicate entry '10-0-1-1' for key 'ticket_seats.uq_ticket_seats_live'",
    })
    mock.ExpectQuery("SELECT seat_row, seat_col FROM ticket_seats").WithArgs(10).
        WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_col"}).AddRow(0, 1).AddRow(3, 2))
    mock.ExpectRollback()

    err := repo.Create(context.Background(), tk, "", tk.BookingDate)
    var conflict *booking.SeatConflictError
    if !errors.As(err, &conflict) {
        t.Fatalf("expected SeatConflictError, got %v", err)
    }
    if conflict.Seat.Row != 0 || conflict.Seat.Column != 1 || conflict.Seat.SeatNumber != 2 {
        t.Fatalf("expected conflict on seat 2 at (0,1), got %+v", conflict.Seat)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestTicketListByScheduleReportsRowError(t *testing.T) {
    repo, _, mock := newMock(t)
    at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    cols := []string{"id", "schedule_id", "ticket_number", "passenger_name", "passenger_phone", "passenger_email", "passenger_nid",
        "total_fare", "discount", "discount_amount", "final_amount", "boarding_point_id", "dropping_point_id", "status", "booking_date", "cancelled_at"}
    rows := sqlmock.NewRows(cols).
        AddRow(uuid.New().String(), 10, "TK-1", "Karim", "018", nil, nil, 800, 0, 0, 800, nil, nil, model.TicketConfirmed, at, nil).
        AddRow(uuid.New().String(), 10, "TK-2", "Rina", "019", nil, nil, 800, 0, 0, 800, nil, nil, model.TicketConfirmed, at, nil).
        RowError(1, errors.New("connection reset"))
    mock.ExpectQuery("FROM tickets WHERE schedule_id").WithArgs(10).WillReturnRows(rows)

    if _, err := repo.ListBySchedule(context.Background(), 10); err == nil {
        t.Fatalf("expected the row error to surface, got a truncated list")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}
