package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartTicketConsumer connects to RabbitMQ, declares the ticket queues
// (durable) and appends every event to <logDir>/booking.log in a
// single-line, human-friendly format.  It reconnects with backoff and only
// returns once ctx is cancelled.  Malformed messages are rejected without
// requeue so the loop keeps going.
func StartTicketConsumer(ctx context.Context, url, logDir string) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logDir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-t.C:
        return true
    case <-ctx.Done():
        return false
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("booking-consumer: set QoS failed: %v", err)
    }

    var streams []<-chan amqp.Delivery
    for _, name := range []string{TicketBookedQueue, TicketCancelledQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        streams = append(streams, msgs)
    }

    booked, cancelled := streams[0], streams[1]
    for {
        var (
            d  amqp.Delivery
            ok bool
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-booked:
        case d, ok = <-cancelled:
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := HandleMessage(logDir, d.Body); err != nil {
            log.Printf("booking-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
}

// HandleMessage decodes one TicketEvent and appends it to the booking log.
func HandleMessage(logDir string, body []byte) error {
    var ev TicketEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.TicketNumber == "" {
        return errors.New("event without ticket number")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as one booking.log line.
func FormatLine(ev TicketEvent) string {
    what := "Ticket booked"
    if ev.Kind == TicketCancelledQueue {
        what = "Ticket cancelled"
    }
    return fmt.Sprintf("[%s] %s | ticket=%s | schedule_id=%d | passenger=%q | phone=%s | total=%d | discount=%d | final=%d | seats=[%s]\n",
        ev.OccurredAt, what, ev.TicketNumber, ev.ScheduleID, ev.PassengerName, ev.PassengerPhone,
        ev.TotalFare, ev.DiscountAmount, ev.FinalAmount, strings.Join(ev.Seats, ","))
}
