package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/model"
    q "github.com/iliyamo/bus-ticketing/internal/queue"
)

// QueuePublisher publishes ticket events to RabbitMQ.  Each kind goes to
// the durable queue of the same name.  Errors are logged and returned so
// the booking manager can ignore them without interrupting the request.
type QueuePublisher struct {
    URL string
    Now func() time.Time
}

var _ booking.EventPublisher = (*QueuePublisher)(nil)

// NewQueuePublisher returns a publisher for the broker at url.
func NewQueuePublisher(url string) *QueuePublisher {
    return &QueuePublisher{URL: url, Now: func() time.Time { return time.Now().UTC() }}
}

// PublishTicketEvent sends the ticket as a persistent JSON message.
func (p *QueuePublisher) PublishTicketEvent(ctx context.Context, kind string, t *model.Ticket) error {
    body, err := json.Marshal(q.NewTicketEvent(kind, t, p.Now()))
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(kind, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    t.ID.String(),
        Timestamp:    p.Now(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", kind, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
