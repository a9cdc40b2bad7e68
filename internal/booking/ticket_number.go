package booking

import (
    "crypto/rand"
    "fmt"
    "time"
)

// ticketAlphabet has 32 symbols so a random byte maps onto it without bias.
// Look-alike characters (0/O, 1/I) are left out.
const ticketAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultTicketPrefix is used when no prefix is configured.
const DefaultTicketPrefix = "TK"

// NewTicketNumber returns a number like TK-261019-7QH2MX.  Uniqueness is
// enforced by the store; collisions are retried by the manager.
func NewTicketNumber(prefix string, at time.Time) (string, error) {
    if prefix == "" {
        prefix = DefaultTicketPrefix
    }
    buf := make([]byte, 6)
    if _, err := rand.Read(buf); err != nil {
        return "", fmt.Errorf("ticket number: %w", err)
    }
    for i, b := range buf {
        buf[i] = ticketAlphabet[int(b)%len(ticketAlphabet)]
    }
    return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("060102"), buf), nil
}
