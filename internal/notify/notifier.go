// Package notify pushes operator alerts about market activity to chat
// channels. Alerts are dispatched to every registered sender and can be
// filtered by event so operators receive only what they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/eveexchange/backend/internal/domain"
)

// Events emitted by the backend.
const (
	EventScanCompleted = "scan_completed"
	EventError         = "error"
)

// Message is one operator alert. Fields carry structured key/value pairs
// that channels render natively where they can (Discord embeds) and fall
// back to plain text where they cannot.
type Message struct {
	Event  string
	Title  string
	Body   string
	Fields []Field
}

// Field is one labelled value on a Message.
type Field struct {
	Name  string
	Value string
}

// Sender is the interface each notification channel implements.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	// Name identifies the channel in logs and error messages.
	Name() string
}

// Notifier dispatches alerts to one or more Senders, filtered by the
// configured event set. An empty set allows every event.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// events listed in events pass the filter; an empty list allows all.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// ScanCompleted announces a finished regional arbitrage scan with its
// route and headline numbers.
func (n *Notifier) ScanCompleted(ctx context.Context, scan domain.ArbitrageScan) error {
	var profit float64
	for _, lot := range scan.Trades {
		profit += lot.TotalProfit
	}

	return n.send(ctx, Message{
		Event: EventScanCompleted,
		Title: "Regional scan completed",
		Body: fmt.Sprintf("%d profitable trades hauling %d -> %d",
			len(scan.Trades), scan.StartRegion, scan.EndRegion),
		Fields: []Field{
			{Name: "Route", Value: fmt.Sprintf("%d -> %d", scan.StartRegion, scan.EndRegion)},
			{Name: "Trades", Value: strconv.Itoa(len(scan.Trades))},
			{Name: "Total profit", Value: formatISK(profit)},
			{Name: "Scan", Value: scan.ID},
		},
	})
}

// Alert sends a plain title/body notification for the given event.
func (n *Notifier) Alert(ctx context.Context, event, title, body string) error {
	return n.send(ctx, Message{Event: event, Title: title, Body: body})
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if len(n.events) > 0 && !n.events[msg.Event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", msg.Event))
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	// Every sender gets a delivery attempt; failures are collected, not
	// short-circuited.
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, msg); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("event", msg.Event),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// formatISK renders an amount rounded to whole ISK with thousands
// separators, the way the in-game wallet displays it.
func formatISK(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(" ISK")
	return b.String()
}
