package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveexchange/backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureSender struct {
	name string
	sent []Message
	err  error
}

func (s *captureSender) Send(ctx context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) Name() string { return s.name }

func TestScanCompletedMessageShape(t *testing.T) {
	sender := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	err := n.ScanCompleted(context.Background(), domain.ArbitrageScan{
		ID:          "scan-1",
		StartRegion: 10000002,
		EndRegion:   10000043,
		Trades: []domain.TradeLot{
			{TypeID: 34, TotalProfit: 1_000_000},
			{TypeID: 35, TotalProfit: 500_000},
		},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, EventScanCompleted, msg.Event)
	assert.Equal(t, "Regional scan completed", msg.Title)

	fields := make(map[string]string, len(msg.Fields))
	for _, f := range msg.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "10000002 -> 10000043", fields["Route"])
	assert.Equal(t, "2", fields["Trades"])
	assert.Equal(t, "1,500,000 ISK", fields["Total profit"])
	assert.Equal(t, "scan-1", fields["Scan"])
}

func TestNotifierFiltersEvents(t *testing.T) {
	sender := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{sender}, []string{EventError}, testLogger())

	err := n.ScanCompleted(context.Background(), domain.ArbitrageScan{ID: "scan-1"})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)

	require.NoError(t, n.Alert(context.Background(), EventError, "Sweep failed", "redis down"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Sweep failed", sender.sent[0].Title)
}

func TestNotifierCollectsSenderErrors(t *testing.T) {
	broken := &captureSender{name: "broken", err: errors.New("webhook down")}
	working := &captureSender{name: "working"}
	n := NewNotifier([]Sender{broken, working}, nil, testLogger())

	err := n.Alert(context.Background(), EventError, "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "webhook down")
	// One failing channel must not block the others.
	assert.Len(t, working.sent, 1)
}

func TestFormatISK(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 ISK"},
		{999, "999 ISK"},
		{1000, "1,000 ISK"},
		{1234567.49, "1,234,567 ISK"},
		{5_000_000_000, "5,000,000,000 ISK"},
		{-2500, "-2,500 ISK"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatISK(tc.in), "formatISK(%v)", tc.in)
	}
}
