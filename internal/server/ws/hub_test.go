package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBus is a signal bus whose subscriptions deliver nothing and close
// with the context.
type stubBus struct{}

func (stubBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return nil
}

func (stubBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func newTestClient(h *Hub) *client {
	c := &client{
		hub:  h,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}
	for _, ch := range defaultChannels {
		c.subs[ch] = true
	}
	return c
}

// A client dropping after the hub loop has exited must not block its
// read goroutine on the unregister channel.
func TestDropReturnsAfterHubShutdown(t *testing.T) {
	hub := NewHub(stubBus{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	running := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(running)
	}()

	c := newTestClient(hub)
	hub.register <- c

	cancel()
	select {
	case <-running:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	dropped := make(chan struct{})
	go func() {
		c.drop()
		close(dropped)
	}()

	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after hub shutdown")
	}
}

// Shutdown closes the send channel of every registered client so their
// write goroutines terminate.
func TestShutdownClosesClientSendChannels(t *testing.T) {
	hub := NewHub(stubBus{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	running := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(running)
	}()

	c := newTestClient(hub)
	hub.register <- c
	cancel()
	<-running

	select {
	case _, ok := <-c.send:
		require.False(t, ok, "send channel should be closed, not carrying data")
	case <-time.After(time.Second):
		t.Fatal("send channel left open after shutdown")
	}
}
