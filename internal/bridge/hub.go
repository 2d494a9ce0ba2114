package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Hub manages surface WebSocket connections and broadcasts outbound
// payloads to all of them.
//
// Concurrency model: a single internal event loop (goroutine) owns the
// client set. Public methods communicate with this loop through
// channels, so no mutexes are required.
//
// Origin policy: the WebSocket handshake only succeeds for origins in
// the configured allow-list. This is the sole security boundary; it is
// enforced before any byte of a payload is trusted. Rejected handshakes
// are expected noise, not faults.
type Hub struct {
	origins []string
	logger  *slog.Logger

	// OnMessage receives every raw inbound frame. Set before serving.
	OnMessage func(ctx context.Context, raw []byte)

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan []byte
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewHub creates a Hub allowing handshakes from the given origin
// patterns (e.g. "viewday.app", "localhost:5173").
func NewHub(origins []string, logger *slog.Logger) *Hub {
	h := &Hub{
		origins:       origins,
		logger:        logger,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan []byte, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)

	clients := make(map[chan []byte]struct{})

	for {
		select {
		case <-h.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-h.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-h.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case msg := <-h.publishCh:
			for ch := range clients {
				select {
				case ch <- msg:
				default:
					// Client buffer full; skip to avoid blocking the loop.
				}
			}

		case resp := <-h.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the loop and closes all client channels.
func (h *Hub) Close() {
	if h.closed.CompareAndSwap(false, true) {
		close(h.stopCh)
	}
	<-h.stopped
}

// Publish marshals v and broadcasts it to every connected surface.
// Fire-and-forget: no acknowledgement, no retry.
func (h *Hub) Publish(v any) {
	if h.closed.Load() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("hub: marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case h.publishCh <- payload:
	case <-h.stopped:
	}
}

// Subscribe adds a new client and returns its channel.
func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if h.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case h.subscribeCh <- ch:
	case <-h.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(ch chan []byte) {
	if h.closed.Load() {
		return
	}
	select {
	case h.unsubscribeCh <- ch:
	case <-h.stopped:
	}
}

// ClientCount returns the number of connected surfaces.
func (h *Hub) ClientCount() int {
	if h.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case h.countReqCh <- resp:
	case <-h.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-h.stopped:
		return 0
	}
}
