package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 5 * time.Second

// ServeHTTP upgrades the request to a WebSocket connection. The
// handshake enforces the origin allow-list; a rejected origin never
// reaches message handling.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		// Untrusted origins land here; expected noise, not a fault.
		h.logger.Debug("hub: handshake rejected",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	out := h.Subscribe()
	defer h.Unsubscribe(out)

	// Writer: pump broadcast payloads to this connection.
	writeDone := make(chan struct{})
	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()
	go func() {
		defer close(writeDone)
		for {
			select {
			case <-writeCtx.Done():
				return
			case msg, ok := <-out:
				if !ok {
					return
				}
				if err := h.writeFrame(writeCtx, conn, msg); err != nil {
					return
				}
			}
		}
	}()

	// Reader: hand every inbound frame to the dispatcher.
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				h.logger.Debug("hub: read ended", slog.String("error", err.Error()))
			}
			break
		}
		if h.OnMessage != nil {
			h.OnMessage(ctx, raw)
		}
	}

	cancelWrite()
	<-writeDone
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) writeFrame(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, msg)
}
