// Package wsrelay pushes capture events to browser clients over websocket
// and answers their prefill requests.
package wsrelay

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxReadBytes  = 64 << 10
	sessionBuffer = 32
)

// Hub upgrades HTTP requests and streams manager events to each session.
type Hub struct {
	manager  *capture.Manager
	upgrader websocket.Upgrader
	sessions atomic.Int64
}

// NewHub builds a hub over m. checkOrigin may be nil to accept any origin.
func NewHub(m *capture.Manager, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		manager: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Sessions reports the number of connected clients.
func (h *Hub) Sessions() int64 { return h.sessions.Load() }

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("wsrelay: upgrade failed")
		return
	}
	n := h.sessions.Add(1)
	log.WithFields(log.Fields{"remote": r.RemoteAddr, "sessions": n}).Debug("wsrelay: session opened")
	defer func() {
		n := h.sessions.Add(-1)
		log.WithFields(log.Fields{"remote": r.RemoteAddr, "sessions": n}).Debug("wsrelay: session closed")
	}()

	h.serve(r.Context(), conn)
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	events, cancel := h.manager.Subscribe(sessionBuffer)
	defer cancel()

	replies := make(chan Message, 8)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(done)
		h.readLoop(ctx, conn, replies, quit)
	}()

	if err := writeJSON(conn, Message{Type: MessageTypeHello}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeJSON(conn, FromEvent(ev)); err != nil {
				return
			}
		case msg := <-replies:
			if err := writeJSON(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop owns all reads on conn; replies are handed to the writer.
func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, replies chan<- Message, quit <-chan struct{}) {
	conn.SetReadLimit(maxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("wsrelay: read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		var reply Message
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = ErrorMessage("", err)
		} else {
			reply = h.handle(ctx, msg)
		}
		select {
		case replies <- reply:
		case <-quit:
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, msg Message) Message {
	switch msg.Type {
	case MessageTypePing:
		return Message{ID: msg.ID, Type: MessageTypePong}
	case MessageTypeConsumePrefill:
		p, ok, err := h.manager.ConsumePrefill(ctx)
		if err != nil {
			log.WithError(err).Warn("wsrelay: consume prefill failed")
			return ErrorMessage(msg.ID, err)
		}
		return PrefillMessage(msg.ID, p, ok)
	}
	return Message{ID: msg.ID, Type: MessageTypeError, Payload: map[string]any{"error": "unknown message type: " + msg.Type}}
}

func writeJSON(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
