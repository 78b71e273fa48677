package handlers

import (
	"net/http"
	"time"

	"intelliinspect/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	sendBuffer = 64
)

const envelopeSnapshot = "snapshot"

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// liveTopics are streamed to every client; TopicReset is always delivered.
var liveTopics = []state.Topic{state.TopicRunning, state.TopicWindow, state.TopicStatistics}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.originAllowed(origin)
		},
	}
}

// envelopeFor picks the part of snap that changed.
func envelopeFor(topic state.Topic, snap state.Snapshot) wsEnvelope {
	switch topic {
	case state.TopicRunning:
		return wsEnvelope{Type: string(topic), Data: gin.H{"running": snap.Running}}
	case state.TopicWindow:
		return wsEnvelope{Type: string(topic), Data: snap.Window}
	case state.TopicStatistics:
		return wsEnvelope{Type: string(topic), Data: snap.Statistics}
	default:
		return wsEnvelope{Type: string(topic), Data: snap}
	}
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	h.opts.Metrics.WSConnected()
	defer h.opts.Metrics.WSDisconnected()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	// Listeners run on the mutating goroutine, so they only enqueue. A client
	// that falls behind misses updates until the next reset or reconnect.
	out := make(chan wsEnvelope, sendBuffer)
	unsubscribe := h.store.Subscribe(func(topic state.Topic, snap state.Snapshot) {
		select {
		case out <- envelopeFor(topic, snap):
		default:
			if h.log != nil {
				h.log.Debugw("ws_client_slow_update_dropped", "topic", topic)
			}
		}
	}, liveTopics...)
	defer unsubscribe()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.writeEnvelope(conn, wsEnvelope{Type: envelopeSnapshot, Data: h.store.Snapshot()}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case env := <-out:
			if err := h.writeEnvelope(conn, env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "type", env.Type)
				}
				return
			}
		}
	}
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
