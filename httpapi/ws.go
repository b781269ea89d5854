package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"social-lab/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsSink adapts one websocket connection to the presence.Sink contract.
// Events go through a buffered channel consumed by a single writer
// goroutine, since gorilla connections allow only one concurrent writer.
type wsSink struct {
	conn   *websocket.Conn
	events chan presence.Event
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func newWSSink(log *slog.Logger, conn *websocket.Conn, bufferSize int) *wsSink {
	return &wsSink{
		conn:   conn,
		events: make(chan presence.Event, bufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Deliver hands the event to the writer without blocking the sender's
// request. A full buffer means the client is not keeping up; the event is
// dropped since push is best-effort.
func (s *wsSink) Deliver(evt presence.Event) error {
	select {
	case s.events <- evt:
		return nil
	case <-s.done:
		return fmt.Errorf("connection closed")
	default:
		s.log.Warn("dropping event, connection backpressure", "event", evt.Type)
		return nil
	}
}

func (s *wsSink) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *wsSink) writeLoop() {
	defer s.conn.Close()
	for {
		select {
		case evt := <-s.events:
			if err := s.conn.WriteJSON(evt); err != nil {
				s.log.Warn("websocket write failed", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

type WSHandler struct {
	registry   *presence.Registry
	bufferSize int
	log        *slog.Logger
}

func NewWSHandler(log *slog.Logger, registry *presence.Registry, bufferSize int) *WSHandler {
	return &WSHandler{registry: registry, bufferSize: bufferSize, log: log}
}

// Connect upgrades the request and binds the connection to the identity the
// client supplied in the handshake. The registry trusts this value directly;
// signature checks happen at the earlier HTTP session-gate layer, not here.
// After the connect and after the eventual disconnect, the online set is
// broadcast to every connected party.
func (h *WSHandler) Connect(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId is required", "success": false})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	sink := newWSSink(h.log, conn, h.bufferSize)
	go sink.writeLoop()

	h.registry.Connect(userID, sink)
	h.registry.BroadcastOnline()
	h.log.Info("client connected", "user_id", userID)

	// Block reading until the client goes away. Inbound frames carry no
	// commands; messages are sent over the HTTP API.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.registry.Disconnect(userID, sink)
	sink.Close()
	h.registry.BroadcastOnline()
	h.log.Info("client disconnected", "user_id", userID)
}
