package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	writeTimeout    = 10 * time.Second
	outboundBuffer  = 32
	eventJoin       = "join"
	eventJoinAck    = "joinConfirmation"
	maxInboundBytes = 4096
)

// inboundFrame is what clients send: currently only join requests.
type inboundFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	UserID string `json:"user_id"`
}

// WebSocketServer is the thin transport adapter: it upgrades HTTP requests
// and translates connection events into registry calls. All routing logic
// lives in the Hub.
type WebSocketServer struct {
	upgrader websocket.FastHTTPUpgrader
	registry *Registry
	logger   *zap.Logger
}

func NewWebSocketServer(registry *Registry, logger *zap.Logger) *WebSocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketServer{
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*fasthttp.RequestCtx) bool { return true },
		},
		registry: registry,
		logger:   logger,
	}
}

// Handle upgrades the request and serves the connection until it closes.
func (s *WebSocketServer) Handle(ctx *fasthttp.RequestCtx) {
	err := s.upgrader.Upgrade(ctx, s.serve)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

func (s *WebSocketServer) serve(conn *websocket.Conn) {
	ch := NewChannel(outboundBuffer)
	s.logger.Info("client connected", zap.String("channel_id", ch.ID()))

	done := make(chan struct{})
	go s.writeLoop(conn, ch, done)

	conn.SetReadLimit(maxInboundBytes)
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		if frame.Event != eventJoin {
			continue
		}

		var join joinPayload
		if err := json.Unmarshal(frame.Payload, &join); err != nil {
			s.logger.Warn("malformed join payload", zap.String("channel_id", ch.ID()), zap.Error(err))
			continue
		}
		if s.registry.Join(ch, join.UserID) {
			ch.Push(Message{
				Event:   eventJoinAck,
				Payload: map[string]string{"message": fmt.Sprintf("Joined room for user: %s", join.UserID)},
			})
		}
	}

	s.registry.Leave(ch)
	ch.Close()
	<-done
	_ = conn.Close()
	s.logger.Info("client disconnected", zap.String("channel_id", ch.ID()))
}

func (s *WebSocketServer) writeLoop(conn *websocket.Conn, ch *Channel, done chan<- struct{}) {
	defer close(done)
	for msg := range ch.Outbound() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("write failed, dropping connection", zap.String("channel_id", ch.ID()), zap.Error(err))
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
