package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"latency-dashboard/internal/logger"
	"latency-dashboard/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is a message from the page
type wsRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsMessage is a message pushed to the page
type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type startRequest struct {
	IPAddresses string   `json:"ip_addresses"`
	NumPings    *flexInt `json:"num_pings"`
}

// flexInt accepts a JSON number or a numeric string; anything else decodes to 0
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// wsConn serializes writes; gorilla connections allow one concurrent writer
type wsConn struct {
	conn   *websocket.Conn
	logger *zap.Logger
	mu     sync.Mutex
}

func (c *wsConn) send(msgType string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(wsMessage{Type: msgType, Payload: payload}); err != nil {
		c.logger.Debug("websocket write failed", zap.String("type", msgType), zap.Error(err))
	}
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// handleWS hosts measurement sessions for one page. A disconnect abandons
// the running session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := logger.FromContext(ctx, s.Logger)
	c := &wsConn{conn: conn, logger: log}
	sink := &wsSink{server: s, conn: c, ctx: ctx}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	requests := make(chan wsRequest, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var req wsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				c.send("alert", alertPayload{Message: "Malformed message", Severity: session.SeverityWarning})
				continue
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("websocket connected")
	sink.RefreshHistory()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var current *session.Session
	for {
		select {
		case req := <-requests:
			switch req.Type {
			case "start_measurement":
				current = s.startSession(ctx, current, sink, req.Payload)
			case "refresh_history":
				sink.RefreshHistory()
			default:
				log.Debug("unknown websocket message", zap.String("type", req.Type))
				c.send("alert", alertPayload{Message: "Unknown message type: " + req.Type, Severity: session.SeverityWarning})
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				log.Debug("websocket ping failed", zap.Error(err))
				return
			}
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket closed", zap.Error(err))
			} else {
				log.Info("websocket disconnected")
			}
			return
		}
	}
}

// startSession returns the session that now owns the page. A start request
// during a running measurement is rejected by that session; a finished
// session is replaced by a new one.
func (s *Server) startSession(ctx context.Context, current *session.Session, sink session.Sink, payload json.RawMessage) *session.Session {
	var req startRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			sink.ShowAlert("Invalid start request", session.SeverityWarning)
			return current
		}
	}

	samples := 0
	if req.NumPings != nil {
		samples = int(*req.NumPings)
	} else {
		settings, err := s.Store.GetSettings(ctx)
		if err != nil {
			sink.ShowAlert("Could not load settings: "+err.Error(), session.SeverityDanger)
			return current
		}
		samples = settings.DefaultPings
	}

	if current != nil {
		err := current.Start(ctx, req.IPAddresses, samples)
		switch {
		case err == nil:
			go current.Run(ctx)
			return current
		case !errors.Is(err, session.ErrFinished):
			return current
		}
	}

	next := session.New(s.Engine, sink,
		session.WithLogger(logger.FromContext(ctx, s.Logger)),
		session.WithMetrics(s.Metrics))
	if err := next.Start(ctx, req.IPAddresses, samples); err != nil {
		return next
	}
	go next.Run(ctx)
	return next
}
