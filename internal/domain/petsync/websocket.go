package petsync

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"rosie/internal/domain/mood"
	"rosie/internal/middleware"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/audio"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

type wsHandler struct {
	ctrl     *Controller
	cues     audio.CueSource
	log      logger.Logger
	upgrader websocket.Upgrader
}

func newWSHandler(ctrl *Controller, cues audio.CueSource, log logger.Logger) *wsHandler {
	return &wsHandler{
		ctrl: ctrl,
		cues: cues,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// inboundMessage: {"type":"action","action":"feed"}
type inboundMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *wsHandler) serve(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", map[string]any{"err": err.Error()})
		return
	}
	defer conn.Close()

	log := h.log.With(map[string]any{"user_id": claims.UserID})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess, err := h.ctrl.Open(ctx, claims)
	if err != nil {
		log.Warn("open pet session failed", map[string]any{"err": err.Error()})
		_ = conn.WriteJSON(outgoingMessage{Type: "error", Data: err.Error(), Timestamp: time.Now().UnixMilli()})
		return
	}
	defer sess.Close()

	var cues <-chan audio.Cue
	if h.cues != nil {
		var detach func()
		cues, detach = h.cues.Attach(claims.UserID)
		defer detach()
	}

	replies := make(chan outgoingMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close() // desbloquea ReadJSON si el escritor cae
		defer cancel()
		h.writeLoop(ctx, conn, sess, cues, replies, log)
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	log.Info("pet websocket connected", nil)
	h.readLoop(ctx, conn, sess, replies, log)

	cancel()
	<-writerDone
	log.Info("pet websocket closed", nil)
}

func (h *wsHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *Session, replies chan<- outgoingMessage, log logger.Logger) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read error", map[string]any{"err": err.Error()})
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		reply := h.handleMessage(ctx, sess, msg)
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *wsHandler) handleMessage(ctx context.Context, sess *Session, msg inboundMessage) outgoingMessage {
	now := time.Now().UnixMilli()
	switch msg.Type {
	case "action":
		action, err := mood.ParseAction(msg.Action)
		if err != nil {
			return outgoingMessage{Type: "error", Data: err.Error(), Timestamp: now}
		}
		res, err := sess.Apply(ctx, action)
		if err != nil {
			return outgoingMessage{Type: "error", Data: err.Error(), Timestamp: now}
		}
		return outgoingMessage{Type: "result", Data: toActionResponse(res), Timestamp: now}
	case "status":
		return outgoingMessage{Type: "status", Data: sess.Status(), Timestamp: now}
	default:
		return outgoingMessage{Type: "error", Data: "unknown message type", Timestamp: now}
	}
}

// writeLoop es el único escritor de la conexión.
func (h *wsHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *Session, cues <-chan audio.Cue, replies <-chan outgoingMessage, log logger.Logger) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	records := sess.Records()
	sentReady := false

	write := func(m outgoingMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(m); err != nil {
			log.Debug("websocket write failed", map[string]any{"err": err.Error()})
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			now := time.Now().UnixMilli()
			if !sentReady {
				sentReady = true
				if !write(outgoingMessage{Type: "status", Data: StatusReady, Timestamp: now}) {
					return
				}
			}
			if !write(outgoingMessage{Type: "pet", Data: toPetResponse(rec), Timestamp: now}) {
				return
			}
		case c, ok := <-cues:
			if !ok {
				cues = nil
				continue
			}
			if !write(outgoingMessage{Type: "audio", Data: c, Timestamp: time.Now().UnixMilli()}) {
				return
			}
		case m := <-replies:
			if !write(m) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
