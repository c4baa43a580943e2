package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub *core.Hub
	cfg *config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := newWSConn(h.cfg.SendQueueSize)
	sess, err := h.hub.Connect(client)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.Disconnect(sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	limiter := newRateLimiter(h.cfg.RateLimit, h.cfg.RateBurst)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess.ID, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	client.markClosed()
	h.hub.Disconnect(sess.ID)

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errClosedByServer):
		status = websocket.StatusGoingAway
		reason = client.closeReason()
	case err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF):
		switch s := websocket.CloseStatus(err); s {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			status = s
		case -1:
			status = websocket.StatusInternalError
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", sess.ID).Msg("ws connection closed with error")
		default:
			status = s
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	_ = conn.Close(status, truncateReason(reason))
	cancel() // stop the other goroutine
	<-errCh
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.cfg.AllowedOrigins) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.cfg.AllowedOrigins}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, id string, limiter *rateLimiter) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", id).Msg("read ws frame")
			return err
		}

		if !limiter.allow() {
			h.log.Debug().Str("client_id", id).Msg("rate limit exceeded; dropping frame")
			if replyErr := h.hub.Reply(id, proto.MsgRateLimited); replyErr != nil {
				return replyErr
			}
			continue
		}

		h.hub.Dispatch(id, data)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsConn) error {
	for {
		select {
		case frame := <-client.out:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Debug().Err(err).Msg("write ws frame")
				return err
			}
		case <-client.done:
			return errClosedByServer
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// truncateReason keeps close reasons within the 123 bytes a close frame allows.
func truncateReason(reason string) string {
	const maxReason = 123
	if len(reason) <= maxReason {
		return reason
	}
	return reason[:maxReason]
}
