package core

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Presence pushes the membership list to clients.
type Presence struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewPresence builds a notifier reading from registry.
func NewPresence(registry *Registry, logger *zerolog.Logger) *Presence {
	return &Presence{registry: registry, log: logger}
}

// Payload returns the current user_list envelope.
func (p *Presence) Payload() proto.UserList {
	return proto.NewUserList(p.registry.Snapshot())
}

// SendTo delivers the user list to a single connection.
func (p *Presence) SendTo(conn Conn) {
	frame, err := json.Marshal(p.Payload())
	if err != nil {
		p.log.Error().Err(err).Msg("encode user list")
		return
	}
	deliver(p.log, conn, frame)
}

// BroadcastToAll delivers the user list to every registered connection.
func (p *Presence) BroadcastToAll() {
	frame, err := json.Marshal(p.Payload())
	if err != nil {
		p.log.Error().Err(err).Msg("encode user list")
		return
	}
	p.registry.ForEachExcept("", func(rec *ClientRecord) {
		deliver(p.log, rec.Conn, frame)
	})
}

// deliver is fire-and-forget: a closed or saturated peer just loses the frame.
func deliver(logger *zerolog.Logger, conn Conn, frame []byte) bool {
	if conn == nil || !conn.Open() {
		return false
	}
	if err := conn.Send(frame); err != nil {
		logger.Debug().Err(err).Msg("drop outbound frame")
		return false
	}
	return true
}

// reply encodes v and sends it to conn.
func reply(logger *zerolog.Logger, conn Conn, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("encode reply")
		return
	}
	deliver(logger, conn, frame)
}
