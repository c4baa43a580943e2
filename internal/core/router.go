package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Router forwards client envelopes to one or all other clients.
type Router struct {
	registry *Registry
	now      func() time.Time
	log      *zerolog.Logger
}

// NewRouter builds a router resolving destinations through registry.
func NewRouter(registry *Registry, now func() time.Time, logger *zerolog.Logger) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{registry: registry, now: now, log: logger}
}

// Route relays in on behalf of sender and returns how many connections received it.
// Unicast to an unknown or closed recipient replies "recipient not found" to sender.
func (r *Router) Route(sender *ClientRecord, in *proto.Inbound) (int, error) {
	frame, err := r.outbound(sender, in)
	if err != nil {
		return 0, err
	}

	if in.Broadcast() {
		delivered := 0
		r.registry.ForEachExcept(sender.ID, func(rec *ClientRecord) {
			if deliver(r.log, rec.Conn, frame) {
				delivered++
			}
		})
		return delivered, nil
	}

	recipient, ok := r.registry.Lookup(in.To)
	if !ok || recipient.Conn == nil || !recipient.Conn.Open() {
		reply(r.log, sender.Conn, proto.NewError(proto.MsgRecipientNotFound))
		return 0, nil
	}
	if deliver(r.log, recipient.Conn, frame) {
		return 1, nil
	}
	return 0, nil
}

func (r *Router) outbound(sender *ClientRecord, in *proto.Inbound) ([]byte, error) {
	var v any
	switch in.Type {
	case proto.KindEncryptedMsg:
		v = proto.NewEncryptedMsg(in, sender.Name, sender.ID, r.now().UnixMilli())
	case proto.KindFileStart, proto.KindFileChunk, proto.KindFileComplete:
		relayed, err := proto.Relayed(in, sender.Name, sender.ID)
		if err != nil {
			return nil, err
		}
		v = relayed
	default:
		return nil, fmt.Errorf("route %q: not a relayed kind", in.Type)
	}

	frame, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", in.Type, err)
	}
	return frame, nil
}
