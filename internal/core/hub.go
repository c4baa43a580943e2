package core

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// Hub owns the registry and every session. Connect, Dispatch and Disconnect
// each run under one lock, so a membership change and the presence update it
// triggers are observed atomically by all clients.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	registry *Registry
	router   *Router
	presence *Presence
	newID    func() string
	log      *zerolog.Logger
	closed   bool
}

// Option customizes a Hub.
type Option func(*Hub)

// WithClock overrides the clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.router.now = now
	}
}

// WithIDGenerator overrides how connection ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(h *Hub) {
		h.newID = gen
	}
}

// NewHub creates a relay hub. A nil logger disables logging.
func NewHub(logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry()
	h := &Hub{
		sessions: make(map[string]*Session),
		registry: registry,
		router:   NewRouter(registry, time.Now, logger),
		presence: NewPresence(registry, logger),
		newID:    utils.NewID,
		log:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect starts an unauthenticated session for conn.
func (h *Hub) Connect(conn Conn) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	id := h.newID()
	for {
		if _, taken := h.sessions[id]; !taken {
			break
		}
		id = h.newID()
	}

	sess := newSession(id, conn)
	h.sessions[id] = sess
	h.log.Info().Str("client_id", id).Int("connections", len(h.sessions)).Msg("connection opened")
	return sess, nil
}

// Dispatch processes one raw frame received on the connection id.
func (h *Hub) Dispatch(id string, frame []byte) {
	in, err := proto.Decode(frame)
	if err != nil {
		h.log.Warn().Err(err).Str("client_id", id).Int("bytes", len(frame)).Msg("drop malformed envelope")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok || sess.State() == StateClosed {
		h.log.Debug().Str("client_id", id).Msg("frame for unknown session")
		return
	}

	switch in.Type {
	case proto.KindAuth:
		h.authenticate(sess, in)
	case proto.KindGetUsers:
		if !h.gate(sess, in) {
			return
		}
		h.presence.SendTo(sess.Conn)
	case proto.KindEncryptedMsg, proto.KindFileStart, proto.KindFileChunk, proto.KindFileComplete:
		if !h.gate(sess, in) {
			return
		}
		h.route(sess, in)
	case proto.KindWelcome, proto.KindUserList, proto.KindError:
		h.log.Debug().Str("client_id", id).Str("type", string(in.Type)).Msg("ignore server-only envelope from client")
	default:
		h.log.Debug().Str("client_id", id).Str("type", string(in.Type)).Msg("ignore unknown envelope type")
	}
}

// Disconnect ends the session for id. Only the first call for a connection
// unregisters it and broadcasts presence; later calls return false.
func (h *Hub) Disconnect(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok || !sess.close() {
		return false
	}
	delete(h.sessions, id)

	if rec, registered := h.registry.Lookup(id); registered && h.registry.Unregister(id) {
		h.log.Info().Str("client_id", id).Str("name", rec.Name).Int("online", h.registry.Len()).Msg("client left")
		h.presence.BroadcastToAll()
	} else {
		h.log.Info().Str("client_id", id).Msg("connection closed before auth")
	}
	return true
}

// Users returns the current presence snapshot.
func (h *Hub) Users() []proto.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Snapshot()
}

// Online returns the number of authenticated clients.
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Len()
}

// Reply sends an error envelope to the connection id, outside normal routing.
func (h *Hub) Reply(id, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	reply(h.log, sess.Conn, proto.NewError(message))
	return nil
}

// Shutdown refuses new connections and closes every open one. Each closed
// connection still goes through Disconnect from its transport.
func (h *Hub) Shutdown(reason string) {
	h.mu.Lock()
	h.closed = true
	conns := make([]Conn, 0, len(h.sessions))
	for _, sess := range h.sessions {
		conns = append(conns, sess.Conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Close(reason); err != nil && !errors.Is(err, ErrConnClosed) {
			h.log.Warn().Err(err).Msg("close connection on shutdown")
		}
	}
	h.log.Info().Int("connections", len(conns)).Msg("hub shut down")
}

func (h *Hub) authenticate(sess *Session, in *proto.Inbound) {
	rec := h.registry.Register(sess.ID, in.Name, in.PublicKey, sess.Conn)
	sess.authenticate()

	h.log.Info().
		Str("client_id", rec.ID).
		Str("name", rec.Name).
		Str("key_fp", utils.Fingerprint(rec.PublicKey)).
		Int("online", h.registry.Len()).
		Msg("client authenticated")

	reply(h.log, sess.Conn, proto.NewWelcome(rec.ID, rec.Name))
	h.presence.BroadcastToAll()
}

func (h *Hub) gate(sess *Session, in *proto.Inbound) bool {
	if sess.Authenticated() {
		return true
	}
	h.log.Debug().Str("client_id", sess.ID).Str("type", string(in.Type)).Msg("reject unauthenticated envelope")
	reply(h.log, sess.Conn, proto.NewError(proto.MsgNotAuthenticated))
	return false
}

func (h *Hub) route(sess *Session, in *proto.Inbound) {
	sender, ok := h.registry.Lookup(sess.ID)
	if !ok {
		h.log.Error().Str("client_id", sess.ID).Msg("authenticated session missing from registry")
		return
	}

	delivered, err := h.router.Route(sender, in)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", sess.ID).Str("type", string(in.Type)).Msg("route envelope")
		return
	}
	h.log.Debug().
		Str("client_id", sess.ID).
		Str("type", string(in.Type)).
		Str("to", in.To).
		Int("delivered", delivered).
		Msg("relayed")
}
