package core

import (
	"encoding/json"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Registry maps connection ids to authenticated clients.
// It is not safe for concurrent use; the Hub serializes every call.
type Registry struct {
	clients map[string]*ClientRecord
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*ClientRecord),
	}
}

// Register inserts or overwrites the record for id. Names are not keys and may repeat.
func (r *Registry) Register(id, name string, publicKey json.RawMessage, conn Conn) *ClientRecord {
	rec := &ClientRecord{
		ID:        id,
		Name:      name,
		PublicKey: publicKey,
		Conn:      conn,
	}
	r.clients[id] = rec
	return rec
}

// Unregister deletes the record for id. Returns true if it was present.
func (r *Registry) Unregister(id string) bool {
	if _, exists := r.clients[id]; !exists {
		return false
	}
	delete(r.clients, id)
	return true
}

// Lookup resolves a unicast destination.
func (r *Registry) Lookup(id string) (*ClientRecord, bool) {
	rec, ok := r.clients[id]
	return rec, ok
}

// Snapshot returns the public view of every record, in no particular order.
func (r *Registry) Snapshot() []proto.User {
	users := make([]proto.User, 0, len(r.clients))
	for _, rec := range r.clients {
		users = append(users, proto.User{
			ID:        rec.ID,
			Name:      rec.Name,
			PublicKey: rec.PublicKey,
		})
	}
	return users
}

// ForEachExcept calls fn for every record other than excludeID whose
// connection is still open.
func (r *Registry) ForEachExcept(excludeID string, fn func(*ClientRecord)) {
	for id, rec := range r.clients {
		if id == excludeID {
			continue
		}
		if rec.Conn == nil || !rec.Conn.Open() {
			continue
		}
		fn(rec)
	}
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return len(r.clients)
}
